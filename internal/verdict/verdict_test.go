package verdict

import (
	"errors"
	"strings"
	"testing"

	"hwbot/internal/practicum"
)

func TestFormatKnownStatuses(t *testing.T) {
	t.Parallel()
	for _, status := range []string{StatusReviewing, StatusRejected, StatusApproved} {
		got, err := Format(practicum.Homework{Name: "hw1", Status: status})
		if err != nil {
			t.Fatalf("Format(%q) error: %v", status, err)
		}
		if !strings.Contains(got, `"hw1"`) {
			t.Fatalf("Format(%q) = %q, missing homework name", status, got)
		}
	}
}

func TestFormatUnknownStatus(t *testing.T) {
	t.Parallel()
	_, err := Format(practicum.Homework{Name: "hw1", Status: "in_progress"})

	var ue *UnknownStatusError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want *UnknownStatusError", err)
	}
	if ue.Code != "in_progress" {
		t.Fatalf("Code = %q", ue.Code)
	}
}

func TestVerdictsAreDistinct(t *testing.T) {
	t.Parallel()
	seen := map[string]string{}
	for status, text := range verdicts {
		if prev, ok := seen[text]; ok {
			t.Fatalf("statuses %q and %q share verdict text", prev, status)
		}
		seen[text] = status
	}
}
