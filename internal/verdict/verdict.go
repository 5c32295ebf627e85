// Package verdict maps homework review statuses to the human-readable
// sentences sent to the chat.
package verdict

import (
	"fmt"

	"hwbot/internal/practicum"
)

// Review status codes the API is known to report.
const (
	StatusReviewing = "reviewing"
	StatusRejected  = "rejected"
	StatusApproved  = "approved"
)

var verdicts = map[string]string{
	StatusReviewing: "The reviewer has taken your work for review.",
	StatusRejected:  "The work has been reviewed: the reviewer has comments.",
	StatusApproved:  "The work has been reviewed: the reviewer liked everything. Hooray!",
}

// UnknownStatusError reports a status code outside the known table. The
// iteration that observed it fails (recoverably); it is never skipped
// silently.
type UnknownStatusError struct {
	Code string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown homework status %q", e.Code)
}

// Format builds the verdict sentence for one homework record.
func Format(hw practicum.Homework) (string, error) {
	v, ok := verdicts[hw.Status]
	if !ok {
		return "", &UnknownStatusError{Code: hw.Status}
	}
	return fmt.Sprintf("Review status changed for %q. %s", hw.Name, v), nil
}

// EmptyState is the message for a valid response with zero homework
// records. Deliberately parameter-free: it describes a state, not a record.
func EmptyState() string {
	return "No submission is currently under review."
}
