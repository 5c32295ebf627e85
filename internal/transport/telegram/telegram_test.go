package telegram

import (
	"strings"
	"testing"

	"hwbot/pkg/logx"
)

func TestSplitTextShort(t *testing.T) {
	t.Parallel()
	got := SplitText("hello", 100)
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("got %v", got)
	}
}

func TestSplitTextPrefersNewlines(t *testing.T) {
	t.Parallel()
	text := strings.Repeat("line one\n", 10)
	got := SplitText(text, 40)
	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(got))
	}
	for i, chunk := range got {
		if len([]rune(chunk)) > 40 {
			t.Fatalf("chunk %d exceeds limit: %q", i, chunk)
		}
		if strings.HasSuffix(chunk, "\n") {
			t.Fatalf("chunk %d has trailing newline: %q", i, chunk)
		}
	}
}

func TestSplitTextNoNewlines(t *testing.T) {
	t.Parallel()
	text := strings.Repeat("a", 95)
	got := SplitText(text, 40)
	var total int
	for _, chunk := range got {
		if len([]rune(chunk)) > 40 {
			t.Fatalf("chunk exceeds limit: %d", len(chunk))
		}
		total += len(chunk)
	}
	if total != 95 {
		t.Fatalf("content lost: total = %d, want 95", total)
	}
}

func TestSplitTextUnicode(t *testing.T) {
	t.Parallel()
	text := strings.Repeat("я", 50)
	got := SplitText(text, 20)
	for i, chunk := range got {
		if n := len([]rune(chunk)); n > 20 {
			t.Fatalf("chunk %d has %d runes", i, n)
		}
	}
}

func TestNewRequiresToken(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{Token: "  "}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty token")
	}
}
