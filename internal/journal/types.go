package journal

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("journal disabled")

// Config configures the iteration journal.
//
// Driver values:
//   - "file": dependency-free JSONL backend
//   - "sqlite": SQLite database file (build with -tags sqlite)
//
// If Driver is empty or "none", the journal is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Entry records the outcome of one poll iteration. Keep it compact and
// schema-stable; the loop never reads entries back.
type Entry struct {
	At      time.Time `json:"at"`
	Outcome string    `json:"outcome"` // ok | empty | notified | error | notify_failed
	Status  string    `json:"status,omitempty"`
	Text    string    `json:"text,omitempty"`
	Error   string    `json:"error,omitempty"`
	Cursor  int64     `json:"cursor,omitempty"`
}
