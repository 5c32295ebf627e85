package config

import (
	"fmt"
	"strings"
)

// Config holds operational settings loaded from the config file.
// Credentials never live here; see Credentials (environment only).
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Practicum PracticumConfig `json:"practicum"`
	Poll      PollConfig      `json:"poll"`
	Telegram  TelegramConfig  `json:"telegram"`
	Logging   LoggingConfig   `json:"logging"`
	Notifier  NotifierConfig  `json:"notifier"`
	Journal   *JournalConfig  `json:"journal,omitempty"`
}

// PracticumConfig controls the homework-status API client.
type PracticumConfig struct {
	// Endpoint overrides the default status URL (tests, staging).
	Endpoint string `json:"endpoint,omitempty"`
	// RequestTimeout bounds a single status GET.
	RequestTimeout string `json:"request_timeout,omitempty"`
}

// PollConfig controls the poll loop cadence.
type PollConfig struct {
	// Schedule accepts an interval ("10m", "02:30") or a cron expression
	// ("cron:*/10 * * * *", "@hourly"). Default: "10m".
	Schedule string `json:"schedule,omitempty"`
}

type TelegramConfig struct {
	// PollTimeout is the long-poll timeout for incoming updates.
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// NotifierConfig controls outbound message pacing.
type NotifierConfig struct {
	RatePerSec  int    `json:"rate_per_sec,omitempty"`
	SendTimeout string `json:"send_timeout,omitempty"`
}

// JournalConfig controls the optional durable iteration journal.
//
// Driver values:
//   - "file": dependency-free JSONL backend
//   - "sqlite": SQLite database file (build with -tags sqlite)
//
// If the section is omitted or Driver is empty/"none", the journal is
// disabled.
type JournalConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Poll:     PollConfig{Schedule: "10m"},
		Logging:  LoggingConfig{Level: "INFO", Console: true},
		Notifier: NotifierConfig{RatePerSec: 1},
	}
}

// Validate checks field-level constraints that don't need runtime context.
func (c *Config) Validate() error {
	if _, err := ParseDurationField("practicum.request_timeout", c.Practicum.RequestTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("telegram.poll_timeout", c.Telegram.PollTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("notifier.send_timeout", c.Notifier.SendTimeout); err != nil {
		return err
	}
	if c.Notifier.RatePerSec < 0 {
		return fmt.Errorf("notifier.rate_per_sec must be >= 0")
	}
	if c.Journal != nil {
		switch strings.ToLower(strings.TrimSpace(c.Journal.Driver)) {
		case "", "none", "file", "sqlite", "sqlite3":
		default:
			return fmt.Errorf("journal.driver: unknown driver %q", c.Journal.Driver)
		}
		if _, err := ParseDurationField("journal.busy_timeout", c.Journal.BusyTimeout); err != nil {
			return err
		}
	}
	return nil
}
