// Package journal persists a durable record of every poll iteration's
// outcome, so operators can reconstruct what the bot saw and sent. It is an
// append-only log, not loop state: nothing is read back at runtime.
package journal

import (
	"context"
	"errors"
	"strings"

	"hwbot/pkg/logx"
)

// Store is the minimal persistence API used by the app.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if the journal is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown journal driver: " + driver)
	}
}
