package app

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"hwbot/internal/runtime/supervisor"
	"hwbot/pkg/logx"
)

// sdNotifier integrates with systemd when the process runs as a Type=notify
// unit. Outside systemd every call is a cheap no-op.
type sdNotifier struct {
	log logx.Logger
}

func newSDNotifier(log logx.Logger) *sdNotifier {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &sdNotifier{log: log}
}

// Ready signals READY=1 and, if a watchdog is configured on the unit,
// starts a keepalive ticker at half the watchdog interval.
func (n *sdNotifier) Ready(sup *supervisor.Supervisor) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		n.log.Warn("sd_notify READY failed", logx.Err(err))
		return
	}
	if !sent {
		return
	}
	n.log.Debug("sd_notify READY sent")

	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return
	}
	sup.Go0("systemd.watchdog", func(ctx context.Context) {
		ticker := time.NewTicker(interval / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			}
		}
	})
}

// Stopping signals STOPPING=1 so systemd stops counting watchdog misses
// during shutdown.
func (n *sdNotifier) Stopping() {
	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		n.log.Warn("sd_notify STOPPING failed", logx.Err(err))
	}
}
