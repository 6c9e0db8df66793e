package main

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"vacancybot/internal/runtime/supervisor"
	"vacancybot/pkg/logx"
)

// notifyReady tells systemd the service is up and, when a watchdog is
// configured on the unit, keeps petting it. Outside systemd both calls are
// harmless no-ops.
func notifyReady(sup *supervisor.Supervisor, log logx.Logger) {
	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warn("sd_notify failed", logx.Err(err))
	} else if ok {
		log.Debug("sd_notify ready sent")
	}

	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return
	}

	sup.Go0("sd.watchdog", func(ctx context.Context) {
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
