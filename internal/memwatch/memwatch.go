// Package memwatch periodically samples system memory and warns when
// usage crosses a configured threshold, guarding against the
// multi-megapacket memory pressure scenarios the flow table can
// accumulate under (spec section 1).
package memwatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/jroosing/dnsflowmeter/internal/logging"
)

// Watcher samples system memory usage on an interval and logs at warn
// level once usage crosses thresholdPercent.
type Watcher struct {
	interval         time.Duration
	thresholdPercent float64
	logger           *slog.Logger
}

// New creates a Watcher sampling every interval, warning once used
// memory exceeds thresholdPercent (0-100).
func New(interval time.Duration, thresholdPercent float64, logger *slog.Logger) *Watcher {
	return &Watcher{
		interval:         interval,
		thresholdPercent: thresholdPercent,
		logger:           logging.WithComponent(logger, "memwatch"),
	}
}

// Run blocks sampling memory until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sample()
		}
	}
}

func (w *Watcher) sample() {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return
	}
	if vm.UsedPercent >= w.thresholdPercent {
		w.logger.Warn("memory usage above threshold",
			"used_percent", vm.UsedPercent,
			"threshold_percent", w.thresholdPercent,
			"used_mb", float64(vm.Used)/1024/1024,
			"total_mb", float64(vm.Total)/1024/1024,
		)
	}
}
