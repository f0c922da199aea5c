// Package daemon runs the background side of recur: debounced replanning,
// the medication minute watcher and local delivery.
package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/julianstephens/recur/internal/logger"
)

// Dispatcher delivers pending notifications on a timer (notify.Local).
type Dispatcher interface {
	Run(ctx context.Context, interval time.Duration)
}

type Daemon struct {
	Replanner        *Replanner
	Watcher          *Watcher
	Dispatcher       Dispatcher
	PollInterval     time.Duration
	DispatchInterval time.Duration
}

// Run plans once, then serves until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Replanner.Replan(ctx); err != nil {
		return err
	}
	if d.Watcher.OnTick == nil {
		d.Watcher.OnTick = func(ctx context.Context) {
			if err := d.Replanner.Refresh(ctx); err != nil {
				logger.Warn("Refresh failed", "error", err)
			}
		}
	}

	var wg sync.WaitGroup
	start := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}
	start(func() { d.Replanner.Run(ctx) })
	start(func() { d.Watcher.Run(ctx, d.PollInterval) })
	if d.Dispatcher != nil {
		start(func() { d.Dispatcher.Run(ctx, d.DispatchInterval) })
	}

	logger.Info("Watching", "poll", d.PollInterval, "dispatch", d.DispatchInterval)
	<-ctx.Done()
	wg.Wait()
	return nil
}
