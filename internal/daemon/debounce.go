package daemon

import (
	"context"
	"time"
)

// Debouncer coalesces bursts of Trigger calls: fn runs once, delay after the
// last trigger of a burst.
type Debouncer struct {
	delay   time.Duration
	trigger chan struct{}
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay, trigger: make(chan struct{}, 1)}
}

// Trigger (re)starts the quiet period. It never blocks.
func (d *Debouncer) Trigger() {
	select {
	case d.trigger <- struct{}{}:
	default:
	}
}

// Run calls fn after each quiet period until ctx is cancelled. A pending
// call is dropped on cancellation.
func (d *Debouncer) Run(ctx context.Context, fn func(context.Context)) {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.trigger:
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(d.delay)
			fire = timer.C
		case <-fire:
			fire = nil
			fn(ctx)
		}
	}
}
