package daemon

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/julianstephens/recur/internal/clock"
	"github.com/julianstephens/recur/internal/constants"
	"github.com/julianstephens/recur/internal/logger"
	"github.com/julianstephens/recur/internal/notify"
	"github.com/julianstephens/recur/internal/planner"
)

// Loader returns the current planner input, typically reloaded from the store.
type Loader func(ctx context.Context) (planner.Input, error)

// Replanner runs load -> plan -> Replace. Every run replaces the full plan;
// the last run wins.
type Replanner struct {
	load      Loader
	planner   *planner.Planner
	service   notify.Service
	clock     clock.Clock
	debouncer *Debouncer

	mu   sync.Mutex
	last [sha256.Size]byte
	day  string
}

func NewReplanner(load Loader, p *planner.Planner, svc notify.Service, c clock.Clock, debounce *Debouncer) *Replanner {
	return &Replanner{load: load, planner: p, service: svc, clock: c, debouncer: debounce}
}

// Trigger schedules a debounced replan
func (r *Replanner) Trigger() {
	r.debouncer.Trigger()
}

// Replan plans from fresh input and hands the result to the service.
func (r *Replanner) Replan(ctx context.Context) error {
	in, err := r.load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load planner input: %w", err)
	}
	return r.apply(ctx, in, fingerprint(in))
}

// Refresh replans only when the input changed or the day rolled over since
// the last run.
func (r *Replanner) Refresh(ctx context.Context) error {
	in, err := r.load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load planner input: %w", err)
	}
	sum := fingerprint(in)
	today := r.clock.Now().Format(constants.DateFormat)

	r.mu.Lock()
	unchanged := sum == r.last && today == r.day
	r.mu.Unlock()
	if unchanged {
		return nil
	}
	return r.apply(ctx, in, sum)
}

func (r *Replanner) apply(ctx context.Context, in planner.Input, sum [sha256.Size]byte) error {
	now := r.clock.Now()
	plan := r.planner.Plan(now, in)
	if err := r.service.Replace(ctx, plan); err != nil {
		return fmt.Errorf("failed to replace notifications: %w", err)
	}
	r.mu.Lock()
	r.last = sum
	r.day = now.Format(constants.DateFormat)
	r.mu.Unlock()
	logger.Info("Replanned notifications", "count", len(plan))
	return nil
}

// Run serves debounced triggers until ctx is cancelled.
func (r *Replanner) Run(ctx context.Context) {
	r.debouncer.Run(ctx, func(ctx context.Context) {
		if err := r.Replan(ctx); err != nil {
			logger.Error("Replan failed", "error", err)
		}
	})
}

func fingerprint(in planner.Input) [sha256.Size]byte {
	data, err := json.Marshal(in)
	if err != nil {
		return [sha256.Size]byte{}
	}
	return sha256.Sum256(data)
}
