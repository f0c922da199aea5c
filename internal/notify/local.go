package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/recur/internal/clock"
	"github.com/julianstephens/recur/internal/logger"
	"github.com/julianstephens/recur/internal/models"
)

// Local holds the pending plan in process and delivers each notification
// through a Sender once its FireAt has passed.
type Local struct {
	mu      sync.Mutex
	pending []models.Notification
	sender  Sender
	clock   clock.Clock
}

func NewLocal(sender Sender, c clock.Clock) *Local {
	return &Local{sender: sender, clock: c}
}

// Replace cancels everything pending and schedules plan instead.
func (l *Local) Replace(ctx context.Context, plan []models.Notification) error {
	next := append([]models.Notification(nil), plan...)
	sort.SliceStable(next, func(i, j int) bool { return next[i].FireAt.Before(next[j].FireAt) })

	l.mu.Lock()
	cancelled := len(l.pending)
	l.pending = next
	l.mu.Unlock()

	logger.Debug("Replaced pending notifications", "cancelled", cancelled, "scheduled", len(next))
	return nil
}

// Pending returns a copy of the scheduled notifications
func (l *Local) Pending() []models.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Notification(nil), l.pending...)
}

// Dispatch sends every pending notification whose FireAt is not after now
// and drops it from the pending set, delivered or not. It returns how many
// were delivered.
func (l *Local) Dispatch(ctx context.Context) int {
	now := l.clock.Now()

	l.mu.Lock()
	var due []models.Notification
	rest := l.pending[:0:0]
	for _, n := range l.pending {
		if n.FireAt.After(now) {
			rest = append(rest, n)
		} else {
			due = append(due, n)
		}
	}
	l.pending = rest
	l.mu.Unlock()

	sent := 0
	for _, n := range due {
		if err := l.sender.Send(ctx, n); err != nil {
			logger.Warn("Failed to deliver notification", "id", n.ID, "error", err)
			continue
		}
		sent++
	}
	return sent
}

// Run dispatches on every tick until ctx is cancelled.
func (l *Local) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Dispatch(ctx)
		}
	}
}
