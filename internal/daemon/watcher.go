package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/julianstephens/recur/internal/clock"
	"github.com/julianstephens/recur/internal/constants"
	"github.com/julianstephens/recur/internal/logger"
	"github.com/julianstephens/recur/internal/models"
	"github.com/julianstephens/recur/internal/notify"
	"github.com/julianstephens/recur/internal/tracker"
)

// Watcher polls medications and alerts when one is due at the current
// minute. Polling granularity bounds alert precision.
type Watcher struct {
	medications func() []models.Obligation
	sender      notify.Sender
	clock       clock.Clock
	// OnTick runs after every poll; the daemon hangs its refresh here.
	OnTick func(ctx context.Context)

	mu      sync.Mutex
	alerted map[string]bool
}

func NewWatcher(medications func() []models.Obligation, sender notify.Sender, c clock.Clock) *Watcher {
	return &Watcher{medications: medications, sender: sender, clock: c, alerted: map[string]bool{}}
}

// Check alerts for every reminding medication scheduled for this minute that
// has not been taken today. A delivered alert is not repeated the same day.
func (w *Watcher) Check(ctx context.Context) int {
	now := w.clock.Now()
	today := now.Format(constants.DateFormat)
	minute := now.Format(constants.TimeFormat)

	sent := 0
	for _, m := range tracker.MedicationsDueOn(w.medications(), now) {
		if !m.Remind || m.TimeOfDay != minute || m.Taken.Done(today) {
			continue
		}
		key := m.ID + "@" + today
		w.mu.Lock()
		seen := w.alerted[key]
		w.alerted[key] = true
		w.mu.Unlock()
		if seen {
			continue
		}

		err := w.sender.Send(ctx, models.Notification{
			ID:      "medication:" + m.ID + ":" + today,
			FireAt:  now,
			Title:   "Medication: " + m.Name,
			Body:    "Time to take " + m.Name,
			Channel: models.ChannelMedication,
		})
		if err != nil {
			logger.Warn("Medication alert failed", "id", m.ID, "error", err)
			w.mu.Lock()
			delete(w.alerted, key)
			w.mu.Unlock()
			continue
		}
		sent++
	}
	w.forgetBefore(today)
	return sent
}

func (w *Watcher) forgetBefore(today string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for key := range w.alerted {
		if key[len(key)-len(today):] < today {
			delete(w.alerted, key)
		}
	}
}

// Run polls every interval until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check(ctx)
			if w.OnTick != nil {
				w.OnTick(ctx)
			}
		}
	}
}
