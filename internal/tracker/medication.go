package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/recur/internal/constants"
	"github.com/julianstephens/recur/internal/models"
	"github.com/julianstephens/recur/internal/recurrence"
)

// InWindow reports whether date lies inside ob's start/end window. Permanent
// obligations ignore the end date; missing bounds are open.
func InWindow(ob models.Obligation, date time.Time) bool {
	day := date.Format(constants.DateFormat)
	if ob.StartDate != "" && day < ob.StartDate {
		return false
	}
	if !ob.Permanent && ob.EndDate != "" && day > ob.EndDate {
		return false
	}
	return true
}

// MedicationsDueOn returns the active medications scheduled on date, taken or not.
func MedicationsDueOn(obs []models.Obligation, date time.Time) []models.Obligation {
	var due []models.Obligation
	for _, ob := range obs {
		if ob.Active && InWindow(ob, date) && recurrence.IsDueOn(ob.Rule, date) {
			due = append(due, ob)
		}
	}
	return due
}

// TakenOn reports whether medication id was marked taken on date
func (t *Tracker) TakenOn(id string, date time.Time) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i := t.indexLocked(id)
	return i >= 0 && t.obligations[i].Taken.Done(date.Format(constants.DateFormat))
}

// ToggleTaken flips the taken marker of medication id for date and returns
// the new value. Un-taking deletes the entry.
func (t *Tracker) ToggleTaken(ctx context.Context, id string, date time.Time) (bool, error) {
	day := date.Format(constants.DateFormat)

	t.mu.Lock()
	i := t.indexLocked(id)
	if i < 0 {
		t.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	ob := &t.obligations[i]
	if ob.Taken == nil {
		ob.Taken = models.Ledger{}
	}
	taken := !ob.Taken.Done(day)
	if taken {
		ob.Taken[day] = true
	} else {
		delete(ob.Taken, day)
	}
	err := t.saveObligationsLocked(ctx)
	t.mu.Unlock()

	t.changed()
	return taken, err
}
