// Package habits keeps the habit book: habits with a recurrence rule and a
// completion ledger whose streak is recomputed, never trusted from storage.
package habits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/recur/internal/clock"
	"github.com/julianstephens/recur/internal/constants"
	apperr "github.com/julianstephens/recur/internal/errors"
	"github.com/julianstephens/recur/internal/logger"
	"github.com/julianstephens/recur/internal/models"
	"github.com/julianstephens/recur/internal/recurrence"
	"github.com/julianstephens/recur/internal/storage"
	"github.com/julianstephens/recur/internal/streak"
)

var (
	ErrNotFound  = errors.New("habit not found")
	ErrDuplicate = errors.New("habit already exists")
	ErrInvalid   = errors.New("invalid habit")
)

type Option func(*Book)

func WithClock(c clock.Clock) Option {
	return func(b *Book) { b.clock = c }
}

func WithOnChange(fn func()) Option {
	return func(b *Book) { b.onChange = fn }
}

type Book struct {
	mu       sync.RWMutex
	store    storage.RecordStore
	owner    string
	habits   []models.Habit
	clock    clock.Clock
	onChange func()
}

func New(store storage.RecordStore, owner string, opts ...Option) *Book {
	b := &Book{store: store, owner: owner, clock: clock.System{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Book) key() storage.Key {
	return storage.Key{Owner: b.owner, Name: constants.KeyHabits}
}

// Load reads the habits and recomputes every streak against today.
func (b *Book) Load(ctx context.Context) error {
	var hs []models.Habit
	if _, err := storage.LoadJSON(ctx, b.store, b.key(), &hs); err != nil {
		return err
	}
	today := b.clock.Now()
	for i := range hs {
		hs[i].Streak = streak.Compute(hs[i].History, today)
	}
	b.mu.Lock()
	b.habits = hs
	b.mu.Unlock()
	return nil
}

func validate(name string, rule models.Rule) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if rule.Cycle == models.CycleYearly {
		return fmt.Errorf("%w: habits cannot recur yearly", ErrInvalid)
	}
	return recurrence.Validate(rule)
}

// Add creates a habit. Names are unique, case-insensitively.
func (b *Book) Add(ctx context.Context, name string, rule models.Rule) (models.Habit, error) {
	if err := validate(name, rule); err != nil {
		return models.Habit{}, err
	}
	name = strings.TrimSpace(name)

	b.mu.Lock()
	for _, h := range b.habits {
		if strings.EqualFold(h.Name, name) {
			b.mu.Unlock()
			return models.Habit{}, fmt.Errorf("%w: %q", ErrDuplicate, name)
		}
	}
	h := models.Habit{
		ID:        uuid.New().String(),
		Name:      name,
		Rule:      rule,
		History:   models.Ledger{},
		CreatedAt: b.clock.Now(),
	}
	b.habits = append(b.habits, h)
	err := b.saveLocked(ctx)
	b.mu.Unlock()

	b.changed()
	return detach(h), err
}

// Update renames a habit and/or replaces its rule. History is kept.
func (b *Book) Update(ctx context.Context, ref, name string, rule models.Rule) (models.Habit, error) {
	if err := validate(name, rule); err != nil {
		return models.Habit{}, err
	}
	b.mu.Lock()
	i := b.findLocked(ref)
	if i < 0 {
		b.mu.Unlock()
		return models.Habit{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	b.habits[i].Name = strings.TrimSpace(name)
	b.habits[i].Rule = rule
	h := detach(b.habits[i])
	err := b.saveLocked(ctx)
	b.mu.Unlock()

	b.changed()
	return h, err
}

func (b *Book) Remove(ctx context.Context, ref string) error {
	b.mu.Lock()
	i := b.findLocked(ref)
	if i < 0 {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	b.habits = append(b.habits[:i], b.habits[i+1:]...)
	err := b.saveLocked(ctx)
	b.mu.Unlock()

	b.changed()
	return err
}

// Toggle flips the completion of habit ref on date and recomputes its streak
// from scratch. It returns the updated habit.
func (b *Book) Toggle(ctx context.Context, ref string, date time.Time) (models.Habit, error) {
	day := date.Format(constants.DateFormat)

	b.mu.Lock()
	i := b.findLocked(ref)
	if i < 0 {
		b.mu.Unlock()
		return models.Habit{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	h := &b.habits[i]
	if h.History == nil {
		h.History = models.Ledger{}
	}
	if h.History.Done(day) {
		delete(h.History, day)
	} else {
		h.History[day] = true
	}
	h.Streak = streak.Compute(h.History, b.clock.Now())
	out := detach(*h)
	err := b.saveLocked(ctx)
	b.mu.Unlock()

	b.changed()
	return out, err
}

// Get finds a habit by id, unique id prefix, or name.
func (b *Book) Get(ref string) (models.Habit, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i := b.findLocked(ref); i >= 0 {
		return detach(b.habits[i]), nil
	}
	return models.Habit{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
}

// List returns every habit with its streak recomputed for today.
func (b *Book) List(today time.Time) []models.Habit {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Habit, len(b.habits))
	for i := range b.habits {
		b.habits[i].Streak = streak.Compute(b.habits[i].History, today)
		out[i] = detach(b.habits[i])
	}
	return out
}

// DueOn returns the habits whose rule fires on date
func (b *Book) DueOn(date time.Time) []models.Habit {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var due []models.Habit
	for _, h := range b.habits {
		if recurrence.IsDueOn(h.Rule, date) {
			due = append(due, detach(h))
		}
	}
	return due
}

// detach copies h so callers cannot reach the book's history map
func detach(h models.Habit) models.Habit {
	h.History = h.History.Clone()
	return h
}

func (b *Book) findLocked(ref string) int {
	for i := range b.habits {
		if b.habits[i].ID == ref {
			return i
		}
	}
	for i := range b.habits {
		if strings.EqualFold(b.habits[i].Name, ref) {
			return i
		}
	}
	if len(ref) < 4 {
		return -1
	}
	match := -1
	for i := range b.habits {
		if strings.HasPrefix(b.habits[i].ID, ref) {
			if match >= 0 {
				return -1
			}
			match = i
		}
	}
	return match
}

func (b *Book) saveLocked(ctx context.Context) error {
	hs := b.habits
	if hs == nil {
		hs = []models.Habit{}
	}
	if err := storage.SaveJSON(ctx, b.store, b.key(), hs); err != nil {
		logger.Warn("Failed to persist habits", "error", err)
		return apperr.Persist(constants.KeyHabits, err)
	}
	return nil
}

func (b *Book) changed() {
	if b.onChange != nil {
		b.onChange()
	}
}
