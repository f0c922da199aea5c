// Package tracker keeps the list of recurring obligations of one kind
// (expenses or medications) together with the log of which were processed on
// which day, and answers due-today, upcoming and totals queries over them.
//
// Mutations are applied in memory first and then persisted. When the save
// fails the in-memory change is kept and a *errors.PersistError is returned.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
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
)

var (
	ErrNotFound = errors.New("obligation not found")
	ErrInvalid  = errors.New("invalid obligation")
)

// Draft holds the user-editable fields of an obligation.
type Draft struct {
	Name             string
	Payload          models.Quantity
	Category         string
	Rule             models.Rule
	ReminderLeadDays int

	TimeOfDay string
	StartDate string
	EndDate   string
	Permanent bool
	Remind    bool
}

// DraftOf returns the editable fields of ob, for partial updates.
func DraftOf(ob models.Obligation) Draft {
	return Draft{
		Name:             ob.Name,
		Payload:          ob.Payload,
		Category:         ob.Category,
		Rule:             ob.Rule,
		ReminderLeadDays: ob.ReminderLeadDays,
		TimeOfDay:        ob.TimeOfDay,
		StartDate:        ob.StartDate,
		EndDate:          ob.EndDate,
		Permanent:        ob.Permanent,
		Remind:           ob.Remind,
	}
}

// Reminder is an obligation coming due within its lead window.
type Reminder struct {
	Obligation models.Obligation
	DueDate    time.Time
	DaysUntil  int
}

type Option func(*Tracker)

// WithOnChange registers fn to run after every successful in-memory mutation,
// whether or not it was persisted.
func WithOnChange(fn func()) Option {
	return func(t *Tracker) { t.onChange = fn }
}

// WithClock sets the clock used for CreatedAt stamps
func WithClock(c clock.Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

type Tracker struct {
	mu          sync.RWMutex
	store       storage.RecordStore
	owner       string
	kind        models.ObligationKind
	obligations []models.Obligation
	processed   models.ProcessedLog
	onChange    func()
	clock       clock.Clock

	// set while the last write of a record failed, cleared once it lands
	obligationsDirty bool
	processedDirty   bool
}

func New(store storage.RecordStore, owner string, kind models.ObligationKind, opts ...Option) *Tracker {
	t := &Tracker{
		store:     store,
		owner:     owner,
		kind:      kind,
		processed: models.ProcessedLog{},
		clock:     clock.System{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) Kind() models.ObligationKind {
	return t.kind
}

func (t *Tracker) obligationsKey() storage.Key {
	return storage.Key{Owner: t.owner, Name: constants.KeyObligationsPrefix + string(t.kind)}
}

func (t *Tracker) processedKey() storage.Key {
	return storage.Key{Owner: t.owner, Name: constants.KeyProcessedPrefix + string(t.kind)}
}

// Load replaces the in-memory state with what the store holds. Absent
// records load as empty.
func (t *Tracker) Load(ctx context.Context) error {
	var obs []models.Obligation
	if _, err := storage.LoadJSON(ctx, t.store, t.obligationsKey(), &obs); err != nil {
		return err
	}
	processed := models.ProcessedLog{}
	if _, err := storage.LoadJSON(ctx, t.store, t.processedKey(), &processed); err != nil {
		return err
	}
	if processed == nil {
		processed = models.ProcessedLog{}
	}
	for i := range obs {
		if obs[i].Kind == "" {
			obs[i].Kind = t.kind
		}
	}

	t.mu.Lock()
	t.obligations = obs
	t.processed = processed
	t.obligationsDirty, t.processedDirty = false, false
	t.mu.Unlock()

	logger.Debug("Loaded obligations", "kind", t.kind, "count", len(obs))
	return nil
}

func (t *Tracker) validate(d Draft) error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if err := recurrence.Validate(d.Rule); err != nil {
		return err
	}
	if d.ReminderLeadDays < 0 {
		return fmt.Errorf("%w: reminder lead days must be >= 0, got %d", ErrInvalid, d.ReminderLeadDays)
	}
	if d.Payload.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalid)
	}

	switch t.kind {
	case models.KindExpense:
		if !d.Payload.Unit.IsCurrency() {
			return fmt.Errorf("%w: expense currency %q is not supported", ErrInvalid, d.Payload.Unit)
		}
	case models.KindMedication:
		if d.Payload.Unit != "" && !d.Payload.Unit.IsDose() {
			return fmt.Errorf("%w: dose unit %q is not supported", ErrInvalid, d.Payload.Unit)
		}
		if _, err := time.Parse(constants.TimeFormat, d.TimeOfDay); err != nil {
			return fmt.Errorf("%w: time of day must be HH:MM, got %q", ErrInvalid, d.TimeOfDay)
		}
		var start, end time.Time
		var err error
		if d.StartDate != "" {
			if start, err = time.Parse(constants.DateFormat, d.StartDate); err != nil {
				return fmt.Errorf("%w: start date must be YYYY-MM-DD, got %q", ErrInvalid, d.StartDate)
			}
		}
		if d.EndDate != "" {
			if end, err = time.Parse(constants.DateFormat, d.EndDate); err != nil {
				return fmt.Errorf("%w: end date must be YYYY-MM-DD, got %q", ErrInvalid, d.EndDate)
			}
		}
		if !start.IsZero() && !end.IsZero() && end.Before(start) {
			return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalid, d.EndDate, d.StartDate)
		}
	}
	return nil
}

func apply(ob *models.Obligation, d Draft) {
	ob.Name = strings.TrimSpace(d.Name)
	ob.Payload = d.Payload
	ob.Category = d.Category
	ob.Rule = d.Rule
	ob.ReminderLeadDays = d.ReminderLeadDays
	ob.TimeOfDay = d.TimeOfDay
	ob.StartDate = d.StartDate
	ob.EndDate = d.EndDate
	ob.Permanent = d.Permanent
	ob.Remind = d.Remind
}

// Add validates d and appends a new active obligation with a fresh id.
func (t *Tracker) Add(ctx context.Context, d Draft) (models.Obligation, error) {
	if err := t.validate(d); err != nil {
		return models.Obligation{}, err
	}
	ob := models.Obligation{
		ID:        uuid.New().String(),
		Kind:      t.kind,
		Active:    true,
		CreatedAt: t.clock.Now(),
	}
	apply(&ob, d)

	t.mu.Lock()
	t.obligations = append(t.obligations, ob)
	err := t.saveObligationsLocked(ctx)
	t.mu.Unlock()

	t.changed()
	return ob, err
}

// Update replaces the editable fields of obligation id. Active state and
// processing history are kept.
func (t *Tracker) Update(ctx context.Context, id string, d Draft) (models.Obligation, error) {
	if err := t.validate(d); err != nil {
		return models.Obligation{}, err
	}

	t.mu.Lock()
	i := t.indexLocked(id)
	if i < 0 {
		t.mu.Unlock()
		return models.Obligation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	apply(&t.obligations[i], d)
	ob := t.obligations[i]
	err := t.saveObligationsLocked(ctx)
	t.mu.Unlock()

	t.changed()
	return ob, err
}

// Remove deletes obligation id and its processed-log entries.
func (t *Tracker) Remove(ctx context.Context, id string) error {
	t.mu.Lock()
	i := t.indexLocked(id)
	if i < 0 {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	t.obligations = append(t.obligations[:i], t.obligations[i+1:]...)
	_, hadLog := t.processed[id]
	delete(t.processed, id)

	err := t.saveObligationsLocked(ctx)
	if err == nil && hadLog {
		err = t.saveProcessedLocked(ctx)
	}
	t.mu.Unlock()

	t.changed()
	return err
}

// ToggleActive flips the active flag and returns the new value.
func (t *Tracker) ToggleActive(ctx context.Context, id string) (bool, error) {
	t.mu.Lock()
	i := t.indexLocked(id)
	if i < 0 {
		t.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	t.obligations[i].Active = !t.obligations[i].Active
	active := t.obligations[i].Active
	err := t.saveObligationsLocked(ctx)
	t.mu.Unlock()

	t.changed()
	return active, err
}

// Get returns obligation id. A unique id prefix of at least 4 characters
// is accepted as well.
func (t *Tracker) Get(id string) (models.Obligation, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i := t.indexLocked(id); i >= 0 {
		ob := t.obligations[i]
		ob.Taken = ob.Taken.Clone()
		return ob, nil
	}
	return models.Obligation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// List returns a copy of every obligation in insertion order
func (t *Tracker) List() []models.Obligation {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := append([]models.Obligation(nil), t.obligations...)
	for i := range out {
		out[i].Taken = out[i].Taken.Clone()
	}
	return out
}

// ProcessedLog returns a copy of the processed log
func (t *Tracker) ProcessedLog() models.ProcessedLog {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(models.ProcessedLog, len(t.processed))
	for id, days := range t.processed {
		cp := make(map[string]bool, len(days))
		for d, v := range days {
			cp[d] = v
		}
		out[id] = cp
	}
	return out
}

// DueToday returns the active obligations due on now's calendar date that
// have not been processed for it.
func (t *Tracker) DueToday(now time.Time) []models.Obligation {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return DueOn(t.obligations, t.processed, now)
}

// WasProcessed reports whether (id, date) is in the processed log
func (t *Tracker) WasProcessed(id string, date time.Time) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.processed.Has(id, date.Format(constants.DateFormat))
}

// MarkProcessed records (id, date) and sets the obligation's LastProcessed.
// Marking an already processed pair changes nothing and writes nothing,
// unless an earlier write failed: then the pending state is written again.
func (t *Tracker) MarkProcessed(ctx context.Context, id string, date time.Time) error {
	day := date.Format(constants.DateFormat)

	t.mu.Lock()
	i := t.indexLocked(id)
	if i < 0 {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !t.processed.Add(t.obligations[i].ID, day) && !t.processedDirty && !t.obligationsDirty {
		t.mu.Unlock()
		return nil
	}
	t.obligations[i].LastProcessed = day

	err := t.saveProcessedLocked(ctx)
	if err == nil {
		err = t.saveObligationsLocked(ctx)
	}
	t.mu.Unlock()

	t.changed()
	return err
}

// Upcoming returns the active obligations whose next due date falls within
// their reminder lead window, nearest first.
func (t *Tracker) Upcoming(now time.Time) []Reminder {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return UpcomingFor(t.obligations, now)
}

// MonthlyTotal sums the payload of active monthly obligations per unit
func (t *Tracker) MonthlyTotal() Totals {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return TotalsFor(t.obligations, models.CycleMonthly)
}

// YearlyTotal sums the payload of active yearly obligations per unit
func (t *Tracker) YearlyTotal() Totals {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return TotalsFor(t.obligations, models.CycleYearly)
}

func (t *Tracker) indexLocked(id string) int {
	for i := range t.obligations {
		if t.obligations[i].ID == id {
			return i
		}
	}
	if len(id) < 4 {
		return -1
	}
	match := -1
	for i := range t.obligations {
		if strings.HasPrefix(t.obligations[i].ID, id) {
			if match >= 0 {
				return -1
			}
			match = i
		}
	}
	return match
}

func (t *Tracker) saveObligationsLocked(ctx context.Context) error {
	key := t.obligationsKey()
	obs := t.obligations
	if obs == nil {
		obs = []models.Obligation{}
	}
	if err := storage.SaveJSON(ctx, t.store, key, obs); err != nil {
		t.obligationsDirty = true
		logger.Warn("Failed to persist obligations", "key", key.Name, "error", err)
		return apperr.Persist(key.Name, err)
	}
	t.obligationsDirty = false
	return nil
}

func (t *Tracker) saveProcessedLocked(ctx context.Context) error {
	key := t.processedKey()
	if err := storage.SaveJSON(ctx, t.store, key, t.processed); err != nil {
		t.processedDirty = true
		logger.Warn("Failed to persist processed log", "key", key.Name, "error", err)
		return apperr.Persist(key.Name, err)
	}
	t.processedDirty = false
	return nil
}

func (t *Tracker) changed() {
	if t.onChange != nil {
		t.onChange()
	}
}

// DueOn is the pure form of DueToday.
func DueOn(obs []models.Obligation, log models.ProcessedLog, date time.Time) []models.Obligation {
	day := date.Format(constants.DateFormat)
	var due []models.Obligation
	for _, ob := range obs {
		if !ob.Active || !recurrence.IsDueOn(ob.Rule, date) {
			continue
		}
		if log.Has(ob.ID, day) {
			continue
		}
		due = append(due, ob)
	}
	return due
}

// UpcomingFor is the pure form of Upcoming. An obligation is included when
// 0 < days until its next due date <= its ReminderLeadDays.
func UpcomingFor(obs []models.Obligation, now time.Time) []Reminder {
	var out []Reminder
	for _, ob := range obs {
		if !ob.Active || ob.ReminderLeadDays <= 0 {
			continue
		}
		next := recurrence.NextDueAfter(ob.Rule, now)
		if next.IsZero() {
			continue
		}
		days := recurrence.DaysBetween(now, next)
		if days > 0 && days <= ob.ReminderLeadDays {
			out = append(out, Reminder{Obligation: ob, DueDate: next, DaysUntil: days})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysUntil < out[j].DaysUntil
	})
	return out
}
