// Package agenda stores the one-off inputs of the notification planner:
// appointments, tasks and the daily prayer times.
package agenda

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/recur/internal/constants"
	apperr "github.com/julianstephens/recur/internal/errors"
	"github.com/julianstephens/recur/internal/models"
	"github.com/julianstephens/recur/internal/storage"
)

var (
	ErrNotFound = errors.New("agenda item not found")
	ErrInvalid  = errors.New("invalid agenda item")
)

type Agenda struct {
	mu           sync.RWMutex
	store        storage.RecordStore
	owner        string
	appointments []models.Appointment
	tasks        []models.Task
	prayers      []models.PrayerTime
	onChange     func()
}

func New(store storage.RecordStore, owner string) *Agenda {
	return &Agenda{store: store, owner: owner}
}

// OnChange registers fn to run after every mutation
func (a *Agenda) OnChange(fn func()) {
	a.onChange = fn
}

func (a *Agenda) key(name string) storage.Key {
	return storage.Key{Owner: a.owner, Name: name}
}

func (a *Agenda) Load(ctx context.Context) error {
	var appts []models.Appointment
	var tasks []models.Task
	var prayers []models.PrayerTime
	if _, err := storage.LoadJSON(ctx, a.store, a.key(constants.KeyAppointments), &appts); err != nil {
		return err
	}
	if _, err := storage.LoadJSON(ctx, a.store, a.key(constants.KeyTasks), &tasks); err != nil {
		return err
	}
	if _, err := storage.LoadJSON(ctx, a.store, a.key(constants.KeyPrayers), &prayers); err != nil {
		return err
	}
	a.mu.Lock()
	a.appointments, a.tasks, a.prayers = appts, tasks, prayers
	a.mu.Unlock()
	return nil
}

func checkDate(field, v string, required bool) error {
	if v == "" {
		if required {
			return fmt.Errorf("%w: %s is required", ErrInvalid, field)
		}
		return nil
	}
	if _, err := time.Parse(constants.DateFormat, v); err != nil {
		return fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", ErrInvalid, field, v)
	}
	return nil
}

func checkTime(field, v string, required bool) error {
	if v == "" {
		if required {
			return fmt.Errorf("%w: %s is required", ErrInvalid, field)
		}
		return nil
	}
	if _, err := time.Parse(constants.TimeFormat, v); err != nil {
		return fmt.Errorf("%w: %s must be HH:MM, got %q", ErrInvalid, field, v)
	}
	return nil
}

// AddAppointment stores appt with a new id
func (a *Agenda) AddAppointment(ctx context.Context, appt models.Appointment) (models.Appointment, error) {
	if strings.TrimSpace(appt.Title) == "" {
		return appt, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if err := checkDate("date", appt.Date, true); err != nil {
		return appt, err
	}
	if err := checkTime("time", appt.Time, true); err != nil {
		return appt, err
	}
	appt.ID = uuid.New().String()

	a.mu.Lock()
	a.appointments = append(a.appointments, appt)
	err := a.saveLocked(ctx, constants.KeyAppointments, a.appointments)
	a.mu.Unlock()
	a.changed()
	return appt, err
}

func (a *Agenda) RemoveAppointment(ctx context.Context, id string) error {
	a.mu.Lock()
	for i := range a.appointments {
		if matches(a.appointments[i].ID, id) {
			a.appointments = append(a.appointments[:i], a.appointments[i+1:]...)
			err := a.saveLocked(ctx, constants.KeyAppointments, a.appointments)
			a.mu.Unlock()
			a.changed()
			return err
		}
	}
	a.mu.Unlock()
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Appointments returns appointments ordered by date and time
func (a *Agenda) Appointments() []models.Appointment {
	a.mu.RLock()
	out := append([]models.Appointment(nil), a.appointments...)
	a.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date+out[i].Time < out[j].Date+out[j].Time
	})
	return out
}

// AddTask stores task with a new id. Progress is clamped to 0..100.
func (a *Agenda) AddTask(ctx context.Context, task models.Task) (models.Task, error) {
	if strings.TrimSpace(task.Title) == "" {
		return task, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if err := checkDate("deadline", task.Deadline, false); err != nil {
		return task, err
	}
	if err := checkTime("time", task.Time, false); err != nil {
		return task, err
	}
	if task.Time != "" && task.Deadline == "" {
		return task, fmt.Errorf("%w: time requires a deadline", ErrInvalid)
	}
	task.ID = uuid.New().String()
	task.Progress = clampProgress(task.Progress)

	a.mu.Lock()
	a.tasks = append(a.tasks, task)
	err := a.saveLocked(ctx, constants.KeyTasks, a.tasks)
	a.mu.Unlock()
	a.changed()
	return task, err
}

// SetProgress updates a task's progress; 100 marks it complete.
func (a *Agenda) SetProgress(ctx context.Context, id string, progress int) (models.Task, error) {
	a.mu.Lock()
	for i := range a.tasks {
		if matches(a.tasks[i].ID, id) {
			a.tasks[i].Progress = clampProgress(progress)
			task := a.tasks[i]
			err := a.saveLocked(ctx, constants.KeyTasks, a.tasks)
			a.mu.Unlock()
			a.changed()
			return task, err
		}
	}
	a.mu.Unlock()
	return models.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// CompleteTask sets progress to 100
func (a *Agenda) CompleteTask(ctx context.Context, id string) (models.Task, error) {
	return a.SetProgress(ctx, id, 100)
}

func (a *Agenda) RemoveTask(ctx context.Context, id string) error {
	a.mu.Lock()
	for i := range a.tasks {
		if matches(a.tasks[i].ID, id) {
			a.tasks = append(a.tasks[:i], a.tasks[i+1:]...)
			err := a.saveLocked(ctx, constants.KeyTasks, a.tasks)
			a.mu.Unlock()
			a.changed()
			return err
		}
	}
	a.mu.Unlock()
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Tasks returns tasks, open ones first, then by deadline
func (a *Agenda) Tasks() []models.Task {
	a.mu.RLock()
	out := append([]models.Task(nil), a.tasks...)
	a.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Done() != out[j].Done() {
			return !out[i].Done()
		}
		return out[i].Deadline+out[i].Time < out[j].Deadline+out[j].Time
	})
	return out
}

// SetPrayers replaces the daily prayer times
func (a *Agenda) SetPrayers(ctx context.Context, prayers []models.PrayerTime) error {
	for _, p := range prayers {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: prayer name is required", ErrInvalid)
		}
		if err := checkTime(p.Name, p.Time, true); err != nil {
			return err
		}
	}
	a.mu.Lock()
	a.prayers = append([]models.PrayerTime(nil), prayers...)
	err := a.saveLocked(ctx, constants.KeyPrayers, a.prayers)
	a.mu.Unlock()
	a.changed()
	return err
}

func (a *Agenda) Prayers() []models.PrayerTime {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]models.PrayerTime(nil), a.prayers...)
}

func (a *Agenda) saveLocked(ctx context.Context, name string, v any) error {
	if err := storage.SaveJSON(ctx, a.store, a.key(name), v); err != nil {
		return apperr.Persist(name, err)
	}
	return nil
}

func (a *Agenda) changed() {
	if a.onChange != nil {
		a.onChange()
	}
}

func matches(id, ref string) bool {
	return id == ref || (len(ref) >= 4 && strings.HasPrefix(id, ref))
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
