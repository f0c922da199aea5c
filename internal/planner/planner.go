// Package planner projects the tracked state onto the list of notifications
// that should be pending right now. It performs no I/O.
package planner

import (
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/recur/internal/constants"
	"github.com/julianstephens/recur/internal/logger"
	"github.com/julianstephens/recur/internal/models"
	"github.com/julianstephens/recur/internal/tracker"
)

// Options tunes the lead times of the planner
type Options struct {
	AppointmentLead time.Duration
	TaskLead        time.Duration
	// TaskDefaultTime is used for tasks whose deadline carries no time (HH:MM).
	TaskDefaultTime string
	// ReminderDelay is how long after planning obligation reminders fire.
	ReminderDelay time.Duration
}

// DefaultOptions returns the standard lead times: appointments 30 minutes
// ahead, tasks 60 minutes ahead of a 09:00 default deadline.
func DefaultOptions() Options {
	return Options{
		AppointmentLead: constants.DefaultAppointmentLeadMin * time.Minute,
		TaskLead:        constants.DefaultTaskLeadMin * time.Minute,
		TaskDefaultTime: constants.DefaultTaskTime,
		ReminderDelay:   time.Second,
	}
}

// Input is everything a plan is computed from.
type Input struct {
	Obligations  []models.Obligation
	Medications  []models.Obligation
	Appointments []models.Appointment
	Tasks        []models.Task
	Prayers      []models.PrayerTime
}

type Planner struct {
	opts Options
}

func New(opts Options) *Planner {
	def := DefaultOptions()
	if opts.TaskDefaultTime == "" {
		opts.TaskDefaultTime = def.TaskDefaultTime
	}
	if opts.ReminderDelay <= 0 {
		opts.ReminderDelay = def.ReminderDelay
	}
	return &Planner{opts: opts}
}

// Plan returns every notification with FireAt strictly after now, sorted by
// FireAt and then ID. Wall-clock times are interpreted in now's location.
func (p *Planner) Plan(now time.Time, in Input) []models.Notification {
	var out []models.Notification
	out = append(out, p.obligationReminders(now, in.Obligations)...)
	out = append(out, p.medications(now, in.Medications)...)
	out = append(out, p.appointments(now, in.Appointments)...)
	out = append(out, p.tasks(now, in.Tasks)...)
	out = append(out, p.prayers(now, in.Prayers)...)

	kept := out[:0]
	for _, n := range out {
		if n.FireAt.After(now) {
			kept = append(kept, n)
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		if !kept[i].FireAt.Equal(kept[j].FireAt) {
			return kept[i].FireAt.Before(kept[j].FireAt)
		}
		return kept[i].ID < kept[j].ID
	})
	return kept
}

// Plan is a convenience for New(DefaultOptions()).Plan(now, in).
func Plan(now time.Time, in Input) []models.Notification {
	return New(DefaultOptions()).Plan(now, in)
}

func (p *Planner) obligationReminders(now time.Time, obs []models.Obligation) []models.Notification {
	fireAt := now.Add(p.opts.ReminderDelay)
	var out []models.Notification
	for _, r := range tracker.UpcomingFor(obs, now) {
		due := r.DueDate.Format(constants.DateFormat)
		when := "tomorrow"
		if r.DaysUntil > 1 {
			when = fmt.Sprintf("in %d days", r.DaysUntil)
		}
		out = append(out, models.Notification{
			ID:      fmt.Sprintf("%s:%s:%s", models.ChannelFinance, r.Obligation.ID, due),
			FireAt:  fireAt,
			Title:   "Upcoming: " + r.Obligation.Name,
			Body:    fmt.Sprintf("%s due %s (%s)", r.Obligation.Payload, when, due),
			Channel: models.ChannelFinance,
		})
	}
	return out
}

func (p *Planner) medications(now time.Time, meds []models.Obligation) []models.Notification {
	today := now.Format(constants.DateFormat)
	var out []models.Notification
	for _, m := range tracker.MedicationsDueOn(meds, now) {
		if !m.Remind || m.Taken.Done(today) {
			continue
		}
		at, ok := wallClock(today, m.TimeOfDay, now.Location())
		if !ok {
			logger.Debug("Skipping medication with bad time", "id", m.ID, "time", m.TimeOfDay)
			continue
		}
		body := "Time to take " + m.Name
		if !m.Payload.Amount.IsZero() {
			body += " (" + m.Payload.String() + ")"
		}
		out = append(out, models.Notification{
			ID:      fmt.Sprintf("%s:%s:%s", models.ChannelMedication, m.ID, today),
			FireAt:  at,
			Title:   "Medication: " + m.Name,
			Body:    body,
			Channel: models.ChannelMedication,
		})
	}
	return out
}

func (p *Planner) appointments(now time.Time, appts []models.Appointment) []models.Notification {
	var out []models.Notification
	for _, a := range appts {
		start, ok := wallClock(a.Date, a.Time, now.Location())
		if !ok {
			logger.Debug("Skipping appointment with bad date", "id", a.ID)
			continue
		}
		body := "Starts at " + a.Time
		if a.Location != "" {
			body += " at " + a.Location
		}
		out = append(out, models.Notification{
			ID:      fmt.Sprintf("%s:%s", models.ChannelAppointment, a.ID),
			FireAt:  start.Add(-p.opts.AppointmentLead),
			Title:   a.Title,
			Body:    body,
			Channel: models.ChannelAppointment,
		})
	}
	return out
}

func (p *Planner) tasks(now time.Time, tasks []models.Task) []models.Notification {
	var out []models.Notification
	for _, t := range tasks {
		if t.Done() || t.Deadline == "" {
			continue
		}
		at := t.Time
		if at == "" {
			at = p.opts.TaskDefaultTime
		}
		deadline, ok := wallClock(t.Deadline, at, now.Location())
		if !ok {
			logger.Debug("Skipping task with bad deadline", "id", t.ID)
			continue
		}
		out = append(out, models.Notification{
			ID:      fmt.Sprintf("%s:%s", models.ChannelTask, t.ID),
			FireAt:  deadline.Add(-p.opts.TaskLead),
			Title:   "Due soon: " + t.Title,
			Body:    fmt.Sprintf("Deadline %s %s, %d%% done", t.Deadline, at, t.Progress),
			Channel: models.ChannelTask,
		})
	}
	return out
}

func (p *Planner) prayers(now time.Time, prayers []models.PrayerTime) []models.Notification {
	today := now.Format(constants.DateFormat)
	var out []models.Notification
	for _, pr := range prayers {
		at, ok := wallClock(today, pr.Time, now.Location())
		if !ok {
			continue
		}
		out = append(out, models.Notification{
			ID:      fmt.Sprintf("%s:%s:%s", models.ChannelPrayer, pr.Name, today),
			FireAt:  at,
			Title:   pr.Name,
			Body:    "Prayer time " + pr.Time,
			Channel: models.ChannelPrayer,
		})
	}
	return out
}

func wallClock(date, hhmm string, loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation(constants.DateFormat+" "+constants.TimeFormat, date+" "+hhmm, loc)
	return t, err == nil
}
