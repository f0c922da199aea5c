package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/julianstephens/recur/internal/models"
)

type ApptCmd struct {
	Add    ApptAddCmd    `cmd:"" help:"Add an appointment."`
	List   ApptListCmd   `cmd:"" help:"List appointments."`
	Delete ApptDeleteCmd `cmd:"" help:"Delete an appointment."`
}

type ApptAddCmd struct {
	Title    string `arg:"" help:"Appointment title."`
	Date     string `help:"Date (YYYY-MM-DD)." required:""`
	Time     string `short:"t" help:"Start time (HH:MM)." required:""`
	Location string `short:"l" help:"Where it takes place."`
	Notes    string `help:"Free-form notes."`
}

func (c *ApptAddCmd) Run(ctx *Context) error {
	appt, err := ctx.Agenda.AddAppointment(ctx.Context(), models.Appointment{
		Title:    c.Title,
		Date:     c.Date,
		Time:     c.Time,
		Location: c.Location,
		Notes:    c.Notes,
	})
	if err != nil {
		return err
	}
	ctx.printf("Added appointment: %s on %s at %s [%s]\n", appt.Title, appt.Date, appt.Time, ShortID(appt.ID))
	return nil
}

type ApptListCmd struct {
	All bool `help:"Include past appointments."`
}

func (c *ApptListCmd) Run(ctx *Context) error {
	now := ctx.Now().Format("2006-01-02 15:04")
	var rows [][]string
	for _, a := range ctx.Agenda.Appointments() {
		if !c.All && a.Date+" "+a.Time < now {
			continue
		}
		rows = append(rows, []string{ShortID(a.ID), a.Date, a.Time, a.Title, a.Location})
	}
	if len(rows) == 0 {
		ctx.printf("No appointments.\n")
		return nil
	}
	ctx.printf("%s\n", Table([]string{"ID", "Date", "Time", "Title", "Location"}, rows))
	return nil
}

type ApptDeleteCmd struct {
	ID string `arg:"" help:"Appointment ID or prefix."`
}

func (c *ApptDeleteCmd) Run(ctx *Context) error {
	if err := ctx.Agenda.RemoveAppointment(ctx.Context(), c.ID); err != nil {
		return err
	}
	ctx.printf("Deleted appointment %s\n", c.ID)
	return nil
}

type TaskCmd struct {
	Add      TaskAddCmd      `cmd:"" help:"Add a task."`
	List     TaskListCmd     `cmd:"" help:"List tasks."`
	Progress TaskProgressCmd `cmd:"" help:"Set a task's progress."`
	Done     TaskDoneCmd     `cmd:"" help:"Mark a task complete."`
	Delete   TaskDeleteCmd   `cmd:"" help:"Delete a task."`
}

type TaskAddCmd struct {
	Title    string `arg:"" help:"Task title."`
	Deadline string `help:"Deadline (YYYY-MM-DD)."`
	Time     string `short:"t" help:"Deadline time (HH:MM)."`
	Priority string `short:"p" help:"Priority label, e.g. high."`
	Progress int    `help:"Initial progress (0-100)."`
}

func (c *TaskAddCmd) Run(ctx *Context) error {
	task, err := ctx.Agenda.AddTask(ctx.Context(), models.Task{
		Title:    c.Title,
		Deadline: c.Deadline,
		Time:     c.Time,
		Priority: c.Priority,
		Progress: c.Progress,
	})
	if err != nil {
		return err
	}
	ctx.printf("Added task: %s [%s]\n", task.Title, ShortID(task.ID))
	return nil
}

type TaskListCmd struct {
	All bool `help:"Include completed tasks."`
}

func (c *TaskListCmd) Run(ctx *Context) error {
	var rows [][]string
	for _, t := range ctx.Agenda.Tasks() {
		if t.Done() && !c.All {
			continue
		}
		deadline := strings.TrimSpace(t.Deadline + " " + t.Time)
		if deadline == "" {
			deadline = "-"
		}
		rows = append(rows, []string{ShortID(t.ID), t.Title, deadline, t.Priority, strconv.Itoa(t.Progress) + "%"})
	}
	if len(rows) == 0 {
		ctx.printf("No tasks.\n")
		return nil
	}
	ctx.printf("%s\n", Table([]string{"ID", "Title", "Deadline", "Priority", "Progress"}, rows))
	return nil
}

type TaskProgressCmd struct {
	ID       string `arg:"" help:"Task ID or prefix."`
	Progress int    `arg:"" help:"Progress (0-100)."`
}

func (c *TaskProgressCmd) Run(ctx *Context) error {
	t, err := ctx.Agenda.SetProgress(ctx.Context(), c.ID, c.Progress)
	if err != nil {
		return err
	}
	ctx.printf("%s: %d%%\n", t.Title, t.Progress)
	return nil
}

type TaskDoneCmd struct {
	ID string `arg:"" help:"Task ID or prefix."`
}

func (c *TaskDoneCmd) Run(ctx *Context) error {
	t, err := ctx.Agenda.CompleteTask(ctx.Context(), c.ID)
	if err != nil {
		return err
	}
	ctx.printf("Completed task: %s\n", t.Title)
	return nil
}

type TaskDeleteCmd struct {
	ID string `arg:"" help:"Task ID or prefix."`
}

func (c *TaskDeleteCmd) Run(ctx *Context) error {
	if err := ctx.Agenda.RemoveTask(ctx.Context(), c.ID); err != nil {
		return err
	}
	ctx.printf("Deleted task %s\n", c.ID)
	return nil
}

type PrayerCmd struct {
	Set  PrayerSetCmd  `cmd:"" help:"Replace the daily prayer times, e.g. fajr=05:10 maghrib=19:02."`
	List PrayerListCmd `cmd:"" help:"List prayer times."`
}

type PrayerSetCmd struct {
	Times []string `arg:"" optional:"" help:"name=HH:MM pairs; none clears the list."`
}

func (c *PrayerSetCmd) Run(ctx *Context) error {
	var prayers []models.PrayerTime
	for _, pair := range c.Times {
		name, at, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid prayer time %q (expected name=HH:MM)", pair)
		}
		prayers = append(prayers, models.PrayerTime{Name: strings.TrimSpace(name), Time: strings.TrimSpace(at)})
	}
	sort.SliceStable(prayers, func(i, j int) bool { return prayers[i].Time < prayers[j].Time })
	if err := ctx.Agenda.SetPrayers(ctx.Context(), prayers); err != nil {
		return err
	}
	ctx.printf("Saved %d prayer time(s)\n", len(prayers))
	return nil
}

type PrayerListCmd struct{}

func (c *PrayerListCmd) Run(ctx *Context) error {
	prayers := ctx.Agenda.Prayers()
	if len(prayers) == 0 {
		ctx.printf("No prayer times set.\n")
		return nil
	}
	for _, p := range prayers {
		ctx.printf("%s  %s\n", p.Time, p.Name)
	}
	return nil
}
