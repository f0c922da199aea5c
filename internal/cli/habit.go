package cli

import (
	"strconv"

	"github.com/julianstephens/recur/internal/constants"
	"github.com/julianstephens/recur/internal/models"
	"github.com/julianstephens/recur/internal/recurrence"
	"github.com/julianstephens/recur/internal/streak"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits with their streaks."`
	Toggle HabitToggleCmd `cmd:"" help:"Mark or unmark a habit for a day."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit."`
}

type HabitAddCmd struct {
	Name      string `arg:"" help:"Habit name."`
	RuleFlags `embed:""`
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	rule, err := c.Rule(models.CycleDaily, ctx.Now())
	if err != nil {
		return err
	}
	h, err := ctx.Habits.Add(ctx.Context(), c.Name, rule)
	if err != nil {
		return err
	}
	ctx.printf("Added habit: %s (%s)\n", h.Name, recurrence.Describe(h.Rule))
	return nil
}

type HabitListCmd struct{}

func (c *HabitListCmd) Run(ctx *Context) error {
	today := ctx.Now()
	list := ctx.Habits.List(today)
	if len(list) == 0 {
		ctx.printf("No habits found.\n")
		return nil
	}

	day := today.Format(constants.DateFormat)
	var rows [][]string
	for _, h := range list {
		mark := "[ ]"
		if h.History.Done(day) {
			mark = "[x]"
		}
		rows = append(rows, []string{
			mark, h.Name, recurrence.Describe(h.Rule),
			strconv.Itoa(h.Streak), strconv.Itoa(streak.Longest(h.History)),
		})
	}
	ctx.printf("%s\n", Table([]string{"Today", "Habit", "Rule", "Streak", "Best"}, rows))
	return nil
}

type HabitToggleCmd struct {
	Ref  string `arg:"" help:"Habit name, ID or prefix."`
	Date string `help:"Day in YYYY-MM-DD format (default: today)."`
}

func (c *HabitToggleCmd) Run(ctx *Context) error {
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}
	h, err := ctx.Habits.Toggle(ctx.Context(), c.Ref, day)
	if err != nil {
		return err
	}
	verb := "Unmarked"
	if h.History.Done(day.Format(constants.DateFormat)) {
		verb = "Marked"
	}
	ctx.printf("%s %q for %s (streak: %d)\n", verb, h.Name, day.Format(constants.DateFormat), h.Streak)
	return nil
}

type HabitDeleteCmd struct {
	Ref string `arg:"" help:"Habit name, ID or prefix."`
}

func (c *HabitDeleteCmd) Run(ctx *Context) error {
	h, err := ctx.Habits.Get(c.Ref)
	if err != nil {
		return err
	}
	if err := ctx.Habits.Remove(ctx.Context(), h.ID); err != nil {
		return err
	}
	ctx.printf("Deleted habit: %s\n", h.Name)
	return nil
}
