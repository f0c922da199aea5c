package cli

import (
	"github.com/julianstephens/recur/internal/constants"
	"github.com/julianstephens/recur/internal/models"
	"github.com/julianstephens/recur/internal/recurrence"
	"github.com/julianstephens/recur/internal/tracker"
)

type MedCmd struct {
	Add    MedAddCmd    `cmd:"" help:"Add a medication."`
	List   MedListCmd   `cmd:"" help:"List medications."`
	Toggle MedToggleCmd `cmd:"" help:"Pause or resume a medication."`
	Delete MedDeleteCmd `cmd:"" help:"Delete a medication."`
	Take   MedTakeCmd   `cmd:"" help:"Toggle whether a medication was taken on a day."`
	Due    MedDueCmd    `cmd:"" help:"Show medications scheduled on a day."`
}

type MedAddCmd struct {
	Name      string `arg:"" help:"Medication name."`
	Time      string `short:"t" help:"Time of day (HH:MM)." required:""`
	Dose      string `help:"Dose amount, e.g. 500."`
	Unit      string `short:"u" help:"Dose unit (mg, ml, pill, drop)."`
	Start     string `help:"First day (YYYY-MM-DD, default: today)."`
	End       string `help:"Last day (YYYY-MM-DD)."`
	Permanent bool   `help:"Ignore the end date."`
	Remind    bool   `help:"Send a reminder at the time of day." default:"true" negatable:""`
	RuleFlags `embed:""`
}

func (c *MedAddCmd) Run(ctx *Context) error {
	rule, err := c.Rule(models.CycleDaily, ctx.Now())
	if err != nil {
		return err
	}

	var payload models.Quantity
	if c.Dose != "" {
		if payload.Amount, err = parseAmount(c.Dose); err != nil {
			return err
		}
	}
	if c.Unit != "" {
		if payload.Unit, err = models.ParseUnit(c.Unit); err != nil {
			return err
		}
	} else if c.Dose != "" {
		payload.Unit = models.UnitPill
	}

	start := c.Start
	if start == "" {
		start = ctx.Now().Format(constants.DateFormat)
	}

	ob, err := ctx.Meds.Add(ctx.Context(), tracker.Draft{
		Name:      c.Name,
		Payload:   payload,
		Rule:      rule,
		TimeOfDay: c.Time,
		StartDate: start,
		EndDate:   c.End,
		Permanent: c.Permanent,
		Remind:    c.Remind,
	})
	if err != nil {
		return err
	}
	ctx.printf("Added medication: %s at %s (%s) [%s]\n", ob.Name, ob.TimeOfDay, recurrence.Describe(ob.Rule), ShortID(ob.ID))
	return nil
}

type MedListCmd struct{}

func (c *MedListCmd) Run(ctx *Context) error {
	meds := ctx.Meds.List()
	if len(meds) == 0 {
		ctx.printf("No medications found.\n")
		return nil
	}

	var rows [][]string
	for _, m := range meds {
		dose := "-"
		if !m.Payload.Amount.IsZero() {
			dose = m.Payload.String()
		}
		window := m.StartDate + " .."
		if m.Permanent {
			window += " permanent"
		} else if m.EndDate != "" {
			window += " " + m.EndDate
		}
		rows = append(rows, []string{
			ShortID(m.ID), m.Name, m.TimeOfDay, dose, recurrence.Describe(m.Rule),
			window, yesNo(m.Remind), yesNo(m.Active),
		})
	}
	ctx.printf("%s\n", Table([]string{"ID", "Name", "Time", "Dose", "Rule", "Window", "Remind", "Active"}, rows))
	return nil
}

type MedToggleCmd struct {
	ID string `arg:"" help:"Medication ID or prefix."`
}

func (c *MedToggleCmd) Run(ctx *Context) error {
	return toggleObligation(ctx, ctx.Meds, c.ID)
}

type MedDeleteCmd struct {
	ID string `arg:"" help:"Medication ID or prefix."`
}

func (c *MedDeleteCmd) Run(ctx *Context) error {
	return removeObligation(ctx, ctx.Meds, c.ID)
}

type MedTakeCmd struct {
	ID   string `arg:"" help:"Medication ID or prefix."`
	Date string `help:"Day in YYYY-MM-DD format (default: today)."`
}

func (c *MedTakeCmd) Run(ctx *Context) error {
	m, err := ctx.Meds.Get(c.ID)
	if err != nil {
		return err
	}
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}
	taken, err := ctx.Meds.ToggleTaken(ctx.Context(), m.ID, day)
	if err != nil {
		return err
	}
	if taken {
		ctx.printf("Marked %s as taken on %s\n", m.Name, day.Format(constants.DateFormat))
	} else {
		ctx.printf("Unmarked %s on %s\n", m.Name, day.Format(constants.DateFormat))
	}
	return nil
}

type MedDueCmd struct {
	Date string `help:"Day in YYYY-MM-DD format (default: today)."`
}

func (c *MedDueCmd) Run(ctx *Context) error {
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}
	due := tracker.MedicationsDueOn(ctx.Meds.List(), day)
	if len(due) == 0 {
		ctx.printf("No medications scheduled on %s.\n", day.Format(constants.DateFormat))
		return nil
	}

	ctx.printf("Medications for %s:\n\n", day.Format(constants.DateFormat))
	taken := 0
	for _, m := range due {
		mark := "[ ]"
		if ctx.Meds.TakenOn(m.ID, day) {
			mark = "[x]"
			taken++
		}
		ctx.printf("%s %s  %s\n", mark, m.TimeOfDay, m.Name)
	}
	ctx.printf("\nTaken: %d/%d\n", taken, len(due))
	return nil
}
