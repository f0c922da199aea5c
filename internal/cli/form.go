package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/recur/internal/models"
	"github.com/julianstephens/recur/internal/recurrence"
	"github.com/julianstephens/recur/internal/tracker"
)

// ExpenseFormModel holds the raw strings of the interactive add form
type ExpenseFormModel struct {
	Name     string
	Amount   string
	Unit     models.Unit
	Category string
	Cycle    models.Cycle
	Day      string
	Month    string
	Weekdays string
	Lead     string
}

func newExpenseFormModel(today time.Time) *ExpenseFormModel {
	return &ExpenseFormModel{
		Unit:  models.UnitUSD,
		Cycle: models.CycleMonthly,
		Day:   strconv.Itoa(today.Day()),
		Month: strconv.Itoa(int(today.Month())),
		Lead:  "3",
	}
}

func optionalInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// Draft converts the form values into a tracker draft.
func (fm *ExpenseFormModel) Draft() (tracker.Draft, error) {
	amount, err := parseAmount(strings.TrimSpace(fm.Amount))
	if err != nil {
		return tracker.Draft{}, err
	}
	day, err := optionalInt(fm.Day)
	if err != nil {
		return tracker.Draft{}, fmt.Errorf("invalid day %q", fm.Day)
	}
	month, err := optionalInt(fm.Month)
	if err != nil {
		return tracker.Draft{}, fmt.Errorf("invalid month %q", fm.Month)
	}
	lead, err := optionalInt(fm.Lead)
	if err != nil {
		return tracker.Draft{}, fmt.Errorf("invalid lead %q", fm.Lead)
	}
	rule, err := recurrence.Parse(string(fm.Cycle), day, month, fm.Weekdays)
	if err != nil {
		return tracker.Draft{}, err
	}
	return tracker.Draft{
		Name:             strings.TrimSpace(fm.Name),
		Payload:          models.Quantity{Amount: amount, Unit: fm.Unit},
		Category:         strings.TrimSpace(fm.Category),
		Rule:             rule,
		ReminderLeadDays: lead,
	}, nil
}

func intField(what string, lo, hi int) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		i, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || i < lo || i > hi {
			return fmt.Errorf("%s must be between %d and %d", what, lo, hi)
		}
		return nil
	}
}

// NewExpenseForm creates the form behind `expense add -i`
func NewExpenseForm(fm *ExpenseFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&fm.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Amount").
				Value(&fm.Amount).
				Validate(func(s string) error {
					_, err := parseAmount(strings.TrimSpace(s))
					return err
				}),
			huh.NewSelect[models.Unit]().
				Title("Currency").
				Options(
					huh.NewOption("USD", models.UnitUSD),
					huh.NewOption("EUR", models.UnitEUR),
					huh.NewOption("ARS", models.UnitARS),
				).
				Value(&fm.Unit),
			huh.NewInput().
				Title("Category").
				Value(&fm.Category),
		),
		huh.NewGroup(
			huh.NewSelect[models.Cycle]().
				Title("Recurrence").
				Options(
					huh.NewOption("Monthly", models.CycleMonthly),
					huh.NewOption("Yearly", models.CycleYearly),
					huh.NewOption("Weekly", models.CycleWeekly),
					huh.NewOption("Daily", models.CycleDaily),
					huh.NewOption("Specific weekdays", models.CycleSpecificDays),
				).
				Value(&fm.Cycle),
			huh.NewInput().
				Title("Day of month").
				Description("For monthly and yearly").
				Value(&fm.Day).
				Validate(intField("day", 1, 31)),
			huh.NewInput().
				Title("Month").
				Description("For yearly").
				Value(&fm.Month).
				Validate(intField("month", 1, 12)),
			huh.NewInput().
				Title("Weekdays").
				Description("For specific weekdays, e.g. mon,thu").
				Value(&fm.Weekdays),
			huh.NewInput().
				Title("Remind days before").
				Value(&fm.Lead).
				Validate(intField("lead", 0, 365)),
		),
	).WithTheme(huh.ThemeDracula())
}

func expenseForm(today time.Time) (tracker.Draft, error) {
	fm := newExpenseFormModel(today)
	if err := NewExpenseForm(fm).Run(); err != nil {
		return tracker.Draft{}, err
	}
	return fm.Draft()
}
