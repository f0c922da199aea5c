package cli

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/recur/internal/models"
	"github.com/julianstephens/recur/internal/recurrence"
	"github.com/julianstephens/recur/internal/tracker"
)

type ExpenseCmd struct {
	Add      ExpenseAddCmd      `cmd:"" help:"Add a recurring expense."`
	List     ExpenseListCmd     `cmd:"" help:"List expenses."`
	Edit     ExpenseEditCmd     `cmd:"" help:"Edit an expense."`
	Toggle   ExpenseToggleCmd   `cmd:"" help:"Pause or resume an expense."`
	Delete   ExpenseDeleteCmd   `cmd:"" help:"Delete an expense."`
	Process  ExpenseProcessCmd  `cmd:"" help:"Mark an expense as processed for a day."`
	Due      ExpenseDueCmd      `cmd:"" help:"Show expenses due and unprocessed on a day."`
	Upcoming ExpenseUpcomingCmd `cmd:"" help:"Show expenses coming due within their reminder window."`
	Totals   ExpenseTotalsCmd   `cmd:"" help:"Show monthly and yearly totals per currency."`
}

type ExpenseAddCmd struct {
	Name        string `arg:"" optional:"" help:"Expense name."`
	Amount      string `short:"a" help:"Amount, e.g. 12.50."`
	Unit        string `short:"u" help:"Currency (USD, EUR, ARS)." default:"USD"`
	Category    string `help:"Optional category."`
	Lead        int    `short:"l" help:"Days before the due date to start reminding." default:"3"`
	Interactive bool   `short:"i" help:"Fill the expense in with a form."`
	RuleFlags   `embed:""`
}

func (c *ExpenseAddCmd) Run(ctx *Context) error {
	var draft tracker.Draft
	if c.Interactive {
		d, err := expenseForm(ctx.Now())
		if err != nil {
			return err
		}
		draft = d
	} else {
		if c.Name == "" {
			return fmt.Errorf("expense name is required (or use -i)")
		}
		amount, err := parseAmount(c.Amount)
		if err != nil {
			return err
		}
		unit, err := models.ParseUnit(c.Unit)
		if err != nil {
			return err
		}
		rule, err := c.Rule(models.CycleMonthly, ctx.Now())
		if err != nil {
			return err
		}
		draft = tracker.Draft{
			Name:             c.Name,
			Payload:          models.Quantity{Amount: amount, Unit: unit},
			Category:         c.Category,
			Rule:             rule,
			ReminderLeadDays: c.Lead,
		}
	}

	ob, err := ctx.Expenses.Add(ctx.Context(), draft)
	if err != nil {
		return err
	}
	ctx.printf("Added expense: %s (%s, %s) [%s]\n", ob.Name, ob.Payload, recurrence.Describe(ob.Rule), ShortID(ob.ID))
	return nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount cannot be negative")
	}
	return d, nil
}

type ExpenseListCmd struct {
	All bool `help:"Include paused expenses."`
}

func (c *ExpenseListCmd) Run(ctx *Context) error {
	obs := ctx.Expenses.List()
	today := ctx.Now()

	var rows [][]string
	for _, ob := range obs {
		if !ob.Active && !c.All {
			continue
		}
		next := "-"
		if ob.Active {
			// NextDueAfter is exclusive; start from yesterday so today counts
			if d := recurrence.NextDueAfter(ob.Rule, today.AddDate(0, 0, -1)); !d.IsZero() {
				next = d.Format("2006-01-02")
			}
		}
		rows = append(rows, []string{
			ShortID(ob.ID), ob.Name, ob.Payload.String(), recurrence.Describe(ob.Rule),
			next, strconv.Itoa(ob.ReminderLeadDays), yesNo(ob.Active),
		})
	}
	if len(rows) == 0 {
		ctx.printf("No expenses found.\n")
		return nil
	}
	ctx.printf("%s\n", Table([]string{"ID", "Name", "Amount", "Rule", "Next", "Lead", "Active"}, rows))
	return nil
}

type ExpenseEditCmd struct {
	ID        string `arg:"" help:"Expense ID or prefix."`
	Name      string `help:"New name."`
	Amount    string `short:"a" help:"New amount."`
	Unit      string `short:"u" help:"New currency."`
	Category  string `help:"New category."`
	Lead      int    `short:"l" help:"New reminder lead in days." default:"-1"`
	RuleFlags `embed:""`
}

func (c *ExpenseEditCmd) Run(ctx *Context) error {
	ob, err := ctx.Expenses.Get(c.ID)
	if err != nil {
		return err
	}
	d := tracker.DraftOf(ob)
	if c.Name != "" {
		d.Name = c.Name
	}
	if c.Amount != "" {
		if d.Payload.Amount, err = parseAmount(c.Amount); err != nil {
			return err
		}
	}
	if c.Unit != "" {
		if d.Payload.Unit, err = models.ParseUnit(c.Unit); err != nil {
			return err
		}
	}
	if c.Category != "" {
		d.Category = c.Category
	}
	if c.Lead >= 0 {
		d.ReminderLeadDays = c.Lead
	}
	if c.RuleFlags.Set() {
		if d.Rule, err = c.Rule(ob.Rule.Cycle, ctx.Now()); err != nil {
			return err
		}
	}

	updated, err := ctx.Expenses.Update(ctx.Context(), ob.ID, d)
	if err != nil {
		return err
	}
	ctx.printf("Updated expense: %s (%s, %s)\n", updated.Name, updated.Payload, recurrence.Describe(updated.Rule))
	return nil
}

type ExpenseToggleCmd struct {
	ID string `arg:"" help:"Expense ID or prefix."`
}

func (c *ExpenseToggleCmd) Run(ctx *Context) error {
	return toggleObligation(ctx, ctx.Expenses, c.ID)
}

type ExpenseDeleteCmd struct {
	ID string `arg:"" help:"Expense ID or prefix."`
}

func (c *ExpenseDeleteCmd) Run(ctx *Context) error {
	return removeObligation(ctx, ctx.Expenses, c.ID)
}

type ExpenseProcessCmd struct {
	ID   string `arg:"" help:"Expense ID or prefix."`
	Date string `help:"Day in YYYY-MM-DD format (default: today)."`
}

func (c *ExpenseProcessCmd) Run(ctx *Context) error {
	ob, err := ctx.Expenses.Get(c.ID)
	if err != nil {
		return err
	}
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}
	if ctx.Expenses.WasProcessed(ob.ID, day) {
		ctx.printf("%s was already processed for %s\n", ob.Name, day.Format("2006-01-02"))
		return nil
	}
	if err := ctx.Expenses.MarkProcessed(ctx.Context(), ob.ID, day); err != nil {
		return err
	}
	ctx.printf("Processed %s for %s\n", ob.Name, day.Format("2006-01-02"))
	return nil
}

type ExpenseDueCmd struct {
	Date string `help:"Day in YYYY-MM-DD format (default: today)."`
}

func (c *ExpenseDueCmd) Run(ctx *Context) error {
	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}
	due := ctx.Expenses.DueToday(day)
	if len(due) == 0 {
		ctx.printf("Nothing due on %s.\n", day.Format("2006-01-02"))
		return nil
	}
	var rows [][]string
	for _, ob := range due {
		rows = append(rows, []string{ShortID(ob.ID), ob.Name, ob.Payload.String(), ob.Category})
	}
	ctx.printf("Due on %s:\n%s\n", day.Format("2006-01-02"), Table([]string{"ID", "Name", "Amount", "Category"}, rows))
	return nil
}

type ExpenseUpcomingCmd struct{}

func (c *ExpenseUpcomingCmd) Run(ctx *Context) error {
	reminders := ctx.Expenses.Upcoming(ctx.Now())
	if len(reminders) == 0 {
		ctx.printf("Nothing coming up.\n")
		return nil
	}
	var rows [][]string
	for _, r := range reminders {
		rows = append(rows, []string{
			ShortID(r.Obligation.ID), r.Obligation.Name, r.Obligation.Payload.String(),
			r.DueDate.Format("2006-01-02"), fmt.Sprintf("in %d day(s)", r.DaysUntil),
		})
	}
	ctx.printf("%s\n", Table([]string{"ID", "Name", "Amount", "Due", "When"}, rows))
	return nil
}

type ExpenseTotalsCmd struct{}

func (c *ExpenseTotalsCmd) Run(ctx *Context) error {
	monthly := ctx.Expenses.MonthlyTotal()
	yearly := ctx.Expenses.YearlyTotal()
	if len(monthly) == 0 && len(yearly) == 0 {
		ctx.printf("No active expenses.\n")
		return nil
	}
	ctx.printf("Monthly: %s\n", monthly)
	ctx.printf("Yearly:  %s\n", yearly)
	return nil
}

func toggleObligation(ctx *Context, t *tracker.Tracker, ref string) error {
	ob, err := t.Get(ref)
	if err != nil {
		return err
	}
	active, err := t.ToggleActive(ctx.Context(), ob.ID)
	if err != nil {
		return err
	}
	state := "paused"
	if active {
		state = "resumed"
	}
	ctx.printf("%s %s\n", ob.Name, state)
	return nil
}

func removeObligation(ctx *Context, t *tracker.Tracker, ref string) error {
	ob, err := t.Get(ref)
	if err != nil {
		return err
	}
	if err := t.Remove(ctx.Context(), ob.ID); err != nil {
		return err
	}
	ctx.printf("Deleted %s\n", ob.Name)
	return nil
}
