package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/recur/internal/agenda"
	"github.com/julianstephens/recur/internal/backup"
	"github.com/julianstephens/recur/internal/clock"
	"github.com/julianstephens/recur/internal/config"
	"github.com/julianstephens/recur/internal/constants"
	"github.com/julianstephens/recur/internal/habits"
	"github.com/julianstephens/recur/internal/logger"
	"github.com/julianstephens/recur/internal/models"
	"github.com/julianstephens/recur/internal/planner"
	"github.com/julianstephens/recur/internal/recurrence"
	"github.com/julianstephens/recur/internal/storage"
	"github.com/julianstephens/recur/internal/tracker"
)

// Context is handed to every command's Run method.
type Context struct {
	Config *config.Config
	Clock  clock.Clock
	Out    io.Writer
	In     io.Reader
	// ConnString is the --db-connection flag for the postgres backend
	ConnString string
	// OnChange runs after any tracked state changes; set before Open.
	OnChange func()

	Store    storage.RecordStore
	Expenses *tracker.Tracker
	Meds     *tracker.Tracker
	Habits   *habits.Book
	Agenda   *agenda.Agenda

	ctx context.Context
}

func NewContext(ctx context.Context, cfg *config.Config, clk clock.Clock) *Context {
	return &Context{Config: cfg, Clock: clk, Out: os.Stdout, In: os.Stdin, ctx: ctx}
}

// Context returns the context commands run under.
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Open connects the configured store and loads every service.
func (c *Context) Open() error {
	if c.Store == nil {
		store, err := OpenStore(c.Context(), c.Config, c.ConnString)
		if err != nil {
			return err
		}
		c.Store = store
	}
	return c.Attach(c.Store)
}

// Attach builds the services on top of store and loads them.
func (c *Context) Attach(store storage.RecordStore) error {
	c.Store = store
	owner := c.Config.Owner
	c.Expenses = tracker.New(store, owner, models.KindExpense, tracker.WithClock(c.Clock), tracker.WithOnChange(c.changed))
	c.Meds = tracker.New(store, owner, models.KindMedication, tracker.WithClock(c.Clock), tracker.WithOnChange(c.changed))
	c.Habits = habits.New(store, owner, habits.WithClock(c.Clock), habits.WithOnChange(c.changed))
	c.Agenda = agenda.New(store, owner)
	c.Agenda.OnChange(c.changed)
	return c.Reload(c.Context())
}

// Reload refreshes every service from the store.
func (c *Context) Reload(ctx context.Context) error {
	for _, load := range []func(context.Context) error{c.Expenses.Load, c.Meds.Load, c.Habits.Load, c.Agenda.Load} {
		if err := load(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) changed() {
	if c.OnChange != nil {
		c.OnChange()
	}
}

// PlannerInput snapshots the loaded state
func (c *Context) PlannerInput() planner.Input {
	return planner.Input{
		Obligations:  c.Expenses.List(),
		Medications:  c.Meds.List(),
		Appointments: c.Agenda.Appointments(),
		Tasks:        c.Agenda.Tasks(),
		Prayers:      c.Agenda.Prayers(),
	}
}

// LoadInput reloads from the store and returns a fresh planner input.
func (c *Context) LoadInput(ctx context.Context) (planner.Input, error) {
	if err := c.Reload(ctx); err != nil {
		return planner.Input{}, err
	}
	return c.PlannerInput(), nil
}

func (c *Context) Close() error {
	if c.Store == nil {
		return nil
	}
	return c.Store.Close()
}

// Now is the current time in the configured timezone
func (c *Context) Now() time.Time {
	return c.Clock.Now()
}

// ParseDay parses YYYY-MM-DD in the clock's location; empty means today.
func (c *Context) ParseDay(s string) (time.Time, error) {
	now := c.Now()
	if s == "" {
		return clock.Date(now), nil
	}
	d, err := time.ParseInLocation(constants.DateFormat, s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return d, nil
}

// PerformAutomaticBackup snapshots the SQLite store and only logs failures
func (c *Context) PerformAutomaticBackup() {
	if c.Config.Store.Backend != constants.BackendSQLite {
		return
	}
	if _, err := backup.NewManager(c.Config.Store.Path).CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// Confirm asks a yes/no question on Out and reads the answer from In.
func (c *Context) Confirm(question string) (bool, error) {
	c.printf("%s [y/N]: ", question)
	answer, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && answer == "" {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

// RuleFlags are the recurrence flags shared by every add/edit command.
type RuleFlags struct {
	Cycle    string `short:"c" help:"Recurrence: daily, weekly, monthly, yearly or specific_days."`
	Day      int    `short:"d" help:"Day of month for monthly and yearly rules."`
	Month    int    `short:"m" help:"Month (1-12) for yearly rules."`
	Weekdays string `short:"w" help:"Comma-separated weekdays for specific_days rules."`
}

// Set reports whether any rule flag was given
func (f RuleFlags) Set() bool {
	return f.Cycle != "" || f.Day != 0 || f.Month != 0 || f.Weekdays != ""
}

// Rule builds the rule, using def when no cycle was given. Monthly and yearly
// rules default to today's day and month.
func (f RuleFlags) Rule(def models.Cycle, today time.Time) (models.Rule, error) {
	cycle := strings.ToLower(f.Cycle)
	if cycle == "" {
		cycle = string(def)
	}
	day, month := f.Day, f.Month
	if day == 0 && (cycle == string(models.CycleMonthly) || cycle == string(models.CycleYearly)) {
		day = today.Day()
	}
	if month == 0 && cycle == string(models.CycleYearly) {
		month = int(today.Month())
	}
	return recurrence.Parse(cycle, day, month, f.Weekdays)
}

// ShortID trims a UUID for display; prefixes of 4+ characters resolve back.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Table renders rows with a header in the CLI's table style.
func Table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...).
		Rows(rows...).
		String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
