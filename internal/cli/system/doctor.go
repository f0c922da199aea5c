package system

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/julianstephens/recur/internal/backup"
	"github.com/julianstephens/recur/internal/cli"
	"github.com/julianstephens/recur/internal/clock"
	"github.com/julianstephens/recur/internal/constants"
	"github.com/julianstephens/recur/internal/keyring"
	"github.com/julianstephens/recur/internal/migration"
	"github.com/julianstephens/recur/internal/notifier"
	"github.com/julianstephens/recur/internal/recurrence"
	"github.com/julianstephens/recur/internal/storage/sqlite"
	"github.com/julianstephens/recur/migrations"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusFail    Status = "fail"
	StatusWarn    Status = "warn"
	StatusSkipped Status = "skipped"
)

// Result is the outcome of one diagnostic
type Result struct {
	Name   string
	Status Status
	Err    error
}

// errNotApplicable skips a check that does not apply to the configuration
var errNotApplicable = errors.New("not applicable")

type check struct {
	name      string
	warnOnly  bool
	needStore bool
	run       func(*cli.Context) error
}

var checks = []check{
	{name: "Configuration", run: func(ctx *cli.Context) error { return ctx.Config.Validate() }},
	{name: "Clock/timezone", run: checkClockTimezone},
	{name: "Store reachable", run: func(ctx *cli.Context) error { return ctx.Open() }},
	{name: "Schema version", needStore: true, run: checkSchemaVersion},
	{name: "Data validation", needStore: true, run: checkData},
	{name: "Backups present", warnOnly: true, needStore: true, run: checkBackups},
	{name: "Keyring", warnOnly: true, run: checkKeyring},
	{name: "Tray running", warnOnly: true, run: checkTray},
}

// Diagnose runs every check in order. Checks needing the store are skipped
// when it could not be opened.
func Diagnose(ctx *cli.Context) []Result {
	var results []Result
	storeOK := true
	for _, c := range checks {
		if c.needStore && !storeOK {
			results = append(results, Result{Name: c.name, Status: StatusSkipped, Err: errors.New("store not reachable")})
			continue
		}
		err := c.run(ctx)
		r := Result{Name: c.name, Status: StatusOK, Err: err}
		switch {
		case errors.Is(err, errNotApplicable):
			r.Status, r.Err = StatusSkipped, nil
		case err != nil && c.warnOnly:
			r.Status = StatusWarn
		case err != nil:
			r.Status = StatusFail
		}
		if c.name == "Store reachable" && err != nil {
			storeOK = false
		}
		results = append(results, r)
	}
	return results
}

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Fprintln(ctx.Out, "Running diagnostics...")
	fmt.Fprintln(ctx.Out)

	failed := 0
	for _, r := range Diagnose(ctx) {
		switch r.Status {
		case StatusOK:
			fmt.Fprintf(ctx.Out, "✓ %s: OK\n", r.Name)
		case StatusWarn:
			fmt.Fprintf(ctx.Out, "⚠ %s: WARNING\n   %v\n", r.Name, r.Err)
		case StatusSkipped:
			if r.Err != nil {
				fmt.Fprintf(ctx.Out, "⊘ %s: SKIPPED (%v)\n", r.Name, r.Err)
			} else {
				fmt.Fprintf(ctx.Out, "⊘ %s: SKIPPED\n", r.Name)
			}
		case StatusFail:
			failed++
			fmt.Fprintf(ctx.Out, "❌ %s: FAIL\n   Error: %v\n", r.Name, r.Err)
		}
	}

	fmt.Fprintln(ctx.Out)
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	fmt.Fprintln(ctx.Out, "All checks passed.")
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	if _, err := clock.LoadLocation(ctx.Config.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", ctx.Config.Timezone, err)
	}
	now := ctx.Now()
	if now.Year() < 2020 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	store, ok := ctx.Store.(*sqlite.Store)
	if !ok {
		return errNotApplicable
	}
	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return err
	}
	runner := migration.NewRunner(store.DB(), sub, migration.DriverSQLite)
	if err := runner.ValidateVersion(ctx.Context()); err != nil {
		return err
	}
	current, err := runner.CurrentVersion(ctx.Context())
	if err != nil {
		return err
	}
	latest, err := runner.LatestVersion()
	if err != nil {
		return err
	}
	if current != latest {
		return fmt.Errorf("schema at version %d, latest is %d", current, latest)
	}
	return nil
}

// checkData re-validates what is stored, catching records edited by hand.
func checkData(ctx *cli.Context) error {
	var problems []error
	for _, ob := range append(ctx.Expenses.List(), ctx.Meds.List()...) {
		if err := recurrence.Validate(ob.Rule); err != nil {
			problems = append(problems, fmt.Errorf("%s %q: %w", ob.Kind, ob.Name, err))
		}
	}
	for _, m := range ctx.Meds.List() {
		if _, err := time.Parse(constants.TimeFormat, m.TimeOfDay); err != nil {
			problems = append(problems, fmt.Errorf("medication %q: bad time of day %q", m.Name, m.TimeOfDay))
		}
	}
	for _, h := range ctx.Habits.List(ctx.Now()) {
		if err := recurrence.Validate(h.Rule); err != nil {
			problems = append(problems, fmt.Errorf("habit %q: %w", h.Name, err))
		}
	}
	return errors.Join(problems...)
}

func checkBackups(ctx *cli.Context) error {
	if ctx.Config.Store.Backend != constants.BackendSQLite {
		return errNotApplicable
	}
	mgr := backup.NewManager(ctx.Config.Store.Path)
	list, err := mgr.ListBackups()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("no backups in %s (run `recur backup create`)", mgr.GetBackupDir())
	}
	return nil
}

func checkKeyring(ctx *cli.Context) error {
	if ctx.Config.Store.Backend != constants.BackendPostgres {
		return errNotApplicable
	}
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	return nil
}

func checkTray(ctx *cli.Context) error {
	if ctx.Config.Notify.Sink != "tray" {
		return errNotApplicable
	}
	return notifier.CheckTray()
}
