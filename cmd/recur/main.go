package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/recur/internal/cli"
	"github.com/julianstephens/recur/internal/cli/backups"
	"github.com/julianstephens/recur/internal/cli/system"
	"github.com/julianstephens/recur/internal/clock"
	"github.com/julianstephens/recur/internal/config"
	"github.com/julianstephens/recur/internal/constants"
	apperr "github.com/julianstephens/recur/internal/errors"
	"github.com/julianstephens/recur/internal/logger"
)

var CLI struct {
	Version      kong.VersionFlag
	ConfigDir    string `help:"Directory holding config.yaml, logs and the default SQLite database." type:"path" default:"~/.config/recur"`
	DbConnection string `help:"PostgreSQL connection string. Prefer the RECUR_DB_CONNECTION environment variable or the OS keyring."`
	Debug        bool   `help:"Enable debug logging to stderr."`

	Init    system.InitCmd   `cmd:"" help:"Write the default config and initialize the store."`
	Tui     system.TuiCmd    `cmd:"" help:"Launch the interactive dashboard." default:"1"`
	Expense cli.ExpenseCmd   `cmd:"" help:"Manage recurring expenses."`
	Med     cli.MedCmd       `cmd:"" help:"Manage medications."`
	Habit   cli.HabitCmd     `cmd:"" help:"Manage habits and streaks."`
	Appt    cli.ApptCmd      `cmd:"" help:"Manage appointments."`
	Task    cli.TaskCmd      `cmd:"" help:"Manage tasks with deadlines."`
	Prayer  cli.PrayerCmd    `cmd:"" help:"Manage daily prayer times."`
	Plan    system.PlanCmd   `cmd:"" help:"Compute the pending notifications and hand them to the sink."`
	Watch   system.WatchCmd  `cmd:"" help:"Run the notification daemon."`
	Doctor  system.DoctorCmd `cmd:"" help:"Run health checks and diagnostics."`
	Backup  struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
		Export  backups.BackupExportCmd  `cmd:"" help:"Export every record as JSON."`
		Import  backups.BackupImportCmd  `cmd:"" help:"Import records from a JSON export."`
	} `cmd:"" help:"Manage backups and exports."`
}

// commands that open the store themselves
var selfOpening = map[string]bool{"init": true, "doctor": true}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Due dates, reminders and streaks for recurring obligations"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.ConfigDir)
	if err != nil {
		apperr.Fatal(err)
	}

	command := ""
	if node := kctx.Selected(); node != nil {
		command = node.Name
	}
	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug || cfg.Debug,
		ConfigDir: cfg.Dir,
		Stderr:    command == "watch",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	clk, err := clock.NewSystem(cfg.Timezone)
	if err != nil {
		apperr.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewContext(ctx, cfg, clk)
	app.ConnString = CLI.DbConnection

	if !selfOpening[command] {
		if err := app.Open(); err != nil {
			apperr.Fatal(err)
		}
	}

	err = kctx.Run(app)
	if closeErr := app.Close(); closeErr != nil {
		logger.Warn("Failed to close store", "error", closeErr)
	}
	if err != nil {
		stop()
		apperr.Fatal(err)
	}
}
