package system

import (
	"context"
	"fmt"

	"github.com/julianstephens/recur/internal/cli"
	"github.com/julianstephens/recur/internal/daemon"
	"github.com/julianstephens/recur/internal/models"
	"github.com/julianstephens/recur/internal/notifier"
	"github.com/julianstephens/recur/internal/notify"
	"github.com/julianstephens/recur/internal/planner"
)

// WatchCmd keeps notifications planned and delivered until interrupted.
type WatchCmd struct{}

func (c *WatchCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Config
	svc, local, err := ctx.NotificationService(ctx.Context(), false)
	if err != nil {
		return err
	}

	replanner := daemon.NewReplanner(ctx.LoadInput, planner.New(cfg.PlannerOptions()), svc, ctx.Clock,
		daemon.NewDebouncer(cfg.Notify.Debounce))
	ctx.OnChange = replanner.Trigger

	var sender notify.Sender = notifier.New()
	if cfg.Notify.Sink == "print" {
		sender = notify.SenderFunc(func(_ context.Context, n models.Notification) error {
			fmt.Fprintf(ctx.Out, "%s  %s: %s\n", n.FireAt.Format("15:04"), n.Title, n.Body)
			return nil
		})
	}

	d := &daemon.Daemon{
		Replanner:        replanner,
		Watcher:          daemon.NewWatcher(ctx.Meds.List, sender, ctx.Clock),
		PollInterval:     cfg.Notify.PollInterval,
		DispatchInterval: cfg.Notify.DispatchInterval,
	}
	if local != nil {
		d.Dispatcher = local
	}

	fmt.Fprintf(ctx.Out, "Watching (sink: %s). Press Ctrl+C to stop.\n", cfg.Notify.Sink)
	return d.Run(ctx.Context())
}
