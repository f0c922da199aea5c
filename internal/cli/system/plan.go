package system

import (
	"fmt"

	"github.com/julianstephens/recur/internal/cli"
	"github.com/julianstephens/recur/internal/planner"
)

type PlanCmd struct {
	DryRun bool `help:"Print the plan instead of handing it to the notification sink."`
}

func (c *PlanCmd) Run(ctx *cli.Context) error {
	plan := planner.New(ctx.Config.PlannerOptions()).Plan(ctx.Now(), ctx.PlannerInput())

	// tray delivery needs a long-running process, so a one-shot plan only prints
	tray := ctx.Config.Notify.Sink == "tray"
	svc, _, err := ctx.NotificationService(ctx.Context(), c.DryRun || tray)
	if err != nil {
		return err
	}
	if err := svc.Replace(ctx.Context(), plan); err != nil {
		return err
	}
	if tray && !c.DryRun {
		fmt.Fprintln(ctx.Out, "Tray delivery runs under `recur watch`.")
	} else if !c.DryRun && ctx.Config.Notify.Sink == "queue" {
		fmt.Fprintf(ctx.Out, "Queued a plan of %d notification(s).\n", len(plan))
	}
	return nil
}
