package system

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/recur/internal/cli"
	"github.com/julianstephens/recur/internal/planner"
	"github.com/julianstephens/recur/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	ctx.PerformAutomaticBackup()

	model := tui.NewModel(ctx, planner.New(ctx.Config.PlannerOptions()))
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}
