package system

import (
	"fmt"

	"github.com/julianstephens/recur/internal/cli"
	"github.com/julianstephens/recur/internal/config"
	"github.com/julianstephens/recur/internal/constants"
	"github.com/julianstephens/recur/internal/keyring"
	"github.com/julianstephens/recur/internal/storage/postgres"
)

type InitCmd struct {
	StoreSecret bool `help:"Save --db-connection in the OS keyring for later runs."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	wrote, err := config.WriteDefault(ctx.Config.Dir)
	if err != nil {
		return err
	}
	if wrote {
		fmt.Fprintf(ctx.Out, "Wrote default config: %s\n", ctx.Config.Path())
	}

	if c.StoreSecret {
		if ctx.ConnString == "" {
			return fmt.Errorf("--store-secret needs --db-connection")
		}
		if err := postgres.ValidateConnString(ctx.ConnString); err != nil {
			return err
		}
		if err := keyring.SetConnectionString(ctx.ConnString); err != nil {
			return err
		}
		fmt.Fprintln(ctx.Out, "Stored database connection string in the OS keyring.")
	}

	if err := ctx.Open(); err != nil {
		return fmt.Errorf("failed to initialize %s store: %w", ctx.Config.Store.Backend, err)
	}

	where := ctx.Config.Store.Path
	if where == "" {
		where = ctx.Config.Store.Backend
	}
	fmt.Fprintf(ctx.Out, "Initialized %s store (%s) for owner %q\n", ctx.Config.Store.Backend, where, ctx.Config.Owner)
	if ctx.Config.Store.Backend == constants.BackendMemory {
		fmt.Fprintln(ctx.Out, "Note: the memory backend does not persist between runs.")
	}
	return nil
}
