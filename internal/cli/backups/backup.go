package backups

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/recur/internal/backup"
	"github.com/julianstephens/recur/internal/cli"
	"github.com/julianstephens/recur/internal/constants"
	"github.com/julianstephens/recur/internal/logger"
)

func sqliteManager(ctx *cli.Context) (*backup.Manager, error) {
	if ctx.Config.Store.Backend != constants.BackendSQLite {
		return nil, fmt.Errorf("file backups need the sqlite backend (current: %s); use `recur backup export` instead", ctx.Config.Store.Backend)
	}
	return backup.NewManager(ctx.Config.Store.Path), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := sqliteManager(ctx)
	if err != nil {
		return err
	}
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	fmt.Fprintf(ctx.Out, "✓ Backup created: %s\n", filepath.Base(backupPath))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := sqliteManager(ctx)
	if err != nil {
		return err
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		fmt.Fprintln(ctx.Out, "No backups found.")
		fmt.Fprintf(ctx.Out, "Backups are stored in: %s\n", mgr.GetBackupDir())
		return nil
	}

	rows := make([][]string, 0, len(backups))
	for _, b := range backups {
		rows = append(rows, []string{
			b.Timestamp.Format("2006-01-02 15:04:05"),
			filepath.Base(b.Path),
			fmt.Sprintf("%.1f KB", float64(b.Size)/1024.0),
		})
	}
	fmt.Fprintf(ctx.Out, "Available backups (%d total, keeping most recent %d):\n", len(backups), constants.MaxBackups)
	fmt.Fprintln(ctx.Out, cli.Table([]string{"Taken", "File", "Size"}, rows))
	fmt.Fprintf(ctx.Out, "Backup directory: %s\n", mgr.GetBackupDir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Skip the confirmation prompt."`
}

// resolve finds BackupFile as given, then inside the backup directory.
func (c *BackupRestoreCmd) resolve(mgr *backup.Manager) (string, error) {
	if _, err := os.Stat(c.BackupFile); err == nil {
		return filepath.Abs(c.BackupFile)
	}
	if !filepath.IsAbs(c.BackupFile) {
		candidate := filepath.Join(mgr.GetBackupDir(), c.BackupFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		return "", fmt.Errorf("backup file not found: tried current directory and %s", mgr.GetBackupDir())
	}
	return "", fmt.Errorf("backup file not found: %s", c.BackupFile)
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := sqliteManager(ctx)
	if err != nil {
		return err
	}
	backupPath, err := c.resolve(mgr)
	if err != nil {
		return err
	}

	if !c.Yes {
		fmt.Fprintln(ctx.Out, "⚠️  WARNING: This will replace your current database with the backup.")
		fmt.Fprintln(ctx.Out, "⚠️  Stop `recur watch` and any open dashboard before restoring.")
		fmt.Fprintf(ctx.Out, "\nRestore from: %s\n", backupPath)
		ok, err := ctx.Confirm("Continue?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(ctx.Out, "Restore cancelled.")
			return nil
		}
	}

	if err := ctx.Close(); err != nil {
		logger.Warn("Failed to close database before restore", "error", err)
	}
	ctx.Store = nil

	previous, err := mgr.RestoreBackup(backupPath)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	fmt.Fprintln(ctx.Out, "✓ Database restored successfully!")
	if previous != "" {
		fmt.Fprintf(ctx.Out, "  Previous database saved as %s\n", filepath.Base(previous))
	}
	return nil
}

type BackupExportCmd struct {
	Output string `short:"o" help:"Write to this file instead of stdout." type:"path"`
}

func (c *BackupExportCmd) Run(ctx *cli.Context) error {
	store, ok := ctx.Store.(backup.ListingStore)
	if !ok {
		return fmt.Errorf("the %s backend cannot enumerate its records", ctx.Config.Store.Backend)
	}

	w := ctx.Out
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	n, err := backup.Export(ctx.Context(), store, ctx.Config.Owner, ctx.Now(), w)
	if err != nil {
		return err
	}
	if c.Output != "" {
		fmt.Fprintf(ctx.Out, "✓ Exported %d record(s) to %s\n", n, c.Output)
	}
	return nil
}

type BackupImportCmd struct {
	File string `arg:"" help:"Export file to import." type:"existingfile"`
	Yes  bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *BackupImportCmd) Run(ctx *cli.Context) error {
	if !c.Yes {
		ok, err := ctx.Confirm(fmt.Sprintf("Overwrite the records of %q with %s?", ctx.Config.Owner, filepath.Base(c.File)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(ctx.Out, "Import cancelled.")
			return nil
		}
	}

	f, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("failed to open export file: %w", err)
	}
	defer f.Close()

	n, err := backup.Import(ctx.Context(), ctx.Store, ctx.Config.Owner, f)
	if err != nil {
		return err
	}
	if err := ctx.Reload(ctx.Context()); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "✓ Imported %d record(s)\n", n)
	return nil
}
