package backups

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/recur/internal/cli"
	"github.com/julianstephens/recur/internal/clock"
	"github.com/julianstephens/recur/internal/config"
	"github.com/julianstephens/recur/internal/constants"
	"github.com/julianstephens/recur/internal/recurrence"
)

func setupContext(t *testing.T, backend string) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Dir:      dir,
		Owner:    "alice",
		Timezone: "UTC",
		Store:    config.StoreConfig{Backend: backend},
		Notify:   config.NotifyConfig{Sink: "print", TaskDefaultTime: constants.DefaultTaskTime},
	}
	if backend == constants.BackendSQLite {
		cfg.Store.Path = filepath.Join(dir, "recur.db")
	}
	ctx := cli.NewContext(context.Background(), cfg, clock.NewFixed(time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)))
	out := &bytes.Buffer{}
	ctx.Out = out
	if err := ctx.Open(); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { ctx.Close() })
	return ctx, out
}

func TestBackupCreateListRestore(t *testing.T) {
	ctx, out := setupContext(t, constants.BackendSQLite)
	if _, err := ctx.Habits.Add(ctx.Context(), "walk", recurrence.Daily()); err != nil {
		t.Fatal(err)
	}

	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "✓ Backup created: "+constants.BackupFilePrefix) {
		t.Errorf("unexpected output: %q", out.String())
	}
	name := strings.TrimSpace(strings.TrimPrefix(out.String(), "✓ Backup created: "))

	out.Reset()
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), name) {
		t.Errorf("list does not show %s:\n%s", name, out.String())
	}

	if _, err := ctx.Habits.Add(ctx.Context(), "read", recurrence.Daily()); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if err := (&BackupRestoreCmd{BackupFile: name, Yes: true}).Run(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !strings.Contains(out.String(), "✓ Database restored successfully!") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
	if ctx.Store != nil {
		t.Error("restore should leave the store closed")
	}

	if err := ctx.Open(); err != nil {
		t.Fatal(err)
	}
	habits := ctx.Habits.List(ctx.Now())
	if len(habits) != 1 || habits[0].Name != "walk" {
		t.Errorf("expected only the backed-up habit, got %+v", habits)
	}
}

func TestBackupRestoreCancelled(t *testing.T) {
	ctx, out := setupContext(t, constants.BackendSQLite)
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	name := strings.TrimSpace(strings.TrimPrefix(out.String(), "✓ Backup created: "))

	ctx.In = strings.NewReader("n\n")
	out.Reset()
	if err := (&BackupRestoreCmd{BackupFile: name}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(out.String(), "Restore cancelled.\n") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
	if ctx.Store == nil {
		t.Error("cancelled restore must not close the store")
	}
}

func TestBackupRestoreMissingFile(t *testing.T) {
	ctx, _ := setupContext(t, constants.BackendSQLite)
	if err := (&BackupRestoreCmd{BackupFile: "nope.db", Yes: true}).Run(ctx); err == nil {
		t.Fatal("expected an error for a missing backup")
	}
}

func TestFileBackupsNeedSQLite(t *testing.T) {
	ctx, _ := setupContext(t, constants.BackendMemory)
	if err := (&BackupCreateCmd{}).Run(ctx); err == nil {
		t.Fatal("expected create to fail on the memory backend")
	}
	if err := (&BackupListCmd{}).Run(ctx); err == nil {
		t.Fatal("expected list to fail on the memory backend")
	}
}

func TestExportImport(t *testing.T) {
	src, out := setupContext(t, constants.BackendMemory)
	if _, err := src.Habits.Add(src.Context(), "walk", recurrence.Daily()); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(t.TempDir(), "export.json")

	if err := (&BackupExportCmd{Output: file}).Run(src); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !strings.Contains(out.String(), "✓ Exported 1 record(s)") {
		t.Errorf("unexpected output: %q", out.String())
	}
	if _, err := os.Stat(file); err != nil {
		t.Fatal(err)
	}

	dst, dstOut := setupContext(t, constants.BackendMemory)
	if err := (&BackupImportCmd{File: file, Yes: true}).Run(dst); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if dstOut.String() != "✓ Imported 1 record(s)\n" {
		t.Errorf("unexpected output: %q", dstOut.String())
	}
	habits := dst.Habits.List(dst.Now())
	if len(habits) != 1 || habits[0].Name != "walk" {
		t.Errorf("import did not load the habit: %+v", habits)
	}
}

func TestExportToStdout(t *testing.T) {
	ctx, out := setupContext(t, constants.BackendMemory)
	if err := (&BackupExportCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"owner": "alice"`) {
		t.Errorf("expected the snapshot on stdout:\n%s", out.String())
	}
}
