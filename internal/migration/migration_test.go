package migration

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/recur/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func files(m map[string]string) fstest.MapFS {
	out := fstest.MapFS{}
	for name, content := range m {
		out[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return out
}

func TestCurrentVersion(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(setupTestDB(t), files(map[string]string{
		"001_test.sql": "CREATE TABLE test (id INTEGER);",
	}), DriverSQLite)

	version, err := runner.CurrentVersion(ctx)
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0, got %d", version)
	}

	if err := runner.SetVersion(ctx, 5); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}
	version, err = runner.CurrentVersion(ctx)
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != 5 {
		t.Errorf("expected version 5, got %d", version)
	}
}

func TestApplyFromScratchThenNoOp(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	runner := NewRunner(db, files(map[string]string{
		"002_b.sql": "CREATE TABLE b (id INTEGER);",
		"001_a.sql": "CREATE TABLE a (id INTEGER);",
		"README.md": "ignored",
	}), DriverSQLite)

	var logs []string
	applied, err := runner.Apply(ctx, func(s string) { logs = append(logs, s) })
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if applied != 2 {
		t.Errorf("applied = %d, want 2", applied)
	}
	if len(logs) == 0 {
		t.Error("expected progress messages")
	}

	applied, err = runner.Apply(ctx, nil)
	if err != nil {
		t.Fatalf("second Apply failed: %v", err)
	}
	if applied != 0 {
		t.Errorf("second Apply applied %d migrations", applied)
	}

	for _, table := range []string{"a", "b"} {
		if _, err := db.Exec("SELECT id FROM " + table); err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestApplyRollsBackFailedMigration(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	runner := NewRunner(db, files(map[string]string{
		"001_ok.sql":  "CREATE TABLE ok (id INTEGER);",
		"002_bad.sql": "CREATE TABLE broken (",
	}), DriverSQLite)

	applied, err := runner.Apply(ctx, nil)
	if err == nil {
		t.Fatal("expected error from malformed migration")
	}
	if applied != 1 {
		t.Errorf("applied = %d, want 1", applied)
	}
	version, _ := runner.CurrentVersion(ctx)
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}
}

func TestValidateVersionNewerDatabase(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(setupTestDB(t), files(map[string]string{
		"001_a.sql": "CREATE TABLE a (id INTEGER);",
	}), DriverSQLite)

	if err := runner.SetVersion(ctx, 9); err != nil {
		t.Fatal(err)
	}
	if err := runner.ValidateVersion(ctx); !errors.Is(err, ErrSchemaTooNew) {
		t.Errorf("ValidateVersion() = %v, want ErrSchemaTooNew", err)
	}
	if _, err := runner.Apply(ctx, nil); !errors.Is(err, ErrSchemaTooNew) {
		t.Errorf("Apply() = %v, want ErrSchemaTooNew", err)
	}
}

func TestFilesValidation(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"missing underscore", map[string]string{"001.sql": "SELECT 1;"}},
		{"non-numeric version", map[string]string{"abc_init.sql": "SELECT 1;"}},
		{"zero version", map[string]string{"000_init.sql": "SELECT 1;"}},
		{"duplicate version", map[string]string{"001_a.sql": "SELECT 1;", "001_b.sql": "SELECT 1;"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewRunner(nil, files(tt.files), DriverSQLite)
			if _, err := runner.Files(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEmbeddedSQLiteMigrations(t *testing.T) {
	ctx := context.Background()
	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		t.Fatal(err)
	}
	db := setupTestDB(t)
	runner := NewRunner(db, sub, DriverSQLite)
	if _, err := runner.Apply(ctx, nil); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO records (owner, key, value, updated_at) VALUES ('o', 'k', '[]', 'now')"); err != nil {
		t.Errorf("records table not usable: %v", err)
	}
}
