// Package sqlite is the default RecordStore, a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/recur/internal/logger"
	"github.com/julianstephens/recur/internal/migration"
	"github.com/julianstephens/recur/internal/storage"
	"github.com/julianstephens/recur/migrations"
)

type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

// Open creates the database file if needed and brings the schema up to date.
func (s *Store) Open(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// modernc sqlite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return fmt.Errorf("failed to configure database: %w", err)
	}
	s.db = db

	if err := s.runMigrations(ctx); err != nil {
		s.db.Close()
		s.db = nil
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) runMigrations(ctx context.Context) error {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	runner := migration.NewRunner(s.db, subFS, migration.DriverSQLite)
	_, err = runner.Apply(ctx, func(msg string) {
		logger.Debug(msg, "store", s.path)
	})
	return err
}

func (s *Store) Load(ctx context.Context, key storage.Key) ([]byte, error) {
	if s.db == nil {
		return nil, fmt.Errorf("sqlite store not open")
	}
	var value []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM records WHERE owner = ? AND key = ?",
		key.Owner, key.Name,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Save(ctx context.Context, key storage.Key, value []byte) error {
	if s.db == nil {
		return fmt.Errorf("sqlite store not open")
	}
	if err := key.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (owner, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(owner, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key.Owner, key.Name, value, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context, owner string) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("sqlite store not open")
	}
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM records WHERE owner = ? ORDER BY key", owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DB exposes the handle for backup snapshots.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}
