// Package postgres stores records in a "records" table inside the recur schema.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"github.com/julianstephens/recur/internal/constants"
	"github.com/julianstephens/recur/internal/logger"
	"github.com/julianstephens/recur/internal/migration"
	"github.com/julianstephens/recur/internal/storage"
	"github.com/julianstephens/recur/migrations"
)

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

type Store struct {
	connStr string
	db      *sql.DB
}

// New returns a store for connStr with search_path defaulted to the app schema.
func New(connStr string) *Store {
	return &Store{connStr: withSearchPath(connStr, constants.AppName)}
}

func isURL(connStr string) bool {
	return strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://")
}

// dsnParams returns the lowercased keys of a key=value style connection string.
func dsnParams(connStr string) map[string]string {
	params := map[string]string{}
	for _, pair := range strings.Fields(connStr) {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		params[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return params
}

func hasParam(connStr, name string) bool {
	if isURL(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			return false
		}
		for key := range u.Query() {
			if strings.EqualFold(key, name) {
				return true
			}
		}
		return false
	}
	_, ok := dsnParams(connStr)[name]
	return ok
}

func withSearchPath(connStr, schema string) string {
	if hasParam(connStr, "search_path") {
		return connStr
	}
	if isURL(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			logger.Warn("Failed to parse Postgres connection string", "error", err)
			return connStr
		}
		q := u.Query()
		q.Set("search_path", schema)
		u.RawQuery = q.Encode()
		return u.String()
	}
	return strings.TrimSpace(connStr) + " search_path=" + schema
}

// ValidateConnString checks that connStr parses and carries no password.
// Passwords belong in the keyring or ~/.pgpass.
func ValidateConnString(connStr string) error {
	if strings.TrimSpace(connStr) == "" {
		return fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}
	if _, err := pq.NewConnector(connStr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}

	if isURL(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
		}
		if _, set := u.User.Password(); set {
			return ErrEmbeddedCredentials
		}
		if u.Host == "" && u.User == nil && (u.Path == "" || u.Path == "/") {
			return fmt.Errorf("%w: connection URL is incomplete", ErrInvalidConnectionString)
		}
		return nil
	}
	if _, ok := dsnParams(connStr)["password"]; ok {
		return ErrEmbeddedCredentials
	}
	return nil
}

// Open connects, creates the schema and applies pending migrations.
func (s *Store) Open(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		if strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasParam(s.connStr, "sslmode") {
			return fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
		}
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+pq.QuoteIdentifier(constants.AppName)); err != nil {
		db.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}
	s.db = db

	subFS, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		return fmt.Errorf("failed to access postgres migrations: %w", err)
	}
	runner := migration.NewRunner(s.db, subFS, migration.DriverPostgres)
	if _, err := runner.Apply(ctx, func(msg string) { logger.Debug(msg, "store", "postgres") }); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, key storage.Key) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM records WHERE owner = $1 AND key = $2",
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
	if err := key.Validate(); err != nil {
		return err
	}
	// jsonb takes text; a []byte argument would be sent as bytea.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (owner, key, value, updated_at) VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (owner, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key.Owner, key.Name, string(value),
	)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context, owner string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM records WHERE owner = $1 ORDER BY key", owner)
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

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}
