package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/julianstephens/recur/internal/config"
	"github.com/julianstephens/recur/internal/constants"
	"github.com/julianstephens/recur/internal/keyring"
	"github.com/julianstephens/recur/internal/logger"
	"github.com/julianstephens/recur/internal/storage"
	"github.com/julianstephens/recur/internal/storage/aztables"
	"github.com/julianstephens/recur/internal/storage/postgres"
	"github.com/julianstephens/recur/internal/storage/redis"
	"github.com/julianstephens/recur/internal/storage/sqlite"
)

// OpenStore connects the backend named in cfg. connFlag overrides the
// environment and keyring for the postgres backend.
func OpenStore(ctx context.Context, cfg *config.Config, connFlag string) (storage.RecordStore, error) {
	logger.Debug("Opening store", "backend", cfg.Store.Backend)

	switch cfg.Store.Backend {
	case constants.BackendSQLite:
		store := sqlite.NewStore(cfg.Store.Path)
		if err := store.Open(ctx); err != nil {
			return nil, err
		}
		return store, nil

	case constants.BackendPostgres:
		connStr, source, err := keyring.Resolve(connFlag)
		if err != nil {
			return nil, fmt.Errorf("postgres backend: %w (set %s or store it with `recur init --db-connection`)", err, constants.EnvDBConnection)
		}
		if source == keyring.SourceFlag {
			if err := postgres.ValidateConnString(connStr); err != nil {
				return nil, err
			}
		}
		store := postgres.New(connStr)
		if err := store.Open(ctx); err != nil {
			return nil, err
		}
		return store, nil

	case constants.BackendJSON:
		return storage.NewJSONFile(cfg.Store.Path), nil

	case constants.BackendMemory:
		return storage.NewMemory(), nil

	case constants.BackendRedis:
		store := redis.New(redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: os.Getenv(constants.EnvRedisPassword),
			DB:       cfg.Redis.DB,
		})
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil

	case constants.BackendAzTables:
		return aztables.New(ctx, cfg.Azure.TableServiceURL, cfg.Azure.TableName)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
