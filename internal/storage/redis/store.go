// Package redis keeps records as plain string values in Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/julianstephens/recur/internal/constants"
	"github.com/julianstephens/recur/internal/storage"
)

type Options struct {
	Addr     string
	Password string
	DB       int
}

type Store struct {
	client *goredis.Client
	prefix string
}

// New returns a store using keys of the form recur:<owner>:<name>.
func New(opts Options) *Store {
	return NewWithClient(goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}))
}

func NewWithClient(client *goredis.Client) *Store {
	return &Store{client: client, prefix: constants.AppName}
}

// Ping verifies the server is reachable
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}
	return nil
}

func (s *Store) redisKey(key storage.Key) string {
	return s.prefix + ":" + key.Owner + ":" + key.Name
}

func (s *Store) Load(ctx context.Context, key storage.Key) ([]byte, error) {
	value, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
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
	if err := s.client.Set(ctx, s.redisKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context, owner string) ([]string, error) {
	prefix := s.prefix + ":" + owner + ":"
	var names []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
