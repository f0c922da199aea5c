// Package storage defines the RecordStore the engine persists through and the
// simple in-process implementations of it. Networked and SQL backends live in
// subpackages.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Load when no record exists under the key
var ErrNotFound = errors.New("record not found")

// Key addresses one serialized record. Owner partitions records per user;
// Name is the record name, e.g. "obligations/expenses" or "habits".
type Key struct {
	Owner string
	Name  string
}

func (k Key) String() string {
	return k.Owner + "/" + k.Name
}

// Validate rejects keys that cannot be stored by every backend.
func (k Key) Validate() error {
	if strings.TrimSpace(k.Owner) == "" {
		return fmt.Errorf("record key: owner is required")
	}
	if strings.TrimSpace(k.Name) == "" {
		return fmt.Errorf("record key: name is required")
	}
	if strings.ContainsAny(k.Owner, "/\\#?:") {
		return fmt.Errorf("record key: owner %q contains a reserved character", k.Owner)
	}
	return nil
}

// RecordStore is a key -> serialized document store. Writes are whole-document
// replacements; Save errors are returned to the caller and never retried.
type RecordStore interface {
	Load(ctx context.Context, key Key) ([]byte, error)
	Save(ctx context.Context, key Key, value []byte) error
	Close() error
}

// Lister is implemented by stores that can enumerate an owner's record names.
type Lister interface {
	Keys(ctx context.Context, owner string) ([]string, error)
}

// LoadJSON decodes the record under key into v. A missing record is not an
// error: found is false and v is left untouched.
func LoadJSON(ctx context.Context, s RecordStore, key Key, v any) (found bool, err error) {
	data, err := s.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key
func SaveJSON(ctx context.Context, s RecordStore, key Key, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.Save(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
