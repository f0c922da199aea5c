package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/julianstephens/recur/internal/storage"
)

const exportVersion = 1

// Snapshot is the JSON document written by Export
type Snapshot struct {
	Version    int                        `json:"version"`
	Owner      string                     `json:"owner"`
	ExportedAt time.Time                  `json:"exported_at"`
	Records    map[string]json.RawMessage `json:"records"`
}

// ListingStore is a RecordStore that can enumerate its keys
type ListingStore interface {
	storage.RecordStore
	storage.Lister
}

// Export writes every record of owner as one indented JSON document and
// returns the number of records written.
func Export(ctx context.Context, store ListingStore, owner string, now time.Time, w io.Writer) (int, error) {
	names, err := store.Keys(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to list records: %w", err)
	}

	snap := Snapshot{
		Version:    exportVersion,
		Owner:      owner,
		ExportedAt: now,
		Records:    make(map[string]json.RawMessage, len(names)),
	}
	for _, name := range names {
		data, err := store.Load(ctx, storage.Key{Owner: owner, Name: name})
		if err != nil {
			return 0, fmt.Errorf("failed to load %s: %w", name, err)
		}
		if !json.Valid(data) {
			return 0, fmt.Errorf("record %s is not valid JSON", name)
		}
		snap.Records[name] = data
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return 0, fmt.Errorf("failed to write export: %w", err)
	}
	return len(snap.Records), nil
}

// Import reads a Snapshot and saves each record under owner, replacing
// existing records of the same name. An empty owner keeps the snapshot's.
func Import(ctx context.Context, store storage.RecordStore, owner string, r io.Reader) (int, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return 0, fmt.Errorf("failed to read export: %w", err)
	}
	if snap.Version != exportVersion {
		return 0, fmt.Errorf("unsupported export version %d", snap.Version)
	}
	if owner == "" {
		owner = snap.Owner
	}

	n := 0
	for name, data := range snap.Records {
		key := storage.Key{Owner: owner, Name: name}
		if err := key.Validate(); err != nil {
			return n, err
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, data); err != nil {
			return n, fmt.Errorf("record %s is not valid JSON: %w", name, err)
		}
		if err := store.Save(ctx, key, compact.Bytes()); err != nil {
			return n, fmt.Errorf("failed to save %s: %w", name, err)
		}
		n++
	}
	return n, nil
}
