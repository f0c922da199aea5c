package storage

import (
	"context"
	"sort"
	"sync"
)

// Memory is a RecordStore held entirely in process memory.
type Memory struct {
	mu      sync.RWMutex
	records map[Key][]byte

	// FailSaves makes every Save return this error; used to exercise
	// persistence failure handling.
	FailSaves error
}

func NewMemory() *Memory {
	return &Memory{records: make(map[Key][]byte)}
}

func (m *Memory) Load(ctx context.Context, key Key) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Save(ctx context.Context, key Key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := key.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSaves != nil {
		return m.FailSaves
	}
	m.records[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Keys(ctx context.Context, owner string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for k := range m.records {
		if k.Owner == owner {
			names = append(names, k.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) Close() error {
	return nil
}
