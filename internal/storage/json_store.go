package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// document is the on-disk layout of a JSONFile: owner -> name -> raw record.
type document struct {
	Version int                                   `json:"version"`
	Records map[string]map[string]json.RawMessage `json:"records"`
}

// JSONFile keeps every record in a single JSON document on disk. The whole
// file is rewritten on each Save through a temp file and rename. Other
// processes may write the same file: reads pick up their changes and each
// Save merges into the document currently on disk.
type JSONFile struct {
	mu   sync.Mutex
	path string
	doc  *document

	// stat of the file when doc was last read or written
	modTime time.Time
	size    int64
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

func emptyDocument() *document {
	return &document{Version: 1, Records: map[string]map[string]json.RawMessage{}}
}

// load refreshes the cached document when the file changed since it was last
// seen. force re-reads it regardless.
func (s *JSONFile) load(force bool) error {
	info, err := os.Stat(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read storage: %w", err)
		}
		if s.doc == nil || !s.modTime.IsZero() {
			s.doc = emptyDocument()
			s.modTime, s.size = time.Time{}, 0
		}
		return nil
	}
	if !force && s.doc != nil && info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read storage: %w", err)
	}
	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if doc.Records == nil {
		doc.Records = map[string]map[string]json.RawMessage{}
	}
	s.doc = doc
	s.modTime, s.size = info.ModTime(), info.Size()
	return nil
}

func (s *JSONFile) Load(ctx context.Context, key Key) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(false); err != nil {
		return nil, err
	}
	raw, ok := s.doc.Records[key.Owner][key.Name]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (s *JSONFile) Save(ctx context.Context, key Key, value []byte) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("record %s is not valid JSON", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(true); err != nil {
		return err
	}
	owner, ok := s.doc.Records[key.Owner]
	if !ok {
		owner = map[string]json.RawMessage{}
		s.doc.Records[key.Owner] = owner
	}
	prev, existed := owner[key.Name]
	owner[key.Name] = append(json.RawMessage(nil), value...)

	if err := s.flush(); err != nil {
		// keep the file and the cached document in agreement
		if existed {
			owner[key.Name] = prev
		} else {
			delete(owner, key.Name)
		}
		return err
	}
	return nil
}

func (s *JSONFile) flush() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal storage: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace storage: %w", err)
	}
	if info, err := os.Stat(s.path); err == nil {
		s.modTime, s.size = info.ModTime(), info.Size()
	}
	return nil
}

func (s *JSONFile) Keys(ctx context.Context, owner string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(false); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(s.doc.Records[owner]))
	for name := range s.doc.Records[owner] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *JSONFile) Path() string {
	return s.path
}

func (s *JSONFile) Close() error {
	return nil
}
