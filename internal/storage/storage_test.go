package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/recur/internal/storage"
	"github.com/julianstephens/recur/internal/storage/storagetest"
)

func TestMemoryContract(t *testing.T) {
	storagetest.Run(t, storage.NewMemory())
}

func TestJSONFileContract(t *testing.T) {
	storagetest.Run(t, storage.NewJSONFile(filepath.Join(t.TempDir(), "recur.json")))
}

func TestJSONFileSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "recur.json")
	key := storage.Key{Owner: "default", Name: "tasks"}

	first := storage.NewJSONFile(path)
	require.NoError(t, first.Save(ctx, key, []byte(`[{"id":"t1"}]`)))

	second := storage.NewJSONFile(path)
	got, err := second.Load(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"t1"}]`, string(got))
}

func TestJSONFileSharedBetweenInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "recur.json")
	habits := storage.Key{Owner: "me", Name: "habits"}
	processed := storage.Key{Owner: "me", Name: "processed/expenses"}

	daemon := storage.NewJSONFile(path)
	cli := storage.NewJSONFile(path)
	_, err := daemon.Load(ctx, habits)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, cli.Save(ctx, habits, []byte(`[{"id":"h1"}]`)))

	got, err := daemon.Load(ctx, habits)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"h1"}]`, string(got))

	require.NoError(t, daemon.Save(ctx, processed, []byte(`{"o1":["2024-03-15"]}`)))

	fresh := storage.NewJSONFile(path)
	got, err = fresh.Load(ctx, habits)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"h1"}]`, string(got))
	names, err := fresh.Keys(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, []string{"habits", "processed/expenses"}, names)
}

func TestJSONFileSaveMergesUnseenWrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "recur.json")
	a := storage.NewJSONFile(path)
	b := storage.NewJSONFile(path)
	require.NoError(t, a.Save(ctx, storage.Key{Owner: "o", Name: "one"}, []byte(`1`)))

	// b never reads before writing
	require.NoError(t, b.Save(ctx, storage.Key{Owner: "o", Name: "two"}, []byte(`2`)))
	require.NoError(t, a.Save(ctx, storage.Key{Owner: "o", Name: "three"}, []byte(`3`)))

	names, err := storage.NewJSONFile(path).Keys(ctx, "o")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "three", "two"}, names)
}

func TestJSONFileRejectsInvalidJSON(t *testing.T) {
	s := storage.NewJSONFile(filepath.Join(t.TempDir(), "recur.json"))
	err := s.Save(context.Background(), storage.Key{Owner: "o", Name: "n"}, []byte("{"))
	assert.Error(t, err)
}

func TestJSONFileWriteFailureKeepsCache(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	ctx := context.Background()
	dir := t.TempDir()
	s := storage.NewJSONFile(filepath.Join(dir, "recur.json"))
	key := storage.Key{Owner: "o", Name: "n"}
	require.NoError(t, s.Save(ctx, key, []byte(`1`)))

	require.NoError(t, os.Chmod(dir, 0500))
	t.Cleanup(func() { os.Chmod(dir, 0700) })

	assert.Error(t, s.Save(ctx, key, []byte(`2`)))
	got, err := s.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "1", string(got))
}

func TestMemoryFailSaves(t *testing.T) {
	m := storage.NewMemory()
	m.FailSaves = errors.New("offline")
	err := m.Save(context.Background(), storage.Key{Owner: "o", Name: "n"}, []byte(`1`))
	assert.EqualError(t, err, "offline")
}

func TestKeyValidate(t *testing.T) {
	assert.NoError(t, storage.Key{Owner: "default", Name: "obligations/expenses"}.Validate())
	assert.Error(t, storage.Key{Owner: "", Name: "x"}.Validate())
	assert.Error(t, storage.Key{Owner: "a", Name: " "}.Validate())
	assert.Error(t, storage.Key{Owner: "a/b", Name: "x"}.Validate())
}
