// Package storagetest holds the behavior every RecordStore must share.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/recur/internal/storage"
)

// Run exercises store against the RecordStore contract. The store must start
// empty for the owners "alice" and "bob".
func Run(t *testing.T, store storage.RecordStore) {
	t.Helper()
	ctx := context.Background()
	alice := storage.Key{Owner: "alice", Name: "obligations/expenses"}
	bob := storage.Key{Owner: "bob", Name: "obligations/expenses"}

	t.Run("missing key", func(t *testing.T) {
		_, err := store.Load(ctx, storage.Key{Owner: "alice", Name: "nothing-here"})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("save then load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, alice, []byte(`[{"id":"a"}]`)))
		got, err := store.Load(ctx, alice)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":"a"}]`, string(got))
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, alice, []byte(`[]`)))
		got, err := store.Load(ctx, alice)
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(got))
	})

	t.Run("owners are isolated", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, bob, []byte(`{"n":1}`)))
		got, err := store.Load(ctx, alice)
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(got))
	})

	t.Run("json helpers", func(t *testing.T) {
		key := storage.Key{Owner: "alice", Name: "habits"}
		var v []string
		found, err := storage.LoadJSON(ctx, store, key, &v)
		require.NoError(t, err)
		assert.False(t, found)

		require.NoError(t, storage.SaveJSON(ctx, store, key, []string{"walk", "read"}))
		found, err = storage.LoadJSON(ctx, store, key, &v)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []string{"walk", "read"}, v)
	})

	if lister, ok := store.(storage.Lister); ok {
		t.Run("keys", func(t *testing.T) {
			names, err := lister.Keys(ctx, "alice")
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"obligations/expenses", "habits"}, names)
		})
	}
}
