package aztables

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/recur/internal/storage/storagetest"
)

func TestRowKeyRoundTrip(t *testing.T) {
	for _, name := range []string{"habits", "obligations/expenses", "processed/medications"} {
		rk := rowKey(name)
		assert.NotContains(t, rk, "/")
		assert.Equal(t, name, recordName(rk))
	}
}

// TestStoreContractIntegration runs against Azurite when AZURITE_TABLE_URL is set,
// e.g. http://127.0.0.1:10002/devstoreaccount1
func TestStoreContractIntegration(t *testing.T) {
	url := os.Getenv("AZURITE_TABLE_URL")
	if url == "" {
		t.Skip("AZURITE_TABLE_URL not set, skipping table storage integration test")
	}
	ctx := context.Background()
	s, err := New(ctx, url, "recurtest")
	require.NoError(t, err)
	t.Cleanup(func() {
		for _, owner := range []string{"alice", "bob"} {
			names, _ := s.Keys(ctx, owner)
			for _, n := range names {
				s.client.DeleteEntity(ctx, owner, rowKey(n), nil)
			}
		}
	})
	storagetest.Run(t, s)
}
