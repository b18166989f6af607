package tagging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillpolevoy/storystack-sub001/core"
	badgerstore "github.com/kirillpolevoy/storystack-sub001/store/badger"
)

func TestScannerSweepContinuesPastFeedErrors(t *testing.T) {
	items, _, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	seeds := []struct {
		tenant core.TenantID
		id     core.ItemID
	}{
		{"tenant-a", "item-a"},
		{"tenant-b", "item-b"},
	}
	for _, seed := range seeds {
		require.NoError(t, items.PutItem(context.Background(), &core.Item{
			Id:       seed.id,
			TenantId: seed.tenant,
			ImageRef: "photos/stranded.jpg",
			Status:   core.TagStatusUntagged,
		}))
	}

	// One tenant's offers keep failing; the sweep must still reach the rest.
	var offered []core.ItemID
	feed := func(tenant core.TenantID, id core.ItemID) error {
		if tenant == "tenant-a" {
			return errors.New("buffer rejected the item")
		}
		offered = append(offered, id)
		return nil
	}

	s := newScanner(items, feed, testConfig(), testLogger())
	require.NoError(t, s.sweep(context.Background()))
	assert.Equal(t, []core.ItemID{"item-b"}, offered)
}
