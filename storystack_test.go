package storystack

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillpolevoy/storystack-sub001/core"
)

func TestNewServiceWiresRepositories(t *testing.T) {
	svc, err := NewService(t.TempDir())
	require.NoError(t, err)
	defer svc.Close()

	require.NotNil(t, svc.ItemRepository())
	require.NotNil(t, svc.JobRepository())
	require.NotNil(t, svc.VocabularyRepository())

	ctx := context.Background()
	err = svc.ItemRepository().PutItem(ctx, &core.Item{
		Id:       "item-1",
		TenantId: "tenant-a",
		ImageRef: "s3://photos/item-1.jpg",
		Status:   core.TagStatusUntagged,
	})
	require.NoError(t, err)

	item, err := svc.ItemRepository().GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, core.TagStatusUntagged, item.Status)
}

func TestNewOrchestratorFromService(t *testing.T) {
	svc, err := NewService(t.TempDir())
	require.NoError(t, err)
	defer svc.Close()

	orch, err := svc.NewOrchestrator()
	require.NoError(t, err)
	orch.Release()
}
