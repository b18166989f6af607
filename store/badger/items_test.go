package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillpolevoy/storystack-sub001/core"
	"github.com/kirillpolevoy/storystack-sub001/store"
)

func newTestRepos(t *testing.T) (store.ItemRepository, store.JobRepository, store.VocabularyRepository) {
	t.Helper()
	items, jobs, vocabs, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	t.Cleanup(func() {
		vocabs.Close()
		jobs.Close()
		items.Close()
		backend.Close()
	})
	return items, jobs, vocabs
}

func putTestItem(t *testing.T, items store.ItemRepository, id core.ItemID, status core.TagStatus) {
	t.Helper()
	item := &core.Item{
		Id:       id,
		TenantId: "tenant-1",
		ImageRef: "photos/" + string(id) + ".jpg",
		Status:   status,
	}
	if err := items.PutItem(context.Background(), item); err != nil {
		t.Fatalf("Failed to put item %s: %v", id, err)
	}
}

func TestItemBasics(t *testing.T) {
	items, _, _ := newTestRepos(t)
	ctx := context.Background()

	putTestItem(t, items, "item-1", core.TagStatusUntagged)

	retrieved, err := items.GetItem(ctx, "item-1")
	if err != nil {
		t.Fatalf("Failed to get item: %v", err)
	}
	if retrieved.TenantId != "tenant-1" {
		t.Fatalf("Expected tenant-1, got %s", retrieved.TenantId)
	}
	if retrieved.InsertedAt.IsZero() {
		t.Fatal("Expected InsertedAt to be set")
	}

	_, err = items.GetItem(ctx, "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestWriteTagResult(t *testing.T) {
	items, _, _ := newTestRepos(t)
	ctx := context.Background()

	putTestItem(t, items, "item-1", core.TagStatusUntagged)

	err := items.WriteTagResult(ctx, "item-1", []string{"beach", "sunset"}, core.TagStatusCompleted)
	if err != nil {
		t.Fatalf("Failed to write tag result: %v", err)
	}

	item, err := items.GetItem(ctx, "item-1")
	if err != nil {
		t.Fatalf("Failed to get item: %v", err)
	}
	if item.Status != core.TagStatusCompleted {
		t.Fatalf("Expected completed, got %s", item.Status)
	}
	if len(item.Tags) != 2 {
		t.Fatalf("Expected 2 tags, got %d", len(item.Tags))
	}

	// A duplicate completion must be rejected as an illegal transition
	err = items.WriteTagResult(ctx, "item-1", []string{"other"}, core.TagStatusCompleted)
	if !errors.Is(err, core.ErrIllegalTransition) {
		t.Fatalf("Expected ErrIllegalTransition, got %v", err)
	}

	err = items.WriteTagResult(ctx, "missing", nil, core.TagStatusFailed)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestAssignJob(t *testing.T) {
	items, _, _ := newTestRepos(t)
	ctx := context.Background()

	putTestItem(t, items, "item-1", core.TagStatusUntagged)
	putTestItem(t, items, "item-2", core.TagStatusUntagged)

	assigned, err := items.AssignJob(ctx, "job-1", []core.ItemID{"item-1", "item-2", "missing"})
	if err != nil {
		t.Fatalf("Failed to assign job: %v", err)
	}
	if len(assigned) != 2 {
		t.Fatalf("Expected 2 assigned, got %d", len(assigned))
	}

	for _, id := range assigned {
		item, err := items.GetItem(ctx, id)
		if err != nil {
			t.Fatalf("Failed to get item: %v", err)
		}
		if item.Status != core.TagStatusPending || item.JobRef != "job-1" {
			t.Fatalf("Expected pending with job-1, got %s/%s", item.Status, item.JobRef)
		}
	}

	// A second submission must not overwrite the recorded job reference
	assigned, err = items.AssignJob(ctx, "job-2", []core.ItemID{"item-1"})
	if err != nil {
		t.Fatalf("Failed on second assign: %v", err)
	}
	if len(assigned) != 0 {
		t.Fatalf("Expected no reassignment, got %d", len(assigned))
	}
	item, _ := items.GetItem(ctx, "item-1")
	if item.JobRef != "job-1" {
		t.Fatalf("Job reference overwritten: %s", item.JobRef)
	}
}

func TestListPendingWithJob(t *testing.T) {
	items, _, _ := newTestRepos(t)
	ctx := context.Background()

	putTestItem(t, items, "item-1", core.TagStatusUntagged)
	putTestItem(t, items, "item-2", core.TagStatusUntagged)
	if _, err := items.AssignJob(ctx, "job-1", []core.ItemID{"item-1", "item-2"}); err != nil {
		t.Fatalf("Failed to assign job: %v", err)
	}

	pending, err := items.ListPendingWithJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("Failed to list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("Expected 2 pending, got %d", len(pending))
	}

	// Resolving one item removes it from the job's pending set
	if err := items.WriteTagResult(ctx, "item-1", []string{"dog"}, core.TagStatusCompleted); err != nil {
		t.Fatalf("Failed to complete item: %v", err)
	}
	pending, err = items.ListPendingWithJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("Failed to list pending: %v", err)
	}
	if len(pending) != 1 || pending[0] != "item-2" {
		t.Fatalf("Expected [item-2], got %v", pending)
	}
}

func TestListItemsByStatus(t *testing.T) {
	items, _, _ := newTestRepos(t)
	ctx := context.Background()

	putTestItem(t, items, "item-1", core.TagStatusUntagged)
	putTestItem(t, items, "item-2", core.TagStatusUntagged)
	putTestItem(t, items, "item-3", core.TagStatusUntagged)
	if err := items.WriteTagResult(ctx, "item-3", nil, core.TagStatusFailed); err != nil {
		t.Fatalf("Failed to fail item: %v", err)
	}

	untagged, err := items.ListItemsByStatus(ctx, "tenant-1", core.TagStatusUntagged, 0)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(untagged) != 2 {
		t.Fatalf("Expected 2 untagged, got %d", len(untagged))
	}

	failed, err := items.ListItemsByStatus(ctx, "tenant-1", core.TagStatusFailed, 0)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(failed) != 1 {
		t.Fatalf("Expected 1 failed, got %d", len(failed))
	}

	limited, err := items.ListItemsByStatus(ctx, "tenant-1", core.TagStatusUntagged, 1)
	if err != nil {
		t.Fatalf("Failed to list with limit: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("Expected 1 item with limit, got %d", len(limited))
	}

	other, err := items.ListItemsByStatus(ctx, "tenant-2", core.TagStatusUntagged, 0)
	if err != nil {
		t.Fatalf("Failed to list other tenant: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("Expected no items for other tenant, got %d", len(other))
	}
}

func TestResetForRetag(t *testing.T) {
	items, _, _ := newTestRepos(t)
	ctx := context.Background()

	putTestItem(t, items, "item-1", core.TagStatusUntagged)
	if err := items.WriteTagResult(ctx, "item-1", nil, core.TagStatusFailed); err != nil {
		t.Fatalf("Failed to fail item: %v", err)
	}
	putTestItem(t, items, "item-2", core.TagStatusUntagged)
	if _, err := items.AssignJob(ctx, "job-1", []core.ItemID{"item-2"}); err != nil {
		t.Fatalf("Failed to assign job: %v", err)
	}

	reset, err := items.ResetForRetag(ctx, []core.ItemID{"item-1", "item-2", "missing"})
	if err != nil {
		t.Fatalf("Failed to reset: %v", err)
	}
	if len(reset) != 2 {
		t.Fatalf("Expected 2 reset, got %d", len(reset))
	}

	for _, id := range []core.ItemID{"item-1", "item-2"} {
		item, err := items.GetItem(ctx, id)
		if err != nil {
			t.Fatalf("Failed to get item: %v", err)
		}
		if item.Status != core.TagStatusUntagged || item.JobRef != "" {
			t.Fatalf("Expected untagged without job, got %s/%s", item.Status, item.JobRef)
		}
	}

	pending, err := items.ListPendingWithJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("Failed to list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("Expected empty pending set after reset, got %v", pending)
	}
}

func TestListTenants(t *testing.T) {
	items, _, _ := newTestRepos(t)
	ctx := context.Background()

	putTestItem(t, items, "item-1", core.TagStatusUntagged)
	putTestItem(t, items, "item-2", core.TagStatusCompleted)
	other := &core.Item{
		Id:       "item-3",
		TenantId: "tenant-2",
		ImageRef: "photos/item-3.jpg",
		Status:   core.TagStatusUntagged,
	}
	if err := items.PutItem(ctx, other); err != nil {
		t.Fatalf("Failed to put item: %v", err)
	}

	tenants, err := items.ListTenants(ctx)
	if err != nil {
		t.Fatalf("Failed to list tenants: %v", err)
	}
	if len(tenants) != 2 {
		t.Fatalf("Expected 2 tenants, got %d: %v", len(tenants), tenants)
	}
	seen := map[core.TenantID]bool{}
	for _, tenant := range tenants {
		seen[tenant] = true
	}
	if !seen["tenant-1"] || !seen["tenant-2"] {
		t.Fatalf("Expected tenant-1 and tenant-2, got %v", tenants)
	}
}
