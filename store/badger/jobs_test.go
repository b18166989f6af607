package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillpolevoy/storystack-sub001/core"
	"github.com/kirillpolevoy/storystack-sub001/store"
)

func TestJobLedgerBasics(t *testing.T) {
	_, jobs, _ := newTestRepos(t)
	ctx := context.Background()

	job := &core.Job{
		Id:          "job-1",
		TenantId:    "tenant-1",
		ItemIds:     []core.ItemID{"item-1", "item-2"},
		Fingerprint: "fp-1",
		SubmittedAt: time.Now().UTC(),
	}
	if err := jobs.PutJob(ctx, job); err != nil {
		t.Fatalf("Failed to put job: %v", err)
	}

	retrieved, err := jobs.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if len(retrieved.ItemIds) != 2 || retrieved.Fingerprint != "fp-1" {
		t.Fatalf("Unexpected job payload: %+v", retrieved)
	}

	_, err = jobs.GetJob(ctx, "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestJobLedgerOutstandingOrder(t *testing.T) {
	_, jobs, _ := newTestRepos(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for i, id := range []core.JobID{"job-new", "job-old", "job-mid"} {
		age := map[int]time.Duration{0: 0, 1: 2 * time.Hour, 2: 1 * time.Hour}[i]
		job := &core.Job{
			Id:          id,
			TenantId:    "tenant-1",
			ItemIds:     []core.ItemID{"item-1"},
			SubmittedAt: now.Add(-age),
		}
		if err := jobs.PutJob(ctx, job); err != nil {
			t.Fatalf("Failed to put job %s: %v", id, err)
		}
	}

	outstanding, err := jobs.ListOutstandingJobs(ctx, 0)
	if err != nil {
		t.Fatalf("Failed to list jobs: %v", err)
	}
	if len(outstanding) != 3 {
		t.Fatalf("Expected 3 jobs, got %d", len(outstanding))
	}
	if outstanding[0].Id != "job-old" || outstanding[1].Id != "job-mid" || outstanding[2].Id != "job-new" {
		t.Fatalf("Expected oldest-first order, got %s %s %s",
			outstanding[0].Id, outstanding[1].Id, outstanding[2].Id)
	}

	limited, err := jobs.ListOutstandingJobs(ctx, 2)
	if err != nil {
		t.Fatalf("Failed to list with limit: %v", err)
	}
	if len(limited) != 2 || limited[0].Id != "job-old" {
		t.Fatalf("Expected 2 oldest jobs, got %v", limited)
	}
}

func TestJobLedgerDelete(t *testing.T) {
	_, jobs, _ := newTestRepos(t)
	ctx := context.Background()

	job := &core.Job{
		Id:          "job-1",
		TenantId:    "tenant-1",
		ItemIds:     []core.ItemID{"item-1"},
		SubmittedAt: time.Now().UTC(),
	}
	if err := jobs.PutJob(ctx, job); err != nil {
		t.Fatalf("Failed to put job: %v", err)
	}

	if err := jobs.DeleteJob(ctx, "job-1"); err != nil {
		t.Fatalf("Failed to delete job: %v", err)
	}
	if _, err := jobs.GetJob(ctx, "job-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}

	outstanding, err := jobs.ListOutstandingJobs(ctx, 0)
	if err != nil {
		t.Fatalf("Failed to list jobs: %v", err)
	}
	if len(outstanding) != 0 {
		t.Fatalf("Expected empty ledger, got %d", len(outstanding))
	}

	// Deleting an absent job is not an error
	if err := jobs.DeleteJob(ctx, "job-1"); err != nil {
		t.Fatalf("Delete of absent job should be a no-op: %v", err)
	}
}

func TestVocabularyRoundTrip(t *testing.T) {
	_, _, vocabs := newTestRepos(t)
	ctx := context.Background()

	_, err := vocabs.GetVocabulary(ctx, "tenant-1")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for unconfigured tenant, got %v", err)
	}

	vocab := &core.Vocabulary{TenantId: "tenant-1", Labels: []string{"beach", "dog"}}
	if err := vocabs.PutVocabulary(ctx, vocab); err != nil {
		t.Fatalf("Failed to put vocabulary: %v", err)
	}

	got, err := vocabs.GetVocabulary(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("Failed to get vocabulary: %v", err)
	}
	if len(got.Labels) != 2 {
		t.Fatalf("Expected 2 labels, got %d", len(got.Labels))
	}

	// An empty vocabulary is a valid configuration, distinct from not found
	empty := &core.Vocabulary{TenantId: "tenant-2", Labels: nil}
	if err := vocabs.PutVocabulary(ctx, empty); err != nil {
		t.Fatalf("Failed to put empty vocabulary: %v", err)
	}
	got, err = vocabs.GetVocabulary(ctx, "tenant-2")
	if err != nil {
		t.Fatalf("Empty vocabulary should be readable: %v", err)
	}
	if !got.Empty() {
		t.Fatalf("Expected empty vocabulary, got %v", got.Labels)
	}
}
