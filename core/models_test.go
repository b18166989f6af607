package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagStatus_String(t *testing.T) {
	assert.Equal(t, "untagged", TagStatusUntagged.String())
	assert.Equal(t, "pending", TagStatusPending.String())
	assert.Equal(t, "completed", TagStatusCompleted.String())
	assert.Equal(t, "failed", TagStatusFailed.String())
	assert.Equal(t, "unknown", TagStatus(0).String())
}

func TestTagStatus_Terminal(t *testing.T) {
	assert.False(t, TagStatusUntagged.Terminal())
	assert.False(t, TagStatusPending.Terminal())
	assert.True(t, TagStatusCompleted.Terminal())
	assert.True(t, TagStatusFailed.Terminal())
}

func TestTagStatus_CanTransitionTo(t *testing.T) {
	// Forward transitions
	assert.True(t, TagStatusUntagged.CanTransitionTo(TagStatusPending))
	assert.True(t, TagStatusUntagged.CanTransitionTo(TagStatusCompleted))
	assert.True(t, TagStatusUntagged.CanTransitionTo(TagStatusFailed))
	assert.True(t, TagStatusPending.CanTransitionTo(TagStatusCompleted))
	assert.True(t, TagStatusPending.CanTransitionTo(TagStatusFailed))

	// Manual retry transitions
	assert.True(t, TagStatusFailed.CanTransitionTo(TagStatusUntagged))
	assert.True(t, TagStatusFailed.CanTransitionTo(TagStatusPending))
	assert.True(t, TagStatusCompleted.CanTransitionTo(TagStatusUntagged))

	// Backwards transitions are not allowed
	assert.False(t, TagStatusPending.CanTransitionTo(TagStatusUntagged))
	assert.False(t, TagStatusCompleted.CanTransitionTo(TagStatusFailed))
	assert.False(t, TagStatusCompleted.CanTransitionTo(TagStatusCompleted))
}

func TestCohort_Fingerprint_OrderIndependent(t *testing.T) {
	a := &Cohort{
		TenantId: "tenant-1",
		ItemIds:  []ItemID{"item-1", "item-2", "item-3"},
	}
	b := &Cohort{
		TenantId: "tenant-1",
		ItemIds:  []ItemID{"item-3", "item-1", "item-2"},
	}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint(),
		"fingerprint should not depend on arrival order")
}

func TestCohort_Fingerprint_DistinguishesMembership(t *testing.T) {
	a := &Cohort{TenantId: "tenant-1", ItemIds: []ItemID{"item-1"}}
	b := &Cohort{TenantId: "tenant-1", ItemIds: []ItemID{"item-2"}}
	c := &Cohort{TenantId: "tenant-2", ItemIds: []ItemID{"item-1"}}

	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint(), "tenant is part of the fingerprint")
}

func TestJob_Age(t *testing.T) {
	submitted := time.Now().UTC().Add(-10 * time.Minute)
	job := &Job{Id: "job-1", TenantId: "tenant-1", ItemIds: []ItemID{"item-1"}, SubmittedAt: submitted}

	age := job.Age(time.Now().UTC())
	require.GreaterOrEqual(t, age, 10*time.Minute)
	require.Less(t, age, 11*time.Minute)
}

func TestItemMUS_RoundTrip(t *testing.T) {
	item := Item{
		Id:         "item-1",
		TenantId:   "tenant-1",
		ImageRef:   "photos/tenant-1/item-1.jpg",
		Tags:       []string{"beach", "sunset"},
		Status:     TagStatusPending,
		JobRef:     "job-42",
		InsertedAt: time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}

	buf := make([]byte, ItemMUS.Size(item))
	n := ItemMUS.Marshal(item, buf)
	require.Equal(t, len(buf), n)

	got, n, err := ItemMUS.Unmarshal(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	assert.Equal(t, item.Id, got.Id)
	assert.Equal(t, item.TenantId, got.TenantId)
	assert.Equal(t, item.ImageRef, got.ImageRef)
	assert.Equal(t, item.Tags, got.Tags)
	assert.Equal(t, item.Status, got.Status)
	assert.Equal(t, item.JobRef, got.JobRef)
	assert.True(t, item.InsertedAt.Equal(got.InsertedAt))
}

func TestJobMUS_RoundTrip(t *testing.T) {
	job := Job{
		Id:          "job-1",
		TenantId:    "tenant-1",
		ItemIds:     []ItemID{"item-1", "item-2"},
		Fingerprint: "abc123",
		SubmittedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	buf := make([]byte, JobMUS.Size(job))
	JobMUS.Marshal(job, buf)

	got, _, err := JobMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, job.Id, got.Id)
	assert.Equal(t, job.ItemIds, got.ItemIds)
	assert.Equal(t, job.Fingerprint, got.Fingerprint)
	assert.True(t, job.SubmittedAt.Equal(got.SubmittedAt))
}
