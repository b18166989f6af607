package core

import (
	"encoding/hex"
	"slices"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ItemID identifies a single image record in the store.
type ItemID string

// TenantID identifies the workspace that owns items and vocabulary.
type TenantID string

// JobID is the provider-assigned identifier of a bulk classification job.
type JobID string

// TagStatus tracks an item's position in the auto-tagging pipeline.
type TagStatus int

const (
	// TagStatusUntagged means the item has not yet been dispatched for tagging.
	TagStatusUntagged TagStatus = iota + 1
	// TagStatusPending means the item is part of an outstanding bulk job.
	TagStatusPending
	// TagStatusCompleted means tags have been applied (possibly an empty set).
	TagStatusCompleted
	// TagStatusFailed means tagging gave up on the item until an operator retries it.
	TagStatusFailed
)

// String returns the status name used in logs and store adapters.
func (s TagStatus) String() string {
	switch s {
	case TagStatusUntagged:
		return "untagged"
	case TagStatusPending:
		return "pending"
	case TagStatusCompleted:
		return "completed"
	case TagStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is a resting state that only an
// operator retry can leave.
func (s TagStatus) Terminal() bool {
	return s == TagStatusCompleted || s == TagStatusFailed
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
// Transitions are forward-only, except that terminal items may be forced back
// to untagged (or pending, for re-submitted bulk work) by a manual retag.
func (s TagStatus) CanTransitionTo(next TagStatus) bool {
	switch s {
	case TagStatusUntagged:
		return next == TagStatusPending || next == TagStatusCompleted || next == TagStatusFailed
	case TagStatusPending:
		return next == TagStatusCompleted || next == TagStatusFailed
	case TagStatusCompleted, TagStatusFailed:
		return next == TagStatusUntagged || next == TagStatusPending
	default:
		return false
	}
}

// Item is one image record pending or having undergone tagging.
// The record itself lives in the external store; the orchestrator only ever
// mutates the tag result fields (Tags, Status, JobRef).
type Item struct {
	Id         ItemID
	TenantId   TenantID
	ImageRef   string // Storage reference to the image payload
	Tags       []string
	Status     TagStatus
	JobRef     JobID // Non-empty only while part of an outstanding bulk job
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Vocabulary is the closed set of tag labels a tenant has enabled for
// automatic classification. An empty label set is a valid configuration:
// tagging then completes with no tags and the provider is never called.
type Vocabulary struct {
	TenantId  TenantID
	Labels    []string
	UpdatedAt time.Time
}

// Empty reports whether the tenant has no labels enabled.
func (v *Vocabulary) Empty() bool {
	return len(v.Labels) == 0
}

// Cohort is an ephemeral grouping of newly ingested items awaiting one
// tagging decision. It is created by the collector and destroyed once
// dispatched to the immediate or bulk path.
type Cohort struct {
	TenantId  TenantID
	ItemIds   []ItemID
	CreatedAt time.Time
}

// Fingerprint returns a deterministic hex digest of the cohort's tenant and
// membership. Two cohorts over the same item set produce the same
// fingerprint, which bulk submission uses as its client reference so a retry
// cannot create a second job for the same items.
func (c *Cohort) Fingerprint() string {
	ids := make([]string, len(c.ItemIds))
	for i, id := range c.ItemIds {
		ids[i] = string(id)
	}
	slices.Sort(ids)

	h, _ := blake2b.New(16, nil)
	h.Write([]byte(c.TenantId))
	for _, id := range ids {
		h.Write([]byte{0})
		h.Write([]byte(id))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Job is one outstanding bulk submission, created by the bulk submitter and
// consumed by the poller once the provider resolves it.
type Job struct {
	Id          JobID
	TenantId    TenantID
	ItemIds     []ItemID
	Fingerprint string
	SubmittedAt time.Time
}

// Age returns how long the job has been outstanding.
func (j *Job) Age(now time.Time) time.Duration {
	return now.Sub(j.SubmittedAt)
}
