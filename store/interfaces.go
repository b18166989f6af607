package store

import (
	"context"

	"github.com/kirillpolevoy/storystack-sub001/core"
)

// ItemRepository provides access to image item records.
// Implementations must be thread-safe and support concurrent access.
//
// Writes are single-item, single-field-group (status + tags + job reference);
// cohort membership is a batching concern, not a consistency boundary, so no
// multi-item transactions are required.
type ItemRepository interface {
	// GetItem retrieves a single item by ID.
	// Returns ErrNotFound if the record doesn't exist. A freshly created
	// record may briefly be invisible; callers that observe creation events
	// should retry not-found reads.
	GetItem(ctx context.Context, id core.ItemID) (*core.Item, error)

	// PutItem inserts or replaces an item record.
	// Sets InsertedAt on first write and always refreshes UpdatedAt.
	PutItem(ctx context.Context, item *core.Item) error

	// WriteTagResult records the outcome of tagging a single item: the tag
	// set and the new status, clearing any job reference when the status is
	// terminal. Returns ErrNotFound if the record doesn't exist.
	WriteTagResult(ctx context.Context, id core.ItemID, tags []string, status core.TagStatus) error

	// AssignJob stamps the given job reference and pending status onto the
	// listed items. Items that already carry a job reference are skipped, so
	// a repeated submission cannot overwrite an earlier assignment. Returns
	// the IDs actually assigned.
	AssignJob(ctx context.Context, jobID core.JobID, ids []core.ItemID) ([]core.ItemID, error)

	// ListItemsByStatus retrieves up to limit items with the given status
	// for a tenant, ordered by insertion time. A zero limit means no bound.
	ListItemsByStatus(ctx context.Context, tenant core.TenantID, status core.TagStatus, limit int) ([]*core.Item, error)

	// ListPendingWithJob retrieves the IDs of items whose job reference
	// matches jobID and whose status is still pending.
	ListPendingWithJob(ctx context.Context, jobID core.JobID) ([]core.ItemID, error)

	// ResetForRetag forces the listed items back to untagged with no job
	// reference, re-entering them into the pipeline. Items that don't exist
	// are skipped. Returns the IDs actually reset.
	ResetForRetag(ctx context.Context, ids []core.ItemID) ([]core.ItemID, error)

	// ListTenants retrieves the distinct tenants that have item records.
	ListTenants(ctx context.Context) ([]core.TenantID, error)

	// Close closes the repository and releases resources.
	Close() error
}

// JobRepository is the ledger of outstanding bulk submissions. Jobs are
// created by the bulk submitter and deleted by the poller once resolved.
// Persisting them keeps the staleness bound intact across process restarts.
type JobRepository interface {
	// PutJob records an outstanding job.
	PutJob(ctx context.Context, job *core.Job) error

	// GetJob retrieves a job by ID.
	// Returns ErrNotFound if the job doesn't exist.
	GetJob(ctx context.Context, id core.JobID) (*core.Job, error)

	// DeleteJob removes a resolved job from the ledger.
	// Deleting an absent job is not an error.
	DeleteJob(ctx context.Context, id core.JobID) error

	// ListOutstandingJobs retrieves up to limit outstanding jobs, oldest
	// first. A zero limit means no bound.
	ListOutstandingJobs(ctx context.Context, limit int) ([]*core.Job, error)

	// Close closes the repository and releases resources.
	Close() error
}

// VocabularyRepository provides the per-tenant tag vocabulary.
type VocabularyRepository interface {
	// GetVocabulary retrieves the enabled tag set for a tenant.
	// Returns ErrNotFound if no configuration record exists for the tenant;
	// a vocabulary with zero labels is a valid, non-error result and must be
	// distinguished from the record being unreadable.
	GetVocabulary(ctx context.Context, tenant core.TenantID) (*core.Vocabulary, error)

	// PutVocabulary inserts or replaces a tenant's vocabulary.
	PutVocabulary(ctx context.Context, vocab *core.Vocabulary) error

	// Close closes the repository and releases resources.
	Close() error
}
