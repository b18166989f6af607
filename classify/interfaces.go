package classify

import (
	"context"

	"github.com/kirillpolevoy/storystack-sub001/core"
)

// Classifier performs synchronous, single-image classification.
// Implementations must be thread-safe for concurrent use.
type Classifier interface {
	// Classify labels a single image against a closed vocabulary.
	// Only labels present in the vocabulary may be returned; an empty result
	// means none of the enabled labels apply.
	// Returns an error if classification fails.
	Classify(ctx context.Context, imageRef string, vocabulary []string) ([]string, error)
}

// BulkClassifier manages asynchronous classification jobs covering many
// images. Completion time is provider-controlled; callers poll for status.
// Implementations must be thread-safe for concurrent use.
type BulkClassifier interface {
	// SubmitJob submits one job covering all given items against a closed
	// vocabulary. clientRef is a caller-chosen idempotency reference; a
	// provider receiving the same clientRef twice may return the original
	// job instead of creating a new one.
	// The receipt reports per-item acceptance: rejected items never become
	// part of the job and must be handled by the caller.
	SubmitJob(ctx context.Context, clientRef string, items []JobItem, vocabulary []string) (*SubmitReceipt, error)

	// JobStatus queries the provider for a job's current state.
	// A job unknown to the provider yields JobStateNotFound, not an error.
	JobStatus(ctx context.Context, jobID core.JobID) (JobState, error)

	// JobResults fetches per-item outcomes for a completed job.
	// Returns an error if the job is not in a completed state.
	JobResults(ctx context.Context, jobID core.JobID) ([]ItemResult, error)
}

// Provider aggregates classification services for convenient initialization
// and lifecycle management.
type Provider interface {
	// Classifier returns the synchronous classification service.
	// The returned Classifier is safe for concurrent use.
	Classifier() Classifier

	// BulkClassifier returns the asynchronous job service.
	// The returned BulkClassifier is safe for concurrent use.
	BulkClassifier() BulkClassifier

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
