package classify

import "github.com/kirillpolevoy/storystack-sub001/core"

// JobState mirrors the provider-side state of a bulk job.
type JobState int

const (
	// JobStateInProgress means the provider is still working on the job.
	JobStateInProgress JobState = iota + 1
	// JobStateCompleted means results are ready to fetch.
	JobStateCompleted
	// JobStateNotFound means the provider no longer knows the job. This is
	// normal briefly after submission; past the staleness window it means
	// the job was lost provider-side.
	JobStateNotFound
)

// String returns the state name used in logs.
func (s JobState) String() string {
	switch s {
	case JobStateInProgress:
		return "in_progress"
	case JobStateCompleted:
		return "completed"
	case JobStateNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// JobItem is one image included in a bulk submission.
type JobItem struct {
	Id       core.ItemID
	ImageRef string
}

// SubmitReceipt is the provider's response to a bulk submission.
// Partial acceptance is an explicit per-item outcome: Rejected items are not
// part of the job and must be classified another way.
type SubmitReceipt struct {
	JobId    core.JobID
	Accepted []core.ItemID
	Rejected []core.ItemID
}

// ItemResult is the per-item outcome of a completed bulk job.
// Err is non-empty when the provider rejected the item at processing time;
// Tags is then meaningless.
type ItemResult struct {
	Id   core.ItemID
	Tags []string
	Err  string
}

// Failed reports whether the provider recorded an item-level error.
func (r *ItemResult) Failed() bool {
	return r.Err != ""
}
