package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/kirillpolevoy/storystack-sub001/classify"
	"github.com/kirillpolevoy/storystack-sub001/core"
)

// MockBulkClassifier is a test double for classify.BulkClassifier with a
// scriptable in-memory job registry. Submitted jobs stay in progress until a
// test resolves them with CompleteJob or ForgetJob.
type MockBulkClassifier struct {
	// SubmitJobFunc is called by SubmitJob if set, bypassing the registry.
	SubmitJobFunc func(ctx context.Context, clientRef string, items []classify.JobItem, vocabulary []string) (*classify.SubmitReceipt, error)

	// SubmitErr, when non-nil, makes every SubmitJob call fail.
	SubmitErr error

	// RejectRefs lists image references the mock refuses at submission time,
	// exercising partial acceptance.
	RejectRefs []string

	mu          sync.Mutex
	nextJob     int
	byClientRef map[string]core.JobID
	jobs        map[core.JobID]*registeredJob

	submitCalls  int
	statusCalls  int
	resultsCalls int
}

type registeredJob struct {
	state   classify.JobState
	items   []classify.JobItem
	results []classify.ItemResult
}

// NewMockBulkClassifier creates a mock bulk classifier with an empty registry.
// Note: Returns concrete type to allow test scripting and assertions.
func NewMockBulkClassifier() *MockBulkClassifier {
	return &MockBulkClassifier{
		byClientRef: make(map[string]core.JobID),
		jobs:        make(map[core.JobID]*registeredJob),
	}
}

// SubmitJob registers a new in-progress job and returns its receipt.
// A repeated clientRef returns the originally assigned job, mirroring
// provider-side idempotency.
func (m *MockBulkClassifier) SubmitJob(ctx context.Context, clientRef string, items []classify.JobItem, vocabulary []string) (*classify.SubmitReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitCalls++

	if m.SubmitJobFunc != nil {
		return m.SubmitJobFunc(ctx, clientRef, items, vocabulary)
	}
	if m.SubmitErr != nil {
		return nil, m.SubmitErr
	}

	if jobID, ok := m.byClientRef[clientRef]; ok {
		job := m.jobs[jobID]
		return m.receipt(jobID, job.items, nil), nil
	}

	var accepted []classify.JobItem
	var rejected []core.ItemID
	for _, item := range items {
		if m.rejects(item.ImageRef) {
			rejected = append(rejected, item.Id)
			continue
		}
		accepted = append(accepted, item)
	}

	m.nextJob++
	jobID := core.JobID(fmt.Sprintf("mock-job-%d", m.nextJob))
	m.jobs[jobID] = &registeredJob{state: classify.JobStateInProgress, items: accepted}
	m.byClientRef[clientRef] = jobID

	return m.receipt(jobID, accepted, rejected), nil
}

// JobStatus reports the registered state, or not-found for unknown jobs.
func (m *MockBulkClassifier) JobStatus(ctx context.Context, jobID core.JobID) (classify.JobState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++

	job, ok := m.jobs[jobID]
	if !ok {
		return classify.JobStateNotFound, nil
	}
	return job.state, nil
}

// JobResults returns the scripted results of a completed job.
func (m *MockBulkClassifier) JobResults(ctx context.Context, jobID core.JobID) ([]classify.ItemResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resultsCalls++

	job, ok := m.jobs[jobID]
	if !ok || job.state != classify.JobStateCompleted {
		return nil, classify.ErrJobNotCompleted
	}
	return job.results, nil
}

// CompleteJob marks a job completed with the given per-item results.
// Results default to empty tag sets for every accepted item when nil.
func (m *MockBulkClassifier) CompleteJob(jobID core.JobID, results []classify.ItemResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return
	}
	if results == nil {
		for _, item := range job.items {
			results = append(results, classify.ItemResult{Id: item.Id, Tags: []string{}})
		}
	}
	job.state = classify.JobStateCompleted
	job.results = results
}

// ForgetJob removes a job from the registry so status checks report
// not-found, simulating provider-side job loss.
func (m *MockBulkClassifier) ForgetJob(jobID core.JobID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.jobs, jobID)
}

// SubmitCallCount returns the number of SubmitJob calls.
func (m *MockBulkClassifier) SubmitCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submitCalls
}

// StatusCallCount returns the number of JobStatus calls.
func (m *MockBulkClassifier) StatusCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusCalls
}

// ResultsCallCount returns the number of JobResults calls.
func (m *MockBulkClassifier) ResultsCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resultsCalls
}

func (m *MockBulkClassifier) rejects(imageRef string) bool {
	for _, ref := range m.RejectRefs {
		if ref == imageRef {
			return true
		}
	}
	return false
}

func (m *MockBulkClassifier) receipt(jobID core.JobID, accepted []classify.JobItem, rejected []core.ItemID) *classify.SubmitReceipt {
	ids := make([]core.ItemID, len(accepted))
	for i, item := range accepted {
		ids[i] = item.Id
	}
	return &classify.SubmitReceipt{JobId: jobID, Accepted: ids, Rejected: rejected}
}
