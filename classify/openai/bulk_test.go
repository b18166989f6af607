package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillpolevoy/storystack-sub001/classify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBulk(t *testing.T, handler http.Handler) *BulkClassifier {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := classify.DefaultConfig(
		classify.WithHost(server.URL),
		classify.WithImageBaseURL("https://cdn.example.com/photos"),
	)
	require.NoError(t, config.Validate())
	return newBulkClassifier(config)
}

func TestBulkSubmitJob(t *testing.T) {
	var captured submitRequest
	bulk := newTestBulk(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/classification/jobs", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(submitResponse{
			JobId:    "job-7",
			Accepted: []string{"item-1"},
			Rejected: []string{"item-2"},
		})
	}))

	receipt, err := bulk.SubmitJob(context.Background(), "fp-1", []classify.JobItem{
		{Id: "item-1", ImageRef: "tenant-1/item-1.jpg"},
		{Id: "item-2", ImageRef: "tenant-1/item-2.jpg"},
	}, []string{"dog", "beach"})
	require.NoError(t, err)

	assert.Equal(t, "fp-1", captured.ClientRef)
	assert.Equal(t, []string{"dog", "beach"}, captured.Labels)
	assert.Equal(t, "https://cdn.example.com/photos/tenant-1/item-1.jpg", captured.Items[0].ImageURL)

	assert.EqualValues(t, "job-7", receipt.JobId)
	assert.Len(t, receipt.Accepted, 1)
	assert.Len(t, receipt.Rejected, 1)
}

func TestBulkSubmitJob_NoPerItemReport(t *testing.T) {
	bulk := newTestBulk(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(submitResponse{JobId: "job-1"})
	}))

	receipt, err := bulk.SubmitJob(context.Background(), "fp", []classify.JobItem{
		{Id: "item-1"}, {Id: "item-2"},
	}, nil)
	require.NoError(t, err)
	assert.Len(t, receipt.Accepted, 2, "items default to accepted when the provider doesn't say")
	assert.Empty(t, receipt.Rejected)
}

func TestBulkSubmitJob_Rejected(t *testing.T) {
	bulk := newTestBulk(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))

	_, err := bulk.SubmitJob(context.Background(), "fp", []classify.JobItem{{Id: "item-1"}}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, classify.ErrSubmissionRejected)
}

func TestBulkJobStatus(t *testing.T) {
	bulk := newTestBulk(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/classification/jobs/job-running":
			json.NewEncoder(w).Encode(statusResponse{Status: "running"})
		case "/classification/jobs/job-done":
			json.NewEncoder(w).Encode(statusResponse{Status: "completed"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	ctx := context.Background()

	state, err := bulk.JobStatus(ctx, "job-running")
	require.NoError(t, err)
	assert.Equal(t, classify.JobStateInProgress, state)

	state, err = bulk.JobStatus(ctx, "job-done")
	require.NoError(t, err)
	assert.Equal(t, classify.JobStateCompleted, state)

	state, err = bulk.JobStatus(ctx, "job-gone")
	require.NoError(t, err, "a vanished job is a state, not an error")
	assert.Equal(t, classify.JobStateNotFound, state)
}

func TestBulkJobResults(t *testing.T) {
	bulk := newTestBulk(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classification/jobs/job-1/results" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(resultsResponse{Results: []resultEntry{
			{ItemId: "item-1", Tags: []string{"dog", "beach"}},
			{ItemId: "item-2", Error: "unreadable image"},
		}})
	}))

	results, err := bulk.JobResults(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.EqualValues(t, "item-1", results[0].Id)
	assert.Equal(t, []string{"dog", "beach"}, results[0].Tags)
	assert.False(t, results[0].Failed())
	assert.True(t, results[1].Failed())

	_, err = bulk.JobResults(context.Background(), "job-unfinished")
	assert.ErrorIs(t, err, classify.ErrJobNotCompleted)
}

func TestFilterToVocabulary(t *testing.T) {
	vocabulary := []string{"Beach", "dog", "sunset"}

	tags := filterToVocabulary([]string{"beach", "DOG", "dog", "castle", " sunset "}, vocabulary)
	assert.Equal(t, []string{"Beach", "dog", "sunset"}, tags,
		"labels outside the vocabulary are dropped, duplicates collapsed, canonical casing kept")

	assert.Empty(t, filterToVocabulary([]string{"castle"}, vocabulary))
	assert.Empty(t, filterToVocabulary(nil, vocabulary))
}

func TestRepairJSON(t *testing.T) {
	assert.Equal(t, `{"tags": []}`, repairJSON("```json\n{\"tags\": []}\n```"))
	assert.Equal(t, `{"tags": ["dog"]}`, repairJSON("Here you go: {\"tags\": [\"dog\"]} hope that helps"))
	assert.Equal(t, `{"tags": []}`, repairJSON("  {\"tags\": []}  "))
}
