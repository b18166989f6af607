package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kirillpolevoy/storystack-sub001/classify"
	"github.com/kirillpolevoy/storystack-sub001/core"
)

// BulkClassifier implements classify.BulkClassifier against the provider's
// batch classification REST endpoints. The chat-completions surface has no
// job concept, so this client talks to the jobs API directly.
type BulkClassifier struct {
	host         string
	model        string
	token        string
	imageBaseURL string
	httpClient   *http.Client
	logger       *slog.Logger
}

type submitRequest struct {
	ClientRef string          `json:"client_ref"`
	Model     string          `json:"model"`
	Labels    []string        `json:"labels"`
	Items     []submitReqItem `json:"items"`
}

type submitReqItem struct {
	Id       string `json:"id"`
	ImageURL string `json:"image_url"`
}

type submitResponse struct {
	JobId    string   `json:"job_id"`
	Accepted []string `json:"accepted"`
	Rejected []string `json:"rejected"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type resultsResponse struct {
	Results []resultEntry `json:"results"`
}

type resultEntry struct {
	ItemId string   `json:"item_id"`
	Tags   []string `json:"tags"`
	Error  string   `json:"error"`
}

// newBulkClassifier is an internal constructor that returns the concrete type.
func newBulkClassifier(config *classify.Config) *BulkClassifier {
	return &BulkClassifier{
		host:         config.Host,
		model:        config.Model,
		token:        config.Token,
		imageBaseURL: config.ImageBaseURL,
		httpClient:   &http.Client{},
		logger:       slog.Default().With("component", "openai-bulk"),
	}
}

// NewBulkClassifier creates a new bulk classifier using the provided
// configuration.
//
// Returns classify.BulkClassifier interface to enforce abstraction.
func NewBulkClassifier(config *classify.Config) (classify.BulkClassifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newBulkClassifier(config), nil
}

// SubmitJob submits one classification job covering all given items.
func (b *BulkClassifier) SubmitJob(ctx context.Context, clientRef string, items []classify.JobItem, vocabulary []string) (*classify.SubmitReceipt, error) {
	reqItems := make([]submitReqItem, len(items))
	for i, item := range items {
		reqItems[i] = submitReqItem{
			Id:       string(item.Id),
			ImageURL: b.imageURL(item.ImageRef),
		}
	}

	body, err := json.Marshal(submitRequest{
		ClientRef: clientRef,
		Model:     b.model,
		Labels:    vocabulary,
		Items:     reqItems,
	})
	if err != nil {
		return nil, err
	}

	var resp submitResponse
	status, err := b.do(ctx, http.MethodPost, b.host+"/classification/jobs", body, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, fmt.Errorf("%w: submission returned HTTP %d", classify.ErrSubmissionRejected, status)
	}
	if resp.JobId == "" {
		return nil, fmt.Errorf("%w: submission returned no job id", classify.ErrMalformedResponse)
	}

	receipt := &classify.SubmitReceipt{JobId: core.JobID(resp.JobId)}
	for _, id := range resp.Accepted {
		receipt.Accepted = append(receipt.Accepted, core.ItemID(id))
	}
	for _, id := range resp.Rejected {
		receipt.Rejected = append(receipt.Rejected, core.ItemID(id))
	}

	// Providers that don't report per-item acceptance accept everything.
	if len(receipt.Accepted) == 0 && len(receipt.Rejected) == 0 {
		for _, item := range items {
			receipt.Accepted = append(receipt.Accepted, item.Id)
		}
	}
	return receipt, nil
}

// JobStatus queries the provider for a job's current state.
func (b *BulkClassifier) JobStatus(ctx context.Context, jobID core.JobID) (classify.JobState, error) {
	var resp statusResponse
	status, err := b.do(ctx, http.MethodGet, b.jobURL(jobID), nil, &resp)
	if err != nil {
		return 0, err
	}

	switch {
	case status == http.StatusNotFound:
		return classify.JobStateNotFound, nil
	case status != http.StatusOK:
		return 0, fmt.Errorf("%w: status check returned HTTP %d", classify.ErrProvider, status)
	}

	switch strings.ToLower(resp.Status) {
	case "completed", "done", "succeeded":
		return classify.JobStateCompleted, nil
	case "in_progress", "pending", "running", "queued":
		return classify.JobStateInProgress, nil
	default:
		return 0, fmt.Errorf("%w: unknown job status %q", classify.ErrMalformedResponse, resp.Status)
	}
}

// JobResults fetches per-item outcomes for a completed job.
func (b *BulkClassifier) JobResults(ctx context.Context, jobID core.JobID) ([]classify.ItemResult, error) {
	var resp resultsResponse
	status, err := b.do(ctx, http.MethodGet, b.jobURL(jobID)+"/results", nil, &resp)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusConflict:
		return nil, classify.ErrJobNotCompleted
	default:
		return nil, fmt.Errorf("%w: results fetch returned HTTP %d", classify.ErrProvider, status)
	}

	results := make([]classify.ItemResult, len(resp.Results))
	for i, entry := range resp.Results {
		results[i] = classify.ItemResult{
			Id:   core.ItemID(entry.ItemId),
			Tags: entry.Tags,
			Err:  entry.Error,
		}
	}
	return results, nil
}

// close releases idle connections. Called by Provider.Close.
func (b *BulkClassifier) close() {
	b.httpClient.CloseIdleConnections()
}

// do issues one HTTP request and decodes the JSON response body into out.
// The HTTP status is returned for the caller to interpret; only transport
// and decode failures are errors.
func (b *BulkClassifier) do(ctx context.Context, method, url string, body []byte, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if b.token != "" && b.token != "none" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", classify.ErrProvider, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %w", classify.ErrProvider, err)
	}

	if resp.StatusCode < 300 && out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: %w", classify.ErrMalformedResponse, err)
		}
	}
	return resp.StatusCode, nil
}

func (b *BulkClassifier) jobURL(jobID core.JobID) string {
	return b.host + "/classification/jobs/" + string(jobID)
}

func (b *BulkClassifier) imageURL(imageRef string) string {
	if b.imageBaseURL == "" || strings.Contains(imageRef, "://") {
		return imageRef
	}
	return b.imageBaseURL + "/" + strings.TrimLeft(imageRef, "/")
}
