package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillpolevoy/storystack-sub001/classify"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Classifier implements classify.Classifier using OpenAI-compatible vision
// chat APIs.
type Classifier struct {
	client       llms.Model
	imageBaseURL string
	logger       *slog.Logger
}

// labeling is the wrapper structure for the model's JSON response.
type labeling struct {
	Tags []string `json:"tags"`
}

// newClassifier is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newClassifier(config *classify.Config) (*Classifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	return &Classifier{
		client:       client,
		imageBaseURL: config.ImageBaseURL,
		logger:       slog.Default().With("component", "openai-classifier"),
	}, nil
}

// NewClassifier creates a new classifier using the provided configuration.
//
// Returns classify.Classifier interface to enforce abstraction.
func NewClassifier(config *classify.Config) (classify.Classifier, error) {
	return newClassifier(config)
}

// Classify labels a single image against a closed vocabulary using a vision
// model. Labels outside the vocabulary are dropped from the model's output.
func (c *Classifier) Classify(ctx context.Context, imageRef string, vocabulary []string) ([]string, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildSystemPrompt(vocabulary)),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.ImageURLPart(c.imageURL(imageRef)),
				llms.TextPart("Label this photo."),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result labeling
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := c.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			c.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, fmt.Errorf("%w: %w", classify.ErrProvider, err)
		}

		if len(response.Choices) < 1 {
			c.logger.Debug("no choices returned from model")
			return []string{}, nil
		}

		raw := strings.TrimSpace(response.Choices[0].Content)
		if err := json.Unmarshal([]byte(raw), &result); err == nil {
			return filterToVocabulary(result.Tags, vocabulary), nil
		}

		repaired := repairJSON(raw)
		if err := json.Unmarshal([]byte(repaired), &result); err == nil {
			return filterToVocabulary(result.Tags, vocabulary), nil
		} else {
			lastErr = err
			c.logger.Debug("malformed labeling response", "attempt", attempt+1, "err", err)
		}
	}

	return nil, fmt.Errorf("%w: %w", classify.ErrMalformedResponse, lastErr)
}

// imageURL joins the configured base URL with the item's image reference.
func (c *Classifier) imageURL(imageRef string) string {
	if c.imageBaseURL == "" || strings.Contains(imageRef, "://") {
		return imageRef
	}
	return c.imageBaseURL + "/" + strings.TrimLeft(imageRef, "/")
}

// filterToVocabulary enforces the closed label set, deduplicating as it goes.
func filterToVocabulary(tags, vocabulary []string) []string {
	allowed := make(map[string]string, len(vocabulary))
	for _, label := range vocabulary {
		allowed[strings.ToLower(label)] = label
	}

	seen := make(map[string]bool, len(tags))
	result := []string{}
	for _, tag := range tags {
		key := strings.ToLower(strings.TrimSpace(tag))
		label, ok := allowed[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, label)
	}
	return result
}
