package mock

import (
	"context"
	"strings"
	"sync"
)

// MockClassifier is a test double for classify.Classifier.
// It allows custom behavior injection via function fields.
type MockClassifier struct {
	// ClassifyFunc is called by Classify if set.
	// If nil, uses a default deterministic labeling.
	ClassifyFunc func(ctx context.Context, imageRef string, vocabulary []string) ([]string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockClassifier creates a mock classifier with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{}
}

// Classify labels an image deterministically by default: it returns every
// vocabulary label whose text appears in the image reference. This lets tests
// steer output through item naming without injecting a function.
func (m *MockClassifier) Classify(ctx context.Context, imageRef string, vocabulary []string) ([]string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, imageRef, vocabulary)
	}

	var tags []string
	for _, label := range vocabulary {
		if strings.Contains(strings.ToLower(imageRef), strings.ToLower(label)) {
			tags = append(tags, label)
		}
	}
	return tags, nil
}

// CallCount returns the number of times Classify was called.
func (m *MockClassifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockClassifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.ClassifyFunc = nil
}
