// Copyright 2026 StoryStack
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package mock

import "github.com/kirillpolevoy/storystack-sub001/classify"

// MockProvider is a test double for classify.Provider.
// It aggregates mock classifier and bulk classifier instances.
type MockProvider struct {
	classifier *MockClassifier
	bulk       *MockBulkClassifier
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns classify.Provider interface for consistency with production
// constructors. Use GetMockClassifier()/GetMockBulkClassifier() to access
// concrete types for test assertions.
func NewMockProvider() classify.Provider {
	return &MockProvider{
		classifier: NewMockClassifier(),
		bulk:       NewMockBulkClassifier(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock
// services, allowing full control over the behavior of each.
func NewMockProviderWithServices(classifier *MockClassifier, bulk *MockBulkClassifier) classify.Provider {
	return &MockProvider{
		classifier: classifier,
		bulk:       bulk,
	}
}

// Classifier returns the mock classifier.
func (p *MockProvider) Classifier() classify.Classifier {
	return p.classifier
}

// BulkClassifier returns the mock bulk classifier.
func (p *MockProvider) BulkClassifier() classify.BulkClassifier {
	return p.bulk
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockClassifier returns the underlying mock classifier for assertions.
func (p *MockProvider) GetMockClassifier() *MockClassifier {
	return p.classifier
}

// GetMockBulkClassifier returns the underlying mock bulk classifier for
// scripting job lifecycles in tests.
func (p *MockProvider) GetMockBulkClassifier() *MockBulkClassifier {
	return p.bulk
}
