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

package openai

import (
	"log/slog"

	"github.com/kirillpolevoy/storystack-sub001/classify"
)

// Provider implements classify.Provider using OpenAI-compatible services.
// It manages classifier and bulk classifier instances.
type Provider struct {
	config     *classify.Config
	classifier *Classifier
	bulk       *BulkClassifier
	logger     *slog.Logger
}

// NewProvider creates a new classification provider with OpenAI-compatible
// services. The config is validated and normalized before use.
//
// Returns classify.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to implementation details.
func NewProvider(config *classify.Config) (classify.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	classifier, err := newClassifier(config)
	if err != nil {
		return nil, err
	}

	bulk := newBulkClassifier(config)

	return &Provider{
		config:     config,
		classifier: classifier,
		bulk:       bulk,
		logger:     slog.Default().With("component", "openai-provider"),
	}, nil
}

// Classifier returns the synchronous classification service.
func (p *Provider) Classifier() classify.Classifier {
	return p.classifier
}

// BulkClassifier returns the asynchronous job service.
func (p *Provider) BulkClassifier() classify.BulkClassifier {
	return p.bulk
}

// Close releases resources held by the provider.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	p.bulk.close()
	return nil
}
