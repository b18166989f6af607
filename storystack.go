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

package storystack

import (
	"log/slog"

	"github.com/kirillpolevoy/storystack-sub001/classify"
	"github.com/kirillpolevoy/storystack-sub001/classify/openai"
	"github.com/kirillpolevoy/storystack-sub001/store"
	"github.com/kirillpolevoy/storystack-sub001/store/badger"
	"github.com/kirillpolevoy/storystack-sub001/tagging"
)

// Service bundles the storage backend, repositories and classification
// provider behind one handle.
type Service struct {
	backend  *badger.Backend
	items    store.ItemRepository
	jobs     store.JobRepository
	vocabs   store.VocabularyRepository
	provider classify.Provider
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	classifyConfig *classify.Config
}

// WithClassifyConfig overrides the default classification provider settings.
func WithClassifyConfig(cfg *classify.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.classifyConfig = cfg
	}
}

// NewService opens the embedded store at filePath and connects the
// classification provider.
func NewService(filePath string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		classifyConfig: classify.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	items, err := badger.NewItemRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	jobs, err := badger.NewJobRepository(backend)
	if err != nil {
		items.Close()
		backend.Close()
		return nil, err
	}

	vocabs, err := badger.NewVocabularyRepository(backend)
	if err != nil {
		jobs.Close()
		items.Close()
		backend.Close()
		return nil, err
	}

	provider, err := openai.NewProvider(options.classifyConfig)
	if err != nil {
		vocabs.Close()
		jobs.Close()
		items.Close()
		backend.Close()
		return nil, err
	}

	return &Service{
		backend:  backend,
		items:    items,
		jobs:     jobs,
		vocabs:   vocabs,
		provider: provider,
		logger:   slog.Default(),
	}, nil
}

// Close releases the provider, repositories and backend.
func (s *Service) Close() error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing classification provider", "err", err)
	}

	if err := s.vocabs.Close(); err != nil {
		s.logger.Error("error closing vocabulary repository", "err", err)
		return err
	}
	if err := s.jobs.Close(); err != nil {
		s.logger.Error("error closing job repository", "err", err)
		return err
	}
	if err := s.items.Close(); err != nil {
		s.logger.Error("error closing item repository", "err", err)
		return err
	}

	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// ItemRepository returns the item record repository.
func (s *Service) ItemRepository() store.ItemRepository {
	return s.items
}

// JobRepository returns the outstanding-job ledger.
func (s *Service) JobRepository() store.JobRepository {
	return s.jobs
}

// VocabularyRepository returns the per-tenant vocabulary repository.
func (s *Service) VocabularyRepository() store.VocabularyRepository {
	return s.vocabs
}

// NewOrchestrator builds an auto-tagging orchestrator over this service's
// repositories and provider.
func (s *Service) NewOrchestrator(opts ...tagging.Option) (*tagging.Orchestrator, error) {
	return tagging.NewOrchestrator(s.items, s.jobs, s.vocabs, s.provider, opts...)
}
