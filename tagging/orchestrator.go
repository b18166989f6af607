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

package tagging

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/kirillpolevoy/storystack-sub001/classify"
	"github.com/kirillpolevoy/storystack-sub001/core"
	"github.com/kirillpolevoy/storystack-sub001/store"
)

// Orchestrator wires the auto-tagging pipeline together: item creation
// events flow through the cohort collector, flushed cohorts are routed to
// the immediate or bulk path, and the poller resolves outstanding bulk jobs
// in the background.
type Orchestrator struct {
	items  store.ItemRepository
	jobs   store.JobRepository
	vocabs store.VocabularyRepository

	cfg       *Config
	pool      *ants.Pool
	recovery  *recovery
	collector *Collector
	immediate *immediateTagger
	bulk      *bulkSubmitter
	poller    *Poller
	scanner   *scanner
	logger    *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithConfig replaces the default configuration.
func WithConfig(cfg *Config) Option {
	return func(o *Orchestrator) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.cfg = cfg
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates the pipeline over the given repositories and
// classification provider.
func NewOrchestrator(
	items store.ItemRepository,
	jobs store.JobRepository,
	vocabs store.VocabularyRepository,
	provider classify.Provider,
	opts ...Option,
) (*Orchestrator, error) {
	if items == nil {
		return nil, ErrItemRepositoryRequired
	}
	if jobs == nil {
		return nil, ErrJobRepositoryRequired
	}
	if vocabs == nil {
		return nil, ErrVocabularyRepositoryRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	o := &Orchestrator{
		items:  items,
		jobs:   jobs,
		vocabs: vocabs,
		cfg:    DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(o.cfg.PoolSize)
	if err != nil {
		return nil, err
	}
	o.pool = pool

	o.recovery = newRecovery(items, vocabs, o.cfg, o.logger)
	o.immediate = newImmediateTagger(o.recovery, provider.Classifier(), o.cfg, o.logger)
	o.bulk = newBulkSubmitter(o.recovery, jobs, provider.BulkClassifier(), o.immediate, o.cfg, o.logger)
	o.collector = NewCollector(o.cfg, pool, o.processCohort, o.logger)
	o.poller = NewPoller(o.recovery, jobs, provider.BulkClassifier(), pool, o.cfg, o.logger)
	o.scanner = newScanner(items, o.collector.Add, o.cfg, o.logger)

	return o, nil
}

// OnItemCreated feeds one newly created item into its tenant's cohort. The
// call only buffers; classification happens after the tenant's quiet period.
func (o *Orchestrator) OnItemCreated(ctx context.Context, tenantID core.TenantID, itemID core.ItemID) error {
	return o.collector.Add(tenantID, itemID)
}

// Retag forces previously resolved items back through the pipeline. Items
// are reset to untagged and re-enter cohort collection as if freshly
// created. Returns the IDs actually reset.
func (o *Orchestrator) Retag(ctx context.Context, ids []core.ItemID) ([]core.ItemID, error) {
	tenantOf := make(map[core.ItemID]core.TenantID, len(ids))
	for _, id := range ids {
		item, err := o.items.GetItem(ctx, id)
		if err != nil {
			o.logger.Warn("retag target unreadable, skipping", "itemId", id, "error", err)
			continue
		}
		tenantOf[id] = item.TenantId
	}

	known := make([]core.ItemID, 0, len(tenantOf))
	for _, id := range ids {
		if _, ok := tenantOf[id]; ok {
			known = append(known, id)
		}
	}

	reset, err := o.items.ResetForRetag(ctx, known)
	if err != nil {
		return nil, err
	}
	for _, id := range reset {
		if err := o.collector.Add(tenantOf[id], id); err != nil {
			return reset, err
		}
	}
	o.logger.Info("items queued for retag", "requested", len(ids), "reset", len(reset))
	return reset, nil
}

// Start launches the background poller and store scanner. It returns
// immediately; call Release to stop them.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(2)
	go func() {
		defer o.wg.Done()
		o.poller.Run(runCtx)
	}()
	go func() {
		defer o.wg.Done()
		o.scanner.run(runCtx)
	}()
	o.logger.Info("auto-tagging pipeline started",
		"bulkThreshold", o.cfg.BulkThreshold, "pollInterval", o.cfg.PollInterval.String())
}

// Flush forces all buffered cohorts out without waiting for their quiet
// periods to elapse.
func (o *Orchestrator) Flush() {
	o.collector.Flush()
}

// RunPollCycle triggers one poll cycle outside the regular interval.
func (o *Orchestrator) RunPollCycle(ctx context.Context) error {
	return o.poller.RunCycle(ctx)
}

// Release stops the background loops, flushes pending cohorts and releases
// the worker pool. The orchestrator must not be used afterwards.
func (o *Orchestrator) Release() {
	o.mu.Lock()
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.mu.Unlock()

	o.wg.Wait()
	o.collector.Close()
	o.pool.Release()
	o.logger.Info("auto-tagging pipeline stopped")
}

// processCohort resolves the tenant vocabulary and routes the cohort to the
// chosen strategy. A vocabulary miss propagates so the collector defers the
// cohort instead of failing its items.
func (o *Orchestrator) processCohort(cohort *core.Cohort) error {
	ctx := context.Background()

	vocab, err := o.recovery.vocabulary(ctx, cohort.TenantId)
	if err != nil {
		return err
	}

	strategy := Route(len(cohort.ItemIds), o.cfg.BulkThreshold)
	o.logger.Info("cohort flushed", "tenantId", cohort.TenantId,
		"items", len(cohort.ItemIds), "strategy", strategy.String())

	switch strategy {
	case StrategyBulk:
		return o.bulk.process(ctx, cohort, vocab)
	default:
		return o.immediate.process(ctx, cohort, vocab)
	}
}
