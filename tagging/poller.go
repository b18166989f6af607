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
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/kirillpolevoy/storystack-sub001/classify"
	"github.com/kirillpolevoy/storystack-sub001/core"
	"github.com/kirillpolevoy/storystack-sub001/store"
)

// Poller drives outstanding bulk jobs to resolution. Each cycle reads the
// oldest outstanding jobs from the ledger, checks provider status for each
// and applies results, enforcing the staleness window on jobs that never
// resolve. Cycles are sequential; within a cycle jobs are checked
// concurrently on the worker pool.
type Poller struct {
	recovery *recovery
	jobs     store.JobRepository
	bulk     classify.BulkClassifier
	pool     *ants.Pool
	cfg      *Config
	logger   *slog.Logger
}

// NewPoller creates a poller over the given job ledger and provider.
func NewPoller(rec *recovery, jobs store.JobRepository, bulk classify.BulkClassifier, pool *ants.Pool, cfg *Config, logger *slog.Logger) *Poller {
	return &Poller{
		recovery: rec,
		jobs:     jobs,
		bulk:     bulk,
		pool:     pool,
		cfg:      cfg,
		logger:   logger.With("component", "poller"),
	}
}

// Run polls at the configured interval until the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.RunCycle(ctx); err != nil {
				p.logger.Error("poll cycle failed", "error", err)
			}
		}
	}
}

// RunCycle performs one bounded poll cycle: at most MaxJobsPerCycle jobs,
// oldest first, within the cycle timeout. Re-running a cycle whose jobs were
// already resolved is a no-op.
func (p *Poller) RunCycle(ctx context.Context) error {
	cctx, cancel := context.WithTimeout(ctx, p.cfg.CycleTimeout)
	defer cancel()

	outstanding, err := p.jobs.ListOutstandingJobs(cctx, p.cfg.MaxJobsPerCycle)
	if err != nil {
		return err
	}
	if len(outstanding) == 0 {
		return nil
	}
	p.logger.Debug("poll cycle started", "jobs", len(outstanding))

	var wg sync.WaitGroup
	for _, job := range outstanding {
		job := job
		wg.Add(1)
		task := func() {
			defer wg.Done()
			p.checkJob(cctx, job)
		}
		if err := p.pool.Submit(task); err != nil {
			p.logger.Warn("pool rejected job check, running inline", "jobId", job.Id, "error", err)
			task()
		}
	}
	wg.Wait()
	return nil
}

// checkJob advances one job one step. Errors talking to the provider leave
// the job in the ledger for the next cycle.
func (p *Poller) checkJob(ctx context.Context, job *core.Job) {
	cctx, cancel := p.recovery.callCtx(ctx)
	state, err := p.bulk.JobStatus(cctx, job.Id)
	cancel()
	if err != nil {
		p.logger.Warn("job status check failed", "jobId", job.Id, "error", err)
		return
	}

	switch state {
	case classify.JobStateCompleted:
		p.resolveCompleted(ctx, job)
	case classify.JobStateInProgress:
		p.expireIfStale(ctx, job, "in progress")
	case classify.JobStateNotFound:
		// Normal shortly after submission when the provider's view lags;
		// within the window the job is simply left for the next cycle.
		p.expireIfStale(ctx, job, "not found")
	default:
		p.logger.Warn("unknown job state", "jobId", job.Id, "state", state.String())
	}
}

// resolveCompleted fetches results and writes per-item outcomes. Items the
// provider reported on but that already hold a terminal status are left
// untouched, so applying the same results twice is harmless. Items the job
// covers but the results omit are failed rather than left pending forever.
func (p *Poller) resolveCompleted(ctx context.Context, job *core.Job) {
	cctx, cancel := p.recovery.callCtx(ctx)
	results, err := p.bulk.JobResults(cctx, job.Id)
	cancel()
	if err != nil {
		p.logger.Warn("job results fetch failed", "jobId", job.Id, "error", err)
		return
	}

	completed, failed := 0, 0
	for _, res := range results {
		if res.Failed() {
			p.logger.Warn("provider reported item error", "jobId", job.Id, "itemId", res.Id, "providerError", res.Err)
			if err := p.recovery.writeResult(ctx, res.Id, nil, core.TagStatusFailed); err != nil {
				p.logger.Error("failed to record item failure", "jobId", job.Id, "itemId", res.Id, "error", err)
				continue
			}
			failed++
			continue
		}
		if err := p.recovery.writeResult(ctx, res.Id, res.Tags, core.TagStatusCompleted); err != nil {
			p.logger.Error("failed to record tags", "jobId", job.Id, "itemId", res.Id, "error", err)
			continue
		}
		completed++
	}

	orphaned, err := p.recovery.items.ListPendingWithJob(ctx, job.Id)
	if err != nil {
		p.logger.Error("failed to list unresolved job items", "jobId", job.Id, "error", err)
		return
	}
	for _, id := range orphaned {
		p.logger.Warn("job results omitted item, marking failed", "jobId", job.Id, "itemId", id)
		if err := p.recovery.writeResult(ctx, id, nil, core.TagStatusFailed); err != nil {
			p.logger.Error("failed to record omitted-item failure", "jobId", job.Id, "itemId", id, "error", err)
			return
		}
	}

	if err := p.jobs.DeleteJob(ctx, job.Id); err != nil {
		p.logger.Error("failed to remove resolved job", "jobId", job.Id, "error", err)
		return
	}
	p.logger.Info("bulk job resolved", "jobId", job.Id, "tenantId", job.TenantId,
		"completed", completed, "failed", failed+len(orphaned))
}

// expireIfStale forces a job past the staleness window to resolution by
// failing all its still-pending items exactly once and dropping the ledger
// entry. Younger jobs are left alone.
func (p *Poller) expireIfStale(ctx context.Context, job *core.Job, providerState string) {
	age := job.Age(time.Now())
	if age <= p.cfg.StalenessWindow {
		return
	}

	p.logger.Warn("expiring stale bulk job", "jobId", job.Id, "tenantId", job.TenantId,
		"age", age.String(), "providerState", providerState, "error", ErrStaleJob)

	pending, err := p.recovery.items.ListPendingWithJob(ctx, job.Id)
	if err != nil {
		p.logger.Error("failed to list stale job items", "jobId", job.Id, "error", err)
		return
	}
	for _, id := range pending {
		if err := p.recovery.writeResult(ctx, id, nil, core.TagStatusFailed); err != nil {
			p.logger.Error("failed to fail stale job item", "jobId", job.Id, "itemId", id, "error", err)
			return
		}
	}
	if err := p.jobs.DeleteJob(ctx, job.Id); err != nil {
		p.logger.Error("failed to remove stale job", "jobId", job.Id, "error", err)
		return
	}
	p.logger.Info("stale bulk job expired", "jobId", job.Id, "failedItems", len(pending))
}
