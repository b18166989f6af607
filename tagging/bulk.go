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
	"time"

	"github.com/kirillpolevoy/storystack-sub001/classify"
	"github.com/kirillpolevoy/storystack-sub001/core"
	"github.com/kirillpolevoy/storystack-sub001/store"
)

// bulkSubmitter packages a cohort into one asynchronous provider job. The
// cohort fingerprint is passed as the client reference so a re-submission of
// the same cohort (after a crash between submit and ledger write) lands on
// the provider's existing job instead of creating a duplicate.
type bulkSubmitter struct {
	recovery *recovery
	jobs     store.JobRepository
	bulk     classify.BulkClassifier
	fallback *immediateTagger
	cfg      *Config
	logger   *slog.Logger
}

func newBulkSubmitter(rec *recovery, jobs store.JobRepository, bulk classify.BulkClassifier, fallback *immediateTagger, cfg *Config, logger *slog.Logger) *bulkSubmitter {
	return &bulkSubmitter{
		recovery: rec,
		jobs:     jobs,
		bulk:     bulk,
		fallback: fallback,
		cfg:      cfg,
		logger:   logger.With("component", "bulk"),
	}
}

// process submits the cohort as one job, records the job in the ledger and
// marks the accepted items pending. Items the provider rejects, and the
// whole cohort when submission itself fails, fall back to the immediate
// path so nothing is left unresolved.
func (s *bulkSubmitter) process(ctx context.Context, cohort *core.Cohort, vocab *core.Vocabulary) error {
	if vocab.Empty() {
		return s.fallback.process(ctx, cohort, vocab)
	}

	jobItems := make([]classify.JobItem, 0, len(cohort.ItemIds))
	for _, id := range cohort.ItemIds {
		item, err := s.recovery.getItem(ctx, id)
		if err != nil {
			s.logger.Warn("item unreadable, excluding from job", "itemId", id, "error", err)
			s.failItem(ctx, id)
			continue
		}
		if item.Status.Terminal() || item.Status == core.TagStatusPending {
			s.logger.Debug("item already being handled, excluding from job", "itemId", id, "status", item.Status.String())
			continue
		}
		jobItems = append(jobItems, classify.JobItem{Id: id, ImageRef: item.ImageRef})
	}
	if len(jobItems) == 0 {
		return nil
	}

	fingerprint := cohort.Fingerprint()
	cctx, cancel := s.recovery.callCtx(ctx)
	receipt, err := s.bulk.SubmitJob(cctx, fingerprint, jobItems, vocab.Labels)
	cancel()
	if err != nil {
		s.logger.Warn("bulk submission failed, falling back to immediate",
			"tenantId", cohort.TenantId, "items", len(jobItems), "error", err)
		return s.fallback.process(ctx, subCohort(cohort, itemIDs(jobItems)), vocab)
	}

	if len(receipt.Accepted) > 0 {
		job := &core.Job{
			Id:          receipt.JobId,
			TenantId:    cohort.TenantId,
			ItemIds:     receipt.Accepted,
			Fingerprint: fingerprint,
			SubmittedAt: time.Now(),
		}
		if err := s.jobs.PutJob(ctx, job); err != nil {
			// The provider has the job either way; without a ledger entry
			// the poller would never resolve it, so give up on the bulk
			// path for this cohort.
			s.logger.Error("failed to record job, falling back to immediate",
				"jobId", receipt.JobId, "error", err)
			return s.fallback.process(ctx, subCohort(cohort, receipt.Accepted), vocab)
		}
		assigned, err := s.recovery.items.AssignJob(ctx, receipt.JobId, receipt.Accepted)
		if err != nil {
			s.logger.Error("failed to mark items pending", "jobId", receipt.JobId, "error", err)
		} else {
			s.logger.Info("bulk job submitted", "tenantId", cohort.TenantId,
				"jobId", receipt.JobId, "accepted", len(assigned), "rejected", len(receipt.Rejected))
		}
	}

	if len(receipt.Rejected) > 0 {
		s.logger.Warn("provider rejected items, classifying immediately",
			"tenantId", cohort.TenantId, "rejected", len(receipt.Rejected))
		return s.fallback.process(ctx, subCohort(cohort, receipt.Rejected), vocab)
	}
	return nil
}

func (s *bulkSubmitter) failItem(ctx context.Context, id core.ItemID) {
	if err := s.recovery.writeResult(ctx, id, nil, core.TagStatusFailed); err != nil {
		s.logger.Debug("could not record failure", "itemId", id, "error", err)
	}
}

// subCohort narrows a cohort to a subset of its items, keeping tenant and
// creation time.
func subCohort(cohort *core.Cohort, ids []core.ItemID) *core.Cohort {
	return &core.Cohort{
		TenantId:  cohort.TenantId,
		ItemIds:   ids,
		CreatedAt: cohort.CreatedAt,
	}
}

func itemIDs(items []classify.JobItem) []core.ItemID {
	ids := make([]core.ItemID, len(items))
	for i, it := range items {
		ids[i] = it.Id
	}
	return ids
}
