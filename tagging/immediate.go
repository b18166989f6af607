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
	"errors"
	"log/slog"

	"github.com/kirillpolevoy/storystack-sub001/classify"
	"github.com/kirillpolevoy/storystack-sub001/core"
)

// immediateTagger classifies each cohort item with a direct provider call
// and writes a terminal status per item. Items are isolated from each other:
// one failure never aborts the rest of the cohort.
type immediateTagger struct {
	recovery   *recovery
	classifier classify.Classifier
	cfg        *Config
	logger     *slog.Logger
}

func newImmediateTagger(rec *recovery, classifier classify.Classifier, cfg *Config, logger *slog.Logger) *immediateTagger {
	return &immediateTagger{
		recovery:   rec,
		classifier: classifier,
		cfg:        cfg,
		logger:     logger.With("component", "immediate"),
	}
}

// process resolves every item in the cohort. With an empty vocabulary there
// is nothing to classify against, so all items complete with an empty tag
// set and the provider is never called.
func (t *immediateTagger) process(ctx context.Context, cohort *core.Cohort, vocab *core.Vocabulary) error {
	if vocab.Empty() {
		t.logger.Info("vocabulary empty, completing cohort without classification",
			"tenantId", cohort.TenantId, "items", len(cohort.ItemIds))
		for _, id := range cohort.ItemIds {
			if err := t.recovery.writeResult(ctx, id, []string{}, core.TagStatusCompleted); err != nil {
				t.logger.Error("failed to record empty-vocabulary completion", "itemId", id, "error", err)
			}
		}
		return nil
	}

	completed, failed := 0, 0
	for _, id := range cohort.ItemIds {
		if err := t.processItem(ctx, id, vocab); err != nil {
			failed++
		} else {
			completed++
		}
	}
	t.logger.Info("immediate cohort processed",
		"tenantId", cohort.TenantId, "completed", completed, "failed", failed)
	return nil
}

// processItem classifies one item and records its terminal status. Any
// outcome other than a successful classification marks the item failed; a
// failed write for a record that turned out to be permanently missing is
// logged and dropped.
func (t *immediateTagger) processItem(ctx context.Context, id core.ItemID, vocab *core.Vocabulary) error {
	item, err := t.recovery.getItem(ctx, id)
	if err != nil {
		t.logger.Warn("item unreadable, marking failed", "itemId", id, "error", err)
		t.fail(ctx, id)
		return err
	}
	if item.Status.Terminal() || item.Status == core.TagStatusPending {
		t.logger.Debug("item already being handled, skipping", "itemId", id, "status", item.Status.String())
		return nil
	}

	// A per-call timeout is transient and retried under the same bound as
	// store reads; provider rejections are not and fail the item at once.
	var tags []string
	err = RetryTransient(ctx, func() error {
		cctx, cancel := t.recovery.callCtx(ctx)
		defer cancel()
		var opErr error
		tags, opErr = t.classifier.Classify(cctx, item.ImageRef, vocab.Labels)
		return opErr
	}, t.cfg.MaxReadAttempts, t.cfg.RetryBaseDelay)
	if err != nil {
		t.logger.Warn("classification failed", "itemId", id, "error", err)
		t.fail(ctx, id)
		return err
	}

	if err := t.recovery.writeResult(ctx, id, tags, core.TagStatusCompleted); err != nil {
		t.logger.Error("failed to record tags", "itemId", id, "error", err)
		return err
	}
	return nil
}

func (t *immediateTagger) fail(ctx context.Context, id core.ItemID) {
	if err := t.recovery.writeResult(ctx, id, nil, core.TagStatusFailed); err != nil {
		if !errors.Is(err, ErrRecordMissing) {
			t.logger.Error("failed to record failure", "itemId", id, "error", err)
		}
	}
}
