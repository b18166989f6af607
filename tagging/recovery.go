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
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillpolevoy/storystack-sub001/core"
	"github.com/kirillpolevoy/storystack-sub001/store"
)

// IsTransient reports whether an error is worth retrying. A not-found from
// the store usually means a freshly written record has not become visible
// yet; a deadline means a per-call timeout fired.
func IsTransient(err error) bool {
	return errors.Is(err, store.ErrNotFound) || errors.Is(err, context.DeadlineExceeded)
}

// RetryTransient retries an operation with exponential backoff as long as it
// keeps failing with a transient error. Non-transient errors abort the loop
// immediately and are returned as-is.
// maxAttempts: maximum number of attempts (must be > 0)
// baseDelay: base delay between retries (doubles on each retry)
func RetryTransient(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if !IsTransient(lastErr) {
			return lastErr
		}

		slog.Debug("transient failure, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "error", lastErr)

		if attempt == maxAttempts {
			break
		}

		delay := baseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// recovery wraps the repositories with the retry policy for reads that race
// the writer. It is shared by the immediate tagger, the bulk submitter and
// the poller.
type recovery struct {
	items  store.ItemRepository
	vocabs store.VocabularyRepository
	cfg    *Config
	logger *slog.Logger
}

func newRecovery(items store.ItemRepository, vocabs store.VocabularyRepository, cfg *Config, logger *slog.Logger) *recovery {
	return &recovery{
		items:  items,
		vocabs: vocabs,
		cfg:    cfg,
		logger: logger,
	}
}

// callCtx derives a per-call context bounded by the configured call timeout.
func (r *recovery) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.cfg.CallTimeout)
}

// getItem reads an item, absorbing read-after-write lag. A record still
// invisible after the retry budget yields ErrRecordMissing.
func (r *recovery) getItem(ctx context.Context, id core.ItemID) (*core.Item, error) {
	var item *core.Item
	err := RetryTransient(ctx, func() error {
		cctx, cancel := r.callCtx(ctx)
		defer cancel()
		var opErr error
		item, opErr = r.items.GetItem(cctx, id)
		return opErr
	}, r.cfg.MaxReadAttempts, r.cfg.RetryBaseDelay)
	if err != nil {
		if IsTransient(err) {
			return nil, fmt.Errorf("%w: %s", ErrRecordMissing, id)
		}
		return nil, err
	}
	return item, nil
}

// vocabulary reads the tenant vocabulary with the same retry policy. An
// absent vocabulary after retries yields ErrVocabularyUnavailable, which
// signals the caller to defer the whole cohort rather than fail its items.
func (r *recovery) vocabulary(ctx context.Context, tenantID core.TenantID) (*core.Vocabulary, error) {
	var vocab *core.Vocabulary
	err := RetryTransient(ctx, func() error {
		cctx, cancel := r.callCtx(ctx)
		defer cancel()
		var opErr error
		vocab, opErr = r.vocabs.GetVocabulary(cctx, tenantID)
		return opErr
	}, r.cfg.MaxReadAttempts, r.cfg.RetryBaseDelay)
	if err != nil {
		if IsTransient(err) {
			return nil, fmt.Errorf("%w: tenant %s", ErrVocabularyUnavailable, tenantID)
		}
		return nil, err
	}
	return vocab, nil
}

// writeResult records a terminal outcome for an item. Writes retry on
// not-found for the same reason reads do; an illegal transition means some
// other path already resolved the item and is treated as a no-op.
func (r *recovery) writeResult(ctx context.Context, id core.ItemID, tags []string, status core.TagStatus) error {
	err := RetryTransient(ctx, func() error {
		cctx, cancel := r.callCtx(ctx)
		defer cancel()
		return r.items.WriteTagResult(cctx, id, tags, status)
	}, r.cfg.MaxReadAttempts, r.cfg.RetryBaseDelay)
	if errors.Is(err, core.ErrIllegalTransition) {
		r.logger.Debug("item already resolved, skipping write", "itemId", id, "status", status.String())
		return nil
	}
	if err != nil && IsTransient(err) {
		return fmt.Errorf("%w: %s", ErrRecordMissing, id)
	}
	return err
}
