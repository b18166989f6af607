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
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/kirillpolevoy/storystack-sub001/core"
)

// flushFunc processes one flushed cohort. Returning ErrVocabularyUnavailable
// tells the collector to re-buffer the cohort and try again later; any other
// error is terminal for the flush (item-level outcomes were already written
// inside the flush).
type flushFunc func(cohort *core.Cohort) error

// Collector buffers newly created items per tenant and flushes them as
// cohorts once the tenant has been quiet for long enough, or as soon as the
// buffer reaches the size ceiling. All timers and buffers live behind one
// mutex; flush work itself runs on the shared worker pool.
type Collector struct {
	cfg    *Config
	pool   *ants.Pool
	flush  flushFunc
	logger *slog.Logger

	mu      sync.Mutex
	tenants map[core.TenantID]*tenantBuffer
	closed  bool
	wg      sync.WaitGroup
}

// tenantBuffer is one tenant's pending cohort. inFlight holds the membership
// of the cohort currently being processed, or nil when none is. At most one
// flush per tenant runs at a time.
type tenantBuffer struct {
	ids      []core.ItemID
	seen     map[core.ItemID]struct{}
	timer    *time.Timer
	inFlight map[core.ItemID]struct{}
}

// NewCollector creates a collector that dispatches flushed cohorts to the
// given pool.
func NewCollector(cfg *Config, pool *ants.Pool, flush flushFunc, logger *slog.Logger) *Collector {
	return &Collector{
		cfg:     cfg,
		pool:    pool,
		flush:   flush,
		logger:  logger.With("component", "collector"),
		tenants: make(map[core.TenantID]*tenantBuffer),
	}
}

// Add offers a newly created item to its tenant's buffer. Duplicate offers
// of an item already buffered, or already part of the in-flight cohort, are
// ignored. Each offer resets the tenant's quiet-period timer; reaching the
// size ceiling flushes without waiting for it.
func (c *Collector) Add(tenantID core.TenantID, itemID core.ItemID) error {
	if tenantID == "" {
		return core.ErrEmptyTenantID
	}
	if itemID == "" {
		return core.ErrEmptyItemID
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrCollectorClosed
	}

	buf, ok := c.tenants[tenantID]
	if !ok {
		buf = &tenantBuffer{seen: make(map[core.ItemID]struct{})}
		c.tenants[tenantID] = buf
	}
	if _, dup := buf.seen[itemID]; dup {
		c.mu.Unlock()
		return nil
	}
	if buf.inFlight != nil {
		if _, dup := buf.inFlight[itemID]; dup {
			c.mu.Unlock()
			return nil
		}
	}

	buf.ids = append(buf.ids, itemID)
	buf.seen[itemID] = struct{}{}

	if len(buf.ids) >= c.cfg.MaxCohortSize && buf.inFlight == nil {
		c.logger.Debug("cohort ceiling reached, flushing", "tenantId", tenantID, "size", len(buf.ids))
		task := c.flushLocked(tenantID, buf)
		c.mu.Unlock()
		c.dispatch(tenantID, task)
		return nil
	}

	c.armTimerLocked(tenantID, buf)
	c.mu.Unlock()
	return nil
}

// armTimerLocked (re)starts the quiet-period timer for a buffer. Caller
// holds the mutex.
func (c *Collector) armTimerLocked(tenantID core.TenantID, buf *tenantBuffer) {
	if buf.timer != nil {
		buf.timer.Stop()
	}
	buf.timer = time.AfterFunc(c.cfg.quietPeriod(len(buf.ids)), func() {
		c.quiet(tenantID)
	})
}

// quiet fires when a tenant's buffer has settled. If a flush is already in
// flight the timer is re-armed; the buffer will go out in the next cohort.
func (c *Collector) quiet(tenantID core.TenantID) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	buf, ok := c.tenants[tenantID]
	if !ok || len(buf.ids) == 0 {
		c.mu.Unlock()
		return
	}
	if buf.inFlight != nil {
		c.armTimerLocked(tenantID, buf)
		c.mu.Unlock()
		return
	}
	task := c.flushLocked(tenantID, buf)
	c.mu.Unlock()
	c.dispatch(tenantID, task)
}

// flushLocked carves the buffered items off as one cohort, capped at the
// size ceiling; any overflow stays buffered for the next flush. Caller holds
// the mutex and has checked no flush is in flight. The returned task must be
// handed to dispatch after the mutex is released.
func (c *Collector) flushLocked(tenantID core.TenantID, buf *tenantBuffer) func() {
	take := len(buf.ids)
	if take > c.cfg.MaxCohortSize {
		take = c.cfg.MaxCohortSize
	}
	cohort := &core.Cohort{
		TenantId:  tenantID,
		ItemIds:   buf.ids[:take:take],
		CreatedAt: time.Now(),
	}
	buf.inFlight = make(map[core.ItemID]struct{}, take)
	for _, id := range cohort.ItemIds {
		buf.inFlight[id] = struct{}{}
		delete(buf.seen, id)
	}
	buf.ids = buf.ids[take:]
	if buf.timer != nil {
		buf.timer.Stop()
		buf.timer = nil
	}

	c.wg.Add(1)
	return func() {
		defer c.wg.Done()
		c.finish(tenantID, cohort, c.flush(cohort))
	}
}

// dispatch hands a flush task to the pool. Submit blocks while the pool is
// saturated and the running flushes need the mutex to finish, so dispatch
// must never be called with the mutex held.
func (c *Collector) dispatch(tenantID core.TenantID, task func()) {
	if err := c.pool.Submit(task); err != nil {
		// Pool released mid-shutdown; run the flush anyway so the cohort
		// is not silently dropped.
		c.logger.Warn("pool rejected flush, running inline", "tenantId", tenantID, "error", err)
		go task()
	}
}

// finish records the outcome of a flush. A vocabulary miss re-buffers the
// whole cohort for a later attempt instead of failing its items.
func (c *Collector) finish(tenantID core.TenantID, cohort *core.Cohort, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	buf, ok := c.tenants[tenantID]
	if !ok {
		return
	}
	buf.inFlight = nil

	switch {
	case errors.Is(err, ErrVocabularyUnavailable):
		c.logger.Warn("vocabulary unavailable, deferring cohort", "tenantId", tenantID, "size", len(cohort.ItemIds))
		for _, id := range cohort.ItemIds {
			if _, dup := buf.seen[id]; dup {
				continue
			}
			buf.ids = append(buf.ids, id)
			buf.seen[id] = struct{}{}
		}
	case err != nil:
		c.logger.Error("cohort flush failed", "tenantId", tenantID, "size", len(cohort.ItemIds), "error", err)
	}

	if len(buf.ids) > 0 && !c.closed {
		c.armTimerLocked(tenantID, buf)
	}
}

// pendingFlush pairs a carved-off flush task with its tenant for dispatch
// outside the mutex.
type pendingFlush struct {
	tenantID core.TenantID
	task     func()
}

// Flush forces every non-empty buffer out immediately instead of waiting
// for quiet periods. Tenants with a flush already in flight are skipped;
// their buffers go out when that flush finishes.
func (c *Collector) Flush() {
	var tasks []pendingFlush
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	for tenantID, buf := range c.tenants {
		if len(buf.ids) > 0 && buf.inFlight == nil {
			tasks = append(tasks, pendingFlush{tenantID, c.flushLocked(tenantID, buf)})
		}
	}
	c.mu.Unlock()

	for _, p := range tasks {
		c.dispatch(p.tenantID, p.task)
	}
}

// buffered returns how many items a tenant currently has waiting.
func (c *Collector) buffered(tenantID core.TenantID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if buf, ok := c.tenants[tenantID]; ok {
		return len(buf.ids)
	}
	return 0
}

// Close stops all timers, flushes every remaining buffer and waits for the
// in-flight flushes to drain. Items whose flush is deferred again at this
// point stay untagged and are picked up by the next store scan.
func (c *Collector) Close() {
	var tasks []pendingFlush
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for tenantID, buf := range c.tenants {
		if buf.timer != nil {
			buf.timer.Stop()
			buf.timer = nil
		}
		if len(buf.ids) > 0 && buf.inFlight == nil {
			tasks = append(tasks, pendingFlush{tenantID, c.flushLocked(tenantID, buf)})
		}
	}
	c.mu.Unlock()

	for _, p := range tasks {
		c.dispatch(p.tenantID, p.task)
	}
	c.wg.Wait()
}
