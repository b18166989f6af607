package tagging

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillpolevoy/storystack-sub001/core"
)

// cohortRecorder captures flushed cohorts and optionally scripts per-flush
// outcomes.
type cohortRecorder struct {
	mu      sync.Mutex
	cohorts []*core.Cohort
	errs    []error
	ch      chan *core.Cohort
}

func newCohortRecorder() *cohortRecorder {
	return &cohortRecorder{ch: make(chan *core.Cohort, 16)}
}

func (r *cohortRecorder) flush(cohort *core.Cohort) error {
	r.mu.Lock()
	r.cohorts = append(r.cohorts, cohort)
	var err error
	if len(r.errs) > 0 {
		err = r.errs[0]
		r.errs = r.errs[1:]
	}
	r.mu.Unlock()
	r.ch <- cohort
	return err
}

func (r *cohortRecorder) scriptErrors(errs ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = errs
}

func (r *cohortRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cohorts)
}

func (r *cohortRecorder) wait(t *testing.T, timeout time.Duration) *core.Cohort {
	t.Helper()
	select {
	case cohort := <-r.ch:
		return cohort
	case <-time.After(timeout):
		t.Fatal("timed out waiting for a cohort flush")
		return nil
	}
}

func newTestCollector(t *testing.T, cfg *Config, flush flushFunc) *Collector {
	t.Helper()
	pool, err := ants.NewPool(cfg.PoolSize)
	require.NoError(t, err)
	t.Cleanup(pool.Release)

	c := NewCollector(cfg, pool, flush, testLogger())
	t.Cleanup(c.Close)
	return c
}

func TestCollectorFlushesAfterQuietPeriod(t *testing.T) {
	rec := newCohortRecorder()
	c := newTestCollector(t, testConfig(), rec.flush)

	require.NoError(t, c.Add("tenant-a", "item-1"))
	require.NoError(t, c.Add("tenant-a", "item-2"))
	require.NoError(t, c.Add("tenant-a", "item-3"))

	cohort := rec.wait(t, 2*time.Second)
	assert.Equal(t, core.TenantID("tenant-a"), cohort.TenantId)
	assert.ElementsMatch(t, []core.ItemID{"item-1", "item-2", "item-3"}, cohort.ItemIds)
	assert.Equal(t, 0, c.buffered("tenant-a"))
}

func TestCollectorQuietPeriodResetsOnArrival(t *testing.T) {
	cfg := testConfig()
	cfg.QuietPeriodBase = 150 * time.Millisecond
	cfg.QuietPeriodPerItem = 0
	rec := newCohortRecorder()
	c := newTestCollector(t, cfg, rec.flush)

	require.NoError(t, c.Add("tenant-a", "item-1"))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, c.Add("tenant-a", "item-2"))

	// Past the first item's deadline, but the second arrival reset the timer.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, rec.count(), "cohort flushed before the tenant went quiet")

	cohort := rec.wait(t, 2*time.Second)
	assert.Len(t, cohort.ItemIds, 2)
}

func TestCollectorDeduplicatesOffers(t *testing.T) {
	rec := newCohortRecorder()
	c := newTestCollector(t, testConfig(), rec.flush)

	require.NoError(t, c.Add("tenant-a", "item-1"))
	require.NoError(t, c.Add("tenant-a", "item-1"))
	require.NoError(t, c.Add("tenant-a", "item-2"))
	require.NoError(t, c.Add("tenant-a", "item-1"))

	cohort := rec.wait(t, 2*time.Second)
	assert.ElementsMatch(t, []core.ItemID{"item-1", "item-2"}, cohort.ItemIds)
}

func TestCollectorKeepsTenantsSeparate(t *testing.T) {
	rec := newCohortRecorder()
	c := newTestCollector(t, testConfig(), rec.flush)

	require.NoError(t, c.Add("tenant-a", "item-1"))
	require.NoError(t, c.Add("tenant-b", "item-2"))

	first := rec.wait(t, 2*time.Second)
	second := rec.wait(t, 2*time.Second)
	tenants := []core.TenantID{first.TenantId, second.TenantId}
	assert.ElementsMatch(t, []core.TenantID{"tenant-a", "tenant-b"}, tenants)
	assert.Len(t, first.ItemIds, 1)
	assert.Len(t, second.ItemIds, 1)
}

func TestCollectorCeilingFlushesImmediately(t *testing.T) {
	cfg := testConfig()
	cfg.QuietPeriodBase = time.Hour // only the ceiling can trigger a flush
	cfg.BulkThreshold = 3
	cfg.MaxCohortSize = 5
	rec := newCohortRecorder()
	c := newTestCollector(t, cfg, rec.flush)

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Add("tenant-a", core.ItemID(fmt.Sprintf("item-%d", i))))
	}

	cohort := rec.wait(t, 2*time.Second)
	assert.Len(t, cohort.ItemIds, 5)
}

func TestCollectorDefersCohortOnVocabularyMiss(t *testing.T) {
	rec := newCohortRecorder()
	rec.scriptErrors(ErrVocabularyUnavailable)
	c := newTestCollector(t, testConfig(), rec.flush)

	require.NoError(t, c.Add("tenant-a", "item-1"))
	require.NoError(t, c.Add("tenant-a", "item-2"))

	first := rec.wait(t, 2*time.Second)
	// The deferred cohort comes back intact on the next flush.
	second := rec.wait(t, 2*time.Second)
	assert.ElementsMatch(t, first.ItemIds, second.ItemIds)
	assert.Equal(t, first.TenantId, second.TenantId)
}

func TestCollectorSingleFlushInFlightPerTenant(t *testing.T) {
	cfg := testConfig()
	var inFlight, maxInFlight atomic.Int32
	gate := make(chan struct{})
	rec := newCohortRecorder()

	flush := func(cohort *core.Cohort) error {
		n := inFlight.Add(1)
		if n > maxInFlight.Load() {
			maxInFlight.Store(n)
		}
		<-gate
		inFlight.Add(-1)
		return rec.flush(cohort)
	}
	c := newTestCollector(t, cfg, flush)

	require.NoError(t, c.Add("tenant-a", "item-1"))
	// Let the first flush start, then buffer more items; their quiet period
	// will expire while the first flush is still blocked.
	require.Eventually(t, func() bool { return inFlight.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.Add("tenant-a", "item-2"))
	time.Sleep(100 * time.Millisecond)
	close(gate)

	first := rec.wait(t, 2*time.Second)
	second := rec.wait(t, 2*time.Second)
	assert.Equal(t, []core.ItemID{"item-1"}, first.ItemIds)
	assert.Equal(t, []core.ItemID{"item-2"}, second.ItemIds)
	assert.Equal(t, int32(1), maxInFlight.Load())
}

func TestCollectorSaturatedPoolDoesNotStallOtherTenants(t *testing.T) {
	cfg := testConfig()
	cfg.PoolSize = 1
	gate := make(chan struct{})
	var blocked atomic.Bool
	rec := newCohortRecorder()

	flush := func(cohort *core.Cohort) error {
		if cohort.TenantId == "tenant-a" {
			blocked.Store(true)
			<-gate
		}
		return rec.flush(cohort)
	}
	c := newTestCollector(t, cfg, flush)

	require.NoError(t, c.Add("tenant-a", "item-1"))
	// The only worker is now stuck inside tenant-a's flush. Other tenants'
	// quiet periods keep expiring; their dispatches wait for a worker but
	// must not wedge the collector itself.
	require.Eventually(t, func() bool { return blocked.Load() }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.Add("tenant-b", "item-2"))
	time.Sleep(100 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- c.Add("tenant-c", "item-3") }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Add blocked while the pool was saturated")
	}

	close(gate)
	seen := make(map[core.TenantID]bool)
	for i := 0; i < 3; i++ {
		seen[rec.wait(t, 3*time.Second).TenantId] = true
	}
	assert.True(t, seen["tenant-a"] && seen["tenant-b"] && seen["tenant-c"])
}

func TestCollectorFlushSkipsQuietPeriod(t *testing.T) {
	cfg := testConfig()
	cfg.QuietPeriodBase = time.Hour
	rec := newCohortRecorder()
	c := newTestCollector(t, cfg, rec.flush)

	require.NoError(t, c.Add("tenant-a", "item-1"))
	require.NoError(t, c.Add("tenant-b", "item-2"))
	c.Flush()

	first := rec.wait(t, 2*time.Second)
	second := rec.wait(t, 2*time.Second)
	tenants := []core.TenantID{first.TenantId, second.TenantId}
	assert.ElementsMatch(t, []core.TenantID{"tenant-a", "tenant-b"}, tenants)
	assert.Equal(t, 0, c.buffered("tenant-a"))
	assert.Equal(t, 0, c.buffered("tenant-b"))
}

func TestCollectorCloseFlushesRemaining(t *testing.T) {
	cfg := testConfig()
	cfg.QuietPeriodBase = time.Hour
	rec := newCohortRecorder()

	pool, err := ants.NewPool(cfg.PoolSize)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	c := NewCollector(cfg, pool, rec.flush, testLogger())

	require.NoError(t, c.Add("tenant-a", "item-1"))
	require.NoError(t, c.Add("tenant-a", "item-2"))
	c.Close()

	require.Equal(t, 1, rec.count())
	assert.Len(t, rec.cohorts[0].ItemIds, 2)

	assert.ErrorIs(t, c.Add("tenant-a", "item-3"), ErrCollectorClosed)
}
