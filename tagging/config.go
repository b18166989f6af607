package tagging

import (
	"errors"
	"runtime"
	"time"
)

// Config holds the orchestrator's tuning knobs. Every threshold the pipeline
// uses is named here rather than derived inline, so each is independently
// testable.
type Config struct {
	// BulkThreshold is the cohort size at or above which the bulk path is
	// used instead of immediate classification.
	BulkThreshold int

	// MaxCohortSize is the hard ceiling for one cohort. Reaching it flushes
	// immediately, without waiting for the quiet period.
	MaxCohortSize int

	// QuietPeriodBase is the minimum settle delay before a buffered cohort
	// is flushed. The delay absorbs store commit/replication lag.
	QuietPeriodBase time.Duration

	// QuietPeriodPerItem is added to the quiet period for every buffered
	// item; larger cohorts settle longer.
	QuietPeriodPerItem time.Duration

	// QuietPeriodMax caps the computed quiet period.
	QuietPeriodMax time.Duration

	// PollInterval is the fixed interval between poller cycles.
	PollInterval time.Duration

	// MaxJobsPerCycle bounds how many outstanding jobs one poll cycle
	// checks, keeping fan-out bounded under many jobs.
	MaxJobsPerCycle int

	// CycleTimeout bounds one poll cycle's wall-clock time so a slow
	// provider cannot starve subsequent cycles.
	CycleTimeout time.Duration

	// StalenessWindow is the maximum time a bulk job may remain unresolved
	// before all its items are forced to failed.
	StalenessWindow time.Duration

	// MaxReadAttempts bounds retries of reads that hit a not-found record,
	// covering read-after-write visibility lag.
	MaxReadAttempts int

	// RetryBaseDelay is the delay before the first retry; it doubles on
	// each subsequent attempt.
	RetryBaseDelay time.Duration

	// CallTimeout is applied to every individual store or provider call.
	CallTimeout time.Duration

	// ScanInterval is the interval between store scans for untagged items
	// whose creation events were missed. Zero disables scanning.
	ScanInterval time.Duration

	// PoolSize is the worker pool size for cohort flushes and poll fan-out.
	// Default is runtime.NumCPU() / 2, with a minimum of 1.
	PoolSize int
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	return &Config{
		BulkThreshold:      20,
		MaxCohortSize:      100,
		QuietPeriodBase:    2 * time.Second,
		QuietPeriodPerItem: 250 * time.Millisecond,
		QuietPeriodMax:     15 * time.Second,
		PollInterval:       30 * time.Second,
		MaxJobsPerCycle:    10,
		CycleTimeout:       2 * time.Minute,
		StalenessWindow:    1 * time.Hour,
		MaxReadAttempts:    4,
		RetryBaseDelay:     200 * time.Millisecond,
		CallTimeout:        30 * time.Second,
		ScanInterval:       5 * time.Minute,
		PoolSize:           poolSize,
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.BulkThreshold < 1 {
		return errors.New("bulk threshold must be at least 1")
	}
	if c.MaxCohortSize < c.BulkThreshold {
		return errors.New("max cohort size must be at least the bulk threshold")
	}
	if c.QuietPeriodBase <= 0 {
		return errors.New("quiet period base must be positive")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.MaxJobsPerCycle < 1 {
		return errors.New("max jobs per cycle must be at least 1")
	}
	if c.StalenessWindow <= 0 {
		return errors.New("staleness window must be positive")
	}
	if c.MaxReadAttempts < 1 {
		return errors.New("max read attempts must be at least 1")
	}
	if c.CallTimeout <= 0 {
		return errors.New("call timeout must be positive")
	}
	if c.PoolSize < 1 {
		c.PoolSize = 1
	}
	return nil
}

// quietPeriod computes the settle delay for a buffer of n items.
// The delay grows with cohort size so larger ingests get more time for the
// store to make all their records visible.
func (c *Config) quietPeriod(n int) time.Duration {
	d := c.QuietPeriodBase + time.Duration(n)*c.QuietPeriodPerItem
	if c.QuietPeriodMax > 0 && d > c.QuietPeriodMax {
		return c.QuietPeriodMax
	}
	return d
}
