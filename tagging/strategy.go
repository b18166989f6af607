package tagging

// Strategy names the classification path chosen for a cohort.
type Strategy int

const (
	// StrategyImmediate classifies each item with a direct provider call.
	StrategyImmediate Strategy = iota + 1
	// StrategyBulk submits the whole cohort as one asynchronous provider job.
	StrategyBulk
)

// String returns a human-readable strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyImmediate:
		return "immediate"
	case StrategyBulk:
		return "bulk"
	default:
		return "unknown"
	}
}

// Route picks the strategy for a cohort of the given size. Cohorts at or
// above the bulk threshold go to the bulk path; everything smaller is
// classified immediately. The decision depends on nothing but the two
// numbers, so it is trivially deterministic.
func Route(cohortSize, bulkThreshold int) Strategy {
	if cohortSize >= bulkThreshold {
		return StrategyBulk
	}
	return StrategyImmediate
}
