// Package tagging orchestrates automatic tag assignment for newly ingested
// image items.
//
// The Orchestrator type manages the full workflow:
//   - Collecting creation events into per-tenant cohorts behind a quiet period
//   - Routing each cohort to immediate per-item classification or one
//     asynchronous bulk job, based on cohort size
//   - Polling outstanding bulk jobs to resolution, with a staleness bound
//   - Re-entering manually retagged items into the pipeline
//
// Cohort flushes and poll fan-out run concurrently on a shared worker pool.
// Item-level failures are recorded on the item and never abort a cohort; at
// no point does an error in this package propagate to the ingestion caller.
package tagging
