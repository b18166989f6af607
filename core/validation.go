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


package core

import (
	"fmt"
	"strings"
)

// ValidateTenantID validates a tenant identifier. Tenant ids appear as
// segments of composite store keys, so the key separator is forbidden.
func ValidateTenantID(tenant TenantID) error {
	if tenant == "" {
		return ErrEmptyTenantID
	}
	if strings.ContainsRune(string(tenant), ':') {
		return fmt.Errorf("%w: %q", ErrTenantIDSeparator, tenant)
	}
	return nil
}

// ValidateItem validates an Item according to domain rules.
//
// Validation rules:
//   - Id must not be empty, TenantId must be a valid tenant identifier
//   - Status must be a valid TagStatus
//   - A JobRef may only be present while the item is pending
//
// NOT validated (populated by the pipeline):
//   - Tags (empty until tagging completes)
//   - ImageRef (the store may serve records before the upload settles)
func ValidateItem(item *Item) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidItem)
	}

	if item.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrEmptyItemID)
	}

	if err := ValidateTenantID(item.TenantId); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}

	if err := ValidateTagStatus(item.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}

	if item.JobRef != "" && item.Status != TagStatusPending {
		return fmt.Errorf("%w: job reference on %s item", ErrInvalidItem, item.Status)
	}

	return nil
}

// ValidateJob validates a Job according to domain rules.
func ValidateJob(job *Job) error {
	if job == nil {
		return fmt.Errorf("%w: job is nil", ErrInvalidJob)
	}

	if job.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrEmptyJobID)
	}

	if err := ValidateTenantID(job.TenantId); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}

	if len(job.ItemIds) == 0 {
		return fmt.Errorf("%w: job covers no items", ErrInvalidJob)
	}

	return nil
}

// ValidateCohort validates a Cohort according to domain rules.
// A cohort must never be empty: the collector only emits after at least one
// item has been buffered.
func ValidateCohort(cohort *Cohort) error {
	if cohort == nil {
		return fmt.Errorf("%w: cohort is nil", ErrInvalidCohort)
	}

	if err := ValidateTenantID(cohort.TenantId); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCohort, err)
	}

	if len(cohort.ItemIds) == 0 {
		return fmt.Errorf("%w: cohort is empty", ErrInvalidCohort)
	}

	return nil
}

// ValidateTagStatus validates that a TagStatus has a valid value.
func ValidateTagStatus(status TagStatus) error {
	switch status {
	case TagStatusUntagged, TagStatusPending, TagStatusCompleted, TagStatusFailed:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidTagStatus, status)
	}
}
