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

import "errors"

// Domain validation errors
var (
	// ErrInvalidItem indicates an Item failed validation.
	ErrInvalidItem = errors.New("invalid item")

	// ErrInvalidJob indicates a Job failed validation.
	ErrInvalidJob = errors.New("invalid job")

	// ErrInvalidCohort indicates a Cohort failed validation.
	ErrInvalidCohort = errors.New("invalid cohort")

	// ErrEmptyItemID indicates an item identifier is empty.
	ErrEmptyItemID = errors.New("item id cannot be empty")

	// ErrEmptyTenantID indicates a tenant identifier is empty.
	ErrEmptyTenantID = errors.New("tenant id cannot be empty")

	// ErrTenantIDSeparator indicates a tenant identifier contains ':',
	// which is reserved as the store's composite key separator.
	ErrTenantIDSeparator = errors.New("tenant id cannot contain ':'")

	// ErrEmptyJobID indicates a job identifier is empty.
	ErrEmptyJobID = errors.New("job id cannot be empty")

	// ErrInvalidTagStatus indicates an invalid TagStatus value.
	ErrInvalidTagStatus = errors.New("invalid tag status")

	// ErrIllegalTransition indicates a tag status transition that the
	// pipeline state machine does not allow.
	ErrIllegalTransition = errors.New("illegal tag status transition")
)
