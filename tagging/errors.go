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

import "errors"

var (
	// ErrItemRepositoryRequired is returned when constructing an
	// orchestrator without an item repository.
	ErrItemRepositoryRequired = errors.New("item repository is required")

	// ErrJobRepositoryRequired is returned when constructing an
	// orchestrator without a job repository.
	ErrJobRepositoryRequired = errors.New("job repository is required")

	// ErrVocabularyRepositoryRequired is returned when constructing an
	// orchestrator without a vocabulary repository.
	ErrVocabularyRepositoryRequired = errors.New("vocabulary repository is required")

	// ErrProviderRequired is returned when constructing an orchestrator
	// without a classification provider.
	ErrProviderRequired = errors.New("classification provider is required")

	// ErrVocabularyUnavailable indicates the tenant's vocabulary could not
	// be read even after retries. A cohort hitting this error is re-buffered
	// and tried again on the next flush.
	ErrVocabularyUnavailable = errors.New("tenant vocabulary unavailable")

	// ErrRecordMissing indicates an item record stayed invisible past the
	// retry budget. Read-after-write lag has been ruled out at that point.
	ErrRecordMissing = errors.New("item record missing after retries")

	// ErrStaleJob indicates a bulk job went unresolved past the staleness
	// window and its items were forced to failed.
	ErrStaleJob = errors.New("bulk job exceeded staleness window")

	// ErrInvalidMaxAttempts is returned when a retry helper is called with
	// a non-positive attempt budget.
	ErrInvalidMaxAttempts = errors.New("max attempts must be at least 1")

	// ErrCollectorClosed is returned when an item is offered to a collector
	// that has been shut down.
	ErrCollectorClosed = errors.New("collector is closed")
)
