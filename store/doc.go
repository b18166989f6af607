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


// Package store provides the record store abstraction for the auto-tagging
// pipeline.
//
// This package defines repository interfaces that decouple storage
// implementation from the orchestration logic. Two backends ship with the
// project: store/badger (embedded, also used in-memory by tests) and
// store/postgres (the product's hosted relational store).
//
// # Constructor Return Type Pattern
//
// Public backend constructors return the interfaces defined here to enforce
// abstraction and keep backends swappable:
//
//	items, err := badger.NewItemRepository(backend)  // returns store.ItemRepository
//
// # Repositories
//
//   - ItemRepository: image item records and their tag results
//   - JobRepository: the outstanding bulk-job ledger
//   - VocabularyRepository: per-tenant enabled tag sets
//
// # Not-found semantics
//
// All single-record reads return ErrNotFound for absent records. Because the
// product's store is eventually consistent for fresh writes, a not-found read
// of a newly created item is not authoritative; the tagging package retries
// such reads with backoff before treating the record as missing.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines. All methods accept context.Context for
// cancellation and timeout support.
package store
