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


// Package classify provides abstractions for the AI classification provider
// used by the auto-tagging pipeline.
//
// The pipeline depends only on the interfaces defined here:
//
//   - Classifier: synchronous single-image classification against a closed
//     vocabulary
//   - BulkClassifier: asynchronous jobs covering many images, with
//     provider-controlled completion time
//   - Provider: aggregates both for initialization and lifecycle management
//
// # Implementation Packages
//
//   - classify/openai: production implementation against OpenAI-compatible
//     vision APIs
//   - classify/mock: test doubles with behavior injection and a scriptable
//     bulk-job registry
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider) return INTERFACE types to enforce
// abstraction. Mock constructors return CONCRETE types so tests can inject
// behavior and assert call counts.
//
// # Closed Vocabulary Contract
//
// All classification runs against the tenant's enabled tag set. A classifier
// must never return a label outside the vocabulary it was given; the openai
// implementation filters model output accordingly. Callers with an empty
// vocabulary must not call the provider at all.
package classify
