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


// Package openai provides classification implementations using
// OpenAI-compatible APIs.
//
// Synchronous classification runs through the langchaingo chat-completions
// client with vision content parts and a closed label set enforced in the
// prompt and again on the parsed output. Bulk jobs use the provider's batch
// classification REST endpoints, which the chat surface does not expose.
//
// # Usage
//
//	config := classify.DefaultConfig(
//	    classify.WithHost("http://localhost:11434/v1"),
//	    classify.WithModel("qwen2.5-vl:7b"),
//	    classify.WithImageBaseURL("https://storage.example.com/photos"),
//	)
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	tags, err := provider.Classifier().Classify(ctx, "tenant-1/item-1.jpg", vocabulary)
package openai
