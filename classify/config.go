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


package classify

import (
	"errors"
	"strings"
)

// Config holds configuration for classification providers.
type Config struct {
	// Host is the base URL for the OpenAI-compatible classification API.
	// Example: "http://localhost:11434/v1" for a local server
	Host string

	// Model is the vision model identifier used for classification.
	// Example: "qwen2.5-vl:7b", "gpt-4o-mini"
	Model string

	// Token is the API token. Use "none" for local services that don't
	// require authentication.
	Token string

	// ImageBaseURL is prepended to item image references when building the
	// URL handed to the vision model.
	// Example: "https://storage.example.com/photos"
	ImageBaseURL string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the classification service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the classification model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithToken sets the API token.
func WithToken(token string) ConfigOption {
	return func(c *Config) {
		c.Token = token
	}
}

// WithImageBaseURL sets the base URL for image references.
func WithImageBaseURL(base string) ConfigOption {
	return func(c *Config) {
		c.ImageBaseURL = base
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services.
func DefaultConfig(opts ...ConfigOption) *Config {
	c := &Config{
		Host:  "http://localhost:11434/v1",
		Model: "qwen2.5-vl:7b",
		Token: "none",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate checks the configuration and normalizes trailing slashes.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if strings.TrimSpace(c.Host) == "" {
		return errors.New("classification host required")
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("classification model required")
	}
	c.Host = strings.TrimRight(c.Host, "/")
	c.ImageBaseURL = strings.TrimRight(c.ImageBaseURL, "/")
	return nil
}
