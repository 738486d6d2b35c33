// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "preprint-census/0.1"). A configured contact address is
	// appended as " (mailto:...)" per registry etiquette.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RegistryConfig holds settings for the registry client.
type RegistryConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the registry API root (default "https://api.crossref.org").
	// Tests point it at an httptest server.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Mailto is the contact address sent as the mailto query parameter
	// on every request. Empty disables contact identification.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty"`

	// PlusToken is an optional Crossref Plus API token sent as the
	// Crossref-Plus-API-Token header.
	PlusToken string `json:"plus_token,omitempty" yaml:"plus_token,omitempty"`

	// Pacing is the minimum delay between consecutive requests (default 500ms).
	Pacing time.Duration `json:"pacing" yaml:"pacing"`

	// RetryBase is the first backoff delay after a transient failure
	// (default 500ms); subsequent delays grow by 1.6x.
	RetryBase time.Duration `json:"retry_base" yaml:"retry_base"`

	// MaxRetries is the total number of attempts for transient failures
	// (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ResolveConfig holds settings for candidate resolution.
type ResolveConfig struct {
	// PerTitle caps how many candidates each searched title keeps and
	// how many declared title variants are searched (0-5, default 2).
	// Zero disables the title strategy.
	PerTitle int `json:"per_title" yaml:"per_title"`
}

// SampleConfig holds settings for record sampling and export.
type SampleConfig struct {
	// N is the maximum number of records fetched per selected candidate.
	N int `json:"n" yaml:"n"`

	// Sort selects the sample ordering: latest, most-cited, or random.
	Sort string `json:"sort" yaml:"sort"`

	// From and Until bound publication dates (YYYY-MM-DD, either may be empty).
	From  string `json:"from,omitempty" yaml:"from,omitempty"`
	Until string `json:"until,omitempty" yaml:"until,omitempty"`
}

// CensusConfig groups all stage configurations for the pipeline.
type CensusConfig struct {
	Registry RegistryConfig `json:"registry" yaml:"registry"`
	Resolve  ResolveConfig  `json:"resolve" yaml:"resolve"`
	Sample   SampleConfig   `json:"sample" yaml:"sample"`

	// Workspace is the directory holding pipeline state (census.db)
	// and the default export location.
	Workspace string `json:"workspace" yaml:"workspace"`
}
