package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "tablerank/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// PlacesConfig holds settings for the place-search and review providers.
type PlacesConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against the places API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL is the places API base (default the Google Places endpoint).
	// Tests point this at a local server.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// MaxResults caps the number of search candidates per query (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// MaxRetries is the number of retry attempts on rate-limited calls.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AnalysisConfig holds settings for the review-analysis stage.
type AnalysisConfig struct {
	AIConfig `yaml:",inline"`

	// BaseURL is the chat-completions API base. Tests point this at a local server.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Timeout is the hard per-restaurant analysis deadline (default 15s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// StoreConfig holds settings for the report store.
type StoreConfig struct {
	// Path is the SQLite database file path (default "data/tablerank.db").
	Path string `json:"path" yaml:"path"`
}

// PipelineConfig holds orchestrator-level settings.
type PipelineConfig struct {
	// SaveConcurrency caps concurrent candidate persistence writes (default 5).
	SaveConcurrency int `json:"save_concurrency" yaml:"save_concurrency"`

	// ReviewConcurrency caps concurrent review fetches (default 5).
	ReviewConcurrency int `json:"review_concurrency" yaml:"review_concurrency"`

	// AnalyzeConcurrency caps concurrent outstanding analyses (default 5).
	AnalyzeConcurrency int `json:"analyze_concurrency" yaml:"analyze_concurrency"`

	// SkipDelay is the minimum perceived latency before a skipped stage
	// reports completion, keeping progress UIs stable. Zero disables it.
	SkipDelay time.Duration `json:"skip_delay" yaml:"skip_delay"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// ShutdownTimeout bounds graceful shutdown (default 10s).
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// AppConfig groups all stage configurations.
type AppConfig struct {
	Places   PlacesConfig   `json:"places" yaml:"places"`
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`
	Store    StoreConfig    `json:"store" yaml:"store"`
	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline"`
	Server   ServerConfig   `json:"server" yaml:"server"`
}
