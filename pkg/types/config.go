package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "curation-engine/0.1"). Per prd004-retrieval R4.2.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CacheConfig holds settings for the analysis cache.
// Per prd003-cache R1.2, R4.1.
type CacheConfig struct {
	// CacheDir is the directory holding the cache database
	// (contains analysis.db).
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`

	// MaxAgeHours is the advisory freshness window for cached entries
	// (default 24). Stale entries remain retrievable.
	MaxAgeHours int `json:"max_age_hours" yaml:"max_age_hours"`

	// MaxResults is the default maximum number of search results
	// (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PubMedConfig holds settings for the PubMed/PMC retriever.
// Per prd004-retrieval R4.1-R4.3.
type PubMedConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is an optional NCBI API key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Email is sent with E-utilities requests per NCBI usage policy.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// RequestDelay is the delay between consecutive E-utilities calls
	// (default 340ms, NCBI's three-requests-per-second budget).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// MaxRetries is the number of retry attempts on rate-limit
	// responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AIConfig holds shared settings for components that call a Generative
// AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gemini-1.5-pro-latest").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AnalysisConfig holds settings for the analysis pipeline.
// Per prd001-analysis R5.
type AnalysisConfig struct {
	AIConfig `yaml:",inline"`

	// MinScreenConfidence is the topic-screener threshold below which a
	// paper is not sent to the model (default 0.4).
	MinScreenConfidence float64 `json:"min_screen_confidence" yaml:"min_screen_confidence"`

	// CacheResults controls whether pipeline outcomes are written back
	// to the cache (default true).
	CacheResults bool `json:"cache_results" yaml:"cache_results"`
}

// PipelineConfig groups all component configurations.
type PipelineConfig struct {
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
	PubMed   PubMedConfig   `json:"pubmed" yaml:"pubmed"`
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis"`
}
