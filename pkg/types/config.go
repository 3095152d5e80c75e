package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "deep-research/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Provider selects the API family: "openai" (any OpenAI-compatible
	// endpoint such as Ollama), "anthropic", "gemini", or "cohere" for
	// embeddings.
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint. Required for "openai".
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// MaxRetries is the number of retry attempts for rate-limited calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// LLMConfig holds settings for text completion (candidate generation and
// page summaries).
type LLMConfig struct {
	AIConfig   `yaml:",inline" mapstructure:",squash"`
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxTokens caps the completion length (default 2048).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`
}

// EmbeddingConfig holds settings for the embedding provider.
type EmbeddingConfig struct {
	AIConfig   `yaml:",inline" mapstructure:",squash"`
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Dimensions is the vector size used for zero-vector fallbacks (default 1024).
	Dimensions int `json:"dimensions" yaml:"dimensions" mapstructure:"dimensions"`

	// CacheSize is the maximum number of cached vectors; 0 disables the cache.
	CacheSize int64 `json:"cache_size" yaml:"cache_size" mapstructure:"cache_size"`
}

// SearchConfig holds settings for the web search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Backends lists the enabled backends in priority order
	// ("searxng", "duckduckgo").
	Backends []string `json:"backends" yaml:"backends" mapstructure:"backends"`

	// SearxNGURL is the base URL of the SearxNG instance.
	SearxNGURL string `json:"searxng_url" yaml:"searxng_url" mapstructure:"searxng_url"`

	// MaxResults is the number of hits requested per backend (default 5).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// MaxSources is the relevance filter limit per sub-query (default 5).
	MaxSources int `json:"max_sources" yaml:"max_sources" mapstructure:"max_sources"`

	// Category, Language and SafeSearch are passed to SearxNG.
	Category   string `json:"category" yaml:"category" mapstructure:"category"`
	Language   string `json:"language" yaml:"language" mapstructure:"language"`
	SafeSearch int    `json:"safe_search" yaml:"safe_search" mapstructure:"safe_search"`

	// Engines optionally restricts SearxNG to specific engines.
	Engines []string `json:"engines,omitempty" yaml:"engines,omitempty" mapstructure:"engines"`
}

// ScrapeConfig holds settings for fetching and summarizing pages.
type ScrapeConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Concurrency bounds parallel scrapes within one sub-query (default 5).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// Summarize requests an LLM summary for every scraped page.
	Summarize bool `json:"summarize" yaml:"summarize" mapstructure:"summarize"`

	// ReaderURL is the prefix of the reader service used for PDFs and
	// pages that yield no readable content. Empty disables the fallback.
	ReaderURL string `json:"reader_url" yaml:"reader_url" mapstructure:"reader_url"`

	// MaxSummaryInput truncates page Markdown before summarization (0 = no limit).
	MaxSummaryInput int `json:"max_summary_input" yaml:"max_summary_input" mapstructure:"max_summary_input"`
}

// DecomposeConfig holds settings for query decomposition.
type DecomposeConfig struct {
	// Candidates is the number of candidate sub-queries requested (default 20).
	Candidates int `json:"candidates" yaml:"candidates" mapstructure:"candidates"`

	// NumQueries is the number of sub-queries selected (default 5).
	NumQueries int `json:"num_queries" yaml:"num_queries" mapstructure:"num_queries"`

	// Alpha weights coverage against diversity. Nil means the default 0.6;
	// 0 selects on diversity alone.
	Alpha *float64 `json:"alpha,omitempty" yaml:"alpha,omitempty" mapstructure:"alpha"`

	// InvertDiversity subtracts the graph-cut term instead of adding it.
	InvertDiversity bool `json:"invert_diversity" yaml:"invert_diversity" mapstructure:"invert_diversity"`
}

// ReportConfig holds settings for report persistence.
type ReportConfig struct {
	// OutputDir is the report directory (default "research_reports").
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// S3Bucket enables mirroring saved reports to S3 when set.
	S3Bucket string `json:"s3_bucket,omitempty" yaml:"s3_bucket,omitempty" mapstructure:"s3_bucket"`

	// S3Prefix is prepended to mirrored object keys.
	S3Prefix string `json:"s3_prefix,omitempty" yaml:"s3_prefix,omitempty" mapstructure:"s3_prefix"`

	// S3Region is the bucket region.
	S3Region string `json:"s3_region,omitempty" yaml:"s3_region,omitempty" mapstructure:"s3_region"`

	// S3PathStyle forces path-style addressing (MinIO and similar).
	S3PathStyle bool `json:"s3_path_style,omitempty" yaml:"s3_path_style,omitempty" mapstructure:"s3_path_style"`
}

// CacheConfig holds settings for the shared search-result cache.
type CacheConfig struct {
	// RedisAddr enables the Redis cache when set (e.g. "localhost:6379").
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty" mapstructure:"redis_addr"`

	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty" mapstructure:"redis_password"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db" mapstructure:"redis_db"`

	// TTL is how long cached search results stay valid (default 6h).
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// ArchiveConfig holds settings for the SQLite report archive and task journal.
type ArchiveConfig struct {
	// Path is the database file (default "research_reports/research.db").
	// Empty disables the archive.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// MaxResults is the default limit for archive searches (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// ServeConfig holds settings for the HTTP API.
type ServeConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	LLM       LLMConfig       `json:"llm" yaml:"llm" mapstructure:"llm"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding" mapstructure:"embedding"`
	Search    SearchConfig    `json:"search" yaml:"search" mapstructure:"search"`
	Scrape    ScrapeConfig    `json:"scrape" yaml:"scrape" mapstructure:"scrape"`
	Decompose DecomposeConfig `json:"decompose" yaml:"decompose" mapstructure:"decompose"`
	Report    ReportConfig    `json:"report" yaml:"report" mapstructure:"report"`
	Cache     CacheConfig     `json:"cache" yaml:"cache" mapstructure:"cache"`
	Archive   ArchiveConfig   `json:"archive" yaml:"archive" mapstructure:"archive"`
	Serve     ServeConfig     `json:"serve" yaml:"serve" mapstructure:"serve"`
}

// DefaultPipelineConfig returns the configuration used when nothing is set.
func DefaultPipelineConfig() PipelineConfig {
	alpha := 0.6
	http := HTTPConfig{Timeout: 30 * time.Second, UserAgent: "deep-research/0.1"}
	return PipelineConfig{
		LLM: LLMConfig{
			AIConfig:   AIConfig{Provider: "openai", Model: "LFM2:1.2B", BaseURL: "http://localhost:11434/v1", MaxRetries: 3},
			HTTPConfig: HTTPConfig{Timeout: 120 * time.Second, UserAgent: http.UserAgent},
			MaxTokens:  2048,
		},
		Embedding: EmbeddingConfig{
			AIConfig:   AIConfig{Provider: "openai", Model: "qwen3-embed", BaseURL: "http://localhost:11434/v1", MaxRetries: 3},
			HTTPConfig: http,
			Dimensions: 1024,
			CacheSize:  10000,
		},
		Search: SearchConfig{
			HTTPConfig: http,
			Backends:   []string{"searxng"},
			SearxNGURL: "http://localhost:8888",
			MaxResults: 5,
			MaxSources: 5,
			Category:   "general",
			Language:   "en",
			SafeSearch: 1,
		},
		Scrape: ScrapeConfig{
			HTTPConfig:  http,
			Concurrency: 5,
			Summarize:   true,
			ReaderURL:   "https://r.jina.ai/",
		},
		Decompose: DecomposeConfig{Candidates: 20, NumQueries: 5, Alpha: &alpha},
		Report:    ReportConfig{OutputDir: "research_reports"},
		Cache:     CacheConfig{TTL: 6 * time.Hour},
		Archive:   ArchiveConfig{Path: "research_reports/research.db", MaxResults: 20},
		Serve:     ServeConfig{Addr: ":8080"},
	}
}
