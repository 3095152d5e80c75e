// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/pdiddy/deep-research/internal/secrets"
	"github.com/pdiddy/deep-research/pkg/types"
)

// setDefaults registers every configuration key so that environment
// variables (DEEP_RESEARCH_LLM_MODEL and so on) are seen by Unmarshal.
func setDefaults(v *viper.Viper) {
	d := types.DefaultPipelineConfig()

	setAI(v, "llm", d.LLM.AIConfig)
	setHTTP(v, "llm", d.LLM.HTTPConfig)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)

	setAI(v, "embedding", d.Embedding.AIConfig)
	setHTTP(v, "embedding", d.Embedding.HTTPConfig)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.cache_size", d.Embedding.CacheSize)

	setHTTP(v, "search", d.Search.HTTPConfig)
	v.SetDefault("search.backends", d.Search.Backends)
	v.SetDefault("search.searxng_url", d.Search.SearxNGURL)
	v.SetDefault("search.max_results", d.Search.MaxResults)
	v.SetDefault("search.max_sources", d.Search.MaxSources)
	v.SetDefault("search.category", d.Search.Category)
	v.SetDefault("search.language", d.Search.Language)
	v.SetDefault("search.safe_search", d.Search.SafeSearch)
	v.SetDefault("search.engines", d.Search.Engines)

	setHTTP(v, "scrape", d.Scrape.HTTPConfig)
	v.SetDefault("scrape.concurrency", d.Scrape.Concurrency)
	v.SetDefault("scrape.summarize", d.Scrape.Summarize)
	v.SetDefault("scrape.reader_url", d.Scrape.ReaderURL)
	v.SetDefault("scrape.max_summary_input", d.Scrape.MaxSummaryInput)

	v.SetDefault("decompose.candidates", d.Decompose.Candidates)
	v.SetDefault("decompose.num_queries", d.Decompose.NumQueries)
	v.SetDefault("decompose.alpha", *d.Decompose.Alpha)
	v.SetDefault("decompose.invert_diversity", d.Decompose.InvertDiversity)

	v.SetDefault("report.output_dir", d.Report.OutputDir)
	v.SetDefault("report.s3_bucket", d.Report.S3Bucket)
	v.SetDefault("report.s3_prefix", d.Report.S3Prefix)
	v.SetDefault("report.s3_region", d.Report.S3Region)
	v.SetDefault("report.s3_path_style", d.Report.S3PathStyle)

	v.SetDefault("cache.redis_addr", d.Cache.RedisAddr)
	v.SetDefault("cache.redis_password", d.Cache.RedisPassword)
	v.SetDefault("cache.redis_db", d.Cache.RedisDB)
	v.SetDefault("cache.ttl", d.Cache.TTL)

	v.SetDefault("archive.path", d.Archive.Path)
	v.SetDefault("archive.max_results", d.Archive.MaxResults)

	v.SetDefault("serve.addr", d.Serve.Addr)
}

func setAI(v *viper.Viper, prefix string, c types.AIConfig) {
	v.SetDefault(prefix+".provider", c.Provider)
	v.SetDefault(prefix+".model", c.Model)
	v.SetDefault(prefix+".api_key", c.APIKey)
	v.SetDefault(prefix+".base_url", c.BaseURL)
	v.SetDefault(prefix+".max_retries", c.MaxRetries)
}

func setHTTP(v *viper.Viper, prefix string, c types.HTTPConfig) {
	v.SetDefault(prefix+".timeout", c.Timeout)
	v.SetDefault(prefix+".user_agent", c.UserAgent)
}

// loadConfig resolves the pipeline configuration from flags, environment,
// config file and defaults, then fills missing credentials from secrets.
func loadConfig(v *viper.Viper, secretMap map[string]string) (types.PipelineConfig, error) {
	cfg := types.DefaultPipelineConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	applySecrets(&cfg, secretMap, os.Getenv)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applySecrets fills API keys and the Redis password that were not set
// explicitly, and replaces a default SearxNG URL. Environment variables win
// over .secrets/ files.
func applySecrets(cfg *types.PipelineConfig, secretMap map[string]string, getenv func(string) string) {
	lookup := func(provider string) string {
		src, ok := secrets.ForProvider(provider)
		if !ok {
			return ""
		}
		return secrets.Resolve(secretMap, src, getenv)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = lookup(cfg.LLM.Provider)
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = lookup(cfg.Embedding.Provider)
	}
	if cfg.Search.SearxNGURL == types.DefaultPipelineConfig().Search.SearxNGURL {
		if v := secrets.Resolve(secretMap, secrets.Source{File: secrets.SearxNGURL, Env: "SEARXNG_URL"}, getenv); v != "" {
			cfg.Search.SearxNGURL = v
		}
	}
	if cfg.Cache.RedisPassword == "" {
		cfg.Cache.RedisPassword = secrets.Resolve(secretMap, secrets.Source{File: secrets.RedisPassword, Env: "REDIS_PASSWORD"}, getenv)
	}
}

func validate(cfg types.PipelineConfig) error {
	if a := cfg.Decompose.Alpha; a != nil && (*a < 0 || *a > 1) {
		return fmt.Errorf("decompose.alpha must be between 0 and 1, got %v", *a)
	}
	if cfg.Decompose.NumQueries < 0 {
		return fmt.Errorf("decompose.num_queries must not be negative")
	}
	if cfg.Scrape.Concurrency < 0 {
		return fmt.Errorf("scrape.concurrency must not be negative")
	}
	if len(cfg.Search.Backends) == 0 {
		return fmt.Errorf("search.backends must list at least one backend")
	}
	return nil
}
