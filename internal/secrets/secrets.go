// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves provider credentials and private endpoints from
// environment variables and a .secrets/ directory. Each file in the
// directory holds one value: the filename is the key and the trimmed
// contents are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Secret file names understood by the pipeline.
const (
	AnthropicAPIKey = "anthropic-api-key"
	CohereAPIKey    = "cohere-api-key"
	GeminiAPIKey    = "gemini-api-key"
	OpenAIAPIKey    = "openai-api-key"
	SearxNGURL      = "searxng-url"
	RedisPassword   = "redis-password"
)

// Source names where a credential is looked up: a file under .secrets/
// and the conventional environment variable.
type Source struct {
	File string
	Env  string
}

var providers = map[string]Source{
	"openai":    {OpenAIAPIKey, "OPENAI_API_KEY"},
	"anthropic": {AnthropicAPIKey, "ANTHROPIC_API_KEY"},
	"claude":    {AnthropicAPIKey, "ANTHROPIC_API_KEY"},
	"gemini":    {GeminiAPIKey, "GEMINI_API_KEY"},
	"google":    {GeminiAPIKey, "GEMINI_API_KEY"},
	"cohere":    {CohereAPIKey, "CO_API_KEY"},
}

// ForProvider returns the credential source of an LLM or embedding
// provider. Unknown providers report false.
func ForProvider(provider string) (Source, bool) {
	s, ok := providers[strings.ToLower(strings.TrimSpace(provider))]
	return s, ok
}

// Resolve returns the environment value for src if set, otherwise the
// loaded file value. getenv is os.Getenv outside tests.
func Resolve(files map[string]string, src Source, getenv func(string) string) string {
	if src.Env != "" {
		if v := getenv(src.Env); v != "" {
			return v
		}
	}
	return files[src.File]
}

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error. Unreadable files and files readable by group or others are
// reported through logger; unreadable ones are skipped. logger may be nil.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable secret", zap.String("name", name), zap.Error(err))
			continue
		}
		if info, err := entry.Info(); err == nil && info.Mode().Perm()&0o077 != 0 {
			logger.Warn("secret file is readable by other users",
				zap.String("path", path), zap.Stringer("mode", info.Mode().Perm()))
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			out[name] = value
		}
	}
	return out, nil
}
