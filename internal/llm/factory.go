package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Environment variable names
const (
	EnvProvider        = "LLM_PROVIDER"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvAnthropicModel  = "ANTHROPIC_MODEL"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvOpenAIModel     = "OPENAI_MODEL"
	EnvOpenAIBaseURL   = "OPENAI_BASE_URL"
	EnvOllamaHost      = "OLLAMA_HOST"
	EnvOllamaModel     = "OLLAMA_MODEL"
)

// Config selects and configures a completion provider
type Config struct {
	Provider string `yaml:"provider"` // anthropic, openai, local; empty auto-detects

	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AnthropicModel  string `yaml:"anthropic_model"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	OpenAIModel     string `yaml:"openai_model"`
	OpenAIBaseURL   string `yaml:"openai_base_url"`
	OllamaHost      string `yaml:"ollama_host"`
	OllamaModel     string `yaml:"ollama_model"`

	CacheSize int `yaml:"cache_size"` // 0 uses DefaultCacheSize, negative disables caching
}

// ConfigFromEnv reads provider settings from the environment
func ConfigFromEnv() Config {
	return Config{
		Provider:        os.Getenv(EnvProvider),
		AnthropicAPIKey: os.Getenv(EnvAnthropicAPIKey),
		AnthropicModel:  os.Getenv(EnvAnthropicModel),
		OpenAIAPIKey:    os.Getenv(EnvOpenAIAPIKey),
		OpenAIModel:     os.Getenv(EnvOpenAIModel),
		OpenAIBaseURL:   os.Getenv(EnvOpenAIBaseURL),
		OllamaHost:      os.Getenv(EnvOllamaHost),
		OllamaModel:     os.Getenv(EnvOllamaModel),
	}
}

// DetectProvider returns the provider NewFromConfig would use, or "" when
// none is available
// Priority:
// 1. Explicit cfg.Provider
// 2. ANTHROPIC_API_KEY, then OPENAI_API_KEY
func DetectProvider(cfg Config) string {
	if p := strings.ToLower(strings.TrimSpace(cfg.Provider)); p != "" {
		return p
	}
	if cfg.AnthropicAPIKey != "" {
		return ProviderAnthropic
	}
	if cfg.OpenAIAPIKey != "" {
		return ProviderOpenAI
	}
	return ""
}

// NewFromConfig creates a client for the configured or detected provider.
// The local provider is only used when named explicitly.
func NewFromConfig(cfg Config, logger zerolog.Logger) (Client, error) {
	var cache *Cache
	if cfg.CacheSize >= 0 {
		cache = NewCache(cfg.CacheSize)
	}

	provider := DetectProvider(cfg)
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel, cache, logger)
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cache, logger)
	case ProviderLocal, "ollama":
		return NewLocalProvider(cfg.OllamaHost, cfg.OllamaModel, cache, logger)
	case "":
		return nil, ErrNoProviderEnabled
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
}
