package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider configuration
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderLocal     = "local"

	// Default models
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
	DefaultOpenAIModel    = "gpt-4-turbo"
	DefaultOllamaModel    = "deepseek-coder:6.7b"
	DefaultOllamaHost     = "http://localhost:11434"
)

// generator is the slice of llms.Model the client needs
type generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// ProviderClient implements Client on top of a langchaingo model
type ProviderClient struct {
	provider string
	model    string
	gen      generator
	cache    *Cache
	retry    RetryConfig
	logger   zerolog.Logger
}

func newProviderClient(provider, model string, gen generator, cache *Cache, logger zerolog.Logger) *ProviderClient {
	return &ProviderClient{
		provider: provider,
		model:    model,
		gen:      gen,
		cache:    cache,
		retry:    DefaultRetryConfig(),
		logger:   logger,
	}
}

// NewAnthropicProvider creates a Claude client
func NewAnthropicProvider(apiKey, model string, cache *Cache, logger zerolog.Logger) (*ProviderClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvAnthropicAPIKey)
	}
	if model == "" {
		model = DefaultAnthropicModel
	}

	gen, err := anthropic.New(anthropic.WithToken(apiKey), anthropic.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to create anthropic client: %w", err)
	}
	return newProviderClient(ProviderAnthropic, model, gen, cache, logger), nil
}

// NewOpenAIProvider creates an OpenAI client. baseURL may point at any
// OpenAI-compatible endpoint.
func NewOpenAIProvider(apiKey, model, baseURL string, cache *Cache, logger zerolog.Logger) (*ProviderClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvOpenAIAPIKey)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	gen, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return newProviderClient(ProviderOpenAI, model, gen, cache, logger), nil
}

// NewLocalProvider creates an Ollama client
func NewLocalProvider(host, model string, cache *Cache, logger zerolog.Logger) (*ProviderClient, error) {
	if host == "" {
		host = DefaultOllamaHost
	}
	if model == "" {
		model = DefaultOllamaModel
	}

	gen, err := ollama.New(ollama.WithServerURL(host), ollama.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return newProviderClient(ProviderLocal, model, gen, cache, logger), nil
}

// Complete sends the request through the provider with retry, consulting
// the cache first when one is configured
func (c *ProviderClient) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	req = req.normalized()

	key := CacheKey(c.provider, c.model, req)
	if c.cache != nil {
		if resp, ok := c.cache.Get(key); ok {
			c.logger.Debug().Str("provider", c.provider).Msg("completion cache hit")
			return resp, nil
		}
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.System),
		llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt),
	}

	resp, err := retryWithBackoff(ctx, c.retry, func() (*Response, error) {
		out, err := c.gen.GenerateContent(ctx, messages,
			llms.WithTemperature(req.Temperature),
			llms.WithMaxTokens(req.MaxTokens),
		)
		if err != nil {
			c.logger.Warn().Err(err).Str("provider", c.provider).Msg("completion attempt failed")
			return nil, err
		}
		return c.toResponse(out)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w (%s) after %d attempts: %v", ErrProviderFailed, describe(c), c.retry.MaxRetries, err)
	}

	if c.cache != nil {
		c.cache.Set(key, resp)
	}
	return resp, nil
}

func (c *ProviderClient) toResponse(out *llms.ContentResponse) (*Response, error) {
	if out == nil || len(out.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	choice := out.Choices[0]
	if strings.TrimSpace(choice.Content) == "" {
		return nil, ErrEmptyResponse
	}

	return &Response{
		Content:      choice.Content,
		Model:        c.model,
		TokensUsed:   tokensUsed(choice.GenerationInfo),
		FinishReason: choice.StopReason,
	}, nil
}

// tokensUsed reads usage from the provider-specific generation info
func tokensUsed(info map[string]any) int {
	if n := intValue(info["TotalTokens"]); n > 0 {
		return n
	}
	return intValue(info["InputTokens"]) + intValue(info["OutputTokens"]) +
		intValue(info["PromptTokens"]) + intValue(info["CompletionTokens"])
}

func intValue(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// Provider returns the provider name
func (c *ProviderClient) Provider() string {
	return c.provider
}

// Model returns the model name
func (c *ProviderClient) Model() string {
	return c.model
}

// Close releases any resources held by the client
func (c *ProviderClient) Close() error {
	if c.cache != nil {
		c.cache.Clear()
	}
	return nil
}
