package llm

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"explicit wins", Config{Provider: " OpenAI ", AnthropicAPIKey: "k"}, ProviderOpenAI},
		{"anthropic key", Config{AnthropicAPIKey: "a", OpenAIAPIKey: "o"}, ProviderAnthropic},
		{"openai key", Config{OpenAIAPIKey: "o"}, ProviderOpenAI},
		{"nothing", Config{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectProvider(tt.cfg))
		})
	}
}

func TestNewFromConfig_NoProvider(t *testing.T) {
	_, err := NewFromConfig(Config{}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}

func TestNewFromConfig_UnknownProvider(t *testing.T) {
	_, err := NewFromConfig(Config{Provider: "jina"}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestNewFromConfig_MissingKey(t *testing.T) {
	_, err := NewFromConfig(Config{Provider: ProviderAnthropic}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
	assert.Contains(t, err.Error(), EnvAnthropicAPIKey)

	_, err = NewFromConfig(Config{Provider: ProviderOpenAI}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
	assert.Contains(t, err.Error(), EnvOpenAIAPIKey)
}

func TestNewFromConfig_Defaults(t *testing.T) {
	tests := []struct {
		cfg      Config
		provider string
		model    string
	}{
		{Config{AnthropicAPIKey: "test-key"}, ProviderAnthropic, DefaultAnthropicModel},
		{Config{AnthropicAPIKey: "test-key", AnthropicModel: "claude-x"}, ProviderAnthropic, "claude-x"},
		{Config{OpenAIAPIKey: "test-key"}, ProviderOpenAI, DefaultOpenAIModel},
		{Config{Provider: ProviderLocal}, ProviderLocal, DefaultOllamaModel},
		{Config{Provider: "ollama", OllamaModel: "llama3"}, ProviderLocal, "llama3"},
	}

	for _, tt := range tests {
		client, err := NewFromConfig(tt.cfg, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, tt.provider, client.Provider())
		assert.Equal(t, tt.model, client.Model())
		assert.NoError(t, client.Close())
	}
}

func TestNewFromConfig_CacheDisabled(t *testing.T) {
	client, err := NewFromConfig(Config{OpenAIAPIKey: "k", CacheSize: -1}, zerolog.Nop())
	require.NoError(t, err)

	pc, ok := client.(*ProviderClient)
	require.True(t, ok)
	assert.Nil(t, pc.cache)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvProvider, "openai")
	t.Setenv(EnvOpenAIAPIKey, "sk-test")
	t.Setenv(EnvOpenAIModel, "gpt-x")
	t.Setenv(EnvOllamaHost, "http://ollama:11434")

	cfg := ConfigFromEnv()
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, "gpt-x", cfg.OpenAIModel)
	assert.Equal(t, "http://ollama:11434", cfg.OllamaHost)
}
