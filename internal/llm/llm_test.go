package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeGenerator records calls and replays scripted outcomes
type fakeGenerator struct {
	mu       sync.Mutex
	calls    int
	errs     []error // consumed one per call before succeeding
	content  string
	info     map[string]any
	messages []llms.MessageContent
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.messages = messages
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			Content:        f.content,
			StopReason:     "end_turn",
			GenerationInfo: f.info,
		}},
	}, nil
}

func newTestClient(gen *fakeGenerator, cache *Cache) *ProviderClient {
	c := newProviderClient("fake", "fake-1", gen, cache, zerolog.Nop())
	c.retry = RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
	return c
}

func TestComplete_Success(t *testing.T) {
	gen := &fakeGenerator{content: "hello", info: map[string]any{"InputTokens": 10, "OutputTokens": 5}}
	client := newTestClient(gen, nil)

	resp, err := client.Complete(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, "fake-1", resp.Model)
	assert.Equal(t, 15, resp.TokensUsed)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.False(t, resp.Cached)

	require.Len(t, gen.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, gen.messages[0].Role)
	assert.Equal(t, llms.TextContent{Text: DefaultSystem}, gen.messages[0].Parts[0])
	assert.Equal(t, llms.ChatMessageTypeHuman, gen.messages[1].Role)
	assert.Equal(t, llms.TextContent{Text: "hi"}, gen.messages[1].Parts[0])
}

func TestComplete_EmptyPrompt(t *testing.T) {
	gen := &fakeGenerator{content: "x"}

	_, err := newTestClient(gen, nil).Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Equal(t, 0, gen.calls)
}

func TestComplete_RetriesThenSucceeds(t *testing.T) {
	gen := &fakeGenerator{content: "ok", errs: []error{errors.New("503"), errors.New("429")}}

	resp, err := newTestClient(gen, nil).Complete(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 3, gen.calls)
}

func TestComplete_GivesUpAfterMaxRetries(t *testing.T) {
	boom := errors.New("boom")
	gen := &fakeGenerator{errs: []error{boom, boom, boom, boom}}

	_, err := newTestClient(gen, nil).Complete(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrProviderFailed)
	assert.Contains(t, err.Error(), "fake/fake-1")
	assert.Equal(t, 3, gen.calls)
}

func TestComplete_EmptyResponseIsRetried(t *testing.T) {
	gen := &fakeGenerator{content: "   "}

	_, err := newTestClient(gen, nil).Complete(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrProviderFailed)
	assert.Equal(t, 3, gen.calls)
}

func TestComplete_CanceledContext(t *testing.T) {
	gen := &fakeGenerator{errs: []error{errors.New("x"), errors.New("x"), errors.New("x")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(gen, nil).Complete(ctx, Request{Prompt: "p"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, gen.calls)
}

func TestComplete_Cache(t *testing.T) {
	gen := &fakeGenerator{content: "cached"}
	client := newTestClient(gen, NewCache(8))

	first, err := client.Complete(context.Background(), Request{Prompt: "p", Temperature: 0.3})
	require.NoError(t, err)
	second, err := client.Complete(context.Background(), Request{Prompt: "p", Temperature: 0.3})
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, "cached", second.Content)

	_, err = client.Complete(context.Background(), Request{Prompt: "p", Temperature: 0.9})
	require.NoError(t, err)
	assert.Equal(t, 2, gen.calls, "different temperature is a different key")

	second.Content = "mutated"
	third, err := client.Complete(context.Background(), Request{Prompt: "p", Temperature: 0.3})
	require.NoError(t, err)
	assert.Equal(t, "cached", third.Content)
}

func TestCache_Eviction(t *testing.T) {
	cache := NewCache(2)
	cache.Set("a", &Response{Content: "a"})
	cache.Set("b", &Response{Content: "b"})
	cache.Set("c", &Response{Content: "c"})

	_, ok := cache.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, cache.Size())

	cache.Clear()
	assert.Equal(t, 0, cache.Size())
}

func TestCacheKey(t *testing.T) {
	base := Request{Prompt: "p", System: "s", Temperature: 0.5, MaxTokens: 10}

	assert.Equal(t, CacheKey("a", "m", base), CacheKey("a", "m", base))
	assert.Len(t, CacheKey("a", "m", base), 64)

	variants := []Request{
		{Prompt: "q", System: "s", Temperature: 0.5, MaxTokens: 10},
		{Prompt: "p", System: "t", Temperature: 0.5, MaxTokens: 10},
		{Prompt: "p", System: "s", Temperature: 0.6, MaxTokens: 10},
		{Prompt: "p", System: "s", Temperature: 0.5, MaxTokens: 11},
	}
	for _, v := range variants {
		assert.NotEqual(t, CacheKey("a", "m", base), CacheKey("a", "m", v))
	}
	assert.NotEqual(t, CacheKey("a", "m", base), CacheKey("b", "m", base))
	assert.NotEqual(t, CacheKey("ab", "", base), CacheKey("a", "b", base))
}

func TestRequestNormalized(t *testing.T) {
	r := Request{Prompt: "p"}.normalized()
	assert.Equal(t, DefaultSystem, r.System)
	assert.Equal(t, DefaultTemperature, r.Temperature)
	assert.Equal(t, DefaultMaxTokens, r.MaxTokens)

	r = Request{Prompt: "p", System: "x", Temperature: 0.2, MaxTokens: 5}.normalized()
	assert.Equal(t, Request{Prompt: "p", System: "x", Temperature: 0.2, MaxTokens: 5}, r)
}

func TestTokensUsed(t *testing.T) {
	assert.Equal(t, 42, tokensUsed(map[string]any{"TotalTokens": 42, "InputTokens": 1}))
	assert.Equal(t, 7, tokensUsed(map[string]any{"PromptTokens": 3, "CompletionTokens": float64(4)}))
	assert.Equal(t, 0, tokensUsed(nil))
}

func TestRetryWithBackoff_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_, err := retryWithBackoff(context.Background(), RetryConfig{}, func() (int, error) {
		calls++
		return 0, errors.New("x")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestClose(t *testing.T) {
	cache := NewCache(4)
	cache.Set("k", &Response{Content: "v"})
	client := newTestClient(&fakeGenerator{}, cache)

	assert.Equal(t, "fake", client.Provider())
	assert.Equal(t, "fake-1", client.Model())
	require.NoError(t, client.Close())
	assert.Equal(t, 0, cache.Size())
}
