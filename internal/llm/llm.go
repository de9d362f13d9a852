package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Common errors
var (
	ErrEmptyPrompt       = errors.New("prompt cannot be empty")
	ErrProviderFailed    = errors.New("completion provider failed")
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrNoProviderEnabled = errors.New("no completion provider configured")
	ErrEmptyResponse     = errors.New("provider returned no content")
	ErrNoJSON            = errors.New("no JSON found in response")
)

// Request defaults
const (
	DefaultSystem      = "You are an expert code analyst."
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 4096
)

// Request is a single completion request
type Request struct {
	Prompt      string
	System      string  // default: DefaultSystem
	Temperature float64 // default: DefaultTemperature
	MaxTokens   int     // default: DefaultMaxTokens
}

// normalized fills request defaults
func (r Request) normalized() Request {
	if r.System == "" {
		r.System = DefaultSystem
	}
	if r.Temperature <= 0 {
		r.Temperature = DefaultTemperature
	}
	if r.MaxTokens <= 0 {
		r.MaxTokens = DefaultMaxTokens
	}
	return r
}

// Response is a provider-neutral completion
type Response struct {
	Content      string
	Model        string
	TokensUsed   int
	FinishReason string
	Cached       bool
}

// Client generates text completions
type Client interface {
	// Complete runs one prompt to completion
	Complete(ctx context.Context, req Request) (*Response, error)

	// Provider returns the provider name
	Provider() string

	// Model returns the model name
	Model() string

	// Close releases any resources held by the client
	Close() error
}

// ValidateRequest validates a completion request
func ValidateRequest(req Request) error {
	if req.Prompt == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// Cache provides in-memory LRU caching of completions
type Cache struct {
	cache *lru.Cache[string, Response]
}

// DefaultCacheSize is the number of completions kept when no size is given
const DefaultCacheSize = 256

// NewCache creates a new completion cache with LRU eviction
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = DefaultCacheSize
	}
	cache, err := lru.New[string, Response](maxLen)
	if err != nil {
		cache, _ = lru.New[string, Response](DefaultCacheSize)
	}
	return &Cache{cache: cache}
}

// Get returns a cached completion. Responses are stored by value so callers
// cannot mutate the cached copy.
func (c *Cache) Get(key string) (*Response, bool) {
	resp, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	resp.Cached = true
	return &resp, true
}

// Set stores a completion
func (c *Cache) Set(key string, resp *Response) {
	c.cache.Add(key, *resp)
}

// Size returns the current cache size
func (c *Cache) Size() int {
	return c.cache.Len()
}

// Clear empties the cache
func (c *Cache) Clear() {
	c.cache.Purge()
}

// CacheKey hashes everything that influences a completion
func CacheKey(provider, model string, req Request) string {
	h := sha256.New()
	for _, part := range []string{
		provider, model, req.System, req.Prompt,
		strconv.FormatFloat(req.Temperature, 'f', -1, 64),
		strconv.Itoa(req.MaxTokens),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// describe names a client for error messages
func describe(c Client) string {
	return fmt.Sprintf("%s/%s", c.Provider(), c.Model())
}
