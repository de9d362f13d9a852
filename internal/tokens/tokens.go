package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultEncoding is the BPE encoding used when none is configured
	DefaultEncoding = "o200k_base"
	// DefaultCharsPerToken is the fallback characters-per-token ratio
	DefaultCharsPerToken = 4
	// DefaultCacheSize bounds the number of cached estimates
	DefaultCacheSize = 4096
)

// ErrEncodingUnavailable is returned when a tiktoken encoding cannot be loaded
var ErrEncodingUnavailable = errors.New("token encoding unavailable")

// Estimator maps a text span to an approximate token count
type Estimator interface {
	Estimate(text string) (int, error)
}

// EstimatorFunc adapts a plain function to the Estimator interface
type EstimatorFunc func(text string) (int, error)

// Estimate calls f(text)
func (f EstimatorFunc) Estimate(text string) (int, error) {
	return f(text)
}

// CharEstimator approximates tokens as len(text)/Ratio
type CharEstimator struct {
	Ratio int
}

// NewCharEstimator returns a CharEstimator with the default ratio
func NewCharEstimator() *CharEstimator {
	return &CharEstimator{Ratio: DefaultCharsPerToken}
}

// Estimate never fails
func (c *CharEstimator) Estimate(text string) (int, error) {
	return Fallback(text, c.Ratio), nil
}

// Fallback is the fixed-ratio estimate used whenever a real estimator fails
func Fallback(text string, ratio int) int {
	if ratio <= 0 {
		ratio = DefaultCharsPerToken
	}
	return len(text) / ratio
}

// TiktokenEstimator counts BPE tokens with a tiktoken encoding
type TiktokenEstimator struct {
	encoding string
	tke      *tiktoken.Tiktoken
}

// NewTiktokenEstimator loads the named encoding, or the encoding of a model name
func NewTiktokenEstimator(encodingOrModel string) (*TiktokenEstimator, error) {
	if encodingOrModel == "" {
		encodingOrModel = DefaultEncoding
	}

	tke, err := tiktoken.GetEncoding(encodingOrModel)
	if err != nil {
		var modelErr error
		tke, modelErr = tiktoken.EncodingForModel(encodingOrModel)
		if modelErr != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrEncodingUnavailable, encodingOrModel, err)
		}
	}

	return &TiktokenEstimator{encoding: encodingOrModel, tke: tke}, nil
}

// Encoding returns the encoding or model name the estimator was built with
func (t *TiktokenEstimator) Encoding() string {
	return t.encoding
}

// Estimate encodes text and returns the token count
func (t *TiktokenEstimator) Estimate(text string) (int, error) {
	if t.tke == nil {
		return 0, fmt.Errorf("%w: encoder not initialized", ErrEncodingUnavailable)
	}
	return len(t.tke.Encode(text, nil, nil)), nil
}

// CachedEstimator memoizes another estimator by SHA-256 of the text
type CachedEstimator struct {
	next  Estimator
	cache *lru.Cache[string, int]

	mu     sync.Mutex
	hits   int
	misses int
}

// NewCachedEstimator wraps next with an LRU of the given size
func NewCachedEstimator(next Estimator, size int) *CachedEstimator {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, int](size)
	if err != nil {
		cache, _ = lru.New[string, int](DefaultCacheSize)
	}
	return &CachedEstimator{next: next, cache: cache}
}

// Estimate returns a cached count or delegates. Errors are not cached.
func (c *CachedEstimator) Estimate(text string) (int, error) {
	key := hashText(text)
	if n, ok := c.cache.Get(key); ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return n, nil
	}

	n, err := c.next.Estimate(text)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	c.cache.Add(key, n)
	return n, nil
}

// Stats returns cache hit and miss counters
func (c *CachedEstimator) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the number of cached entries
func (c *CachedEstimator) Len() int {
	return c.cache.Len()
}

// NewDefault returns a cached tiktoken estimator, or the char estimator when the
// encoding cannot be loaded
func NewDefault(encoding string) Estimator {
	tk, err := NewTiktokenEstimator(encoding)
	if err != nil {
		return NewCharEstimator()
	}
	return NewCachedEstimator(tk, DefaultCacheSize)
}

func hashText(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
