package tokens

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharEstimator(t *testing.T) {
	tests := []struct {
		name  string
		ratio int
		text  string
		want  int
	}{
		{"empty", 4, "", 0},
		{"exact multiple", 4, strings.Repeat("a", 40), 10},
		{"rounds down", 4, "abcdefg", 1},
		{"custom ratio", 2, "abcdef", 3},
		{"zero ratio uses default", 0, strings.Repeat("a", 8), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := &CharEstimator{Ratio: tt.ratio}
			got, err := est.Estimate(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCachedEstimator(t *testing.T) {
	calls := 0
	inner := EstimatorFunc(func(text string) (int, error) {
		calls++
		return len(text), nil
	})

	est := NewCachedEstimator(inner, 8)

	n, err := est.Estimate("hello")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = est.Estimate("hello")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 1, calls, "second call should be served from cache")

	hits, misses := est.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
	assert.Equal(t, 1, est.Len())
}

func TestCachedEstimatorDoesNotCacheErrors(t *testing.T) {
	calls := 0
	inner := EstimatorFunc(func(text string) (int, error) {
		calls++
		return 0, errors.New("boom")
	})

	est := NewCachedEstimator(inner, 0)

	_, err := est.Estimate("x")
	require.Error(t, err)
	_, err = est.Estimate("x")
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, est.Len())
}

func TestCachedEstimatorEviction(t *testing.T) {
	est := NewCachedEstimator(NewCharEstimator(), 2)

	for _, s := range []string{"aaaa", "bbbbbbbb", "cccccccccccc"} {
		_, err := est.Estimate(s)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, est.Len())
}

func TestFallback(t *testing.T) {
	assert.Equal(t, 25, Fallback(strings.Repeat("x", 100), 4))
	assert.Equal(t, 25, Fallback(strings.Repeat("x", 100), -1))
}
