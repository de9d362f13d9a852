// Package tokens estimates token counts for text spans.
//
// The chunker only needs an approximate count, so every estimator here is
// cheap and none is authoritative. Three implementations are provided:
//
//   - CharEstimator divides the character count by a fixed ratio (4 by default)
//   - TiktokenEstimator runs a BPE encoding from tiktoken-go (o200k_base by default)
//   - CachedEstimator wraps another estimator with an LRU keyed by content hash
//
// NewDefault picks tiktoken when the encoding can be loaded and falls back to
// the character ratio otherwise:
//
//	est := tokens.NewDefault("o200k_base")
//	n, err := est.Estimate(text)
//
// Loading a tiktoken encoding may download the BPE ranks on first use; set
// TIKTOKEN_CACHE_DIR to control where they are cached.
package tokens
