package types

import (
	"errors"
	"fmt"
	"strings"
)

// ChunkStrategy selects how the chunker partitions a codebase
type ChunkStrategy string

const (
	StrategyFile      ChunkStrategy = "file"
	StrategyDirectory ChunkStrategy = "directory"
	StrategySemantic  ChunkStrategy = "semantic"
	StrategyHybrid    ChunkStrategy = "hybrid"
)

// AllStrategies lists the supported chunking strategies in display order
var AllStrategies = []ChunkStrategy{StrategyFile, StrategyDirectory, StrategySemantic, StrategyHybrid}

// ParseStrategy maps a user supplied strategy name to a ChunkStrategy.
// Unknown or empty names resolve to StrategyHybrid.
func ParseStrategy(name string) ChunkStrategy {
	switch ChunkStrategy(strings.ToLower(strings.TrimSpace(name))) {
	case StrategyFile:
		return StrategyFile
	case StrategyDirectory:
		return StrategyDirectory
	case StrategySemantic:
		return StrategySemantic
	default:
		return StrategyHybrid
	}
}

// Valid reports whether the strategy is one of the supported values
func (s ChunkStrategy) Valid() bool {
	switch s {
	case StrategyFile, StrategyDirectory, StrategySemantic, StrategyHybrid:
		return true
	default:
		return false
	}
}

// Chunk is one sealed partition of a codebase
type Chunk struct {
	ID                  int      `json:"chunk_id"`
	Files               []string `json:"files"`
	Content             string   `json:"content"`
	TokenCount          int      `json:"token_count"`
	PrimaryLanguage     string   `json:"primary_language,omitempty"`
	ContextSummary      string   `json:"context_summary,omitempty"`
	OverlapWithPrevious int      `json:"overlap_with_previous"`
	ImportanceScore     float64  `json:"importance_score"`
}

// HasFile reports whether path was assigned to the chunk
func (c *Chunk) HasFile(path string) bool {
	for _, f := range c.Files {
		if f == path {
			return true
		}
	}
	return false
}

// ChunkResult is the aggregate output of one chunking invocation
type ChunkResult struct {
	Source            string        `json:"source"`
	Strategy          ChunkStrategy `json:"strategy"`
	Chunks            []*Chunk      `json:"chunks"`
	TotalChunks       int           `json:"total_chunks"`
	TotalTokens       int           `json:"total_tokens"`
	TokenDistribution map[int]int   `json:"token_distribution"`
	MaxTokensPerChunk int           `json:"max_tokens_per_chunk"`
	OverlapTokens     int           `json:"overlap_tokens"`
}

// Files returns every file path across all chunks in chunk order
func (r *ChunkResult) Files() []string {
	var files []string
	for _, c := range r.Chunks {
		files = append(files, c.Files...)
	}
	return files
}

// Validate checks the aggregate invariants of a chunk result
func (r *ChunkResult) Validate() error {
	if !r.Strategy.Valid() {
		return fmt.Errorf("invalid strategy %q", r.Strategy)
	}

	if r.TotalChunks != len(r.Chunks) {
		return fmt.Errorf("total_chunks %d does not match %d chunks", r.TotalChunks, len(r.Chunks))
	}

	sum := 0
	for id, tokens := range r.TokenDistribution {
		if id < 0 || id >= len(r.Chunks) {
			return fmt.Errorf("token distribution references unknown chunk %d", id)
		}
		sum += tokens
	}
	if sum != r.TotalTokens {
		return fmt.Errorf("total_tokens %d does not match distribution sum %d", r.TotalTokens, sum)
	}

	seen := make(map[string]int)
	for i, c := range r.Chunks {
		if c.ID != i {
			return fmt.Errorf("chunk at index %d has id %d", i, c.ID)
		}
		if len(c.Files) == 0 {
			return errors.New("chunk has no files")
		}
		for _, f := range c.Files {
			if prev, dup := seen[f]; dup {
				return fmt.Errorf("file %s assigned to chunks %d and %d", f, prev, i)
			}
			seen[f] = i
		}
	}

	return nil
}
