package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dshills/docgen-mcp/pkg/types"
)

// Storage persists ingested sources with their analyses and chunk runs
type Storage interface {
	// Source operations
	UpsertSource(ctx context.Context, source *Source) error
	GetSource(ctx context.Context, source string) (*Source, error)

	// Analysis operations
	SaveAnalysis(ctx context.Context, analysis *Analysis) error
	GetLatestAnalysis(ctx context.Context, sourceID int64) (*Analysis, error)

	// Chunk run operations
	SaveChunkResult(ctx context.Context, run *ChunkRun) error
	ListChunkResults(ctx context.Context, sourceID int64, limit int) ([]*ChunkRun, error)

	// Status operations
	GetStatus(ctx context.Context, source string) (*SourceStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage
}

// Source is one ingested local path or remote repository
type Source struct {
	ID             int64
	Source         string
	Digest         string // hex SHA-256 of the combined content
	FileCount      int
	TotalTokens    int
	LastIngestedAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Analysis is a stored analyzer result
type Analysis struct {
	ID        int64
	SourceID  int64
	Depth     types.AnalysisDepth
	Result    *types.AnalysisResult
	CreatedAt time.Time
}

// ChunkRun records one chunking invocation. Result holds the encoded
// types.ChunkResult and is left empty by ListChunkResults.
type ChunkRun struct {
	ID            int64
	SourceID      int64
	Strategy      types.ChunkStrategy
	MaxTokens     int
	OverlapTokens int
	TotalChunks   int
	TotalTokens   int
	Result        json.RawMessage
	CreatedAt     time.Time
}

// SourceStatus summarizes what is stored for a source
type SourceStatus struct {
	Source           *Source
	AnalysisCount    int
	LatestAnalysisAt *time.Time
	LatestDepth      types.AnalysisDepth
	ChunkRunCount    int
	RecentChunkRuns  []*ChunkRun
	DatabaseSizeMB   float64
	Health           HealthStatus
}

// HealthStatus reports the state of the database
type HealthStatus struct {
	DatabaseAccessible bool
	SchemaVersion      string
}

// DecodeChunkResult unmarshals the stored chunk result
func (r *ChunkRun) DecodeChunkResult() (*types.ChunkResult, error) {
	var result types.ChunkResult
	if err := json.Unmarshal(r.Result, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
