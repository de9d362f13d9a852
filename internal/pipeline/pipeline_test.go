package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docgen-mcp/internal/ingestion"
	"github.com/dshills/docgen-mcp/internal/llm"
	"github.com/dshills/docgen-mcp/internal/storage"
	"github.com/dshills/docgen-mcp/pkg/types"
)

// promptClient replies based on substrings of the prompt
type promptClient struct {
	mu       sync.Mutex
	replies  map[string]string
	err      error
	requests []llm.Request
}

func (c *promptClient) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.err != nil {
		return nil, c.err
	}
	for key, reply := range c.replies {
		if strings.Contains(req.Prompt, key) {
			return &llm.Response{Content: reply}, nil
		}
	}
	return &llm.Response{Content: "{}"}, nil
}

func (c *promptClient) Provider() string { return "fake" }
func (c *promptClient) Model() string    { return "fake-1" }
func (c *promptClient) Close() error     { return nil }

var sampleFiles = map[string]string{
	"go.mod":                  "module example.com/shop\n\ngo 1.22\n\nrequire github.com/rs/zerolog v1.34.0\n",
	"cmd/shop/main.go":        "package main\n\nimport \"example.com/shop/internal/store\"\n\nfunc main() { store.Open() }\n",
	"internal/store/store.go": "package store\n\n// Open opens the store\nfunc Open() {}\n",
}

func writeRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range sampleFiles {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return root
}

func newStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestChunk_RecordsRun(t *testing.T) {
	store := newStore(t)
	p := New(WithStorage(store))
	repo := writeRepo(t)
	ctx := context.Background()

	// a tiny budget seals every file into its own chunk
	result, err := p.Chunk(ctx, ChunkRequest{Source: repo, Strategy: types.StrategyFile, MaxTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalChunks)
	assert.Equal(t, types.StrategyFile, result.Strategy)
	for _, chunk := range result.Chunks {
		assert.Empty(t, chunk.ContextSummary)
	}

	status, err := p.Status(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, 3, status.Source.FileCount)
	assert.Equal(t, 1, status.ChunkRunCount)
	require.Len(t, status.RecentChunkRuns, 1)
	assert.Equal(t, 10, status.RecentChunkRuns[0].MaxTokens)
}

func TestChunk_Summarize(t *testing.T) {
	client := &promptClient{replies: map[string]string{
		"Summarize this code file": "```\nHandles one file.\n```",
	}}
	p := New(WithClient(client))

	result, err := p.Chunk(context.Background(), ChunkRequest{
		Source:    writeRepo(t),
		Strategy:  types.StrategyFile,
		MaxTokens: 10,
		Summarize: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Chunks, 3)
	for _, chunk := range result.Chunks {
		assert.Equal(t, "Handles one file.", chunk.ContextSummary)
	}
	assert.Len(t, client.requests, result.TotalChunks)
}

func TestChunk_SummarizeMultiFileChunk(t *testing.T) {
	client := &promptClient{replies: map[string]string{
		"brief context summary": "Shop service.",
	}}
	p := New(WithClient(client))

	result, err := p.Chunk(context.Background(), ChunkRequest{
		Source:    writeRepo(t),
		Strategy:  types.StrategyHybrid,
		MaxTokens: 100000,
		Summarize: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, "Shop service.", result.Chunks[0].ContextSummary)
	assert.Contains(t, client.requests[0].Prompt, "cmd/shop/main.go")
}

func TestChunk_SummaryFailureIsSkipped(t *testing.T) {
	client := &promptClient{err: errors.New("rate limited")}
	p := New(WithClient(client))

	result, err := p.Chunk(context.Background(), ChunkRequest{
		Source:    writeRepo(t),
		Strategy:  types.StrategyFile,
		Summarize: true,
	})
	require.NoError(t, err)
	for _, chunk := range result.Chunks {
		assert.Empty(t, chunk.ContextSummary)
	}
}

func TestChunk_SummarizeWithoutClientIsNoop(t *testing.T) {
	p := New()

	result, err := p.Chunk(context.Background(), ChunkRequest{Source: writeRepo(t), Summarize: true})
	require.NoError(t, err)
	assert.NotZero(t, result.TotalChunks)
}

func TestChunk_MissingSource(t *testing.T) {
	p := New()

	_, err := p.Chunk(context.Background(), ChunkRequest{Source: filepath.Join(t.TempDir(), "missing")})
	assert.ErrorIs(t, err, ingestion.ErrSourceNotFound)
}

func TestAnalyze_StoresAndDiagramsReuse(t *testing.T) {
	store := newStore(t)
	p := New(WithStorage(store))
	repo := writeRepo(t)
	ctx := context.Background()

	analysis, err := p.Analyze(ctx, AnalyzeRequest{Source: repo, Depth: types.DepthMedium})
	require.NoError(t, err)
	assert.Equal(t, repo, analysis.Source)
	assert.Equal(t, types.DepthMedium, analysis.AnalysisDepth)
	assert.Equal(t, 3, analysis.TotalFiles)

	diagrams, err := p.Diagrams(ctx, DiagramRequest{Source: repo})
	require.NoError(t, err)
	assert.Equal(t, repo, diagrams.Source)
	assert.Contains(t, diagrams.Diagrams, types.DiagramFlowchart)
	assert.Contains(t, diagrams.Diagrams, types.DiagramComponent)

	status, err := p.Status(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, 1, status.AnalysisCount, "diagrams must reuse the stored analysis")
	assert.Equal(t, types.DepthMedium, status.LatestDepth)
}

func TestDiagrams_AnalyzesWhenNothingStored(t *testing.T) {
	p := New()
	repo := writeRepo(t)

	result, err := p.Diagrams(context.Background(), DiagramRequest{
		Source:   repo,
		Types:    []types.DiagramType{types.DiagramFlowchart},
		MaxNodes: 2,
	})
	require.NoError(t, err)
	require.Contains(t, result.Diagrams, types.DiagramFlowchart)
	assert.LessOrEqual(t, result.Diagrams[types.DiagramFlowchart].NodeCount, 2)
	assert.NotEmpty(t, result.Components)
}

func TestDiagrams_RequiresInput(t *testing.T) {
	_, err := New().Diagrams(context.Background(), DiagramRequest{})
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestReadme_SuppliedAnalysisWithDiagrams(t *testing.T) {
	p := New()
	analysis := &types.AnalysisResult{
		Source:            "github.com/acme/shop",
		Summary:           "An order service.",
		LanguageBreakdown: map[string]float64{"go": 1},
		Architecture: []types.Component{
			{Name: "cmd", CompType: "entrypoint", Dependencies: []string{"internal/store"}},
			{Name: "internal/store", CompType: "package"},
		},
	}

	result, err := p.Readme(context.Background(), ReadmeRequest{
		Analysis:        analysis,
		Sections:        []types.ReadmeSection{types.SectionTitle, types.SectionArchitecture},
		IncludeDiagrams: true,
	})
	require.NoError(t, err)
	assert.True(t, result.HasDiagrams)
	assert.True(t, strings.HasPrefix(result.Markdown, "# shop"))
	assert.Contains(t, result.Markdown, "```mermaid")
}

func TestReadme_FromSource(t *testing.T) {
	store := newStore(t)
	p := New(WithStorage(store))
	repo := writeRepo(t)

	result, err := p.Readme(context.Background(), ReadmeRequest{Source: repo})
	require.NoError(t, err)
	assert.Len(t, result.Sections, len(types.AllSections))
	assert.Contains(t, result.DetectedTechStack, "Go")

	status, err := p.Status(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, 1, status.AnalysisCount)
	assert.Equal(t, types.DepthDeep, status.LatestDepth)
}

func TestReadme_RequiresInput(t *testing.T) {
	_, err := New().Readme(context.Background(), ReadmeRequest{})
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestStatus_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := New().Status(ctx, "/repo")
	assert.ErrorIs(t, err, ErrNoStorage)

	p := New(WithStorage(newStore(t)))
	_, err = p.Status(ctx, "")
	assert.ErrorIs(t, err, types.ErrEmptySource)

	_, err = p.Status(ctx, "/never-ingested")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIngest_RecordsSource(t *testing.T) {
	store := newStore(t)
	p := New(WithStorage(store))
	repo := writeRepo(t)

	res, err := p.Ingest(context.Background(), repo, ingestion.Options{})
	require.NoError(t, err)

	src, err := store.GetSource(context.Background(), repo)
	require.NoError(t, err)
	assert.Equal(t, res.Digest, src.Digest)
	assert.Equal(t, 3, src.FileCount)
}

func TestHeadRunes(t *testing.T) {
	assert.Equal(t, "abc", headRunes("abc", 10))
	assert.Equal(t, "ab", headRunes("abcdef", 2))
	assert.Equal(t, "a", headRunes("aé", 2))
}
