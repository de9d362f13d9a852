package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/docgen-mcp/internal/analyzer"
	"github.com/dshills/docgen-mcp/internal/chunker"
	"github.com/dshills/docgen-mcp/internal/diagram"
	"github.com/dshills/docgen-mcp/internal/ingestion"
	"github.com/dshills/docgen-mcp/internal/llm"
	"github.com/dshills/docgen-mcp/internal/readme"
	"github.com/dshills/docgen-mcp/internal/storage"
	"github.com/dshills/docgen-mcp/internal/tokens"
	"github.com/dshills/docgen-mcp/pkg/types"
)

var (
	// ErrNoStorage is returned by operations that need a database when none is configured
	ErrNoStorage = errors.New("storage not configured")
	// ErrNoInput is returned when neither a source nor an analysis is supplied
	ErrNoInput = errors.New("either source or analysis is required")
)

// Pipeline coordinates ingest -> chunk/analyze -> diagram -> readme and
// records results in storage when one is configured
type Pipeline struct {
	ingest    *ingestion.Engine
	chunker   *chunker.Chunker
	analyzer  *analyzer.Analyzer
	readme    *readme.Generator
	client    llm.Client
	storage   storage.Storage
	estimator tokens.Estimator
	logger    zerolog.Logger

	ingestOpts []ingestion.Option
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithClient enables model-backed analysis, diagrams, prose and summaries
func WithClient(c llm.Client) Option {
	return func(p *Pipeline) { p.client = c }
}

// WithStorage records sources, analyses and chunk runs
func WithStorage(s storage.Storage) Option {
	return func(p *Pipeline) { p.storage = s }
}

// WithEstimator sets the token estimator shared by every stage
func WithEstimator(e tokens.Estimator) Option {
	return func(p *Pipeline) { p.estimator = e }
}

// WithIngestionOptions passes options through to the ingestion engine
func WithIngestionOptions(opts ...ingestion.Option) Option {
	return func(p *Pipeline) { p.ingestOpts = append(p.ingestOpts, opts...) }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a Pipeline. Without a client every stage uses its static fallback.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		estimator: tokens.NewCharEstimator(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	ingestOpts := append([]ingestion.Option{
		ingestion.WithEstimator(p.estimator),
		ingestion.WithLogger(p.logger.With().Str("component", "ingestion").Logger()),
	}, p.ingestOpts...)
	p.ingest = ingestion.New(ingestOpts...)

	p.chunker = chunker.New(
		chunker.WithEstimator(p.estimator),
		chunker.WithLogger(p.logger.With().Str("component", "chunker").Logger()),
	)

	analyzerOpts := []analyzer.Option{
		analyzer.WithEstimator(p.estimator),
		analyzer.WithLogger(p.logger.With().Str("component", "analyzer").Logger()),
	}
	readmeOpts := []readme.Option{readme.WithLogger(p.logger.With().Str("component", "readme").Logger())}
	if p.client != nil {
		analyzerOpts = append(analyzerOpts, analyzer.WithClient(p.client))
		readmeOpts = append(readmeOpts, readme.WithClient(p.client))
	}
	p.analyzer = analyzer.New(analyzerOpts...)
	p.readme = readme.New(readmeOpts...)

	return p
}

// HasClient reports whether a completion client is configured
func (p *Pipeline) HasClient() bool {
	return p.client != nil
}

// Ingest reads source and records it in storage
func (p *Pipeline) Ingest(ctx context.Context, source string, opts ingestion.Options) (*ingestion.Result, error) {
	res, err := p.ingest.Ingest(ctx, source, opts)
	if err != nil {
		return nil, err
	}
	if p.storage != nil {
		if err := p.storage.UpsertSource(ctx, sourceRecord(res)); err != nil {
			return nil, fmt.Errorf("failed to record source: %w", err)
		}
	}
	return res, nil
}

func sourceRecord(res *ingestion.Result) *storage.Source {
	return &storage.Source{
		Source:         res.Source,
		Digest:         res.Digest,
		FileCount:      res.FileCount,
		TotalTokens:    res.TotalTokens,
		LastIngestedAt: time.Now().UTC(),
	}
}

// ChunkRequest describes one chunk_codebase invocation
type ChunkRequest struct {
	Source          string
	Ingest          ingestion.Options
	Strategy        types.ChunkStrategy
	MaxTokens       int
	OverlapTokens   int
	PreserveContext bool
	Summarize       bool
}

// Chunk ingests the source and partitions it into chunks
func (p *Pipeline) Chunk(ctx context.Context, req ChunkRequest) (*types.ChunkResult, error) {
	res, err := p.ingest.Ingest(ctx, req.Source, req.Ingest)
	if err != nil {
		return nil, err
	}

	result := p.chunker.Chunk(res.Content, res.Files, req.Strategy, chunker.Config{
		Source:          req.Source,
		MaxTokens:       req.MaxTokens,
		OverlapTokens:   req.OverlapTokens,
		PreserveContext: req.PreserveContext,
	})

	if req.Summarize && p.client != nil {
		if err := p.summarize(ctx, result.Chunks); err != nil {
			return nil, err
		}
	}

	if err := p.recordChunks(ctx, res, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Pipeline) recordChunks(ctx context.Context, res *ingestion.Result, result *types.ChunkResult) error {
	if p.storage == nil {
		return nil
	}

	encoded, err := encodeJSON(result)
	if err != nil {
		return err
	}

	tx, err := p.storage.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	src := sourceRecord(res)
	if err := tx.UpsertSource(ctx, src); err != nil {
		return fmt.Errorf("failed to record source: %w", err)
	}
	err = tx.SaveChunkResult(ctx, &storage.ChunkRun{
		SourceID:      src.ID,
		Strategy:      result.Strategy,
		MaxTokens:     result.MaxTokensPerChunk,
		OverlapTokens: result.OverlapTokens,
		TotalChunks:   result.TotalChunks,
		TotalTokens:   result.TotalTokens,
		Result:        encoded,
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// AnalyzeRequest describes one analyze_repository invocation
type AnalyzeRequest struct {
	Source string
	Ingest ingestion.Options
	Depth  types.AnalysisDepth
	Focus  []string
}

// Analysis bundles an analysis with the content it was derived from.
// Content is empty when the analysis was loaded from storage.
type Analysis struct {
	Result  *types.AnalysisResult
	Content string
	Stored  bool
}

// Analyze ingests the source, analyzes it and stores the result
func (p *Pipeline) Analyze(ctx context.Context, req AnalyzeRequest) (*types.AnalysisResult, error) {
	a, err := p.analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	return a.Result, nil
}

func (p *Pipeline) analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error) {
	res, err := p.ingest.Ingest(ctx, req.Source, req.Ingest)
	if err != nil {
		return nil, err
	}

	result, err := p.analyzer.Analyze(ctx, res.Content, res.Files, req.Depth, req.Focus)
	if err != nil {
		return nil, err
	}
	result.Source = req.Source

	if err := p.recordAnalysis(ctx, res, result); err != nil {
		return nil, err
	}
	return &Analysis{Result: result, Content: res.Content}, nil
}

func (p *Pipeline) recordAnalysis(ctx context.Context, res *ingestion.Result, result *types.AnalysisResult) error {
	if p.storage == nil {
		return nil
	}

	tx, err := p.storage.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	src := sourceRecord(res)
	if err := tx.UpsertSource(ctx, src); err != nil {
		return fmt.Errorf("failed to record source: %w", err)
	}
	err = tx.SaveAnalysis(ctx, &storage.Analysis{
		SourceID: src.ID,
		Depth:    result.AnalysisDepth,
		Result:   result,
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// resolveAnalysis returns the supplied analysis, the latest stored one for
// source, or a fresh deep analysis
func (p *Pipeline) resolveAnalysis(ctx context.Context, source string, supplied *types.AnalysisResult) (*Analysis, error) {
	if supplied != nil {
		if supplied.Source == "" {
			supplied.Source = source
		}
		return &Analysis{Result: supplied}, nil
	}
	if source == "" {
		return nil, ErrNoInput
	}

	if p.storage != nil {
		stored, err := p.latestAnalysis(ctx, source)
		if err != nil {
			return nil, err
		}
		if stored != nil {
			p.logger.Debug().Str("source", source).Msg("reusing stored analysis")
			return &Analysis{Result: stored, Stored: true}, nil
		}
	}

	return p.analyze(ctx, AnalyzeRequest{Source: source, Depth: types.DepthDeep})
}

func (p *Pipeline) latestAnalysis(ctx context.Context, source string) (*types.AnalysisResult, error) {
	src, err := p.storage.GetSource(ctx, source)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	a, err := p.storage.GetLatestAnalysis(ctx, src.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a.Result, nil
}

// DiagramRequest describes one extract_architecture invocation
type DiagramRequest struct {
	Source   string
	Types    []types.DiagramType
	MaxNodes int
	Analysis *types.AnalysisResult
}

// Diagrams renders Mermaid diagrams for a source or a supplied analysis
func (p *Pipeline) Diagrams(ctx context.Context, req DiagramRequest) (*types.DiagramResult, error) {
	a, err := p.resolveAnalysis(ctx, req.Source, req.Analysis)
	if err != nil {
		return nil, err
	}
	return p.diagrams(ctx, a, req.Types, req.MaxNodes, req.Source)
}

func (p *Pipeline) diagrams(ctx context.Context, a *Analysis, kinds []types.DiagramType, maxNodes int, source string) (*types.DiagramResult, error) {
	content := a.Content
	// Model prompts for class and fallback contexts read raw content
	if content == "" && p.client != nil && source != "" {
		res, err := p.ingest.Ingest(ctx, source, ingestion.Options{})
		if err != nil {
			return nil, err
		}
		content = res.Content
	}

	opts := []diagram.Option{
		diagram.WithMaxNodes(maxNodes),
		diagram.WithLogger(p.logger.With().Str("component", "diagram").Logger()),
	}
	if p.client != nil {
		opts = append(opts, diagram.WithClient(p.client))
	}

	result, err := diagram.New(opts...).Generate(ctx, content, a.Result, kinds)
	if err != nil {
		return nil, err
	}
	result.Source = a.Result.Source
	return result, nil
}

// ReadmeRequest describes one generate_readme invocation
type ReadmeRequest struct {
	Source          string
	Analysis        *types.AnalysisResult
	Sections        []types.ReadmeSection
	IncludeDiagrams bool
	Tone            types.ReadmeTone
}

// Readme assembles a README, rendering the default diagrams first when asked
func (p *Pipeline) Readme(ctx context.Context, req ReadmeRequest) (*types.ReadmeResult, error) {
	a, err := p.resolveAnalysis(ctx, req.Source, req.Analysis)
	if err != nil {
		return nil, err
	}

	opts := readme.Options{
		Sections:        req.Sections,
		Tone:            req.Tone,
		IncludeDiagrams: req.IncludeDiagrams,
	}
	if req.IncludeDiagrams {
		d, err := p.diagrams(ctx, a, nil, 0, req.Source)
		if err != nil {
			return nil, err
		}
		opts.Diagrams = d.Diagrams
	}

	return p.readme.Generate(ctx, a.Result, opts)
}

// Status returns what storage holds for source
func (p *Pipeline) Status(ctx context.Context, source string) (*storage.SourceStatus, error) {
	if p.storage == nil {
		return nil, ErrNoStorage
	}
	if source == "" {
		return nil, types.ErrEmptySource
	}
	return p.storage.GetStatus(ctx, source)
}
