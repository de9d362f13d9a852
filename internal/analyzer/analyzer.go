package analyzer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/docgen-mcp/internal/chunker"
	"github.com/dshills/docgen-mcp/internal/llm"
	"github.com/dshills/docgen-mcp/internal/parser"
	"github.com/dshills/docgen-mcp/internal/tokens"
	"github.com/dshills/docgen-mcp/pkg/types"
)

// DefaultMaxContentChars bounds the content sent to the model per task
const DefaultMaxContentChars = 150000

// EntryPointImportance is the minimum importance of an entry point file
const EntryPointImportance = 95.0

// TruncationMarker separates the kept head and tail of oversized content
const TruncationMarker = "\n\n[... content truncated ...]\n\n"

// Analyzer produces a structural analysis of a combined codebase. With a
// completion client it asks the model; every section the model does not
// fill is derived statically.
type Analyzer struct {
	client    llm.Client
	parser    *parser.Parser
	estimator tokens.Estimator
	maxChars  int
	logger    zerolog.Logger
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithClient enables model-backed analysis
func WithClient(c llm.Client) Option {
	return func(a *Analyzer) { a.client = c }
}

// WithEstimator sets the estimator used for TotalTokens
func WithEstimator(e tokens.Estimator) Option {
	return func(a *Analyzer) { a.estimator = e }
}

// WithMaxContentChars overrides DefaultMaxContentChars
func WithMaxContentChars(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxChars = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// New creates an Analyzer
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		parser:    parser.New(),
		estimator: tokens.NewCharEstimator(),
		maxChars:  DefaultMaxContentChars,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HasClient reports whether model-backed analysis is enabled
func (a *Analyzer) HasClient() bool {
	return a.client != nil
}

// Analyze inspects content (combined file blocks) and its file metadata.
// When files is empty, metadata is derived from the blocks. Only context
// cancellation is returned as an error; failed model tasks are logged and
// replaced by static results.
func (a *Analyzer) Analyze(ctx context.Context, content string, files []types.FileRecord, depth types.AnalysisDepth, focus []string) (*types.AnalysisResult, error) {
	if depth == "" {
		depth = types.DepthDeep
	}
	if len(focus) == 0 {
		focus = types.DefaultFocusAreas
	}
	wants := make(map[string]bool, len(focus))
	for _, f := range focus {
		wants[strings.ToLower(strings.TrimSpace(f))] = true
	}

	blocks := fileBlocks(chunker.SplitFiles(content))
	if len(files) == 0 {
		files = recordsFromBlocks(blocks)
	}
	records := types.FileRecordIndex(files)

	doArch := wants[types.FocusArchitecture]
	doDeps := wants[types.FocusDependencies]
	doPatterns := wants[types.FocusPatterns] && depth != types.DepthShallow
	doAPI := wants[types.FocusAPI] && depth == types.DepthDeep

	a.logger.Info().
		Str("depth", string(depth)).
		Strs("focus", focus).
		Int("files", len(files)).
		Bool("llm", a.client != nil).
		Msg("analyzing")

	var (
		arch     architectureView
		deps     []types.Dependency
		patterns []types.PatternMatch
		api      []types.APIEndpoint
	)

	if a.client != nil {
		prompt := Truncate(content, a.maxChars)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)

		run := func(name string, enabled bool, fn func(context.Context) error) {
			if !enabled {
				return
			}
			g.Go(func() error {
				if err := fn(gctx); err != nil {
					a.logger.Warn().Err(err).Str("task", name).Msg("analysis task failed")
				}
				return nil
			})
		}

		run(types.FocusArchitecture, doArch, func(ctx context.Context) (err error) {
			arch, err = a.llmArchitecture(ctx, prompt)
			return err
		})
		run(types.FocusDependencies, doDeps, func(ctx context.Context) (err error) {
			deps, err = a.llmDependencies(ctx, prompt)
			return err
		})
		run(types.FocusPatterns, doPatterns, func(ctx context.Context) (err error) {
			patterns, err = a.llmPatterns(ctx, prompt)
			return err
		})
		run(types.FocusAPI, doAPI, func(ctx context.Context) (err error) {
			api, err = a.llmAPI(ctx, prompt)
			return err
		})

		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if doArch && len(arch.components) == 0 {
		arch.components = staticComponents(blocks, records)
	}
	if doDeps && len(deps) == 0 {
		deps = manifestDependencies(blocks, func(file string, err error) {
			a.logger.Debug().Err(err).Str("file", file).Msg("unreadable manifest")
		})
	}
	if doPatterns && len(patterns) == 0 {
		patterns = staticPatterns(blocks, a.parser)
	}
	if doAPI && len(api) == 0 {
		api = staticRoutes(blocks, a.parser)
	}

	result := &types.AnalysisResult{
		LanguageBreakdown: languageBreakdown(files),
		Architecture:      nonNil(arch.components),
		Dependencies:      nonNil(deps),
		Patterns:          nonNil(patterns),
		APISurface:        nonNil(api),
		FileTree:          fileTree(files),
		EntryPoints:       entryPoints(files),
		TotalFiles:        len(files),
		TotalTokens:       a.countTokens(content),
		AnalysisDepth:     depth,
	}
	result.Summary = arch.summary
	if result.Summary == "" {
		result.Summary = staticSummary(result)
	}

	return result, nil
}

func (a *Analyzer) countTokens(content string) int {
	n, err := a.estimator.Estimate(content)
	if err != nil {
		return tokens.Fallback(content, tokens.DefaultCharsPerToken)
	}
	return n
}

// Truncate keeps the head and tail of content when it exceeds maxChars
// bytes, cutting on rune boundaries
func Truncate(content string, maxChars int) string {
	if maxChars <= 0 || len(content) <= maxChars {
		return content
	}

	half := maxChars / 2
	head := half
	for head > 0 && !utf8.RuneStart(content[head]) {
		head--
	}
	tail := len(content) - half
	for tail < len(content) && !utf8.RuneStart(content[tail]) {
		tail++
	}
	return content[:head] + TruncationMarker + content[tail:]
}

func fileBlocks(blocks []chunker.FileBlock) []chunker.FileBlock {
	files := blocks[:0]
	for _, b := range blocks {
		if b.Kind == chunker.KindFile {
			files = append(files, b)
		}
	}
	return files
}

func recordsFromBlocks(blocks []chunker.FileBlock) []types.FileRecord {
	records := make([]types.FileRecord, 0, len(blocks))
	for _, b := range blocks {
		records = append(records, types.FileRecord{
			Path:     b.Path,
			Size:     int64(len(b.Body)),
			Language: types.LanguageForPath(b.Path),
		})
	}
	return records
}

func languageOf(f types.FileRecord) string {
	if f.Language != "" {
		return f.Language
	}
	return types.LanguageForPath(f.Path)
}

// languageBreakdown returns each language's share of the files that have one
func languageBreakdown(files []types.FileRecord) map[string]float64 {
	counts := make(map[string]int)
	total := 0
	for _, f := range files {
		if lang := languageOf(f); lang != "" {
			counts[lang]++
			total++
		}
	}

	breakdown := make(map[string]float64, len(counts))
	for lang, n := range counts {
		breakdown[lang] = float64(n) / float64(total)
	}
	return breakdown
}

func fileTree(files []types.FileRecord) []types.FileInfo {
	tree := make([]types.FileInfo, 0, len(files))
	for _, f := range files {
		tree = append(tree, types.FileInfo{
			Path:            f.Path,
			Size:            f.Size,
			Language:        languageOf(f),
			ImportanceScore: f.ImportanceOr(types.DefaultImportance),
		})
	}
	return tree
}

func entryPoints(files []types.FileRecord) []string {
	entries := []string{}
	for _, f := range files {
		if f.ImportanceOr(0) >= EntryPointImportance {
			entries = append(entries, f.Path)
		}
	}
	sort.Strings(entries)
	return entries
}

func staticSummary(r *types.AnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d files", r.TotalFiles)
	if len(r.Architecture) > 0 {
		fmt.Fprintf(&b, " across %d components", len(r.Architecture))
	}
	if langs := r.Languages(); len(langs) > 0 {
		fmt.Fprintf(&b, ", primarily %s", langs[0])
	}
	b.WriteString(".")
	if len(r.EntryPoints) > 0 {
		fmt.Fprintf(&b, " Entry points: %s.", strings.Join(r.EntryPoints, ", "))
	}
	return b.String()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
