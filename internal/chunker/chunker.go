package chunker

import (
	"path"
	"sort"

	"github.com/rs/zerolog"

	"github.com/dshills/docgen-mcp/internal/tokens"
	"github.com/dshills/docgen-mcp/pkg/types"
)

const (
	// DefaultMaxTokens is the per-chunk budget used when none is given
	DefaultMaxTokens = 100000

	// DefaultOverlapTokens is the overlap used by DefaultConfig
	DefaultOverlapTokens = 500
)

// Config holds the parameters of one chunking invocation
type Config struct {
	Source          string
	MaxTokens       int
	OverlapTokens   int
	PreserveContext bool
}

// DefaultConfig returns the standard budget with context preservation on
func DefaultConfig() Config {
	return Config{
		MaxTokens:       DefaultMaxTokens,
		OverlapTokens:   DefaultOverlapTokens,
		PreserveContext: true,
	}
}

func (c Config) normalized() Config {
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.OverlapTokens < 0 {
		c.OverlapTokens = 0
	}
	return c
}

// Chunker partitions combined codebase content into token-bounded chunks.
// A Chunker holds only immutable configuration and is safe for concurrent use.
type Chunker struct {
	estimator   tokens.Estimator
	dirWeights  map[string]int
	fileWeights map[string]float64
	logger      zerolog.Logger
}

// Option configures a Chunker
type Option func(*Chunker)

// WithEstimator sets the token estimator
func WithEstimator(e tokens.Estimator) Option {
	return func(c *Chunker) {
		if e != nil {
			c.estimator = e
		}
	}
}

// WithDirectoryWeights replaces the directory importance table
func WithDirectoryWeights(w map[string]int) Option {
	return func(c *Chunker) {
		c.dirWeights = copyMap(w)
	}
}

// WithFileWeights replaces the fallback filename importance table
func WithFileWeights(w map[string]float64) Option {
	return func(c *Chunker) {
		c.fileWeights = copyMap(w)
	}
}

// WithLogger sets the trace logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *Chunker) {
		c.logger = l
	}
}

// New creates a Chunker. Without options it estimates with chars/4.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		estimator:   tokens.NewCharEstimator(),
		dirWeights:  DefaultDirectoryWeights(),
		fileWeights: DefaultFileWeights(),
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk splits content into file blocks and packs them with the given
// strategy. It never fails: malformed or empty content yields an empty
// result, and an unknown strategy is treated as hybrid.
func (c *Chunker) Chunk(content string, files []types.FileRecord, strategy types.ChunkStrategy, cfg Config) *types.ChunkResult {
	cfg = cfg.normalized()
	if !strategy.Valid() {
		strategy = types.StrategyHybrid
	}

	r := &run{
		blocks:  newBlockSet(SplitFiles(content)),
		records: types.FileRecordIndex(files),
		cfg:     cfg,
	}

	c.logger.Info().
		Str("strategy", string(strategy)).
		Int("files", len(r.blocks.blocks)).
		Int("max_tokens", cfg.MaxTokens).
		Msg("chunking")

	var chunks []*types.Chunk
	switch strategy {
	case types.StrategyFile:
		chunks = c.chunkByFile(r)
	case types.StrategyDirectory:
		chunks = c.chunkByDirectory(r)
	case types.StrategySemantic:
		chunks = c.chunkSemantic(r)
	default:
		chunks = c.chunkHybrid(r)
	}

	for _, chunk := range chunks {
		chunk.PrimaryLanguage = primaryLanguage(chunk.Files, r.records)
	}

	result := assemble(cfg, strategy, chunks)
	c.logger.Info().
		Int("chunks", result.TotalChunks).
		Int("tokens", result.TotalTokens).
		Msg("chunking complete")
	return result
}

// assemble derives the token distribution and packages the result
func assemble(cfg Config, strategy types.ChunkStrategy, chunks []*types.Chunk) *types.ChunkResult {
	dist := make(map[int]int, len(chunks))
	total := 0
	for _, chunk := range chunks {
		dist[chunk.ID] = chunk.TokenCount
		total += chunk.TokenCount
	}

	return &types.ChunkResult{
		Source:            cfg.Source,
		Strategy:          strategy,
		Chunks:            chunks,
		TotalChunks:       len(chunks),
		TotalTokens:       total,
		TokenDistribution: dist,
		MaxTokensPerChunk: cfg.MaxTokens,
		OverlapTokens:     cfg.OverlapTokens,
	}
}

// estimate calls the injected estimator, recovering any error or panic with
// the fixed character ratio
func (c *Chunker) estimate(text string) (n int) {
	defer func() {
		if r := recover(); r != nil {
			n = tokens.Fallback(text, tokens.DefaultCharsPerToken)
		}
	}()

	n, err := c.estimator.Estimate(text)
	if err != nil || n < 0 {
		return tokens.Fallback(text, tokens.DefaultCharsPerToken)
	}
	return n
}

// primaryLanguage returns the most common language among files, ties broken
// alphabetically. Metadata wins over the extension map.
func primaryLanguage(files []string, records map[string]types.FileRecord) string {
	counts := make(map[string]int)
	for _, f := range files {
		lang := ""
		if rec, ok := records[f]; ok {
			lang = rec.Language
		}
		if lang == "" {
			lang = types.LanguageForPath(path.Base(f))
		}
		if lang != "" {
			counts[lang]++
		}
	}

	langs := make([]string, 0, len(counts))
	for l := range counts {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool {
		if counts[langs[i]] != counts[langs[j]] {
			return counts[langs[i]] > counts[langs[j]]
		}
		return langs[i] < langs[j]
	})

	if len(langs) == 0 {
		return ""
	}
	return langs[0]
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
