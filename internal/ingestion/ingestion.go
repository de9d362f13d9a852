package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/docgen-mcp/internal/chunker"
	"github.com/dshills/docgen-mcp/internal/tokens"
	"github.com/dshills/docgen-mcp/pkg/types"
)

// DefaultMaxFileSize skips files larger than 10 MiB
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

var (
	// ErrInvalidPattern is returned for malformed include or exclude globs
	ErrInvalidPattern = errors.New("invalid glob pattern")
	// ErrInProgress is returned when the source is already being ingested
	ErrInProgress = errors.New("ingestion already in progress")
)

// Options controls a single ingestion
type Options struct {
	IncludePatterns []string
	ExcludePatterns []string
	MaxFileSize     int64  // default: DefaultMaxFileSize
	Token           string // auth token for private remotes; falls back to the engine token
	Workers         int    // concurrent file reads (default: runtime.NumCPU())
}

// Result is the combined view of an ingested codebase
type Result struct {
	Source       string             `json:"source"`
	Root         string             `json:"root"`
	Tree         string             `json:"tree"`
	Content      string             `json:"content"`
	Files        []types.FileRecord `json:"files"`
	FileCount    int                `json:"file_count"`
	SkippedFiles int                `json:"skipped_files"`
	TotalSize    int64              `json:"total_size"`
	TotalTokens  int                `json:"total_tokens"`
	Digest       string             `json:"digest"`
	Duration     time.Duration      `json:"duration"`
}

// Engine acquires a codebase and flattens it into the combined format read
// by the chunker
type Engine struct {
	estimator tokens.Estimator
	cloner    Cloner
	token     string
	locks     *SourceLocks
	logger    zerolog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithEstimator sets the estimator used for TotalTokens
func WithEstimator(e tokens.Estimator) Option {
	return func(en *Engine) { en.estimator = e }
}

// WithCloner replaces the git cloner
func WithCloner(c Cloner) Option {
	return func(en *Engine) { en.cloner = c }
}

// WithToken sets the default auth token for remote sources
func WithToken(token string) Option {
	return func(en *Engine) { en.token = token }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(en *Engine) { en.logger = l }
}

// New creates an Engine
func New(opts ...Option) *Engine {
	en := &Engine{
		estimator: tokens.NewCharEstimator(),
		cloner:    GitCloner{},
		locks:     NewSourceLocks(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(en)
	}
	return en
}

// Ingest reads source, a local directory or remote git URL, into a Result
func (en *Engine) Ingest(ctx context.Context, source string, opts Options) (*Result, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, types.ErrEmptySource
	}

	if !en.locks.TryAcquire(source) {
		return nil, fmt.Errorf("%w: %s", ErrInProgress, source)
	}
	defer en.locks.Release(source)

	start := time.Now()
	root, rootName, cleanup, err := en.acquire(ctx, source, opts)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	result, err := en.ingestDir(ctx, root, rootName, opts)
	if err != nil {
		return nil, err
	}
	result.Source = source
	result.Duration = time.Since(start)

	en.logger.Info().
		Str("source", source).
		Int("files", result.FileCount).
		Int("skipped", result.SkippedFiles).
		Int("tokens", result.TotalTokens).
		Dur("duration", result.Duration).
		Msg("ingested")
	return result, nil
}

// acquire returns a readable root directory for source and a cleanup func
func (en *Engine) acquire(ctx context.Context, source string, opts Options) (string, string, func(), error) {
	if !IsRemote(source) {
		root, err := resolveLocal(source)
		if err != nil {
			return "", "", nil, err
		}
		return root, filepath.Base(root), func() {}, nil
	}

	dir, err := os.MkdirTemp("", "docgen-clone-*")
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to create clone dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	token := opts.Token
	if token == "" {
		token = en.token
	}

	url := CloneURL(source)
	en.logger.Debug().Str("url", url).Str("dir", dir).Msg("cloning")
	if err := en.cloner.Clone(ctx, url, dir, token); err != nil {
		cleanup()
		return "", "", nil, err
	}

	return dir, repoName(url), cleanup, nil
}

// repoName extracts the repository name from a clone URL
func repoName(url string) string {
	name := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "repo"
	}
	return name
}

type readResult struct {
	body string
	text bool
}

func (en *Engine) ingestDir(ctx context.Context, root, rootName string, opts Options) (*Result, error) {
	f, err := newFilter(opts.IncludePatterns, opts.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	candidates, skipped, err := discover(root, f, maxSize)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	reads := make([]readResult, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			body, text, err := readText(c.abs)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", c.rel, err)
			}
			reads[i] = readResult{body: body, text: text}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Root: root, SkippedFiles: skipped}
	var content strings.Builder
	var paths []string

	for i, c := range candidates {
		if !reads[i].text {
			result.SkippedFiles++
			continue
		}

		content.WriteString(chunker.FormatBlock(chunker.KindFile, c.rel, reads[i].body))
		content.WriteString("\n\n")

		paths = append(paths, c.rel)
		result.TotalSize += c.size
		result.Files = append(result.Files, types.FileRecord{
			Path:       c.rel,
			Size:       c.size,
			Language:   types.LanguageForPath(c.rel),
			Importance: types.Score(Importance(c.rel)),
		})
	}

	result.Content = content.String()
	result.FileCount = len(result.Files)
	result.Tree = renderTree(rootName, paths)
	result.Digest = Digest(result.Content)
	result.TotalTokens = en.countTokens(result.Content)

	return result, nil
}

func (en *Engine) countTokens(text string) int {
	n, err := en.estimator.Estimate(text)
	if err != nil {
		return tokens.Fallback(text, tokens.DefaultCharsPerToken)
	}
	return n
}

// Digest returns the hex SHA-256 of combined content
func Digest(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}
