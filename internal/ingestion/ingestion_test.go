package ingestion

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

	"github.com/dshills/docgen-mcp/internal/chunker"
	"github.com/dshills/docgen-mcp/pkg/types"
)

// writeTree creates files under a fresh temp dir
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return root
}

// fakeCloner writes a fixed tree instead of touching the network
type fakeCloner struct {
	mu     sync.Mutex
	files  map[string]string
	err    error
	urls   []string
	tokens []string
}

func (f *fakeCloner) Clone(ctx context.Context, url, dir, token string) error {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	for rel, body := range f.files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func paths(result *Result) []string {
	out := make([]string, len(result.Files))
	for i, f := range result.Files {
		out[i] = f.Path
	}
	return out
}

func TestIngest_LocalDirectory(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.py":           "print('hi')\n",
		"pkg/models.py":     "class User: pass\n",
		"README.md":         "# Demo\n",
		".git/config":       "[core]\n",
		"node_modules/x.js": "module.exports = 1\n",
		"package-lock.json": "{}\n",
	})

	result, err := New().Ingest(context.Background(), root, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"README.md", "main.py", "pkg/models.py"}, paths(result))
	assert.Equal(t, 3, result.FileCount)
	assert.Equal(t, root, result.Root)
	assert.Equal(t, root, result.Source)
	assert.Equal(t, 1, result.SkippedFiles, "lock file is excluded by default")
	assert.Greater(t, result.TotalTokens, 0)
	assert.Len(t, result.Digest, 64)
	assert.Equal(t, Digest(result.Content), result.Digest)

	byPath := types.FileRecordIndex(result.Files)
	assert.Equal(t, "python", byPath["main.py"].Language)
	assert.Equal(t, 100.0, byPath["main.py"].ImportanceOr(0))
	assert.Equal(t, int64(len("print('hi')\n")), byPath["main.py"].Size)
}

func TestIngest_ContentRoundTripsThroughSplit(t *testing.T) {
	files := map[string]string{
		"a.py":     "import b\n",
		"b.py":     "x = 1\n",
		"src/c.ts": "export const c = 1\n",
	}
	root := writeTree(t, files)

	result, err := New().Ingest(context.Background(), root, Options{})
	require.NoError(t, err)

	blocks := chunker.SplitFiles(result.Content)
	require.Len(t, blocks, 3)
	for _, b := range blocks {
		assert.Equal(t, chunker.KindFile, b.Kind)
		assert.Equal(t, strings.TrimRight(files[b.Path], "\n"), strings.TrimRight(b.Body, "\n"))
	}
}

func TestIngest_Filters(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app/main.py":     "pass\n",
		"app/util.py":     "pass\n",
		"app/web/page.ts": "export {}\n",
		"docs/guide.md":   "# Guide\n",
	})

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"base name include", Options{IncludePatterns: []string{"*.py"}}, []string{"app/main.py", "app/util.py"}},
		{"path include", Options{IncludePatterns: []string{"app/web/**"}}, []string{"app/web/page.ts"}},
		{"exclude dir", Options{ExcludePatterns: []string{"docs/**"}}, []string{"app/main.py", "app/util.py", "app/web/page.ts"}},
		{"exclude wins", Options{IncludePatterns: []string{"*.py"}, ExcludePatterns: []string{"**/util.py"}}, []string{"app/main.py"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := New().Ingest(context.Background(), root, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, paths(result))
		})
	}
}

func TestIngest_InvalidPattern(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": "pass\n"})

	_, err := New().Ingest(context.Background(), root, Options{IncludePatterns: []string{"[abc"}})
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestIngest_SkipsBinaryAndOversized(t *testing.T) {
	root := writeTree(t, map[string]string{
		"ok.py":     "pass\n",
		"image.bin": "PNG\x00\x01\x02",
		"big.txt":   strings.Repeat("x", 2048),
	})

	result, err := New().Ingest(context.Background(), root, Options{MaxFileSize: 1024})
	require.NoError(t, err)

	assert.Equal(t, []string{"ok.py"}, paths(result))
	assert.Equal(t, 2, result.SkippedFiles)
	assert.NotContains(t, result.Content, "image.bin")
}

func TestIngest_Errors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := New().Ingest(context.Background(), "  ", Options{})
	assert.ErrorIs(t, err, types.ErrEmptySource)

	_, err = New().Ingest(context.Background(), filepath.Join(dir, "missing"), Options{})
	assert.ErrorIs(t, err, ErrSourceNotFound)

	_, err = New().Ingest(context.Background(), file, Options{})
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestIngest_EmptyDirectory(t *testing.T) {
	result, err := New().Ingest(context.Background(), t.TempDir(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 0, result.FileCount)
	assert.Empty(t, result.Content)
	assert.Empty(t, chunker.SplitFiles(result.Content))
}

func TestIngest_RemoteUsesCloner(t *testing.T) {
	cloner := &fakeCloner{files: map[string]string{"main.go": "package main\n", "go.mod": "module x\n"}}
	engine := New(WithCloner(cloner), WithToken("engine-token"))

	result, err := engine.Ingest(context.Background(), "github.com/acme/widget", Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://github.com/acme/widget"}, cloner.urls)
	assert.Equal(t, []string{"engine-token"}, cloner.tokens)
	assert.Equal(t, []string{"go.mod", "main.go"}, paths(result))
	assert.Contains(t, result.Tree, "└── widget/")
	assert.Equal(t, "github.com/acme/widget", result.Source)

	_, statErr := os.Stat(result.Root)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "clone dir must be removed")
}

func TestIngest_RemoteOptionTokenOverridesEngine(t *testing.T) {
	cloner := &fakeCloner{files: map[string]string{"a.py": "pass\n"}}
	engine := New(WithCloner(cloner), WithToken("engine-token"))

	_, err := engine.Ingest(context.Background(), "https://github.com/acme/widget.git", Options{Token: "call-token"})
	require.NoError(t, err)
	assert.Equal(t, []string{"call-token"}, cloner.tokens)
}

func TestIngest_RemoteCloneFailure(t *testing.T) {
	cloner := &fakeCloner{err: ErrCloneFailed}

	_, err := New(WithCloner(cloner)).Ingest(context.Background(), "https://example.com/x.git", Options{})
	assert.ErrorIs(t, err, ErrCloneFailed)
}

func TestIngest_ConcurrentSameSource(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": "pass\n"})
	engine := New()

	require.True(t, engine.locks.TryAcquire(root))
	_, err := engine.Ingest(context.Background(), root, Options{})
	assert.ErrorIs(t, err, ErrInProgress)

	engine.locks.Release(root)
	_, err = engine.Ingest(context.Background(), root, Options{})
	assert.NoError(t, err)
}

func TestIngest_CanceledContext(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": "pass\n", "b.py": "pass\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Ingest(ctx, root, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRemoteAndCloneURL(t *testing.T) {
	tests := []struct {
		source string
		remote bool
		url    string
	}{
		{"https://github.com/a/b", true, "https://github.com/a/b"},
		{"http://host/a.git", true, "http://host/a.git"},
		{"git@github.com:a/b.git", true, "git@github.com:a/b.git"},
		{"ssh://git@host/a", true, "ssh://git@host/a"},
		{"github.com/a/b", true, "https://github.com/a/b"},
		{"gitlab.com/a/b", true, "https://gitlab.com/a/b"},
		{"./local/dir", false, "./local/dir"},
		{"/abs/path", false, "/abs/path"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.remote, IsRemote(tt.source), tt.source)
		assert.Equal(t, tt.url, CloneURL(tt.source), tt.source)
	}
}

func TestRepoName(t *testing.T) {
	assert.Equal(t, "widget", repoName("https://github.com/acme/widget.git"))
	assert.Equal(t, "widget", repoName("git@github.com:acme/widget.git"))
	assert.Equal(t, "widget", repoName("https://github.com/acme/widget/"))
}

func TestImportance(t *testing.T) {
	tests := []struct {
		path string
		want float64
	}{
		{"main.py", 100},
		{"src/app/main.go", 100},
		{"server.py", 95},
		{"package.json", 90},
		{"README.md", 80},
		{"app/models/user.py", 85},
		{"app/api/routes.py", 80},
		{"pkg/services/billing.rb", 75},
		{"lib/utils/strings.rb", 60},
		{"tests/helpers.rb", 50},
		{"lib/thing.py", 70},
		{"web/app.js", 65},
		{"notes/todo.txt", 30},
		{"assets/logo.svg", 50},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Importance(tt.path), tt.path)
	}
}

func TestRenderTree(t *testing.T) {
	tree := renderTree("demo", []string{"README.md", "src/main.py", "src/pkg/a.py", "z.txt"})

	want := "Directory structure:\n" +
		"└── demo/\n" +
		"    ├── src/\n" +
		"    │   ├── pkg/\n" +
		"    │   │   └── a.py\n" +
		"    │   └── main.py\n" +
		"    ├── README.md\n" +
		"    └── z.txt\n"
	assert.Equal(t, want, tree)
}

func TestSourceLocks(t *testing.T) {
	locks := NewSourceLocks()

	assert.True(t, locks.TryAcquire("a"))
	assert.False(t, locks.TryAcquire("a"))
	assert.True(t, locks.TryAcquire("b"), "locks are per source")

	locks.Release("a")
	assert.True(t, locks.TryAcquire("a"))

	locks.Release("missing")
}
