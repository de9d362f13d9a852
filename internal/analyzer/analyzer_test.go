package analyzer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docgen-mcp/internal/chunker"
	"github.com/dshills/docgen-mcp/internal/llm"
	"github.com/dshills/docgen-mcp/pkg/types"
)

// fakeClient answers by matching the request's system prompt
type fakeClient struct {
	mu       sync.Mutex
	replies  map[string]string
	errs     map[string]error
	requests []llm.Request
}

func (f *fakeClient) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for key, err := range f.errs {
		if strings.Contains(req.System, key) {
			return nil, err
		}
	}
	for key, reply := range f.replies {
		if strings.Contains(req.System, key) {
			return &llm.Response{Content: reply}, nil
		}
	}
	return &llm.Response{Content: "{}"}, nil
}

func (f *fakeClient) Provider() string { return "fake" }
func (f *fakeClient) Model() string    { return "fake-1" }
func (f *fakeClient) Close() error     { return nil }

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func combine(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(chunker.FormatBlock(chunker.KindFile, pairs[i], pairs[i+1]))
		b.WriteString("\n\n")
	}
	return b.String()
}

var sampleRepo = combine(
	"go.mod", "module example.com/shop\n\ngo 1.22\n\nrequire (\n\tgithub.com/rs/zerolog v1.34.0\n\tgolang.org/x/sync v0.17.0 // indirect\n)\n",
	"cmd/shop/main.go", "package main\n\nimport (\n\t\"net/http\"\n\n\t\"example.com/shop/internal/orders\"\n)\n\nfunc main() {\n\tmux := http.NewServeMux()\n\tmux.HandleFunc(\"GET /orders\", orders.List)\n\thttp.ListenAndServe(\":8080\", mux)\n}\n",
	"internal/orders/orders.go", "package orders\n\nimport \"net/http\"\n\ntype OrderRepository interface {\n\tFind(id string) error\n}\n\ntype OrderService struct{}\n\nfunc List(w http.ResponseWriter, r *http.Request) {}\n",
	"internal/orders/model.go", "package orders\n\ntype Order struct {\n\tID    string\n\tTotal int\n}\n",
)

func sampleFiles() []types.FileRecord {
	return []types.FileRecord{
		{Path: "go.mod", Size: 90, Language: "", Importance: types.Score(90)},
		{Path: "cmd/shop/main.go", Size: 200, Language: "go", Importance: types.Score(100)},
		{Path: "internal/orders/orders.go", Size: 150, Language: "go"},
		{Path: "internal/orders/model.go", Size: 60, Language: "go", Importance: types.Score(85)},
	}
}

func TestAnalyze_StaticOnly(t *testing.T) {
	a := New()
	assert.False(t, a.HasClient())

	result, err := a.Analyze(context.Background(), sampleRepo, sampleFiles(), types.DepthDeep, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalFiles)
	assert.Equal(t, types.DepthDeep, result.AnalysisDepth)
	assert.Equal(t, map[string]float64{"go": 1}, result.LanguageBreakdown)
	assert.Equal(t, []string{"cmd/shop/main.go"}, result.EntryPoints)
	assert.Positive(t, result.TotalTokens)

	names := make([]string, 0, len(result.Architecture))
	for _, c := range result.Architecture {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"cmd", "internal/orders", "root"}, names)
	assert.Equal(t, []string{"internal/orders"}, result.Architecture[0].Dependencies)
	assert.Equal(t, "entrypoint", result.Architecture[0].CompType)

	require.Len(t, result.Dependencies, 2)
	assert.Equal(t, types.Dependency{Name: "github.com/rs/zerolog", Version: "v1.34.0", DepType: DepRuntime, Source: "go.mod"}, result.Dependencies[0])
	assert.Equal(t, DepIndirect, result.Dependencies[1].DepType)

	require.Len(t, result.APISurface, 1)
	assert.Equal(t, "GET", result.APISurface[0].Method)
	assert.Equal(t, "/orders", result.APISurface[0].Path)
	assert.Equal(t, "orders.List", result.APISurface[0].Handler)

	patterns := make(map[string]bool)
	for _, p := range result.Patterns {
		patterns[p.Name] = true
	}
	assert.True(t, patterns["Repository"], "patterns: %v", result.Patterns)
	assert.True(t, patterns["Service"], "patterns: %v", result.Patterns)

	assert.Equal(t, "4 files across 3 components, primarily go. Entry points: cmd/shop/main.go.", result.Summary)
}

func TestAnalyze_FileTreeDefaultsImportance(t *testing.T) {
	result, err := New().Analyze(context.Background(), sampleRepo, sampleFiles(), types.DepthShallow, nil)
	require.NoError(t, err)

	require.Len(t, result.FileTree, 4)
	assert.Equal(t, 90.0, result.FileTree[0].ImportanceScore)
	assert.Equal(t, types.DefaultImportance, result.FileTree[2].ImportanceScore)
	assert.Equal(t, "go", result.FileTree[2].Language)
}

func TestAnalyze_DepthSelectsPasses(t *testing.T) {
	tests := []struct {
		depth        types.AnalysisDepth
		wantPatterns bool
		wantAPI      bool
	}{
		{types.DepthShallow, false, false},
		{types.DepthMedium, true, false},
		{types.DepthDeep, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.depth), func(t *testing.T) {
			client := &fakeClient{}
			result, err := New(WithClient(client)).Analyze(context.Background(), sampleRepo, sampleFiles(), tt.depth, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.wantPatterns, len(result.Patterns) > 0)
			assert.Equal(t, tt.wantAPI, len(result.APISurface) > 0)

			want := 2
			if tt.wantPatterns {
				want++
			}
			if tt.wantAPI {
				want++
			}
			assert.Equal(t, want, client.calls())
		})
	}
}

func TestAnalyze_FocusLimitsSections(t *testing.T) {
	result, err := New().Analyze(context.Background(), sampleRepo, sampleFiles(), types.DepthDeep, []string{"Dependencies"})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Dependencies)
	assert.Empty(t, result.Architecture)
	assert.Empty(t, result.APISurface)
	assert.Empty(t, result.Patterns)
	assert.NotNil(t, result.Architecture)
}

func TestAnalyze_UsesModelResults(t *testing.T) {
	client := &fakeClient{replies: map[string]string{
		"architect": "```json\n" + `{"architecture_pattern": "layered", "data_flow": "HTTP to service to store.",
			"components": ["cmd", {"name": "orders", "type": "service", "files": [{"path": "internal/orders/orders.go"}], "description": {"role": "domain"}}]}` + "\n```",
		"dependency": `{"runtime_deps": ["zerolog", {"name": "x/sync", "version": "0.17.0"}], "dev_deps": [{"name": "testify"}]}`,
		"patterns":   `[{"name": "Repository", "confidence": 1.7, "locations": ["orders.go"]}, {"name": "Service"}]`,
		"API":        `{"http_endpoints": [{"path": "/orders", "method": "post"}, {}]}`,
	}}

	result, err := New(WithClient(client)).Analyze(context.Background(), sampleRepo, sampleFiles(), types.DepthDeep, nil)
	require.NoError(t, err)

	assert.Equal(t, "Architecture: layered. HTTP to service to store.", result.Summary)
	require.Len(t, result.Architecture, 2)
	assert.Equal(t, types.Component{Name: "cmd", CompType: "module"}, result.Architecture[0])
	assert.Equal(t, "service", result.Architecture[1].CompType)
	assert.Equal(t, []string{"internal/orders/orders.go"}, result.Architecture[1].Files)
	assert.Equal(t, `{"role": "domain"}`, result.Architecture[1].Description)

	assert.Equal(t, []types.Dependency{
		{Name: "zerolog", DepType: DepRuntime},
		{Name: "x/sync", Version: "0.17.0", DepType: DepRuntime},
		{Name: "testify", DepType: DepDev},
	}, result.Dependencies)

	require.Len(t, result.Patterns, 2)
	assert.Equal(t, 1.0, result.Patterns[0].Confidence)
	assert.Equal(t, 0.5, result.Patterns[1].Confidence)

	assert.Equal(t, []types.APIEndpoint{
		{Path: "/orders", Method: "POST"},
		{Path: "/", Method: "GET"},
	}, result.APISurface)
}

func TestAnalyze_TaskTemperatures(t *testing.T) {
	client := &fakeClient{}
	_, err := New(WithClient(client)).Analyze(context.Background(), sampleRepo, sampleFiles(), types.DepthDeep, nil)
	require.NoError(t, err)

	temps := make(map[string]float64)
	for _, req := range client.requests {
		temps[req.System] = req.Temperature
		assert.Contains(t, req.Prompt, "internal/orders/orders.go")
	}
	assert.Equal(t, map[string]float64{
		"You are an expert software architect. Analyze code and output valid JSON only.": 0.3,
		"You are a dependency analyst. Output valid JSON only.":                           0.2,
		"You are a design patterns expert. Output valid JSON only.":                       0.3,
		"You are an API documentation expert. Output valid JSON only.":                    0.2,
	}, temps)
}

func TestAnalyze_FailedTaskFallsBackToStatic(t *testing.T) {
	client := &fakeClient{
		replies: map[string]string{"dependency": "not json at all"},
		errs:    map[string]error{"architect": errors.New("boom")},
	}

	result, err := New(WithClient(client)).Analyze(context.Background(), sampleRepo, sampleFiles(), types.DepthShallow, nil)
	require.NoError(t, err)

	assert.Len(t, result.Architecture, 3)
	require.Len(t, result.Dependencies, 2)
	assert.Equal(t, "go.mod", result.Dependencies[0].Source)
	assert.True(t, strings.HasPrefix(result.Summary, "4 files"))
}

func TestAnalyze_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(WithClient(&fakeClient{})).Analyze(ctx, sampleRepo, sampleFiles(), types.DepthDeep, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_DerivesRecordsFromContent(t *testing.T) {
	content := combine("app.py", "print(1)\n", "web/index.ts", "export {}\n", "notes.txt", "hi\n") +
		chunker.FormatBlock(chunker.KindDirectory, "web", "index.ts")

	result, err := New().Analyze(context.Background(), content, nil, types.DepthShallow, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalFiles)
	assert.InDelta(t, 0.5, result.LanguageBreakdown["python"], 1e-9)
	assert.InDelta(t, 0.5, result.LanguageBreakdown["typescript"], 1e-9)
	assert.Empty(t, result.EntryPoints)
}

func TestAnalyze_EmptyContent(t *testing.T) {
	result, err := New().Analyze(context.Background(), "", nil, types.DepthDeep, nil)
	require.NoError(t, err)

	assert.Equal(t, "0 files.", result.Summary)
	assert.Empty(t, result.FileTree)
	assert.NotNil(t, result.EntryPoints)
	assert.Empty(t, result.LanguageBreakdown)
}

func TestAnalyze_TruncatesModelInput(t *testing.T) {
	client := &fakeClient{}
	big := combine("big.py", strings.Repeat("x = 1\n", 1000))

	_, err := New(WithClient(client), WithMaxContentChars(500)).Analyze(context.Background(), big, nil, types.DepthShallow, nil)
	require.NoError(t, err)

	for _, req := range client.requests {
		assert.Contains(t, req.Prompt, "[... content truncated ...]")
		assert.Less(t, len(req.Prompt), 3000)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "anything", Truncate("anything", 0))

	out := Truncate(strings.Repeat("a", 50)+strings.Repeat("b", 50), 20)
	assert.Equal(t, strings.Repeat("a", 10)+TruncationMarker+strings.Repeat("b", 10), out)
}

func TestTruncate_RuneBoundaries(t *testing.T) {
	s := strings.Repeat("é", 20)

	out := Truncate(s, 11)
	head, tail, found := strings.Cut(out, TruncationMarker)
	require.True(t, found)
	assert.Equal(t, strings.Repeat("é", 2), head)
	assert.Equal(t, strings.Repeat("é", 2), tail)
}
