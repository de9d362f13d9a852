package readme

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docgen-mcp/internal/llm"
	"github.com/dshills/docgen-mcp/pkg/types"
)

type fakeClient struct {
	reply    string
	err      error
	requests []llm.Request
}

func (f *fakeClient) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.requests = append(f.requests, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.reply}, nil
}

func (f *fakeClient) Provider() string { return "fake" }
func (f *fakeClient) Model() string    { return "fake-1" }
func (f *fakeClient) Close() error     { return nil }

func goAnalysis() *types.AnalysisResult {
	return &types.AnalysisResult{
		Source:            "https://github.com/acme/shop.git",
		Summary:           "An order management service.",
		LanguageBreakdown: map[string]float64{"go": 0.8, "python": 0.2},
		Architecture: []types.Component{
			{Name: "cmd", CompType: "entrypoint", Description: "2 files, mostly go"},
			{Name: "internal/orders", CompType: "module"},
		},
		Dependencies: []types.Dependency{
			{Name: "github.com/mark3labs/mcp-go", Version: "v0.43.0", DepType: "runtime", Source: "go.mod"},
			{Name: "github.com/spf13/cobra", DepType: "runtime", Source: "go.mod"},
		},
		Patterns:    []types.PatternMatch{{Name: "Repository", Confidence: 0.6}},
		APISurface:  []types.APIEndpoint{{Method: "GET", Path: "/orders", Handler: "orders.List"}},
		EntryPoints: []string{"cmd/shop/main.go"},
		TotalFiles:  10,
	}
}

func TestGenerate_AllSections(t *testing.T) {
	result, err := New().Generate(context.Background(), goAnalysis(), Options{})
	require.NoError(t, err)

	require.Len(t, result.Sections, 13)
	for i, s := range result.Sections {
		assert.Equal(t, types.AllSections[i], s.SectionType)
		assert.Equal(t, i, s.Order)
	}

	assert.Equal(t, types.ToneProfessional, result.Tone)
	assert.Equal(t, "https://github.com/acme/shop.git", result.Source)
	assert.Equal(t, []string{"Cobra", "Go", "MCP", "Python"}, result.DetectedTechStack)
	assert.False(t, result.HasDiagrams)

	md := result.Markdown
	assert.True(t, strings.HasPrefix(md, "# shop\n"), md)
	assert.Contains(t, md, "![Go](https://img.shields.io/badge/Go-00ADD8")
	assert.Contains(t, md, "## Overview\nAn order management service.\n\nPrimary language: **Go**")
	assert.Contains(t, md, "Files: 10")
	assert.Contains(t, md, "- **cmd**: 2 files, mostly go")
	assert.Contains(t, md, "- **internal/orders**: Core component")
	assert.Contains(t, md, "- Repository pattern implementation")
	assert.Contains(t, md, "- REST API with 1 endpoints")
	assert.Contains(t, md, "pip install -e .", "python in the stack wins the installer choice")
	assert.Contains(t, md, "go run ./cmd/shop")
	assert.Contains(t, md, `curl -X GET "http://localhost:8000/orders"`)
	assert.Contains(t, md, "| cmd | entrypoint | 2 files, mostly go |")
	assert.Contains(t, md, "| GET | `/orders` | Handled by `orders.List` |")
	assert.Contains(t, md, "- Go 1.22+")
	assert.Contains(t, md, "## Contributing\nContributions are welcome!")
	assert.True(t, strings.HasSuffix(md, "MIT License - see [LICENSE](LICENSE) for details."))
	assert.Positive(t, result.WordCount)
}

func TestGenerate_SubsetUsesFixedOrder(t *testing.T) {
	result, err := New().Generate(context.Background(), goAnalysis(), Options{
		Sections: []types.ReadmeSection{types.SectionLicense, types.SectionTitle, types.SectionLicense},
		Tone:     types.ToneCasual,
	})
	require.NoError(t, err)

	require.Len(t, result.Sections, 2)
	assert.Equal(t, types.SectionTitle, result.Sections[0].SectionType)
	assert.Equal(t, 0, result.Sections[0].Order)
	assert.Equal(t, 12, result.Sections[1].Order)
	assert.Equal(t, "# shop\n\n## License\nMIT License - see [LICENSE](LICENSE) for details.", result.Markdown)
	assert.Equal(t, types.ToneCasual, result.Tone)
}

func TestGenerate_UnknownSection(t *testing.T) {
	_, err := New().Generate(context.Background(), goAnalysis(), Options{Sections: []types.ReadmeSection{"changelog"}})
	assert.ErrorIs(t, err, types.ErrUnknownSection)
}

func TestGenerate_EmptyAnalysis(t *testing.T) {
	result, err := New().Generate(context.Background(), nil, Options{})
	require.NoError(t, err)

	assert.Empty(t, result.DetectedTechStack)
	assert.NotNil(t, result.DetectedTechStack)
	for _, s := range result.Sections {
		assert.NotEqual(t, types.SectionBadges, s.SectionType, "badges omitted without a known stack")
	}
	md := result.Markdown
	assert.True(t, strings.HasPrefix(md, "# Project\n"))
	assert.Contains(t, md, "A Project project.")
	assert.Contains(t, md, "- Core functionality\n- Extensible architecture")
	assert.Contains(t, md, "See documentation for usage examples.")
	assert.Contains(t, md, "See codebase for architecture details.")
	assert.Contains(t, md, "No API endpoints detected.")
	assert.Contains(t, md, "# See project documentation for testing instructions")
}

func TestGenerate_EmbedsDiagrams(t *testing.T) {
	diagrams := map[types.DiagramType]*types.MermaidDiagram{
		types.DiagramComponent: {Title: "Component Diagram", Content: "graph LR\n    A --> B"},
		types.DiagramFlowchart: {Title: "Flowchart Diagram", Content: "graph TD\n    A --> B"},
		types.DiagramClass:     {Title: "Class Diagram"},
	}

	result, err := New().Generate(context.Background(), goAnalysis(), Options{
		Sections:        []types.ReadmeSection{types.SectionArchitecture},
		IncludeDiagrams: true,
		Diagrams:        diagrams,
	})
	require.NoError(t, err)

	require.Len(t, result.Sections, 1)
	arch := result.Sections[0]
	assert.Equal(t, []string{"flowchart", "component"}, arch.Diagrams)
	assert.True(t, result.HasDiagrams)
	assert.Contains(t, arch.Content, "### Diagrams\n\n#### Flowchart Diagram\n\n```mermaid\ngraph TD\n    A --> B\n```")
	assert.Less(t, strings.Index(arch.Content, "Flowchart"), strings.Index(arch.Content, "Component Diagram"))

	result, err = New().Generate(context.Background(), goAnalysis(), Options{
		Sections: []types.ReadmeSection{types.SectionArchitecture},
		Diagrams: diagrams,
	})
	require.NoError(t, err)
	assert.False(t, result.HasDiagrams)
	assert.NotContains(t, result.Markdown, "mermaid")
}

func TestGenerate_InstallationByManifest(t *testing.T) {
	tests := []struct {
		name   string
		source string
		langs  map[string]float64
		want   string
	}{
		{"go", "go.mod", map[string]float64{"go": 1}, "go mod download"},
		{"node", "web/package.json", map[string]float64{"typescript": 1}, "npm install"},
		{"rust", "Cargo.toml", map[string]float64{"rust": 1}, "cargo build --release"},
		{"python", "pyproject.toml", nil, "pip install -e ."},
		{"unknown", "", nil, "# See project documentation for specific instructions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &types.AnalysisResult{LanguageBreakdown: tt.langs}
			if tt.source != "" {
				a.Dependencies = []types.Dependency{{Name: "x", Source: tt.source}}
			}
			result, err := New().Generate(context.Background(), a, Options{Sections: []types.ReadmeSection{types.SectionInstallation}})
			require.NoError(t, err)
			assert.Contains(t, result.Markdown, tt.want)
		})
	}
}

func TestGenerate_ModelDraftsProse(t *testing.T) {
	client := &fakeClient{reply: "```markdown\nShop keeps orders moving.\n```"}

	result, err := New(WithClient(client)).Generate(context.Background(), goAnalysis(), Options{
		Sections: []types.ReadmeSection{types.SectionTitle, types.SectionDescription, types.SectionFeatures},
		Tone:     types.ToneTechnical,
	})
	require.NoError(t, err)

	require.Len(t, client.requests, 2)
	assert.Contains(t, client.requests[0].Prompt, "Generate the description section")
	assert.Contains(t, client.requests[0].Prompt, "Tone: technical")
	assert.Contains(t, client.requests[0].Prompt, "Tech stack: Cobra, Go, MCP, Python")
	assert.Contains(t, client.requests[1].Prompt, "component internal/orders (module)")
	assert.Equal(t, "Shop keeps orders moving.", result.Sections[1].Content)
	assert.Equal(t, "Shop keeps orders moving.", result.Sections[2].Content)
}

func TestGenerate_DraftFailureFallsBack(t *testing.T) {
	client := &fakeClient{err: errors.New("rate limited")}

	result, err := New(WithClient(client)).Generate(context.Background(), goAnalysis(), Options{
		Sections: []types.ReadmeSection{types.SectionDescription},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Sections[0].Content, "An order management service."))
}

func TestGenerate_CanceledDraft(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(WithClient(&fakeClient{})).Generate(ctx, goAnalysis(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseSections(t *testing.T) {
	got, err := ParseSections(nil)
	require.NoError(t, err)
	assert.Equal(t, types.AllSections, got)

	got, err = ParseSections([]string{"API", " usage "})
	require.NoError(t, err)
	assert.Equal(t, []types.ReadmeSection{types.SectionAPI, types.SectionUsage}, got)

	_, err = ParseSections([]string{"usage", "faq"})
	assert.ErrorIs(t, err, types.ErrUnknownSection)
}

func TestProjectName(t *testing.T) {
	tests := map[string]string{
		"":                               "Project",
		"https://github.com/acme/shop":   "shop",
		"https://github.com/acme/shop/":  "shop",
		"git@github.com:acme/widget.git": "widget",
		"/home/dev/projects/tool":        "tool",
		`C:\src\thing`:                   "thing",
		"/":                              "Project",
		"github.com/acme/cli":            "cli",
	}

	for in, want := range tests {
		assert.Equal(t, want, ProjectName(in), in)
	}
}

func TestDetectTechStack(t *testing.T) {
	a := &types.AnalysisResult{
		LanguageBreakdown: map[string]float64{"typescript": 0.7, "javascript": 0.2, "elixir": 0.1},
		Dependencies: []types.Dependency{
			{Name: "react-dom"},
			{Name: "express"},
			{Name: "@nestjs/core"},
			{Name: "ioredis"},
		},
	}

	assert.Equal(t, []string{"Elixir", "Express", "JavaScript", "NestJS", "React", "Redis", "TypeScript"}, DetectTechStack(a))
}

func TestBadges(t *testing.T) {
	assert.Equal(t, "", Badges([]string{"Elixir"}))
	assert.Equal(t,
		"![Python](https://img.shields.io/badge/Python-3776AB?style=flat&logo=python&logoColor=white) ![MCP](https://img.shields.io/badge/MCP-Server-blue?style=flat)",
		Badges([]string{"Python", "MCP"}))
}

func TestWordCount(t *testing.T) {
	md := "# Title\n\nHello world.\n\n```bash\nnpm install foo\n```\n\n- **a**: b\n\n<div>raw html</div>\n"
	assert.Equal(t, 5, WordCount(md))
	assert.Equal(t, 0, WordCount(""))
}

func TestWordCount_Tables(t *testing.T) {
	md := "| Method | Path |\n|---|---|\n| GET | `/x` |\n"
	assert.Equal(t, 4, WordCount(md))
}

func TestHeadings(t *testing.T) {
	md := "# shop\n\n## Overview\n\ntext\n\n### Running the *Application*\n\n```\n# not a heading\n```\n"
	assert.Equal(t, []string{"shop", "Overview", "Running the Application"}, Headings(md))
}
