package diagram

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/docgen-mcp/internal/analyzer"
	"github.com/dshills/docgen-mcp/internal/llm"
	"github.com/dshills/docgen-mcp/pkg/types"
)

// DefaultMaxNodes caps the nodes requested per diagram
const DefaultMaxNodes = 50

// contextChars bounds raw content used as diagram context
const contextChars = 10000

const systemPrompt = "You are an expert at creating Mermaid diagrams. Output ONLY valid Mermaid syntax."

var promptNames = map[types.DiagramType]string{
	types.DiagramFlowchart: llm.PromptMermaidFlowchart,
	types.DiagramSequence:  llm.PromptMermaidSequence,
	types.DiagramClass:     llm.PromptMermaidClass,
	types.DiagramComponent: llm.PromptMermaidComponent,
	types.DiagramER:        llm.PromptMermaidER,
	types.DiagramState:     llm.PromptMermaidState,
}

var classPatterns = []*regexp.Regexp{
	regexp.MustCompile(`class\s+(\w+)(?:\([^)]*\))?:`),
	regexp.MustCompile(`class\s+(\w+)(?:\s+extends\s+\w+)?(?:\s+implements\s+[\w,\s]+)?\s*{`),
	regexp.MustCompile(`(?m)^type\s+(\w+)\s+(?:struct|interface)\s*{`),
}

// Generator renders Mermaid diagrams for an analyzed codebase
type Generator struct {
	client   llm.Client
	maxNodes int
	logger   zerolog.Logger
}

// Option configures a Generator
type Option func(*Generator)

// WithClient enables model-generated diagrams
func WithClient(c llm.Client) Option {
	return func(g *Generator) { g.client = c }
}

// WithMaxNodes overrides DefaultMaxNodes
func WithMaxNodes(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxNodes = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// New creates a Generator
func New(opts ...Option) *Generator {
	g := &Generator{maxNodes: DefaultMaxNodes, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ParseTypes resolves diagram type names, defaulting to DefaultDiagramTypes
func ParseTypes(names []string) ([]types.DiagramType, error) {
	if len(names) == 0 {
		return types.DefaultDiagramTypes, nil
	}
	out := make([]types.DiagramType, 0, len(names))
	seen := make(map[types.DiagramType]bool)
	for _, name := range names {
		t, ok := types.ParseDiagramType(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", types.ErrUnknownDiagram, name)
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out, nil
}

// Generate produces one diagram per requested type. Diagrams that cannot be
// produced are logged and left out of the result.
func (g *Generator) Generate(ctx context.Context, content string, analysis *types.AnalysisResult, kinds []types.DiagramType) (*types.DiagramResult, error) {
	if len(kinds) == 0 {
		kinds = types.DefaultDiagramTypes
	}
	for _, k := range kinds {
		if _, ok := promptNames[k]; !ok {
			return nil, fmt.Errorf("%w: %q", types.ErrUnknownDiagram, k)
		}
	}

	result := &types.DiagramResult{
		Diagrams:      make(map[types.DiagramType]*types.MermaidDiagram),
		Relationships: Relationships(analysis),
		Components:    []string{},
	}
	if analysis != nil {
		result.ArchitectureSummary = analysis.Summary
		for _, c := range analysis.Architecture {
			result.Components = append(result.Components, c.Name)
		}
	}

	if g.client == nil {
		for _, k := range kinds {
			if d := g.static(k, analysis); d != nil {
				result.Diagrams[k] = d
			} else {
				g.logger.Debug().Str("type", string(k)).Msg("no static rendering for diagram type")
			}
		}
		return result, nil
	}

	var mu sync.Mutex
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(len(kinds))
	for _, k := range kinds {
		eg.Go(func() error {
			d, err := g.generate(gctx, k, content, analysis)
			if err != nil {
				g.logger.Warn().Err(err).Str("type", string(k)).Msg("diagram generation failed")
				return nil
			}
			mu.Lock()
			result.Diagrams[k] = d
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (g *Generator) generate(ctx context.Context, kind types.DiagramType, content string, analysis *types.AnalysisResult) (*types.MermaidDiagram, error) {
	prompt, err := llm.RenderPrompt(promptNames[kind], map[string]any{
		"info":      g.diagramContext(kind, content, analysis),
		"max_nodes": g.maxNodes,
	})
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Complete(ctx, llm.Request{
		Prompt:      prompt,
		System:      systemPrompt,
		Temperature: 0.3,
		MaxTokens:   2048,
	})
	if err != nil {
		return nil, err
	}

	return build(kind, Clean(resp.Content), true), nil
}

func (g *Generator) static(kind types.DiagramType, analysis *types.AnalysisResult) *types.MermaidDiagram {
	if analysis == nil || len(analysis.Architecture) == 0 {
		return nil
	}
	switch kind {
	case types.DiagramFlowchart:
		return build(kind, staticFlowchart(analysis, g.maxNodes), false)
	case types.DiagramComponent:
		return build(kind, staticComponentDiagram(analysis, g.maxNodes), false)
	default:
		return nil
	}
}

// build validates code, applying AutoFix once when allowed and needed
func build(kind types.DiagramType, code string, fix bool) *types.MermaidDiagram {
	valid, errs := Validate(code)
	if !valid && fix {
		code = AutoFix(code)
		valid, errs = Validate(code)
	}

	name := string(kind)
	return &types.MermaidDiagram{
		DiagramType:      kind,
		Title:            strings.ToUpper(name[:1]) + name[1:] + " Diagram",
		Content:          code,
		Description:      fmt.Sprintf("Auto-generated %s diagram", name),
		NodeCount:        CountNodes(code),
		IsValid:          valid,
		ValidationErrors: errs,
	}
}

// diagramContext summarizes the parts of the analysis relevant to kind,
// falling back to the head of the raw content
func (g *Generator) diagramContext(kind types.DiagramType, content string, analysis *types.AnalysisResult) string {
	if kind == types.DiagramClass {
		if classes := g.extractClasses(content); len(classes) > 0 {
			return "Classes found: " + strings.Join(classes, ", ")
		}
	}
	if analysis != nil {
		switch kind {
		case types.DiagramComponent:
			return fmt.Sprintf("Components: %s\nExternal: %s", describeComponents(analysis), strings.Join(externalNames(analysis), ", "))
		case types.DiagramFlowchart:
			return fmt.Sprintf("Entry points: %s\nData flow: %s", strings.Join(analysis.EntryPoints, ", "), analysis.Summary)
		case types.DiagramSequence:
			return fmt.Sprintf("API endpoints: %s\nFlow: %s", describeEndpoints(analysis), analysis.Summary)
		}
	}
	return headRunes(content, contextChars)
}

func (g *Generator) extractClasses(content string) []string {
	seen := make(map[string]bool)
	for _, p := range classPatterns {
		for _, m := range p.FindAllStringSubmatch(content, -1) {
			seen[m[1]] = true
		}
	}
	classes := make([]string, 0, len(seen))
	for name := range seen {
		classes = append(classes, name)
	}
	sort.Strings(classes)
	if len(classes) > g.maxNodes {
		classes = classes[:g.maxNodes]
	}
	return classes
}

func describeComponents(a *types.AnalysisResult) string {
	parts := make([]string, 0, len(a.Architecture))
	for _, c := range a.Architecture {
		desc := c.Name + " (" + c.CompType
		if len(c.Dependencies) > 0 {
			desc += "; uses " + strings.Join(c.Dependencies, ", ")
		}
		parts = append(parts, desc+")")
	}
	return strings.Join(parts, "; ")
}

func externalNames(a *types.AnalysisResult) []string {
	var out []string
	for _, d := range a.Dependencies {
		if d.DepType != analyzer.DepDev {
			out = append(out, d.Name)
		}
	}
	return out
}

func describeEndpoints(a *types.AnalysisResult) string {
	parts := make([]string, 0, len(a.APISurface))
	for _, ep := range a.APISurface {
		s := ep.Method + " " + ep.Path
		if ep.Handler != "" {
			s += " -> " + ep.Handler
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

// Relationships lists component dependencies as depends_on edges
func Relationships(a *types.AnalysisResult) []types.Relationship {
	rels := []types.Relationship{}
	if a == nil {
		return rels
	}
	for _, c := range a.Architecture {
		for _, dep := range c.Dependencies {
			rels = append(rels, types.Relationship{Source: c.Name, Target: dep, RelType: "depends_on"})
		}
	}
	return rels
}

func headRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
