package readme

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dshills/docgen-mcp/internal/llm"
	"github.com/dshills/docgen-mcp/pkg/types"
)

// proseSections are drafted by the model when a client is configured
var proseSections = map[types.ReadmeSection]bool{
	types.SectionDescription: true,
	types.SectionFeatures:    true,
}

// Options controls README assembly
type Options struct {
	Sections        []types.ReadmeSection // default: types.AllSections
	Tone            types.ReadmeTone      // default: professional
	IncludeDiagrams bool
	Diagrams        map[types.DiagramType]*types.MermaidDiagram
}

// Generator assembles a README from a codebase analysis
type Generator struct {
	client llm.Client
	logger zerolog.Logger
}

// Option configures a Generator
type Option func(*Generator)

// WithClient lets the model draft the prose sections
func WithClient(c llm.Client) Option {
	return func(g *Generator) { g.client = c }
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// New creates a Generator
func New(opts ...Option) *Generator {
	g := &Generator{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ParseSections resolves section names into rendering order, defaulting to
// every section
func ParseSections(names []string) ([]types.ReadmeSection, error) {
	if len(names) == 0 {
		return types.AllSections, nil
	}
	sections := make([]types.ReadmeSection, 0, len(names))
	for _, name := range names {
		s, ok := types.ParseSection(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", types.ErrUnknownSection, name)
		}
		sections = append(sections, s)
	}
	return sections, nil
}

// Generate renders the requested sections in their fixed order. Sections
// with no content, such as badges for an unrecognized stack, are omitted.
func (g *Generator) Generate(ctx context.Context, analysis *types.AnalysisResult, opts Options) (*types.ReadmeResult, error) {
	if analysis == nil {
		analysis = &types.AnalysisResult{}
	}
	tone := opts.Tone
	if tone == "" {
		tone = types.ToneProfessional
	}

	order, err := sectionOrder(opts.Sections)
	if err != nil {
		return nil, err
	}

	p := &projectContext{
		name:     ProjectName(analysis.Source),
		analysis: analysis,
		stack:    DetectTechStack(analysis),
	}
	if opts.IncludeDiagrams {
		p.diagrams = opts.Diagrams
	}

	g.logger.Info().Int("sections", len(order)).Str("tone", string(tone)).Msg("generating readme")

	sections := make([]types.SectionContent, 0, len(order))
	for _, s := range order {
		content, diagrams := p.render(s)
		if proseSections[s] && g.client != nil {
			drafted, err := g.draft(ctx, s, p, tone)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				g.logger.Warn().Err(err).Str("section", string(s)).Msg("section draft failed")
			} else if drafted != "" {
				content = drafted
			}
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		sections = append(sections, types.SectionContent{
			SectionType: s,
			Title:       sectionTitles[s],
			Content:     content,
			Order:       canonicalIndex(s),
			Diagrams:    diagrams,
		})
	}

	md := assemble(sections)
	stack := p.stack
	if stack == nil {
		stack = []string{}
	}
	return &types.ReadmeResult{
		Source:            analysis.Source,
		Markdown:          md,
		Sections:          sections,
		Tone:              tone,
		HasDiagrams:       opts.IncludeDiagrams && len(opts.Diagrams) > 0,
		DetectedTechStack: stack,
		WordCount:         WordCount(md),
	}, nil
}

func (g *Generator) draft(ctx context.Context, section types.ReadmeSection, p *projectContext, tone types.ReadmeTone) (string, error) {
	prompt, err := llm.RenderPrompt(llm.PromptReadmeSection, map[string]any{
		"section_name":     string(section),
		"analysis_summary": analysisSummary(p),
		"tech_stack":       strings.Join(p.stack, ", "),
		"tone":             string(tone),
	})
	if err != nil {
		return "", err
	}
	resp, err := g.client.Complete(ctx, llm.Request{Prompt: prompt})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(llm.StripFences(resp.Content)), nil
}

func analysisSummary(p *projectContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", p.name)
	if p.analysis.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", p.analysis.Summary)
	}
	for _, c := range limit(p.analysis.Architecture, 15) {
		fmt.Fprintf(&b, "- component %s (%s): %s\n", c.Name, c.CompType, c.Description)
	}
	for _, pm := range limit(p.analysis.Patterns, 5) {
		fmt.Fprintf(&b, "- pattern %s\n", pm.Name)
	}
	if n := len(p.analysis.APISurface); n > 0 {
		fmt.Fprintf(&b, "- %d HTTP endpoints\n", n)
	}
	return b.String()
}

func sectionOrder(requested []types.ReadmeSection) ([]types.ReadmeSection, error) {
	if len(requested) == 0 {
		return types.AllSections, nil
	}
	seen := make(map[types.ReadmeSection]bool, len(requested))
	order := make([]types.ReadmeSection, 0, len(requested))
	for _, s := range requested {
		if canonicalIndex(s) < 0 {
			return nil, fmt.Errorf("%w: %q", types.ErrUnknownSection, s)
		}
		if !seen[s] {
			seen[s] = true
			order = append(order, s)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return canonicalIndex(order[i]) < canonicalIndex(order[j])
	})
	return order, nil
}

func canonicalIndex(s types.ReadmeSection) int {
	for i, known := range types.AllSections {
		if known == s {
			return i
		}
	}
	return -1
}

func assemble(sections []types.SectionContent) string {
	var parts []string
	for _, s := range sections {
		if s.Title != "" {
			parts = append(parts, s.Title)
		}
		parts = append(parts, s.Content, "")
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
