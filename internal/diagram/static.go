package diagram

import (
	"fmt"
	"strings"

	"github.com/dshills/docgen-mcp/internal/analyzer"
	"github.com/dshills/docgen-mcp/pkg/types"
)

// graphBuilder renders node and edge lines for flowchart-style diagrams
type graphBuilder struct {
	b     strings.Builder
	ids   map[string]string
	nodes int
	max   int
}

func newGraphBuilder(header string, max int) *graphBuilder {
	g := &graphBuilder{ids: make(map[string]string), max: max}
	g.b.WriteString(header)
	g.b.WriteString("\n")
	return g
}

func (g *graphBuilder) full() bool {
	return g.nodes >= g.max
}

// node declares key with the given shape ("[%s]", "([%s])", "[(%s)]")
// and returns its id, or "" when the diagram is full
func (g *graphBuilder) node(key, label, shape, indent string) string {
	if id, ok := g.ids[key]; ok {
		return id
	}
	if g.full() {
		return ""
	}
	id := fmt.Sprintf("n%d", g.nodes)
	g.nodes++
	g.ids[key] = id
	fmt.Fprintf(&g.b, "%s%s%s\n", indent, id, fmt.Sprintf(shape, quote(label)))
	return id
}

func (g *graphBuilder) edge(from, to string) {
	if from == "" || to == "" || from == to {
		return
	}
	fmt.Fprintf(&g.b, "    %s --> %s\n", from, to)
}

func (g *graphBuilder) line(format string, args ...any) {
	fmt.Fprintf(&g.b, format+"\n", args...)
}

func (g *graphBuilder) String() string {
	return strings.TrimRight(g.b.String(), "\n")
}

func quote(label string) string {
	return `"` + strings.ReplaceAll(label, `"`, "'") + `"`
}

// staticFlowchart draws entry points feeding the components they live in,
// and the dependencies between components
func staticFlowchart(a *types.AnalysisResult, maxNodes int) string {
	g := newGraphBuilder("graph TD", maxNodes)

	known := make(map[string]bool, len(a.Architecture))
	for _, c := range a.Architecture {
		known[c.Name] = true
		g.node("c:"+c.Name, c.Name, "[%s]", "    ")
	}
	for _, ep := range a.EntryPoints {
		id := g.node("e:"+ep, ep, "([%s])", "    ")
		if comp := analyzer.ComponentName(ep); known[comp] {
			g.edge(id, g.ids["c:"+comp])
		}
	}
	for _, c := range a.Architecture {
		for _, dep := range c.Dependencies {
			g.edge(g.ids["c:"+c.Name], g.ids["c:"+dep])
		}
	}
	return g.String()
}

// staticComponentDiagram groups components by type and lists runtime
// dependencies as external systems
func staticComponentDiagram(a *types.AnalysisResult, maxNodes int) string {
	g := newGraphBuilder("graph LR", maxNodes)

	var groups []string
	members := make(map[string][]types.Component)
	for _, c := range a.Architecture {
		t := c.CompType
		if t == "" {
			t = "module"
		}
		if _, ok := members[t]; !ok {
			groups = append(groups, t)
		}
		members[t] = append(members[t], c)
	}

	for i, t := range groups {
		if g.full() {
			break
		}
		g.line("    subgraph g%d [%s]", i, quote(t))
		for _, c := range members[t] {
			g.node("c:"+c.Name, c.Name, "[%s]", "        ")
		}
		g.line("    end")
	}

	var external []types.Dependency
	for _, d := range a.Dependencies {
		if d.DepType == analyzer.DepRuntime {
			external = append(external, d)
		}
	}
	if len(external) > 0 && !g.full() {
		g.line("    subgraph ext [%s]", quote("External"))
		for _, d := range external {
			g.node("d:"+d.Name, d.Name, "[(%s)]", "        ")
		}
		g.line("    end")
	}

	for _, c := range a.Architecture {
		for _, dep := range c.Dependencies {
			g.edge(g.ids["c:"+c.Name], g.ids["c:"+dep])
		}
	}
	return g.String()
}
