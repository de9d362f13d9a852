package readme

import (
	"fmt"
	"path"
	"strings"

	"github.com/dshills/docgen-mcp/pkg/types"
)

// sectionTitles are the markdown headings of each section
var sectionTitles = map[types.ReadmeSection]string{
	types.SectionTitle:        "",
	types.SectionBadges:       "",
	types.SectionDescription:  "## Overview",
	types.SectionFeatures:     "## Features",
	types.SectionInstallation: "## Installation",
	types.SectionUsage:        "## Usage",
	types.SectionArchitecture: "## Architecture",
	types.SectionAPI:          "## API Reference",
	types.SectionDevelopment:  "## Development",
	types.SectionTesting:      "## Testing",
	types.SectionDeployment:   "## Deployment",
	types.SectionContributing: "## Contributing",
	types.SectionLicense:      "## License",
}

// diagramOrder fixes the order diagrams are embedded in
var diagramOrder = []types.DiagramType{
	types.DiagramFlowchart, types.DiagramComponent, types.DiagramSequence,
	types.DiagramClass, types.DiagramER, types.DiagramState,
}

const contributing = `Contributions are welcome! Please follow these steps:

1. Fork the repository
2. Create a feature branch (` + "`git checkout -b feature/amazing-feature`" + `)
3. Commit your changes (` + "`git commit -m 'Add amazing feature'`" + `)
4. Push to the branch (` + "`git push origin feature/amazing-feature`" + `)
5. Open a Pull Request

Please ensure your code:
- Follows the existing code style
- Includes appropriate tests
- Updates documentation as needed`

// projectContext is what the section templates render from
type projectContext struct {
	name     string
	analysis *types.AnalysisResult
	stack    []string
	diagrams map[types.DiagramType]*types.MermaidDiagram
}

// ProjectName derives a display name from an analysis source
func ProjectName(source string) string {
	source = strings.TrimRight(strings.ReplaceAll(strings.TrimSpace(source), "\\", "/"), "/")
	if source == "" {
		return "Project"
	}
	name := strings.TrimSuffix(path.Base(source), ".git")
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || name == "." || name == "/" {
		return "Project"
	}
	return name
}

// render returns the body of section and the diagrams embedded in it
func (p *projectContext) render(section types.ReadmeSection) (string, []string) {
	if section == types.SectionArchitecture {
		return p.architecture()
	}
	return p.renderText(section), nil
}

func (p *projectContext) renderText(section types.ReadmeSection) string {
	switch section {
	case types.SectionTitle:
		return "# " + p.name
	case types.SectionBadges:
		return Badges(p.stack)
	case types.SectionDescription:
		return p.description()
	case types.SectionFeatures:
		return p.features()
	case types.SectionInstallation:
		return p.installation()
	case types.SectionUsage:
		return p.usage()
	case types.SectionAPI:
		return p.api()
	case types.SectionDevelopment:
		return p.development()
	case types.SectionTesting:
		return p.testing()
	case types.SectionDeployment:
		return p.deployment()
	case types.SectionContributing:
		return contributing
	case types.SectionLicense:
		return "MIT License - see [LICENSE](LICENSE) for details."
	}
	return ""
}

func (p *projectContext) description() string {
	var parts []string
	if p.analysis.Summary != "" {
		parts = append(parts, p.analysis.Summary)
	}
	if langs := p.analysis.Languages(); len(langs) > 0 {
		parts = append(parts, fmt.Sprintf("\nPrimary language: **%s**", LanguageName(langs[0])))
	}
	if len(p.stack) > 0 {
		parts = append(parts, "\nTech stack: "+strings.Join(p.stack, ", "))
	}
	if p.analysis.TotalFiles > 0 {
		parts = append(parts, fmt.Sprintf("\nFiles: %d", p.analysis.TotalFiles))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("A %s project.", p.name)
	}
	return strings.Join(parts, "\n")
}

func (p *projectContext) features() string {
	var lines []string
	for _, c := range limit(p.analysis.Architecture, 10) {
		desc := c.Description
		if desc == "" {
			desc = "Core component"
		}
		lines = append(lines, fmt.Sprintf("- **%s**: %s", c.Name, desc))
	}
	for _, pm := range limit(p.analysis.Patterns, 5) {
		lines = append(lines, fmt.Sprintf("- %s pattern implementation", pm.Name))
	}
	if n := len(p.analysis.APISurface); n > 0 {
		lines = append(lines, fmt.Sprintf("- REST API with %d endpoints", n))
	}
	if len(lines) == 0 {
		return "- Core functionality\n- Extensible architecture"
	}
	return strings.Join(lines, "\n")
}

func (p *projectContext) manifests() map[string]bool {
	found := make(map[string]bool)
	for _, d := range p.analysis.Dependencies {
		if d.Source != "" {
			found[path.Base(d.Source)] = true
		}
	}
	return found
}

func (p *projectContext) installation() string {
	m := p.manifests()
	lines := []string{
		"```bash",
		"# Clone the repository",
		"git clone <repository-url>",
		"cd <project-directory>",
		"",
	}

	switch {
	case m["pyproject.toml"] || m["requirements.txt"] || hasAny(p.stack, "Python"):
		lines = append(lines,
			"# Install Python dependencies",
			"pip install -e .",
			"# or with virtual environment",
			"python -m venv .venv",
			"source .venv/bin/activate  # Linux/Mac",
			`.venv\Scripts\activate   # Windows`,
			"pip install -e .",
		)
	case m["package.json"] || hasAny(p.stack, "JavaScript", "TypeScript"):
		lines = append(lines,
			"# Install Node.js dependencies",
			"npm install",
			"# or with yarn",
			"yarn install",
		)
	case m["Cargo.toml"] || hasAny(p.stack, "Rust"):
		lines = append(lines, "# Build with Cargo", "cargo build --release")
	case m["go.mod"] || hasAny(p.stack, "Go"):
		lines = append(lines, "# Install Go dependencies", "go mod download", "go build ./...")
	default:
		lines = append(lines, "# Install dependencies", "# See project documentation for specific instructions")
	}

	return strings.Join(append(lines, "```"), "\n")
}

func (p *projectContext) usage() string {
	var lines []string

	if entries := limit(p.analysis.EntryPoints, 3); len(entries) > 0 {
		lines = append(lines, "### Running the Application", "", "```bash")
		for _, ep := range entries {
			switch path.Ext(ep) {
			case ".py":
				lines = append(lines, "python "+ep)
			case ".go":
				lines = append(lines, "go run ./"+path.Dir(ep))
			case ".ts", ".js":
				lines = append(lines, "node "+ep)
				if hasAny(p.stack, "TypeScript") {
					lines = append(lines, "# or with ts-node", "npx ts-node "+ep)
				}
			default:
				lines = append(lines, "./"+ep)
			}
		}
		lines = append(lines, "```")
	}

	if endpoints := limit(p.analysis.APISurface, 5); len(endpoints) > 0 {
		lines = append(lines, "", "### API Examples", "", "```bash")
		for _, ep := range endpoints {
			method := ep.Method
			if method == "" || method == "ANY" {
				method = "GET"
			}
			lines = append(lines, fmt.Sprintf(`curl -X %s "http://localhost:8000%s"`, method, ep.Path))
		}
		lines = append(lines, "```")
	}

	if len(lines) == 0 {
		return "See documentation for usage examples."
	}
	return strings.Join(lines, "\n")
}

// architecture renders the component table and embeds diagrams, returning
// the embedded diagram types
func (p *projectContext) architecture() (string, []string) {
	var lines []string
	if comps := limit(p.analysis.Architecture, 15); len(comps) > 0 {
		lines = append(lines,
			"### Components",
			"",
			"| Component | Type | Description |",
			"|-----------|------|-------------|",
		)
		for _, c := range comps {
			lines = append(lines, fmt.Sprintf("| %s | %s | %s |", cell(c.Name), cell(c.CompType), cell(c.Description)))
		}
		lines = append(lines, "")
	}

	var embedded []string
	for _, kind := range diagramOrder {
		d, ok := p.diagrams[kind]
		if !ok || d == nil || d.Content == "" {
			continue
		}
		if len(embedded) == 0 {
			lines = append(lines, "### Diagrams", "")
		}
		title := d.Title
		if title == "" {
			title = string(kind)
		}
		lines = append(lines, "#### "+title, "", "```mermaid", d.Content, "```", "")
		embedded = append(embedded, string(kind))
	}

	if len(lines) == 0 {
		return "See codebase for architecture details.", nil
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n"), embedded
}

func (p *projectContext) api() string {
	if len(p.analysis.APISurface) == 0 {
		return "No API endpoints detected."
	}
	lines := []string{"### Endpoints", "", "| Method | Path | Description |", "|--------|------|-------------|"}
	for _, ep := range limit(p.analysis.APISurface, 20) {
		desc := ep.Description
		if desc == "" && ep.Handler != "" {
			desc = "Handled by `" + ep.Handler + "`"
		}
		lines = append(lines, fmt.Sprintf("| %s | `%s` | %s |", ep.Method, ep.Path, cell(desc)))
	}
	return strings.Join(lines, "\n")
}

func (p *projectContext) development() string {
	lines := []string{"### Prerequisites", ""}
	if hasAny(p.stack, "Python") {
		lines = append(lines, "- Python 3.10+")
	}
	if hasAny(p.stack, "TypeScript", "JavaScript") {
		lines = append(lines, "- Node.js 18+")
	}
	if hasAny(p.stack, "Rust") {
		lines = append(lines, "- Rust 1.70+")
	}
	if hasAny(p.stack, "Go") {
		lines = append(lines, "- Go 1.22+")
	}

	lines = append(lines, "", "### Setup", "", "```bash")
	switch {
	case hasAny(p.stack, "Python"):
		lines = append(lines, "# Install dev dependencies", "pip install -e '.[dev]'", "", "# Run linting", "ruff check .")
	case hasAny(p.stack, "TypeScript", "JavaScript"):
		lines = append(lines, "# Install dev dependencies", "npm install", "", "# Run linting", "npm run lint")
	case hasAny(p.stack, "Go"):
		lines = append(lines, "# Vet the code", "go vet ./...")
	}
	return strings.Join(append(lines, "```"), "\n")
}

func (p *projectContext) testing() string {
	lines := []string{"```bash"}
	switch {
	case hasAny(p.stack, "Python"):
		lines = append(lines, "# Run tests", "pytest", "", "# With coverage", "pytest --cov=src")
	case hasAny(p.stack, "TypeScript", "JavaScript"):
		lines = append(lines, "# Run tests", "npm test", "", "# With coverage", "npm run test:coverage")
	case hasAny(p.stack, "Rust"):
		lines = append(lines, "cargo test")
	case hasAny(p.stack, "Go"):
		lines = append(lines, "go test ./...")
	default:
		lines = append(lines, "# Run tests", "# See project documentation for testing instructions")
	}
	return strings.Join(append(lines, "```"), "\n")
}

func (p *projectContext) deployment() string {
	return strings.Join([]string{
		"### Docker",
		"",
		"```bash",
		"docker build -t <project-name> .",
		"docker run -p 8000:8000 <project-name>",
		"```",
		"",
		"### Environment Variables",
		"",
		"Create a `.env` file based on `.env.example`:",
		"",
		"```env",
		"# Add required environment variables",
		"```",
	}, "\n")
}

// cell escapes table cell content
func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func limit[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
