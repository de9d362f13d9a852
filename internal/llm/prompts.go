package llm

import (
	"fmt"

	"github.com/tmc/langchaingo/prompts"
)

// Prompt names
const (
	PromptArchitecture     = "architecture_analysis"
	PromptDependencies     = "dependency_analysis"
	PromptPatterns         = "pattern_detection"
	PromptAPI              = "api_extraction"
	PromptReadmeSection    = "readme_section"
	PromptMermaidFlowchart = "mermaid_flowchart"
	PromptMermaidSequence  = "mermaid_sequence"
	PromptMermaidClass     = "mermaid_class"
	PromptMermaidComponent = "mermaid_component"
	PromptMermaidER        = "mermaid_er"
	PromptMermaidState     = "mermaid_state"
	PromptCodeSummary      = "code_summary"
	PromptChunkContext     = "chunk_context"
)

const mermaidOnly = "\n\nOutput ONLY valid Mermaid syntax, no markdown code fences."

var templates = map[string]prompts.PromptTemplate{
	PromptArchitecture: prompts.NewPromptTemplate(`Analyze the following codebase and identify its architecture:

{{.code_content}}

Provide a structured analysis including:
1. **Architecture Pattern**: (e.g., MVC, microservices, monolith, layered)
2. **Key Components**: List main modules/packages with their responsibilities
3. **Data Flow**: How data moves through the system
4. **External Dependencies**: Key external services or libraries
5. **Entry Points**: Main execution entry points

Format your response as JSON with keys: architecture_pattern, components, data_flow, external_deps, entry_points.
Each component is an object with keys: name, comp_type, files, dependencies, description.`,
		[]string{"code_content"}),

	PromptDependencies: prompts.NewPromptTemplate(`Analyze dependencies in this codebase:

{{.code_content}}

Identify:
1. All runtime dependencies with versions
2. Development dependencies
3. Circular dependency risks
4. Outdated or vulnerable packages (if detectable)

Format as JSON with keys: runtime_deps, dev_deps, circular_risks, notes.
Each dependency is an object with keys: name, version, source.`,
		[]string{"code_content"}),

	PromptPatterns: prompts.NewPromptTemplate(`Identify design patterns in this code:

{{.code_content}}

Look for:
- Creational patterns (Factory, Singleton, Builder)
- Structural patterns (Adapter, Decorator, Proxy)
- Behavioral patterns (Observer, Strategy, Command)
- Architectural patterns (Repository, Service Layer, CQRS)

Format as JSON array with: name, confidence (0-1), locations, description`,
		[]string{"code_content"}),

	PromptAPI: prompts.NewPromptTemplate(`Extract the API surface from this codebase:

{{.code_content}}

Identify all:
1. REST/HTTP endpoints (path, method, handler)
2. GraphQL queries/mutations
3. RPC endpoints
4. CLI commands
5. Public library functions/classes

Format as JSON with keys: http_endpoints, graphql, rpc, cli, public_api.
Each http endpoint is an object with keys: path, method, handler, description.`,
		[]string{"code_content"}),

	PromptReadmeSection: prompts.NewPromptTemplate(`Generate the {{.section_name}} section for a README.md file.

Project analysis:
{{.analysis_summary}}

Tech stack: {{.tech_stack}}
Tone: {{.tone}}

Write clear, {{.tone}} documentation. Include code examples where helpful.
Output only the markdown content for this section, no extra commentary.`,
		[]string{"section_name", "analysis_summary", "tech_stack", "tone"}),

	PromptMermaidFlowchart: prompts.NewPromptTemplate(`Create a Mermaid flowchart diagram for this architecture:

{{.info}}

Requirements:
- Use graph TD (top-down)
- Maximum {{.max_nodes}} nodes
- Use descriptive node labels
- Show data/control flow with arrows
- Group related components in subgraphs`+mermaidOnly,
		[]string{"info", "max_nodes"}),

	PromptMermaidSequence: prompts.NewPromptTemplate(`Create a Mermaid sequence diagram for this interaction:

{{.info}}

Requirements:
- Show the main request/response flow
- Include key participants
- Maximum {{.max_nodes}} participants
- Add notes for complex steps`+mermaidOnly,
		[]string{"info", "max_nodes"}),

	PromptMermaidClass: prompts.NewPromptTemplate(`Create a Mermaid class diagram from this code structure:

{{.info}}

Requirements:
- Show inheritance and composition
- Maximum {{.max_nodes}} classes
- Include key methods/properties
- Show relationships with proper arrows`+mermaidOnly,
		[]string{"info", "max_nodes"}),

	PromptMermaidComponent: prompts.NewPromptTemplate(`Create a Mermaid component diagram for this system:

{{.info}}

Requirements:
- Use graph LR
- Show high-level components
- Include external dependencies
- Maximum {{.max_nodes}} components
- Group by domain/layer`+mermaidOnly,
		[]string{"info", "max_nodes"}),

	PromptMermaidER: prompts.NewPromptTemplate(`Create a Mermaid entity relationship diagram for the data model of this system:

{{.info}}

Requirements:
- Start with erDiagram
- Maximum {{.max_nodes}} entities
- Include key attributes
- Use crow's foot cardinality`+mermaidOnly,
		[]string{"info", "max_nodes"}),

	PromptMermaidState: prompts.NewPromptTemplate(`Create a Mermaid state diagram for the main lifecycle in this system:

{{.info}}

Requirements:
- Start with stateDiagram-v2
- Maximum {{.max_nodes}} states
- Label transitions with their triggers`+mermaidOnly,
		[]string{"info", "max_nodes"}),

	PromptCodeSummary: prompts.NewPromptTemplate(`Summarize this code file concisely:

File: {{.file_path}}
Content:
{{.file_content}}

Provide a 1-2 sentence summary of what this file does and its role in the project.`,
		[]string{"file_path", "file_content"}),

	PromptChunkContext: prompts.NewPromptTemplate(`Given these related files, provide a brief context summary:

Files: {{.file_list}}

Content preview:
{{.content_preview}}

Summarize what these files handle collectively in 2-3 sentences.`,
		[]string{"file_list", "content_preview"}),
}

// RenderPrompt fills the named template with values
func RenderPrompt(name string, values map[string]any) (string, error) {
	tmpl, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	out, err := tmpl.Format(values)
	if err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", name, err)
	}
	return out, nil
}
