package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var (
	strategyEnum = []string{"file", "directory", "semantic", "hybrid"}
	depthEnum    = []string{"shallow", "medium", "deep"}
	focusEnum    = []string{"architecture", "dependencies", "api", "patterns"}
	diagramEnum  = []string{"flowchart", "sequence", "class", "er", "state", "component"}
	sectionEnum  = []string{
		"title", "badges", "description", "features", "installation", "usage", "architecture",
		"api", "development", "testing", "deployment", "contributing", "license",
	}
	toneEnum = []string{"professional", "casual", "technical"}
)

func sourceProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func stringArray(description string, enum []string) map[string]interface{} {
	items := map[string]interface{}{"type": "string"}
	if enum != nil {
		items["enum"] = enum
	}
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items":       items,
	}
}

// analyzeRepositoryTool returns the tool definition for analyze_repository
func analyzeRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "analyze_repository",
		Description: "Analyze a GitHub repository or local codebase. Returns architecture, dependencies, patterns, and API surface.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"source": sourceProperty("GitHub URL (e.g., https://github.com/user/repo) or local filesystem path"),
				"max_file_size": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum file size in bytes (default: 10MB)",
					"default":     10485760,
					"minimum":     1,
				},
				"include_patterns": stringArray("Glob patterns to include (e.g., ['**/*.py', 'src/**'])", nil),
				"exclude_patterns": stringArray("Additional glob patterns to exclude", nil),
				"analysis_depth": map[string]interface{}{
					"type":        "string",
					"description": "Depth of analysis",
					"enum":        depthEnum,
					"default":     "deep",
				},
				"focus_areas": stringArray("Specific areas to focus analysis on (default: all)", focusEnum),
			},
			Required: []string{"source"},
		},
	}
}

// chunkCodebaseTool returns the tool definition for chunk_codebase
func chunkCodebaseTool() mcp.Tool {
	return mcp.Tool{
		Name:        "chunk_codebase",
		Description: "Chunk a codebase for LLM context windows using file, directory, semantic, or hybrid strategies",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"source": sourceProperty("GitHub URL or local filesystem path"),
				"max_tokens": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum tokens per chunk",
					"default":     100000,
					"minimum":     1,
				},
				"strategy": map[string]interface{}{
					"type":        "string",
					"description": "Chunking strategy",
					"enum":        strategyEnum,
					"default":     "hybrid",
				},
				"overlap_tokens": map[string]interface{}{
					"type":        "integer",
					"description": "Tokens of the previous chunk repeated at the start of the next",
					"default":     500,
					"minimum":     0,
				},
				"preserve_context": map[string]interface{}{
					"type":        "boolean",
					"description": "Keep related files together in hybrid chunks",
					"default":     true,
				},
				"summarize": map[string]interface{}{
					"type":        "boolean",
					"description": "Ask the configured model for a context summary of each chunk",
					"default":     false,
				},
			},
			Required: []string{"source"},
		},
	}
}

// extractArchitectureTool returns the tool definition for extract_architecture
func extractArchitectureTool() mcp.Tool {
	return mcp.Tool{
		Name:        "extract_architecture",
		Description: "Extract architectural structure and generate Mermaid diagrams (flowchart, sequence, class, er, state, component)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"source":        sourceProperty("GitHub URL or local path; a stored analysis for this source is reused"),
				"diagram_types": stringArray("Diagrams to generate (default: flowchart, component)", diagramEnum),
				"max_nodes": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum nodes per diagram",
					"default":     50,
					"minimum":     1,
				},
				"analysis_json": map[string]interface{}{
					"type":        "string",
					"description": "Optional pre-computed analyze_repository result as a JSON string",
				},
			},
			Required: []string{"source"},
		},
	}
}

// generateReadmeTool returns the tool definition for generate_readme
func generateReadmeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "generate_readme",
		Description: "Generate README documentation with installation, usage, architecture, and Mermaid diagrams",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"source": sourceProperty("GitHub URL or local path (required if analysis_json is not provided)"),
				"analysis_json": map[string]interface{}{
					"type":        "string",
					"description": "Pre-computed analyze_repository result as a JSON string",
				},
				"sections": stringArray("Sections to include (default: all)", sectionEnum),
				"include_diagrams": map[string]interface{}{
					"type":        "boolean",
					"description": "Embed Mermaid diagrams in the architecture section",
					"default":     true,
				},
				"tone": map[string]interface{}{
					"type":        "string",
					"description": "Writing tone",
					"enum":        toneEnum,
					"default":     "professional",
				},
			},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Show what is stored for a source: ingestion stats, latest analysis, and recent chunk runs",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"source": sourceProperty("GitHub URL or local path as previously passed to another tool"),
			},
			Required: []string{"source"},
		},
	}
}
