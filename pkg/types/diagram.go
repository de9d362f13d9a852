package types

import "strings"

// DiagramType names a Mermaid diagram family
type DiagramType string

const (
	DiagramFlowchart DiagramType = "flowchart"
	DiagramSequence  DiagramType = "sequence"
	DiagramClass     DiagramType = "class"
	DiagramER        DiagramType = "er"
	DiagramState     DiagramType = "state"
	DiagramComponent DiagramType = "component"
)

// DefaultDiagramTypes is used when the caller requests none
var DefaultDiagramTypes = []DiagramType{DiagramFlowchart, DiagramComponent}

// ParseDiagramType returns the diagram type for name and whether it is known
func ParseDiagramType(name string) (DiagramType, bool) {
	t := DiagramType(strings.ToLower(strings.TrimSpace(name)))
	switch t {
	case DiagramFlowchart, DiagramSequence, DiagramClass, DiagramER, DiagramState, DiagramComponent:
		return t, true
	default:
		return "", false
	}
}

// MermaidDiagram is a single generated diagram with its validation outcome
type MermaidDiagram struct {
	DiagramType      DiagramType `json:"diagram_type"`
	Title            string      `json:"title"`
	Content          string      `json:"content"`
	Description      string      `json:"description,omitempty"`
	NodeCount        int         `json:"node_count"`
	IsValid          bool        `json:"is_valid"`
	ValidationErrors []string    `json:"validation_errors,omitempty"`
}

// Relationship links two components
type Relationship struct {
	Source  string `json:"source"`
	Target  string `json:"target"`
	RelType string `json:"rel_type"`
	Label   string `json:"label,omitempty"`
}

// DiagramResult is the output of architecture extraction
type DiagramResult struct {
	Source              string                          `json:"source"`
	Diagrams            map[DiagramType]*MermaidDiagram `json:"diagrams"`
	ArchitectureSummary string                          `json:"architecture_summary,omitempty"`
	Relationships       []Relationship                  `json:"relationships"`
	Components          []string                        `json:"components"`
}
