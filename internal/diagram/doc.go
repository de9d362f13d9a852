// Package diagram generates Mermaid diagrams from a codebase analysis.
//
// With a completion client every requested type is drafted by the model,
// stripped of code fences, validated and, when validation fails, repaired
// with AutoFix and validated again. Without a client the flowchart and
// component diagrams are drawn directly from the analyzed components.
package diagram
