package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/docgen-mcp/internal/llm"
	"github.com/dshills/docgen-mcp/pkg/types"
)

// names decodes a list whose items are strings or objects with a name, or a
// single string
type names []string

func (n *names) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = names{s}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(names, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj struct {
			Name string `json:"name"`
			Path string `json:"path"`
		}
		if err := json.Unmarshal(item, &obj); err == nil {
			if obj.Name != "" {
				out = append(out, obj.Name)
			} else if obj.Path != "" {
				out = append(out, obj.Path)
			}
		}
	}
	*n = out
	return nil
}

// text decodes any JSON value into a display string
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = text(s)
		return nil
	}
	*t = text(bytes.TrimSpace(data))
	return nil
}

type architectureReply struct {
	Summary             text              `json:"summary"`
	ArchitecturePattern text              `json:"architecture_pattern"`
	Components          []json.RawMessage `json:"components"`
	DataFlow            text              `json:"data_flow"`
	ExternalDeps        names             `json:"external_deps"`
	EntryPoints         names             `json:"entry_points"`
}

type componentReply struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	CompType     string `json:"comp_type"`
	Files        names  `json:"files"`
	Dependencies names  `json:"dependencies"`
	Description  text   `json:"description"`
}

type dependencyReply struct {
	RuntimeDeps []json.RawMessage `json:"runtime_deps"`
	DevDeps     []json.RawMessage `json:"dev_deps"`
}

type patternReply struct {
	Name        string   `json:"name"`
	Confidence  *float64 `json:"confidence"`
	Locations   names    `json:"locations"`
	Description text     `json:"description"`
}

type endpointReply struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Handler     string `json:"handler"`
	Description text   `json:"description"`
}

type apiReply struct {
	HTTPEndpoints []endpointReply `json:"http_endpoints"`
}

// architectureView is what the architecture task contributes
type architectureView struct {
	summary    string
	components []types.Component
}

func (a *Analyzer) complete(ctx context.Context, promptName, system string, temperature float64, content string, v any) error {
	prompt, err := llm.RenderPrompt(promptName, map[string]any{"code_content": content})
	if err != nil {
		return err
	}
	return llm.CompleteJSON(ctx, a.client, llm.Request{
		Prompt:      prompt,
		System:      system,
		Temperature: temperature,
	}, v)
}

func (a *Analyzer) llmArchitecture(ctx context.Context, content string) (architectureView, error) {
	var reply architectureReply
	err := a.complete(ctx, llm.PromptArchitecture,
		"You are an expert software architect. Analyze code and output valid JSON only.", 0.3, content, &reply)
	if err != nil {
		return architectureView{}, err
	}

	view := architectureView{summary: string(reply.Summary)}
	if view.summary == "" && reply.ArchitecturePattern != "" {
		view.summary = fmt.Sprintf("Architecture: %s.", reply.ArchitecturePattern)
		if reply.DataFlow != "" {
			view.summary += " " + string(reply.DataFlow)
		}
	}

	for _, raw := range reply.Components {
		var name string
		if err := json.Unmarshal(raw, &name); err == nil {
			view.components = append(view.components, types.Component{Name: name, CompType: "module"})
			continue
		}
		var c componentReply
		if err := json.Unmarshal(raw, &c); err != nil {
			continue
		}
		if c.Name == "" {
			c.Name = "Unknown"
		}
		compType := firstNonEmpty(c.CompType, c.Type, "module")
		view.components = append(view.components, types.Component{
			Name:         c.Name,
			CompType:     compType,
			Files:        c.Files,
			Dependencies: c.Dependencies,
			Description:  string(c.Description),
		})
	}
	return view, nil
}

func (a *Analyzer) llmDependencies(ctx context.Context, content string) ([]types.Dependency, error) {
	var reply dependencyReply
	err := a.complete(ctx, llm.PromptDependencies,
		"You are a dependency analyst. Output valid JSON only.", 0.2, content, &reply)
	if err != nil {
		return nil, err
	}

	var deps []types.Dependency
	for _, group := range []struct {
		items   []json.RawMessage
		depType string
	}{
		{reply.RuntimeDeps, DepRuntime},
		{reply.DevDeps, DepDev},
	} {
		for _, raw := range group.items {
			var name string
			if err := json.Unmarshal(raw, &name); err == nil {
				deps = append(deps, types.Dependency{Name: name, DepType: group.depType})
				continue
			}
			var d struct {
				Name    string `json:"name"`
				Version string `json:"version"`
				Source  string `json:"source"`
			}
			if err := json.Unmarshal(raw, &d); err == nil && d.Name != "" {
				deps = append(deps, types.Dependency{Name: d.Name, Version: d.Version, DepType: group.depType, Source: d.Source})
			}
		}
	}
	return deps, nil
}

func (a *Analyzer) llmPatterns(ctx context.Context, content string) ([]types.PatternMatch, error) {
	var raw json.RawMessage
	err := a.complete(ctx, llm.PromptPatterns,
		"You are a design patterns expert. Output valid JSON only.", 0.3, content, &raw)
	if err != nil {
		return nil, err
	}

	var replies []patternReply
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &replies)
	} else {
		var wrapped struct {
			Patterns []patternReply `json:"patterns"`
			Items    []patternReply `json:"items"`
		}
		err = json.Unmarshal(trimmed, &wrapped)
		replies = append(wrapped.Patterns, wrapped.Items...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode patterns: %w", err)
	}

	patterns := make([]types.PatternMatch, 0, len(replies))
	for _, p := range replies {
		confidence := 0.5
		if p.Confidence != nil {
			confidence = clamp(*p.Confidence, 0, 1)
		}
		patterns = append(patterns, types.PatternMatch{
			Name:        firstNonEmpty(p.Name, "Unknown"),
			Confidence:  confidence,
			Locations:   p.Locations,
			Description: string(p.Description),
		})
	}
	return patterns, nil
}

func (a *Analyzer) llmAPI(ctx context.Context, content string) ([]types.APIEndpoint, error) {
	var reply apiReply
	err := a.complete(ctx, llm.PromptAPI,
		"You are an API documentation expert. Output valid JSON only.", 0.2, content, &reply)
	if err != nil {
		return nil, err
	}

	endpoints := make([]types.APIEndpoint, 0, len(reply.HTTPEndpoints))
	for _, ep := range reply.HTTPEndpoints {
		endpoints = append(endpoints, types.APIEndpoint{
			Path:        firstNonEmpty(ep.Path, "/"),
			Method:      strings.ToUpper(firstNonEmpty(ep.Method, "GET")),
			Handler:     ep.Handler,
			Description: string(ep.Description),
		})
	}
	return endpoints, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
