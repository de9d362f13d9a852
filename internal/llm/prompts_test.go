package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPrompt(t *testing.T) {
	out, err := RenderPrompt(PromptArchitecture, map[string]any{"code_content": "package main"})
	require.NoError(t, err)
	assert.Contains(t, out, "package main")
	assert.Contains(t, out, "architecture_pattern")
	assert.NotContains(t, out, "{{")
}

func TestRenderPrompt_Mermaid(t *testing.T) {
	out, err := RenderPrompt(PromptMermaidFlowchart, map[string]any{"info": "api -> db", "max_nodes": 12})
	require.NoError(t, err)
	assert.Contains(t, out, "Maximum 12 nodes")
	assert.Contains(t, out, "no markdown code fences")
}

func TestRenderPrompt_AllTemplatesRender(t *testing.T) {
	values := map[string]any{
		"code_content": "x", "section_name": "Usage", "analysis_summary": "s", "tech_stack": "Go",
		"tone": "professional", "info": "i", "max_nodes": 5, "file_path": "a.go", "file_content": "c",
		"file_list": "a.go, b.go", "content_preview": "p",
	}
	for name := range templates {
		out, err := RenderPrompt(name, values)
		require.NoError(t, err, name)
		assert.NotEmpty(t, out, name)
	}
}

func TestRenderPrompt_Unknown(t *testing.T) {
	_, err := RenderPrompt("nope", nil)
	assert.Error(t, err)
}
