package mcp

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docgen-mcp/internal/config"
)

func TestNewServer(t *testing.T) {
	cfg := config.Default()
	cfg.DBPath = ":memory:"
	cfg.TokenEncoding = "unknown-encoding"

	server, err := NewServer(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer server.Close()

	assert.NotNil(t, server.mcp)
	assert.NotNil(t, server.storage)
	assert.Nil(t, server.client, "no provider credentials means static mode")
	assert.False(t, server.pipeline.HasClient())
}

func TestNewServer_CreatesDatabaseDirectory(t *testing.T) {
	cfg := config.Default()
	cfg.DBPath = t.TempDir() + "/nested/docgen.db"
	cfg.TokenEncoding = "unknown-encoding"

	server, err := NewServer(cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, server.Close())
}

func TestNewServer_UnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.DBPath = ":memory:"
	cfg.LLM.Provider = "carrier-pigeon"

	_, err := NewServer(cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestToolDefinitions(t *testing.T) {
	tools := []mcp.Tool{
		analyzeRepositoryTool(),
		chunkCodebaseTool(),
		extractArchitectureTool(),
		generateReadmeTool(),
		getStatusTool(),
	}

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
		assert.Equal(t, "object", tool.InputSchema.Type, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
	}
	assert.Equal(t, []string{"analyze_repository", "chunk_codebase", "extract_architecture", "generate_readme", "get_status"}, names)

	assert.Equal(t, []string{"source"}, chunkCodebaseTool().InputSchema.Required)
	assert.Empty(t, generateReadmeTool().InputSchema.Required)
	assert.Contains(t, chunkCodebaseTool().InputSchema.Properties, "strategy")
	assert.Contains(t, extractArchitectureTool().InputSchema.Properties, "analysis_json")
}
