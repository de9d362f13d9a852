package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/docgen-mcp/internal/diagram"
	"github.com/dshills/docgen-mcp/internal/ingestion"
	"github.com/dshills/docgen-mcp/internal/pipeline"
	"github.com/dshills/docgen-mcp/internal/readme"
	"github.com/dshills/docgen-mcp/internal/storage"
	"github.com/dshills/docgen-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams  = -32602 // Invalid method parameters
	ErrorCodeInternalError  = -32603 // Internal JSON-RPC error
	ErrorCodeSourceNotFound = -32001 // Source path, repository or stored record does not exist
	ErrorCodeInProgress     = -32002 // The source is already being ingested
	ErrorCodeMissingInput   = -32004 // A required input is missing or empty
)

// handleAnalyzeRepository handles the analyze_repository tool invocation
func (s *Server) handleAnalyzeRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	source, err := requireSource(args)
	if err != nil {
		return nil, err
	}

	maxFileSize := int64(getIntDefault(args, "max_file_size", int(s.cfg.MaxFileSize)))
	if maxFileSize <= 0 {
		return nil, invalidParam("max_file_size", maxFileSize, "must be positive")
	}

	depth := getStringDefault(args, "analysis_depth", string(types.DepthDeep))
	if !oneOf(depth, depthEnum) {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid analysis_depth", map[string]interface{}{
			"param":   "analysis_depth",
			"value":   depth,
			"allowed": depthEnum,
		})
	}

	focus := getStringSlice(args, "focus_areas")
	for _, f := range focus {
		if !oneOf(f, focusEnum) {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid focus_areas entry", map[string]interface{}{
				"param":   "focus_areas",
				"value":   f,
				"allowed": focusEnum,
			})
		}
	}

	start := time.Now()
	result, err := s.pipeline.Analyze(ctx, pipeline.AnalyzeRequest{
		Source: source,
		Ingest: ingestion.Options{
			IncludePatterns: getStringSlice(args, "include_patterns"),
			ExcludePatterns: getStringSlice(args, "exclude_patterns"),
			MaxFileSize:     maxFileSize,
		},
		Depth: types.ParseDepth(depth),
		Focus: focus,
	})
	if err != nil {
		return nil, s.toolFailure("analyze_repository", source, err)
	}

	s.logger.Info().
		Str("tool", "analyze_repository").
		Str("source", source).
		Int("files", result.TotalFiles).
		Dur("duration", time.Since(start)).
		Msg("tool completed")
	return textResult(result)
}

// handleChunkCodebase handles the chunk_codebase tool invocation
func (s *Server) handleChunkCodebase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	source, err := requireSource(args)
	if err != nil {
		return nil, err
	}

	maxTokens := getIntDefault(args, "max_tokens", s.cfg.Chunk.MaxTokens)
	if maxTokens <= 0 {
		return nil, invalidParam("max_tokens", maxTokens, "must be positive")
	}

	overlap := getIntDefault(args, "overlap_tokens", s.cfg.Chunk.OverlapTokens)
	if overlap < 0 {
		return nil, invalidParam("overlap_tokens", overlap, "must not be negative")
	}

	strategy := getStringDefault(args, "strategy", s.cfg.Chunk.Strategy)
	if !oneOf(strategy, strategyEnum) {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid strategy", map[string]interface{}{
			"param":   "strategy",
			"value":   strategy,
			"allowed": strategyEnum,
		})
	}

	start := time.Now()
	result, err := s.pipeline.Chunk(ctx, pipeline.ChunkRequest{
		Source:          source,
		Ingest:          ingestion.Options{MaxFileSize: s.cfg.MaxFileSize},
		Strategy:        types.ParseStrategy(strategy),
		MaxTokens:       maxTokens,
		OverlapTokens:   overlap,
		PreserveContext: getBoolDefault(args, "preserve_context", true),
		Summarize:       getBoolDefault(args, "summarize", false),
	})
	if err != nil {
		return nil, s.toolFailure("chunk_codebase", source, err)
	}

	s.logger.Info().
		Str("tool", "chunk_codebase").
		Str("source", source).
		Int("chunks", result.TotalChunks).
		Int("tokens", result.TotalTokens).
		Dur("duration", time.Since(start)).
		Msg("tool completed")
	return textResult(result)
}

// handleExtractArchitecture handles the extract_architecture tool invocation
func (s *Server) handleExtractArchitecture(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	source, err := requireSource(args)
	if err != nil {
		return nil, err
	}

	kinds, err := diagram.ParseTypes(getStringSlice(args, "diagram_types"))
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid diagram_types", map[string]interface{}{
			"param":   "diagram_types",
			"reason":  err.Error(),
			"allowed": diagramEnum,
		})
	}

	maxNodes := getIntDefault(args, "max_nodes", diagram.DefaultMaxNodes)
	if maxNodes <= 0 {
		return nil, invalidParam("max_nodes", maxNodes, "must be positive")
	}

	analysis, err := analysisParam(args)
	if err != nil {
		return nil, err
	}

	result, err := s.pipeline.Diagrams(ctx, pipeline.DiagramRequest{
		Source:   source,
		Types:    kinds,
		MaxNodes: maxNodes,
		Analysis: analysis,
	})
	if err != nil {
		return nil, s.toolFailure("extract_architecture", source, err)
	}

	s.logger.Info().
		Str("tool", "extract_architecture").
		Str("source", source).
		Int("diagrams", len(result.Diagrams)).
		Msg("tool completed")
	return textResult(result)
}

// handleGenerateReadme handles the generate_readme tool invocation
func (s *Server) handleGenerateReadme(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	source := getStringDefault(args, "source", "")
	analysis, err := analysisParam(args)
	if err != nil {
		return nil, err
	}
	if source == "" && analysis == nil {
		return nil, newMCPError(ErrorCodeMissingInput, "either source or analysis_json is required", map[string]interface{}{
			"param":  "source",
			"reason": "missing or empty",
		})
	}

	sections, err := readme.ParseSections(getStringSlice(args, "sections"))
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid sections", map[string]interface{}{
			"param":   "sections",
			"reason":  err.Error(),
			"allowed": sectionEnum,
		})
	}

	tone := getStringDefault(args, "tone", string(types.ToneProfessional))
	if !oneOf(tone, toneEnum) {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid tone", map[string]interface{}{
			"param":   "tone",
			"value":   tone,
			"allowed": toneEnum,
		})
	}

	result, err := s.pipeline.Readme(ctx, pipeline.ReadmeRequest{
		Source:          source,
		Analysis:        analysis,
		Sections:        sections,
		IncludeDiagrams: getBoolDefault(args, "include_diagrams", true),
		Tone:            types.ParseTone(tone),
	})
	if err != nil {
		return nil, s.toolFailure("generate_readme", source, err)
	}

	s.logger.Info().
		Str("tool", "generate_readme").
		Str("source", result.Source).
		Int("sections", len(result.Sections)).
		Int("words", result.WordCount).
		Msg("tool completed")
	return textResult(result)
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	source, err := requireSource(args)
	if err != nil {
		return nil, err
	}

	status, err := s.pipeline.Status(ctx, source)
	if errors.Is(err, storage.ErrNotFound) {
		response := map[string]interface{}{
			"ingested": false,
			"source":   source,
			"message":  "Source not ingested. Use analyze_repository or chunk_codebase first.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, s.toolFailure("get_status", source, err)
	}

	runs := make([]map[string]interface{}, 0, len(status.RecentChunkRuns))
	for _, run := range status.RecentChunkRuns {
		runs = append(runs, map[string]interface{}{
			"strategy":       run.Strategy,
			"max_tokens":     run.MaxTokens,
			"overlap_tokens": run.OverlapTokens,
			"total_chunks":   run.TotalChunks,
			"total_tokens":   run.TotalTokens,
			"created_at":     run.CreatedAt.Format(time.RFC3339),
		})
	}

	analysis := map[string]interface{}{"count": status.AnalysisCount}
	if status.LatestAnalysisAt != nil {
		analysis["latest_at"] = status.LatestAnalysisAt.Format(time.RFC3339)
		analysis["latest_depth"] = status.LatestDepth
	}

	response := map[string]interface{}{
		"ingested": true,
		"source": map[string]interface{}{
			"source":           status.Source.Source,
			"digest":           status.Source.Digest,
			"file_count":       status.Source.FileCount,
			"total_tokens":     status.Source.TotalTokens,
			"last_ingested_at": status.Source.LastIngestedAt.Format(time.RFC3339),
		},
		"analyses": analysis,
		"chunk_runs": map[string]interface{}{
			"count":  status.ChunkRunCount,
			"recent": runs,
		},
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"schema_version":      status.Health.SchemaVersion,
			"database_size_mb":    fmt.Sprintf("%.2f", status.DatabaseSizeMB),
			"llm_enabled":         s.pipeline.HasClient(),
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// toolFailure logs a failed tool call and maps err onto an MCP error
func (s *Server) toolFailure(tool, source string, err error) error {
	s.logger.Error().Err(err).Str("tool", tool).Str("source", source).Msg("tool failed")

	data := map[string]interface{}{"error": err.Error()}
	switch {
	case errors.Is(err, ingestion.ErrSourceNotFound), errors.Is(err, ingestion.ErrNotDirectory),
		errors.Is(err, ingestion.ErrCloneFailed), errors.Is(err, storage.ErrNotFound):
		return newMCPError(ErrorCodeSourceNotFound, "source not found", data)
	case errors.Is(err, ingestion.ErrInProgress):
		return newMCPError(ErrorCodeInProgress, "source is already being ingested", data)
	case errors.Is(err, ingestion.ErrInvalidPattern), errors.Is(err, types.ErrUnknownDiagram),
		errors.Is(err, types.ErrUnknownSection):
		return newMCPError(ErrorCodeInvalidParams, "invalid parameters", data)
	case errors.Is(err, types.ErrEmptySource), errors.Is(err, pipeline.ErrNoInput):
		return newMCPError(ErrorCodeMissingInput, "missing input", data)
	default:
		return newMCPError(ErrorCodeInternalError, tool+" failed", data)
	}
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func invalidParam(name string, value interface{}, reason string) error {
	return newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("%s %s", name, reason), map[string]interface{}{
		"param": name,
		"value": value,
	})
}

func arguments(request mcp.CallToolRequest) (map[string]interface{}, error) {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}, nil
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	return args, nil
}

func requireSource(args map[string]interface{}) (string, error) {
	source, ok := args["source"].(string)
	if !ok || source == "" {
		return "", newMCPError(ErrorCodeMissingInput, "source parameter is required", map[string]interface{}{
			"param":  "source",
			"reason": "missing or empty",
		})
	}
	return source, nil
}

// analysisParam decodes the optional analysis_json argument
func analysisParam(args map[string]interface{}) (*types.AnalysisResult, error) {
	raw, _ := args["analysis_json"].(string)
	if raw == "" {
		return nil, nil
	}

	var analysis types.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "analysis_json is not a valid analysis", map[string]interface{}{
			"param":  "analysis_json",
			"reason": err.Error(),
		})
	}
	return &analysis, nil
}

func textResult(v interface{}) (*mcp.CallToolResult, error) {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to encode result", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(string(bytes)), nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	switch val := args[key].(type) {
	case float64:
		return int(val)
	case int:
		return val
	case int64:
		return int(val)
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok && val != "" {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter, skipping non-string items
func getStringSlice(args map[string]interface{}, key string) []string {
	switch val := args[key].(type) {
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
