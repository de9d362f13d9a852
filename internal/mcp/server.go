package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/dshills/docgen-mcp/internal/config"
	"github.com/dshills/docgen-mcp/internal/ingestion"
	"github.com/dshills/docgen-mcp/internal/llm"
	"github.com/dshills/docgen-mcp/internal/pipeline"
	"github.com/dshills/docgen-mcp/internal/storage"
	"github.com/dshills/docgen-mcp/internal/tokens"
)

const (
	// ServerName is the MCP server name
	ServerName = "docgen-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	client   llm.Client
	pipeline *pipeline.Pipeline
	cfg      *config.Config
	logger   zerolog.Logger
}

// NewServer opens storage, connects the configured completion provider and
// registers the tools. Missing provider credentials leave the server in
// static mode.
func NewServer(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	client, err := llm.NewFromConfig(cfg.LLM, logger.With().Str("component", "llm").Logger())
	switch {
	case errors.Is(err, llm.ErrNoProviderEnabled):
		logger.Warn().Msg("no completion provider configured, using static analysis only")
		client = nil
	case err != nil:
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize completion provider: %w", err)
	default:
		logger.Info().Str("provider", client.Provider()).Str("model", client.Model()).Msg("completion provider ready")
	}

	opts := []pipeline.Option{
		pipeline.WithStorage(store),
		pipeline.WithEstimator(tokens.NewDefault(cfg.TokenEncoding)),
		pipeline.WithIngestionOptions(ingestion.WithToken(cfg.GitHubToken)),
		pipeline.WithLogger(logger),
	}
	if client != nil {
		opts = append(opts, pipeline.WithClient(client))
	}

	return newServer(cfg, store, client, pipeline.New(opts...), logger), nil
}

func newServer(cfg *config.Config, store storage.Storage, client llm.Client, p *pipeline.Pipeline, logger zerolog.Logger) *Server {
	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		storage:  store,
		client:   client,
		pipeline: p,
		cfg:      cfg,
		logger:   logger,
	}
	s.registerTools()
	return s
}

// Serve runs the MCP protocol on stdio until ctx is canceled or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.Close() }()
	return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

// Close releases the completion client and the database
func (s *Server) Close() error {
	var errs []error
	if s.client != nil {
		errs = append(errs, s.client.Close())
	}
	if s.storage != nil {
		errs = append(errs, s.storage.Close())
	}
	return errors.Join(errs...)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(analyzeRepositoryTool(), s.handleAnalyzeRepository)
	s.mcp.AddTool(chunkCodebaseTool(), s.handleChunkCodebase)
	s.mcp.AddTool(extractArchitectureTool(), s.handleExtractArchitecture)
	s.mcp.AddTool(generateReadmeTool(), s.handleGenerateReadme)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
