package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/dshills/docgen-mcp/internal/config"
	"github.com/dshills/docgen-mcp/internal/logging"
	"github.com/dshills/docgen-mcp/internal/mcp"
	"github.com/dshills/docgen-mcp/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("docgen MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// stdout is reserved for the MCP protocol
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	logger.Info().
		Str("version", version).
		Str("build_mode", storage.BuildMode).
		Str("driver", storage.DriverName).
		Str("db_path", cfg.DBPath).
		Msg("docgen MCP server starting")

	server, err := mcp.NewServer(cfg, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create MCP server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Info().Msg("MCP server ready, listening on stdio")
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
		<-errChan
	case err := <-errChan:
		if err != nil && ctx.Err() == nil {
			log.Fatal().Err(err).Msg("server error")
		}
	}

	logger.Info().Msg("server stopped")
}
