package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dshills/docgen-mcp/internal/config"
	"github.com/dshills/docgen-mcp/internal/ingestion"
	"github.com/dshills/docgen-mcp/internal/llm"
	"github.com/dshills/docgen-mcp/internal/logging"
	"github.com/dshills/docgen-mcp/internal/pipeline"
	"github.com/dshills/docgen-mcp/internal/storage"
	"github.com/dshills/docgen-mcp/internal/tokens"
)

// app holds what every subcommand shares after PersistentPreRunE
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	pipeline *pipeline.Pipeline
	closers  []io.Closer

	store bool
	noLLM bool
	quiet bool
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "docgen",
		Short: "Analyze, chunk and document codebases from the command line",
		Long: `docgen runs the same pipeline as the docgen MCP server once, against a
local path or a remote git repository, and prints the JSON result to stdout.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().BoolVar(&a.store, "store", false, "Record results in the docgen database")
	root.PersistentFlags().BoolVar(&a.noLLM, "no-llm", false, "Skip the completion provider and use static analysis only")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "Only log errors")

	root.AddCommand(
		newChunkCommand(a),
		newAnalyzeCommand(a),
		newDiagramCommand(a),
		newReadmeCommand(a),
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Run: func(cmd *cobra.Command, _ []string) {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "docgen version %s\n", version)
				fmt.Fprintf(out, "built: %s\n", buildTime)
				fmt.Fprintf(out, "sqlite driver: %s (%s)\n", storage.DriverName, storage.BuildMode)
			},
		},
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.quiet {
		level = "error"
	}
	a.logger = logging.Setup(level, "console", cmd.ErrOrStderr())

	opts := []pipeline.Option{
		pipeline.WithEstimator(tokens.NewDefault(cfg.TokenEncoding)),
		pipeline.WithIngestionOptions(ingestion.WithToken(cfg.GitHubToken)),
		pipeline.WithLogger(a.logger),
	}

	if a.store {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
		store, err := storage.NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		a.closers = append(a.closers, store)
		opts = append(opts, pipeline.WithStorage(store))
	}

	if !a.noLLM {
		client, err := llm.NewFromConfig(cfg.LLM, a.logger.With().Str("component", "llm").Logger())
		switch {
		case errors.Is(err, llm.ErrNoProviderEnabled):
			a.logger.Debug().Msg("no completion provider configured")
		case err != nil:
			_ = a.close()
			return err
		default:
			a.closers = append(a.closers, client)
			opts = append(opts, pipeline.WithClient(client))
		}
	}

	a.pipeline = pipeline.New(opts...)
	return nil
}

func (a *app) close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) ingestOptions(cmd *cobra.Command) (ingestion.Options, error) {
	include, err := cmd.Flags().GetStringSlice("include")
	if err != nil {
		return ingestion.Options{}, err
	}
	exclude, err := cmd.Flags().GetStringSlice("exclude")
	if err != nil {
		return ingestion.Options{}, err
	}
	maxSize, err := cmd.Flags().GetInt64("max-file-size")
	if err != nil {
		return ingestion.Options{}, err
	}
	if maxSize <= 0 {
		maxSize = a.cfg.MaxFileSize
	}
	return ingestion.Options{IncludePatterns: include, ExcludePatterns: exclude, MaxFileSize: maxSize}, nil
}

func addIngestFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("include", nil, "Glob patterns to include")
	cmd.Flags().StringSlice("exclude", nil, "Additional glob patterns to exclude")
	cmd.Flags().Int64("max-file-size", 0, "Skip files larger than this many bytes")
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
