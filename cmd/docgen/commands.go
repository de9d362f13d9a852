package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/docgen-mcp/internal/diagram"
	"github.com/dshills/docgen-mcp/internal/pipeline"
	"github.com/dshills/docgen-mcp/internal/readme"
	"github.com/dshills/docgen-mcp/pkg/types"
)

func newChunkCommand(a *app) *cobra.Command {
	var (
		strategy        string
		maxTokens       int
		overlap         int
		preserveContext bool
		summarize       bool
	)

	cmd := &cobra.Command{
		Use:   "chunk <source>",
		Short: "Split a codebase into token-bounded chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := types.ChunkStrategy(strategy)
			if !s.Valid() {
				return fmt.Errorf("unknown strategy %q", strategy)
			}
			if !cmd.Flags().Changed("max-tokens") {
				maxTokens = a.cfg.Chunk.MaxTokens
			}
			if !cmd.Flags().Changed("overlap") {
				overlap = a.cfg.Chunk.OverlapTokens
			}
			if maxTokens <= 0 {
				return errors.New("max-tokens must be positive")
			}
			if overlap < 0 {
				return errors.New("overlap must not be negative")
			}

			ingest, err := a.ingestOptions(cmd)
			if err != nil {
				return err
			}

			result, err := a.pipeline.Chunk(cmd.Context(), pipeline.ChunkRequest{
				Source:          args[0],
				Ingest:          ingest,
				Strategy:        s,
				MaxTokens:       maxTokens,
				OverlapTokens:   overlap,
				PreserveContext: preserveContext,
				Summarize:       summarize,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&strategy, "strategy", "s", string(types.StrategyHybrid), "Chunking strategy: file, directory, semantic or hybrid")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Token budget per chunk")
	cmd.Flags().IntVar(&overlap, "overlap", 0, "Tokens of the previous chunk repeated at the start of each chunk")
	cmd.Flags().BoolVar(&preserveContext, "preserve-context", true, "Keep related files together")
	cmd.Flags().BoolVar(&summarize, "summarize", false, "Ask the completion provider for a summary of each chunk")
	addIngestFlags(cmd)
	return cmd
}

func newAnalyzeCommand(a *app) *cobra.Command {
	var (
		depth string
		focus []string
	)

	cmd := &cobra.Command{
		Use:   "analyze <source>",
		Short: "Analyze the structure of a codebase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := types.ParseDepth(depth)
			if string(d) != depth {
				return fmt.Errorf("unknown depth %q", depth)
			}

			ingest, err := a.ingestOptions(cmd)
			if err != nil {
				return err
			}

			result, err := a.pipeline.Analyze(cmd.Context(), pipeline.AnalyzeRequest{
				Source: args[0],
				Ingest: ingest,
				Depth:  d,
				Focus:  focus,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&depth, "depth", "d", string(types.DepthDeep), "Analysis depth: shallow, medium or deep")
	cmd.Flags().StringSliceVar(&focus, "focus", nil, "Focus areas: architecture, dependencies, api, patterns")
	addIngestFlags(cmd)
	return cmd
}

func newDiagramCommand(a *app) *cobra.Command {
	var (
		kinds        []string
		maxNodes     int
		analysisFile string
	)

	cmd := &cobra.Command{
		Use:   "diagram <source>",
		Short: "Render Mermaid architecture diagrams",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			diagramTypes, err := diagram.ParseTypes(kinds)
			if err != nil {
				return err
			}
			analysis, err := readAnalysis(analysisFile)
			if err != nil {
				return err
			}

			result, err := a.pipeline.Diagrams(cmd.Context(), pipeline.DiagramRequest{
				Source:   args[0],
				Types:    diagramTypes,
				MaxNodes: maxNodes,
				Analysis: analysis,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringSliceVarP(&kinds, "type", "t", nil, "Diagram types (default flowchart,component)")
	cmd.Flags().IntVar(&maxNodes, "max-nodes", diagram.DefaultMaxNodes, "Maximum nodes per diagram")
	cmd.Flags().StringVar(&analysisFile, "analysis", "", "Read the analysis from this JSON file instead of analyzing the source")
	return cmd
}

func newReadmeCommand(a *app) *cobra.Command {
	var (
		sections     []string
		tone         string
		noDiagrams   bool
		analysisFile string
		markdown     bool
	)

	cmd := &cobra.Command{
		Use:   "readme [source]",
		Short: "Generate a README",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var source string
			if len(args) == 1 {
				source = args[0]
			}

			parsed, err := readme.ParseSections(sections)
			if err != nil {
				return err
			}
			t := types.ParseTone(tone)
			if string(t) != tone {
				return fmt.Errorf("unknown tone %q", tone)
			}
			analysis, err := readAnalysis(analysisFile)
			if err != nil {
				return err
			}
			if source == "" && analysis == nil {
				return errors.New("a source or --analysis file is required")
			}

			result, err := a.pipeline.Readme(cmd.Context(), pipeline.ReadmeRequest{
				Source:          source,
				Analysis:        analysis,
				Sections:        parsed,
				IncludeDiagrams: !noDiagrams,
				Tone:            t,
			})
			if err != nil {
				return err
			}
			if markdown {
				_, err := fmt.Fprint(cmd.OutOrStdout(), result.Markdown)
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringSliceVar(&sections, "sections", nil, "Sections to include (default all)")
	cmd.Flags().StringVar(&tone, "tone", string(types.ToneProfessional), "Tone: professional, casual or technical")
	cmd.Flags().BoolVar(&noDiagrams, "no-diagrams", false, "Leave diagrams out of the architecture section")
	cmd.Flags().StringVar(&analysisFile, "analysis", "", "Read the analysis from this JSON file")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Print only the Markdown document")
	return cmd
}

// readAnalysis loads a saved analyze result; an empty path yields nil
func readAnalysis(path string) (*types.AnalysisResult, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis: %w", err)
	}
	var a types.AnalysisResult
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse analysis %s: %w", path, err)
	}
	return &a, nil
}
