package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/docgen-mcp/internal/llm"
	"github.com/dshills/docgen-mcp/pkg/types"
)

const (
	// previewChars bounds the content sent with each summary prompt
	previewChars = 2000
	// summaryWorkers bounds concurrent summary requests
	summaryWorkers = 4
)

// summarize fills ContextSummary for each chunk. Single-file chunks use the
// code summary prompt, multi-file chunks the chunk context prompt. Failed
// requests leave the summary empty.
func (p *Pipeline) summarize(ctx context.Context, chunks []*types.Chunk) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryWorkers)

	for _, chunk := range chunks {
		g.Go(func() error {
			summary, err := p.summarizeChunk(gctx, chunk)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				p.logger.Warn().Err(err).Int("chunk", chunk.ID).Msg("chunk summary failed")
				return nil
			}
			chunk.ContextSummary = summary
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (p *Pipeline) summarizeChunk(ctx context.Context, chunk *types.Chunk) (string, error) {
	preview := headRunes(chunk.Content, previewChars)

	var prompt string
	var err error
	if len(chunk.Files) == 1 {
		prompt, err = llm.RenderPrompt(llm.PromptCodeSummary, map[string]any{
			"file_path":    chunk.Files[0],
			"file_content": preview,
		})
	} else {
		prompt, err = llm.RenderPrompt(llm.PromptChunkContext, map[string]any{
			"file_list":       strings.Join(chunk.Files, ", "),
			"content_preview": preview,
		})
	}
	if err != nil {
		return "", err
	}

	resp, err := p.client.Complete(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: 0.3,
		MaxTokens:   256,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(llm.StripFences(resp.Content)), nil
}

func headRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func encodeJSON(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return b, nil
}
