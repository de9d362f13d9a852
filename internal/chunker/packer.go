package chunker

import (
	"strings"

	"github.com/dshills/docgen-mcp/pkg/types"
)

// unit is an indivisible item offered to the packer
type unit struct {
	files   []string
	content string
	tokens  int
}

// packer greedily fills one open chunk at a time under a token budget.
// Units are never reordered and sealed chunks are never repacked.
type packer struct {
	budget int
	sealed []*types.Chunk

	files   []string
	content strings.Builder
	tokens  int
}

func newPacker(budget int) *packer {
	return &packer{budget: budget}
}

// add appends u to the open chunk, sealing it first when u would overflow
// the budget. An oversized unit becomes a chunk of its own.
func (p *packer) add(u unit) {
	if p.tokens+u.tokens > p.budget && len(p.files) > 0 {
		p.seal()
	}
	p.files = append(p.files, u.files...)
	p.content.WriteString(u.content)
	p.tokens += u.tokens
}

// fits reports whether u alone is within budget
func (p *packer) fits(u unit) bool {
	return u.tokens <= p.budget
}

func (p *packer) seal() {
	if len(p.files) == 0 {
		return
	}
	p.sealed = append(p.sealed, &types.Chunk{
		ID:         len(p.sealed),
		Files:      p.files,
		Content:    p.content.String(),
		TokenCount: p.tokens,
	})
	p.files = nil
	p.content.Reset()
	p.tokens = 0
}

// finish seals any open chunk and returns the result list
func (p *packer) finish() []*types.Chunk {
	p.seal()
	if p.sealed == nil {
		return []*types.Chunk{}
	}
	return p.sealed
}
