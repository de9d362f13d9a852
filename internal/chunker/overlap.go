package chunker

import (
	"unicode/utf8"

	"github.com/dshills/docgen-mcp/pkg/types"
)

const (
	// OverlapHeader marks text copied from the previous chunk
	OverlapHeader = "[Context from previous chunk]"

	// overlapCharsPerToken sizes the copied tail from the overlap token count
	overlapCharsPerToken = 4
)

// injectOverlap prepends the tail of each chunk's predecessor to it. Tails are
// taken from the sealed contents before any injection. Overlap tokens are
// added to the receiving chunk's count without being charged to any budget.
func injectOverlap(chunks []*types.Chunk, overlap int) []*types.Chunk {
	if overlap <= 0 || len(chunks) < 2 {
		return chunks
	}

	sealed := make([]string, len(chunks))
	for i, c := range chunks {
		sealed[i] = c.Content
	}

	for i := 1; i < len(chunks); i++ {
		tail := trailingText(sealed[i-1], overlap*overlapCharsPerToken)
		chunks[i].Content = OverlapHeader + "\n" + tail + "\n\n" + chunks[i].Content
		chunks[i].TokenCount += overlap
		chunks[i].OverlapWithPrevious = overlap
	}

	return chunks
}

// trailingText returns at most n trailing bytes of s without splitting a rune
func trailingText(s string, n int) string {
	if n >= len(s) {
		return s
	}
	start := len(s) - n
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return s[start:]
}
