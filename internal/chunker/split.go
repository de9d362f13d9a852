package chunker

import (
	"regexp"
	"strings"
)

// Separator is the fixed-width delimiter line wrapping each block header
var Separator = strings.Repeat("=", 48)

// Block header kinds
const (
	KindFile      = "FILE"
	KindDirectory = "DIRECTORY"
)

var headerPattern = regexp.MustCompile(`={48}\n(FILE|DIRECTORY): ([^\n]+)\n={48}\n`)

// FileBlock is one file recovered from combined content. Content holds the
// header and body exactly as the chunker emits it.
type FileBlock struct {
	Path    string
	Kind    string
	Body    string
	Content string
}

// FormatBlock renders a header and body using the delimiter convention
func FormatBlock(kind, path, body string) string {
	var b strings.Builder
	b.Grow(len(Separator)*2 + len(kind) + len(path) + len(body) + 8)
	b.WriteString(Separator)
	b.WriteByte('\n')
	b.WriteString(kind)
	b.WriteString(": ")
	b.WriteString(path)
	b.WriteByte('\n')
	b.WriteString(Separator)
	b.WriteByte('\n')
	b.WriteString(body)
	return b.String()
}

// NormalizePath converts backslashes to forward slashes and trims whitespace
func NormalizePath(p string) string {
	return strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
}

// SplitFiles parses combined content into file blocks in order of first
// appearance. A body runs until the next newline-prefixed block header or
// the end of input, so separator-like lines inside a body are kept. When a path repeats, the block keeps its first position and
// takes the last body. Content with no recognizable header yields nil.
func SplitFiles(content string) []FileBlock {
	var blocks []FileBlock
	index := make(map[string]int)

	pos := 0
	for pos < len(content) {
		loc := headerPattern.FindStringSubmatchIndex(content[pos:])
		if loc == nil {
			break
		}

		kind := content[pos+loc[2] : pos+loc[3]]
		path := NormalizePath(content[pos+loc[4] : pos+loc[5]])
		bodyStart := pos + loc[1]

		bodyEnd := len(content)
		if i := nextHeader(content, bodyStart); i >= 0 {
			bodyEnd = i
		}
		body := content[bodyStart:bodyEnd]

		// the terminator is not consumed so it can open the next header
		pos = bodyEnd

		if path == "" {
			continue
		}

		block := FileBlock{
			Path:    path,
			Kind:    kind,
			Body:    body,
			Content: FormatBlock(kind, path, body),
		}
		if i, dup := index[path]; dup {
			blocks[i] = block
			continue
		}
		index[path] = len(blocks)
		blocks = append(blocks, block)
	}

	return blocks
}

// nextHeader returns the index of the newline that precedes the first full
// block header after from, or -1
func nextHeader(content string, from int) int {
	for off := from; off < len(content); {
		loc := headerPattern.FindStringIndex(content[off:])
		if loc == nil {
			return -1
		}
		start := off + loc[0]
		if start > from && content[start-1] == '\n' {
			return start - 1
		}
		off = start + 1
	}
	return -1
}

// blockSet is an ordered, path-indexed view of split blocks
type blockSet struct {
	blocks []FileBlock
	byPath map[string]int
}

func newBlockSet(blocks []FileBlock) *blockSet {
	bs := &blockSet{blocks: blocks, byPath: make(map[string]int, len(blocks))}
	for i, b := range blocks {
		bs.byPath[b.Path] = i
	}
	return bs
}

func (bs *blockSet) has(path string) bool {
	_, ok := bs.byPath[path]
	return ok
}

func (bs *blockSet) content(path string) string {
	if i, ok := bs.byPath[path]; ok {
		return bs.blocks[i].Content
	}
	return ""
}

func (bs *blockSet) paths() []string {
	out := make([]string, len(bs.blocks))
	for i, b := range bs.blocks {
		out[i] = b.Path
	}
	return out
}
