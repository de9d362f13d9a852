package readme

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// WordCount counts the words of rendered prose in a markdown document.
// Code blocks and raw HTML are excluded.
func WordCount(md string) int {
	return len(strings.Fields(proseText(md)))
}

// Headings returns the text of every heading in document order
func Headings(md string) []string {
	src := []byte(md)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var headings []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindHeading {
			return ast.WalkContinue, nil
		}
		var b strings.Builder
		collectText(n, src, &b)
		headings = append(headings, strings.TrimSpace(b.String()))
		return ast.WalkSkipChildren, nil
	})
	return headings
}

func proseText(md string) string {
	src := []byte(md)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	collectText(doc, src, &b)
	return b.String()
}

func collectText(root ast.Node, src []byte, b *strings.Builder) {
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindHTMLBlock, ast.KindRawHTML:
			return ast.WalkSkipChildren, nil
		}
		if n.Type() == ast.TypeBlock {
			b.WriteByte(' ')
		}
		if t, ok := n.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
}
