package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// combine renders path/body pairs into a combined blob
func combine(pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, FormatBlock(KindFile, pairs[i], pairs[i+1]))
	}
	return strings.Join(parts, "\n")
}

func TestSplitFiles_Basic(t *testing.T) {
	content := combine(
		"src/main.py", "print('hi')\n",
		"src/util.py", "def f():\n    pass",
	)

	blocks := SplitFiles(content)
	require.Len(t, blocks, 2)

	assert.Equal(t, "src/main.py", blocks[0].Path)
	assert.Equal(t, KindFile, blocks[0].Kind)
	assert.Equal(t, "print('hi')\n", blocks[0].Body)
	assert.Equal(t, FormatBlock(KindFile, "src/main.py", "print('hi')\n"), blocks[0].Content)

	assert.Equal(t, "src/util.py", blocks[1].Path)
	assert.Equal(t, "def f():\n    pass", blocks[1].Body)
}

func TestSplitFiles_EmptyAndMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"plain text", "just some text\nwith lines"},
		{"short separator", strings.Repeat("=", 47) + "\nFILE: a.py\n" + strings.Repeat("=", 47) + "\nbody"},
		{"missing second separator", Separator + "\nFILE: a.py\nbody"},
		{"unknown kind", Separator + "\nPATH: a.py\n" + Separator + "\nbody"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, SplitFiles(tt.content))
		})
	}
}

func TestSplitFiles_NormalizesPaths(t *testing.T) {
	content := Separator + "\nFILE:  src\\pkg\\mod.py  \n" + Separator + "\nx = 1"

	blocks := SplitFiles(content)
	require.Len(t, blocks, 1)
	assert.Equal(t, "src/pkg/mod.py", blocks[0].Path)
	assert.Contains(t, blocks[0].Content, "FILE: src/pkg/mod.py\n")
}

func TestSplitFiles_DirectoryKind(t *testing.T) {
	content := FormatBlock(KindDirectory, "docs", "index.md")

	blocks := SplitFiles(content)
	require.Len(t, blocks, 1)
	assert.Equal(t, KindDirectory, blocks[0].Kind)
	assert.Equal(t, "docs", blocks[0].Path)
}

func TestSplitFiles_DuplicatePathKeepsFirstPositionLastBody(t *testing.T) {
	content := combine(
		"a.py", "first",
		"b.py", "other",
		"a.py", "second",
	)

	blocks := SplitFiles(content)
	require.Len(t, blocks, 2)
	assert.Equal(t, "a.py", blocks[0].Path)
	assert.Equal(t, "second", blocks[0].Body)
	assert.Equal(t, "b.py", blocks[1].Path)
}

func TestSplitFiles_SeparatorLineInsideBody(t *testing.T) {
	body := "line1\n" + Separator + "\nnot a header"
	content := FormatBlock(KindFile, "a.py", body) + "\n" + FormatBlock(KindFile, "b.py", "B")

	blocks := SplitFiles(content)
	require.Len(t, blocks, 2)
	assert.Equal(t, body, blocks[0].Body)
	assert.Equal(t, "b.py", blocks[1].Path)
	assert.Equal(t, "B", blocks[1].Body)
}

func TestSplitFiles_HeadingUnderlineKeepsBody(t *testing.T) {
	rst := "Title\n" + strings.Repeat("=", 60) + "\nmore text"
	content := combine(
		"README.rst", rst,
		"setup.py", "setup()",
	)

	blocks := SplitFiles(content)
	require.Len(t, blocks, 2)
	assert.Equal(t, rst, blocks[0].Body)
	assert.Equal(t, "setup()", blocks[1].Body)
}

func TestSplitFiles_SetextHeadingInSingleBlock(t *testing.T) {
	md := "Heading\n" + Separator + "\n\nparagraph"
	blocks := SplitFiles(FormatBlock(KindFile, "doc.md", md))

	require.Len(t, blocks, 1)
	assert.Equal(t, md, blocks[0].Body)
}

func TestSplitFiles_EmptyBody(t *testing.T) {
	content := combine("empty.py", "", "full.py", "x")

	blocks := SplitFiles(content)
	require.Len(t, blocks, 2)
	assert.Equal(t, "", blocks[0].Body)
	assert.Equal(t, "x", blocks[1].Body)
}

func TestSplitFiles_TrailingNewlinesStayInLastBody(t *testing.T) {
	content := FormatBlock(KindFile, "a.py", "x = 1\n\n")

	blocks := SplitFiles(content)
	require.Len(t, blocks, 1)
	assert.Equal(t, "x = 1\n\n", blocks[0].Body)
}
