package chunker

import (
	"path"

	"github.com/dshills/docgen-mcp/pkg/types"
)

// DefaultDirectoryWeight applies to directory names missing from the table
const DefaultDirectoryWeight = 50

// DefaultDirectoryWeights ranks directories by their final path segment
func DefaultDirectoryWeights() map[string]int {
	return map[string]int{
		"src":       100,
		"lib":       90,
		"core":      85,
		"api":       80,
		"models":    75,
		"services":  75,
		"utils":     60,
		"tests":     50,
		"__tests__": 50,
		"test":      50,
	}
}

// DefaultFileWeights is the fallback importance for well-known filenames
// used when ingestion metadata does not list a file
func DefaultFileWeights() map[string]float64 {
	return map[string]float64{
		"main.py":        100,
		"__main__.py":    100,
		"app.py":         100,
		"index.ts":       100,
		"server.py":      100,
		"main.go":        100,
		"pyproject.toml": 90,
		"package.json":   90,
		"go.mod":         90,
	}
}

// directoryWeight scores dir by its last segment
func (c *Chunker) directoryWeight(dir string) int {
	if w, ok := c.dirWeights[path.Base(dir)]; ok {
		return w
	}
	return DefaultDirectoryWeight
}

// fileImportance uses ingestion metadata first, then the filename table
func (c *Chunker) fileImportance(p string, records map[string]types.FileRecord) float64 {
	if rec, ok := records[p]; ok {
		return rec.ImportanceOr(types.DefaultImportance)
	}
	if w, ok := c.fileWeights[path.Base(p)]; ok {
		return w
	}
	return types.DefaultImportance
}
