package ingestion

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// skipDirs are never descended into
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"dist":         true,
	"build":        true,
	"target":       true,
	".idea":        true,
	".vscode":      true,
}

// defaultExcludes drop generated or lock files that add tokens but no signal
var defaultExcludes = []string{
	"**/package-lock.json",
	"**/yarn.lock",
	"**/pnpm-lock.yaml",
	"**/poetry.lock",
	"**/Cargo.lock",
	"**/go.sum",
	"**/*.min.js",
	"**/*.min.css",
	"**/*.map",
	"**/*.pyc",
}

// binarySniffLen is how many leading bytes are checked for NUL
const binarySniffLen = 8000

type candidate struct {
	rel  string // slash-separated, relative to root
	abs  string
	size int64
}

// filter decides which relative paths are ingested
type filter struct {
	include []string
	exclude []string
}

func newFilter(include, exclude []string) (*filter, error) {
	for _, p := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, p)
		}
	}
	return &filter{
		include: include,
		exclude: append(append([]string{}, defaultExcludes...), exclude...),
	}, nil
}

// matches tests pattern against the full path and the base name
func matches(pattern, rel string) bool {
	if ok, _ := doublestar.Match(pattern, rel); ok {
		return true
	}
	if !strings.Contains(pattern, "/") {
		ok, _ := doublestar.Match(pattern, path.Base(rel))
		return ok
	}
	return false
}

func (f *filter) allow(rel string) bool {
	for _, p := range f.exclude {
		if matches(p, rel) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, p := range f.include {
		if matches(p, rel) {
			return true
		}
	}
	return false
}

// discover walks root and returns candidate files sorted by relative path
func discover(root string, f *filter, maxSize int64) ([]candidate, int, error) {
	var files []candidate
	skipped := 0

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if p == root {
				return nil
			}
			name := d.Name()
			if skipDirs[name] || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !f.allow(rel) {
			skipped++
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if maxSize > 0 && info.Size() > maxSize {
			skipped++
			return nil
		}

		files = append(files, candidate{rel: rel, abs: p, size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].rel < files[j].rel })
	return files, skipped, nil
}

// readText reads a file, reporting ok=false for binary content
func readText(p string) (string, bool, error) {
	fh, err := os.Open(p)
	if err != nil {
		return "", false, err
	}
	defer func() { _ = fh.Close() }()

	data, err := io.ReadAll(fh)
	if err != nil {
		return "", false, err
	}

	sniff := data
	if len(sniff) > binarySniffLen {
		sniff = sniff[:binarySniffLen]
	}
	if bytes.IndexByte(sniff, 0) >= 0 {
		return "", false, nil
	}
	return string(data), true, nil
}
