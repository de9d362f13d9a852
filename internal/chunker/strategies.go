package chunker

import (
	"path"
	"sort"
	"strings"

	"github.com/dshills/docgen-mcp/pkg/types"
)

// run carries the inputs of one chunking invocation
type run struct {
	blocks  *blockSet
	records map[string]types.FileRecord
	cfg     Config
}

// fileUnit builds a single-file unit
func (c *Chunker) fileUnit(r *run, p string) unit {
	content := r.blocks.content(p)
	return unit{files: []string{p}, content: content, tokens: c.estimate(content)}
}

// groupUnit builds a unit from several files, estimated as one text
func (c *Chunker) groupUnit(r *run, paths []string) unit {
	var b strings.Builder
	for _, p := range paths {
		b.WriteString(r.blocks.content(p))
	}
	content := b.String()
	files := make([]string, len(paths))
	copy(files, paths)
	return unit{files: files, content: content, tokens: c.estimate(content)}
}

// chunkByFile packs individual files in split order
func (c *Chunker) chunkByFile(r *run) []*types.Chunk {
	p := newPacker(r.cfg.MaxTokens)
	for _, b := range r.blocks.blocks {
		p.add(c.fileUnit(r, b.Path))
	}
	return p.finish()
}

// chunkByDirectory packs whole directories, heaviest directory names first.
// A directory over budget on its own is packed file by file instead.
func (c *Chunker) chunkByDirectory(r *run) []*types.Chunk {
	var dirs []string
	members := make(map[string][]string)
	for _, b := range r.blocks.blocks {
		dir := path.Dir(b.Path)
		if _, ok := members[dir]; !ok {
			dirs = append(dirs, dir)
		}
		members[dir] = append(members[dir], b.Path)
	}

	sort.SliceStable(dirs, func(i, j int) bool {
		return c.directoryWeight(dirs[i]) > c.directoryWeight(dirs[j])
	})

	p := newPacker(r.cfg.MaxTokens)
	for _, dir := range dirs {
		u := c.groupUnit(r, members[dir])
		if p.fits(u) {
			p.add(u)
			continue
		}

		c.logger.Debug().Str("dir", dir).Int("tokens", u.tokens).Msg("directory exceeds budget, packing per file")
		for _, f := range members[dir] {
			p.add(c.fileUnit(r, f))
		}
	}
	return p.finish()
}

// chunkSemantic packs import clusters in discovery order
func (c *Chunker) chunkSemantic(r *run) []*types.Chunk {
	g := buildImportGraph(r.blocks, c.logger)
	clusters := FindClusters(r.blocks.paths(), g)

	c.logger.Debug().Int("edges", g.EdgeCount()).Int("clusters", len(clusters)).Msg("import graph built")

	p := newPacker(r.cfg.MaxTokens)
	for _, cluster := range clusters {
		p.add(c.groupUnit(r, cluster))
	}
	return p.finish()
}

// chunkHybrid packs importance groups: each file in descending importance
// together with its not yet placed direct relations. Sealed chunks record
// the highest member importance and then receive overlap from their
// predecessor.
func (c *Chunker) chunkHybrid(r *run) []*types.Chunk {
	type scored struct {
		path  string
		score float64
	}

	files := make([]scored, 0, len(r.blocks.blocks))
	for _, b := range r.blocks.blocks {
		files = append(files, scored{path: b.Path, score: c.fileImportance(b.Path, r.records)})
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].score > files[j].score
	})

	var g *ImportGraph
	if r.cfg.PreserveContext {
		g = buildImportGraph(r.blocks, c.logger)
	}

	processed := make(map[string]struct{}, len(files))
	p := newPacker(r.cfg.MaxTokens)
	for _, f := range files {
		if _, done := processed[f.path]; done {
			continue
		}

		group := []string{f.path}
		processed[f.path] = struct{}{}
		if g != nil {
			for _, rel := range g.Neighbors(f.path) {
				if _, done := processed[rel]; done || !r.blocks.has(rel) {
					continue
				}
				group = append(group, rel)
				processed[rel] = struct{}{}
			}
		}

		p.add(c.groupUnit(r, group))
	}

	chunks := p.finish()
	for _, chunk := range chunks {
		best := 0.0
		for i, f := range chunk.Files {
			if s := c.fileImportance(f, r.records); i == 0 || s > best {
				best = s
			}
		}
		chunk.ImportanceScore = best
	}

	return injectOverlap(chunks, r.cfg.OverlapTokens)
}
