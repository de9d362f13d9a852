package chunker

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// ImportGraph is a symmetric adjacency relation between file paths. The
// direction of each import is kept separately for callers that need it.
type ImportGraph struct {
	adj     map[string]map[string]struct{}
	imports map[string]map[string]struct{}
}

func newImportGraph() *ImportGraph {
	return &ImportGraph{
		adj:     make(map[string]map[string]struct{}),
		imports: make(map[string]map[string]struct{}),
	}
}

// relate records an undirected edge for an import of b by a. Self edges
// are ignored.
func (g *ImportGraph) relate(a, b string) {
	if a == b {
		return
	}
	link(g.adj, a, b)
	link(g.adj, b, a)
	link(g.imports, a, b)
}

func link(m map[string]map[string]struct{}, from, to string) {
	set, ok := m[from]
	if !ok {
		set = make(map[string]struct{})
		m[from] = set
	}
	set[to] = struct{}{}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Neighbors returns the files related to p in path order
func (g *ImportGraph) Neighbors(p string) []string {
	return sortedKeys(g.adj[p])
}

// Imports returns the files p imports in path order
func (g *ImportGraph) Imports(p string) []string {
	return sortedKeys(g.imports[p])
}

// Related reports whether a and b share an edge
func (g *ImportGraph) Related(a, b string) bool {
	_, ok := g.adj[a][b]
	return ok
}

// EdgeCount returns the number of undirected edges
func (g *ImportGraph) EdgeCount() int {
	n := 0
	for _, set := range g.adj {
		n += len(set)
	}
	return n / 2
}

// importDetector finds raw import targets in one ecosystem and resolves them
// to files in the batch
type importDetector struct {
	name       string
	extensions []string
	detect     func(path, text string) []string
	resolve    func(idx *pathIndex, from, target string) []string
}

// detectors is the closed registry of supported ecosystems
var detectors = []*importDetector{
	pythonDetector,
	javascriptDetector,
	goDetector,
}

var detectorsByExt = func() map[string]*importDetector {
	m := make(map[string]*importDetector)
	for _, d := range detectors {
		for _, ext := range d.extensions {
			m[ext] = d
		}
	}
	return m
}()

func detectorFor(p string) *importDetector {
	return detectorsByExt[strings.ToLower(path.Ext(p))]
}

// pathIndex holds lookup tables derived from every path in the batch
type pathIndex struct {
	paths     []string            // sorted
	set       map[string]struct{} // membership
	modules   map[string]string   // dotted python module name -> path
	goDirs    map[string][]string // directory -> .go files in it
	goModules []goModule          // longest module path first
}

type goModule struct {
	path string // module path from go.mod
	dir  string // directory holding go.mod, "." at the root
}

var goModulePattern = regexp.MustCompile(`(?m)^module\s+(\S+)`)

func buildPathIndex(bs *blockSet) *pathIndex {
	idx := &pathIndex{
		paths:   bs.paths(),
		set:     make(map[string]struct{}, len(bs.blocks)),
		modules: make(map[string]string),
		goDirs:  make(map[string][]string),
	}
	sort.Strings(idx.paths)

	for _, b := range bs.blocks {
		idx.set[b.Path] = struct{}{}

		switch strings.ToLower(path.Ext(b.Path)) {
		case ".py", ".pyi":
			for _, name := range pythonModuleNames(b.Path) {
				if _, taken := idx.modules[name]; !taken {
					idx.modules[name] = b.Path
				}
			}
		case ".go":
			dir := path.Dir(b.Path)
			idx.goDirs[dir] = append(idx.goDirs[dir], b.Path)
		}

		if path.Base(b.Path) == "go.mod" {
			if m := goModulePattern.FindStringSubmatch(b.Body); m != nil {
				idx.goModules = append(idx.goModules, goModule{path: m[1], dir: path.Dir(b.Path)})
			}
		}
	}

	for dir := range idx.goDirs {
		sort.Strings(idx.goDirs[dir])
	}
	sort.SliceStable(idx.goModules, func(i, j int) bool {
		return len(idx.goModules[i].path) > len(idx.goModules[j].path)
	})

	return idx
}

func (idx *pathIndex) has(p string) bool {
	_, ok := idx.set[p]
	return ok
}

// lookupSuffix returns the first path equal to suffix or ending in "/"+suffix
func (idx *pathIndex) lookupSuffix(suffix string) (string, bool) {
	if suffix == "" {
		return "", false
	}
	if idx.has(suffix) {
		return suffix, true
	}
	tail := "/" + suffix
	for _, p := range idx.paths {
		if strings.HasSuffix(p, tail) {
			return p, true
		}
	}
	return "", false
}

// BuildImportGraph scans every block for import statements and relates files
// whose imports resolve to another file in the same batch
func BuildImportGraph(blocks []FileBlock) *ImportGraph {
	return buildImportGraph(newBlockSet(blocks), zerolog.Nop())
}

func buildImportGraph(bs *blockSet, logger zerolog.Logger) *ImportGraph {
	g := newImportGraph()
	idx := buildPathIndex(bs)

	for _, b := range bs.blocks {
		d := detectorFor(b.Path)
		if d == nil {
			continue
		}

		for _, target := range d.detect(b.Path, b.Body) {
			resolved := d.resolve(idx, b.Path, target)
			if len(resolved) == 0 {
				logger.Debug().Str("file", b.Path).Str("import", target).Msg("unresolved import")
				continue
			}
			for _, r := range resolved {
				g.relate(b.Path, r)
			}
		}
	}

	return g
}

// Python

var (
	pyFromImport  = regexp.MustCompile(`(?m)^[ \t]*from[ \t]+([\w.]+)[ \t]+import[ \t]+\(?[ \t]*([\w, \t]*)`)
	pyPlainImport = regexp.MustCompile(`(?m)^[ \t]*import[ \t]+([\w.]+(?:[ \t]+as[ \t]+\w+)?(?:[ \t]*,[ \t]*[\w.]+(?:[ \t]+as[ \t]+\w+)?)*)`)
)

var pythonDetector = &importDetector{
	name:       "python",
	extensions: []string{".py", ".pyi"},
	detect:     detectPythonImports,
	resolve:    resolvePythonImport,
}

func detectPythonImports(_ string, text string) []string {
	var targets []string

	for _, m := range pyFromImport.FindAllStringSubmatch(text, -1) {
		module := m[1]
		targets = append(targets, module)
		for _, name := range strings.Split(m[2], ",") {
			name = firstField(name)
			if name == "" || name == "*" {
				continue
			}
			if strings.HasSuffix(module, ".") {
				targets = append(targets, module+name)
			} else {
				targets = append(targets, module+"."+name)
			}
		}
	}

	for _, m := range pyPlainImport.FindAllStringSubmatch(text, -1) {
		for _, part := range strings.Split(m[1], ",") {
			if name := firstField(part); name != "" {
				targets = append(targets, name)
			}
		}
	}

	return targets
}

func resolvePythonImport(idx *pathIndex, from, target string) []string {
	module := target
	if strings.HasPrefix(target, ".") {
		module = absolutePythonModule(from, target)
		if module == "" {
			return nil
		}
	}
	if p, ok := idx.modules[module]; ok {
		return []string{p}
	}
	return nil
}

// absolutePythonModule resolves a leading-dot module against the package of from
func absolutePythonModule(from, target string) string {
	dots := len(target) - len(strings.TrimLeft(target, "."))
	rest := target[dots:]

	var pkg []string
	if dir := path.Dir(from); dir != "." {
		pkg = strings.Split(dir, "/")
	}
	up := dots - 1
	if up > len(pkg) {
		return ""
	}
	parts := append([]string{}, pkg[:len(pkg)-up]...)
	if rest != "" {
		parts = append(parts, strings.Split(rest, ".")...)
	}
	return strings.Join(parts, ".")
}

// pythonModuleNames derives the dotted module names a file can be imported by.
// A leading src/ root is also registered without that segment.
func pythonModuleNames(p string) []string {
	name := pythonModuleName(p)
	if name == "" {
		return nil
	}
	names := []string{name}
	if strings.HasPrefix(name, "src.") {
		names = append(names, strings.TrimPrefix(name, "src."))
	}
	return names
}

func pythonModuleName(p string) string {
	trimmed := strings.TrimSuffix(p, path.Ext(p))
	parts := strings.Split(trimmed, "/")
	if len(parts) > 0 && parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ".")
}

func firstField(s string) string {
	fields := strings.Fields(strings.Trim(s, " \t()"))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// JavaScript and TypeScript

var (
	jsImportCall = regexp.MustCompile(`(?:import|require)\s*\(?['"]([^'"]+)['"]`)
	jsFromClause = regexp.MustCompile(`\bfrom\s+['"]([^'"]+)['"]`)
)

var jsResolveSuffixes = []string{"", ".ts", ".tsx", ".js", ".jsx", "/index.ts", "/index.tsx", "/index.js", "/index.jsx"}

var javascriptDetector = &importDetector{
	name:       "javascript",
	extensions: []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"},
	detect:     detectJSImports,
	resolve:    resolveJSImport,
}

func detectJSImports(_ string, text string) []string {
	var targets []string
	seen := make(map[string]struct{})
	for _, re := range []*regexp.Regexp{jsImportCall, jsFromClause} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if _, dup := seen[m[1]]; dup {
				continue
			}
			seen[m[1]] = struct{}{}
			targets = append(targets, m[1])
		}
	}
	return targets
}

func resolveJSImport(idx *pathIndex, from, target string) []string {
	if !strings.HasPrefix(target, ".") {
		return nil
	}
	resolved := resolveRelative(path.Dir(from), target)

	candidates := make([]string, 0, len(jsResolveSuffixes)+1)
	for _, suffix := range jsResolveSuffixes {
		candidates = append(candidates, resolved+suffix)
	}
	// ESM sources import compiled .js names for .ts files
	if strings.HasSuffix(resolved, ".js") {
		base := strings.TrimSuffix(resolved, ".js")
		candidates = append(candidates, base+".ts", base+".tsx")
	}

	for _, c := range candidates {
		if p, ok := idx.lookupSuffix(c); ok {
			return []string{p}
		}
	}
	return nil
}

// resolveRelative joins target onto dir with "." and ".." segment semantics.
// ".." above the root is dropped.
func resolveRelative(dir, target string) string {
	joined := target
	if dir != "." && dir != "" {
		joined = dir + "/" + target
	}

	var parts []string
	for _, part := range strings.Split(joined, "/") {
		switch part {
		case "..":
			if len(parts) > 0 {
				parts = parts[:len(parts)-1]
			}
		case ".", "":
		default:
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "/")
}

// Go

var (
	goSingleImport = regexp.MustCompile(`(?m)^import[ \t]+(?:[\w.]+[ \t]+)?"([^"]+)"`)
	goImportBlock  = regexp.MustCompile(`(?s)\bimport[ \t]*\((.*?)\)`)
	goQuotedPath   = regexp.MustCompile(`"([^"]+)"`)
)

var goDetector = &importDetector{
	name:       "go",
	extensions: []string{".go"},
	detect:     detectGoImports,
	resolve:    resolveGoImport,
}

func detectGoImports(_ string, text string) []string {
	var targets []string
	for _, m := range goSingleImport.FindAllStringSubmatch(text, -1) {
		targets = append(targets, m[1])
	}
	for _, block := range goImportBlock.FindAllStringSubmatch(text, -1) {
		for _, m := range goQuotedPath.FindAllStringSubmatch(block[1], -1) {
			targets = append(targets, m[1])
		}
	}
	return targets
}

// resolveGoImport maps an import path to the .go files of a batch directory.
// With a go.mod in the batch only paths under its module resolve. Otherwise
// only host-qualified paths resolve, and only when they end with a batch
// directory of at least two segments.
func resolveGoImport(idx *pathIndex, _ string, target string) []string {
	if len(idx.goModules) > 0 {
		for _, m := range idx.goModules {
			if target != m.path && !strings.HasPrefix(target, m.path+"/") {
				continue
			}
			rel := strings.TrimPrefix(strings.TrimPrefix(target, m.path), "/")
			dir := path.Join(m.dir, rel)
			return idx.goDirs[dir]
		}
		return nil
	}

	first, _, _ := strings.Cut(target, "/")
	if !strings.Contains(first, ".") {
		return nil
	}

	best := ""
	for dir := range idx.goDirs {
		if !strings.Contains(dir, "/") {
			continue
		}
		if strings.HasSuffix(target, "/"+dir) && len(dir) > len(best) {
			best = dir
		}
	}
	if best == "" {
		return nil
	}
	return idx.goDirs[best]
}
