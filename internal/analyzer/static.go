package analyzer

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/dshills/docgen-mcp/internal/chunker"
	"github.com/dshills/docgen-mcp/internal/parser"
	"github.com/dshills/docgen-mcp/pkg/types"
)

// RootComponent names files that live at the repository root
const RootComponent = "root"

// containerDirs hold packages rather than being one themselves
var containerDirs = map[string]bool{
	"src": true, "internal": true, "pkg": true, "lib": true,
	"app": true, "apps": true, "packages": true, "modules": true,
}

// componentTypes classifies a component by its directory name
var componentTypes = map[string]string{
	"api": "api", "routes": "api", "handlers": "api", "controllers": "api", "server": "api", "mcp": "api",
	"models": "data", "schemas": "data", "entities": "data", "types": "data",
	"services": "service", "core": "service", "domain": "service",
	"storage": "storage", "db": "storage", "database": "storage", "repository": "storage", "store": "storage",
	"cmd": "entrypoint", "bin": "entrypoint", "scripts": "entrypoint",
	"utils": "utility", "helpers": "utility", "common": "utility", "shared": "utility",
	"tests": "test", "test": "test", "__tests__": "test",
	"docs": "documentation",
	"config": "config", "configs": "config",
}

// ComponentName maps a file path to its architectural component: the first
// directory, or the first two below a container directory such as src/
func ComponentName(p string) string {
	parts := strings.Split(p, "/")
	if len(parts) == 1 {
		return RootComponent
	}
	if containerDirs[parts[0]] && len(parts) > 2 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

func componentType(name string) string {
	if name == RootComponent {
		return "module"
	}
	if t, ok := componentTypes[path.Base(name)]; ok {
		return t
	}
	return "module"
}

// staticComponents groups files into components and derives component
// dependencies from cross-component imports
func staticComponents(blocks []chunker.FileBlock, records map[string]types.FileRecord) []types.Component {
	files := make(map[string][]string)
	for _, b := range blocks {
		name := ComponentName(b.Path)
		files[name] = append(files[name], b.Path)
	}

	graph := chunker.BuildImportGraph(blocks)
	deps := make(map[string]map[string]struct{})
	for _, b := range blocks {
		from := ComponentName(b.Path)
		for _, imp := range graph.Imports(b.Path) {
			to := ComponentName(imp)
			if to == from {
				continue
			}
			if deps[from] == nil {
				deps[from] = make(map[string]struct{})
			}
			deps[from][to] = struct{}{}
		}
	}

	components := make([]types.Component, 0, len(files))
	for _, name := range sortedKeys(files) {
		members := files[name]
		sort.Strings(members)
		components = append(components, types.Component{
			Name:         name,
			CompType:     componentType(name),
			Files:        members,
			Dependencies: sortedKeys(deps[name]),
			Description:  describeComponent(members, records),
		})
	}
	return components
}

func describeComponent(files []string, records map[string]types.FileRecord) string {
	counts := make(map[string]int)
	for _, f := range files {
		lang := records[f].Language
		if lang == "" {
			lang = types.LanguageForPath(f)
		}
		if lang != "" {
			counts[lang]++
		}
	}

	noun := "files"
	if len(files) == 1 {
		noun = "file"
	}
	if lang := dominant(counts); lang != "" {
		return fmt.Sprintf("%d %s, mostly %s", len(files), noun, lang)
	}
	return fmt.Sprintf("%d %s", len(files), noun)
}

// dominant returns the most frequent key, ties broken alphabetically
func dominant(counts map[string]int) string {
	best, bestN := "", 0
	for _, k := range sortedKeys(counts) {
		if counts[k] > bestN {
			best, bestN = k, counts[k]
		}
	}
	return best
}

var classPattern = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?(?:public\s+)?(?:class|interface)\s+(\w+)`)

// staticPatterns flags DDD naming patterns on Go declarations and on
// classes in other languages
func staticPatterns(blocks []chunker.FileBlock, p *parser.Parser) []types.PatternMatch {
	var symbols []types.Symbol
	for _, b := range blocks {
		switch types.LanguageForPath(b.Path) {
		case "go":
			symbols = append(symbols, p.ParseSource(b.Path, []byte(b.Body)).Symbols...)
		case "python", "typescript", "javascript", "java", "kotlin", "csharp", "php", "swift":
			for _, m := range classPattern.FindAllStringSubmatch(b.Body, -1) {
				sym := types.Symbol{Name: m[1], Kind: types.KindStruct, File: b.Path}
				parser.DetectPatterns(&sym)
				symbols = append(symbols, sym)
			}
		}
	}
	return parser.AggregatePatterns(symbols)
}

var (
	pyRoutePattern = regexp.MustCompile(`(?m)^[ \t]*@\w+\.(get|post|put|delete|patch|route)\(\s*['"]([^'"]+)['"][^\n]*\n(?:[ \t]*@[^\n]*\n)*[ \t]*(?:async[ \t]+)?def[ \t]+(\w+)`)
	jsRoutePattern = regexp.MustCompile("\\b(?:app|router|server|api)\\.(get|post|put|delete|patch|all)\\(\\s*['\"`]([^'\"`]+)['\"`]")
)

// staticRoutes finds HTTP route registrations. Go files go through the AST,
// Python and JavaScript through decorator and router call patterns.
func staticRoutes(blocks []chunker.FileBlock, p *parser.Parser) []types.APIEndpoint {
	var endpoints []types.APIEndpoint
	seen := make(map[string]bool)
	add := func(ep types.APIEndpoint) {
		key := ep.Method + " " + ep.Path + " " + ep.Handler
		if seen[key] {
			return
		}
		seen[key] = true
		endpoints = append(endpoints, ep)
	}

	for _, b := range blocks {
		switch types.LanguageForPath(b.Path) {
		case "go":
			for _, r := range p.ParseSource(b.Path, []byte(b.Body)).Routes {
				add(types.APIEndpoint{
					Path:        r.Path,
					Method:      r.Method,
					Handler:     r.Handler,
					Description: fmt.Sprintf("registered in %s:%d", r.File, r.Line),
				})
			}
		case "python":
			for _, m := range pyRoutePattern.FindAllStringSubmatch(b.Body, -1) {
				method := strings.ToUpper(m[1])
				if method == "ROUTE" {
					method = "GET"
				}
				add(types.APIEndpoint{Path: m[2], Method: method, Handler: m[3], Description: "defined in " + b.Path})
			}
		case "javascript", "typescript":
			for _, m := range jsRoutePattern.FindAllStringSubmatch(b.Body, -1) {
				method := strings.ToUpper(m[1])
				if method == "ALL" {
					method = "ANY"
				}
				add(types.APIEndpoint{Path: m[2], Method: method, Description: "defined in " + b.Path})
			}
		}
	}
	return endpoints
}
