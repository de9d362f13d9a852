package analyzer

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/mod/modfile"

	"github.com/dshills/docgen-mcp/internal/chunker"
	"github.com/dshills/docgen-mcp/pkg/types"
)

// Dependency types
const (
	DepRuntime  = "runtime"
	DepDev      = "dev"
	DepIndirect = "indirect"
)

// manifestParser extracts declared dependencies from one manifest format
type manifestParser func(file, body string) ([]types.Dependency, error)

var manifestParsers = map[string]manifestParser{
	"go.mod":               parseGoMod,
	"package.json":         parsePackageJSON,
	"requirements.txt":     requirementsParser(DepRuntime),
	"requirements-dev.txt": requirementsParser(DepDev),
	"dev-requirements.txt": requirementsParser(DepDev),
	"pyproject.toml":       parsePyProject,
	"Cargo.toml":           parseCargo,
}

// manifestDependencies parses every recognized manifest in blocks. Files
// that fail to parse are reported through onErr and skipped.
func manifestDependencies(blocks []chunker.FileBlock, onErr func(file string, err error)) []types.Dependency {
	var deps []types.Dependency
	for _, b := range blocks {
		parse, ok := manifestParsers[path.Base(b.Path)]
		if !ok {
			continue
		}
		found, err := parse(b.Path, b.Body)
		if err != nil {
			onErr(b.Path, err)
			continue
		}
		deps = append(deps, found...)
	}
	return deps
}

func parseGoMod(file, body string) ([]types.Dependency, error) {
	f, err := modfile.ParseLax(file, []byte(body), nil)
	if err != nil {
		return nil, err
	}

	deps := make([]types.Dependency, 0, len(f.Require))
	for _, req := range f.Require {
		depType := DepRuntime
		if req.Indirect {
			depType = DepIndirect
		}
		deps = append(deps, types.Dependency{
			Name:    req.Mod.Path,
			Version: req.Mod.Version,
			DepType: depType,
			Source:  file,
		})
	}
	return deps, nil
}

func parsePackageJSON(file, body string) ([]types.Dependency, error) {
	if !gjson.Valid(body) {
		return nil, fmt.Errorf("invalid JSON in %s", file)
	}

	var deps []types.Dependency
	for _, section := range []struct {
		key     string
		depType string
	}{
		{"dependencies", DepRuntime},
		{"peerDependencies", DepRuntime},
		{"devDependencies", DepDev},
	} {
		gjson.Get(body, section.key).ForEach(func(name, version gjson.Result) bool {
			deps = append(deps, types.Dependency{
				Name:    name.String(),
				Version: version.String(),
				DepType: section.depType,
				Source:  file,
			})
			return true
		})
	}
	return deps, nil
}

var requirementLine = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)(?:\[[^\]]*\])?\s*(?:(===|==|>=|<=|~=|!=|>|<)\s*([^\s;,#]+))?`)

// parseRequirement reads one PEP 508 style requirement
func parseRequirement(line string) (name, version string, ok bool) {
	m := requirementLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", "", false
	}
	name, version = m[1], m[3]
	if m[2] != "" && m[2] != "==" && m[2] != "===" {
		version = m[2] + version
	}
	return name, version, true
}

func requirementsParser(depType string) manifestParser {
	return func(file, body string) ([]types.Dependency, error) {
		var deps []types.Dependency
		for _, line := range strings.Split(body, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
				continue
			}
			if name, version, ok := parseRequirement(line); ok {
				deps = append(deps, types.Dependency{Name: name, Version: version, DepType: depType, Source: file})
			}
		}
		return deps, nil
	}
}

type pyProject struct {
	Project struct {
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies    map[string]any `toml:"dependencies"`
			DevDependencies map[string]any `toml:"dev-dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

func parsePyProject(file, body string) ([]types.Dependency, error) {
	var doc pyProject
	if err := toml.Unmarshal([]byte(body), &doc); err != nil {
		return nil, err
	}

	var deps []types.Dependency
	for _, req := range doc.Project.Dependencies {
		if name, version, ok := parseRequirement(req); ok {
			deps = append(deps, types.Dependency{Name: name, Version: version, DepType: DepRuntime, Source: file})
		}
	}
	for _, group := range sortedKeys(doc.Project.OptionalDependencies) {
		for _, req := range doc.Project.OptionalDependencies[group] {
			if name, version, ok := parseRequirement(req); ok {
				deps = append(deps, types.Dependency{Name: name, Version: version, DepType: DepDev, Source: file})
			}
		}
	}

	poetry := tableDependencies(doc.Tool.Poetry.Dependencies, DepRuntime, file)
	for _, d := range poetry {
		if d.Name != "python" {
			deps = append(deps, d)
		}
	}
	deps = append(deps, tableDependencies(doc.Tool.Poetry.DevDependencies, DepDev, file)...)
	return deps, nil
}

type cargoManifest struct {
	Dependencies    map[string]any `toml:"dependencies"`
	DevDependencies map[string]any `toml:"dev-dependencies"`
}

func parseCargo(file, body string) ([]types.Dependency, error) {
	var doc cargoManifest
	if err := toml.Unmarshal([]byte(body), &doc); err != nil {
		return nil, err
	}
	deps := tableDependencies(doc.Dependencies, DepRuntime, file)
	return append(deps, tableDependencies(doc.DevDependencies, DepDev, file)...), nil
}

// tableDependencies reads name = "version" or name = { version = "..." } tables
func tableDependencies(table map[string]any, depType, file string) []types.Dependency {
	deps := make([]types.Dependency, 0, len(table))
	for _, name := range sortedKeys(table) {
		version := ""
		switch v := table[name].(type) {
		case string:
			version = v
		case map[string]any:
			if s, ok := v["version"].(string); ok {
				version = s
			}
		}
		deps = append(deps, types.Dependency{Name: name, Version: version, DepType: depType, Source: file})
	}
	return deps
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
