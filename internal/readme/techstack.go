package readme

import (
	"sort"
	"strings"

	"github.com/dshills/docgen-mcp/pkg/types"
)

// languageNames maps analyzer language ids to display names
var languageNames = map[string]string{
	"go":         "Go",
	"python":     "Python",
	"javascript": "JavaScript",
	"typescript": "TypeScript",
	"rust":       "Rust",
	"java":       "Java",
	"kotlin":     "Kotlin",
	"csharp":     "C#",
	"cpp":        "C++",
	"c":          "C",
	"php":        "PHP",
	"ruby":       "Ruby",
	"swift":      "Swift",
	"shell":      "Shell",
	"sql":        "SQL",
	"html":       "HTML",
	"css":        "CSS",
	"json":       "JSON",
	"yaml":       "YAML",
	"toml":       "TOML",
	"markdown":   "Markdown",
}

// keyDependencies maps a dependency name fragment to a framework
var keyDependencies = []struct {
	fragment string
	name     string
}{
	{"react", "React"},
	{"vue", "Vue"},
	{"angular", "Angular"},
	{"fastapi", "FastAPI"},
	{"django", "Django"},
	{"flask", "Flask"},
	{"express", "Express"},
	{"next", "Next.js"},
	{"nest", "NestJS"},
	{"tensorflow", "TensorFlow"},
	{"pytorch", "PyTorch"},
	{"torch", "PyTorch"},
	{"postgres", "PostgreSQL"},
	{"pgx", "PostgreSQL"},
	{"mongo", "MongoDB"},
	{"redis", "Redis"},
	{"sqlite", "SQLite"},
	{"gin-gonic", "Gin"},
	{"labstack/echo", "Echo"},
	{"gofiber", "Fiber"},
	{"spf13/cobra", "Cobra"},
	{"mcp", "MCP"},
}

var badges = map[string]string{
	"Go":         "![Go](https://img.shields.io/badge/Go-00ADD8?style=flat&logo=go&logoColor=white)",
	"Python":     "![Python](https://img.shields.io/badge/Python-3776AB?style=flat&logo=python&logoColor=white)",
	"TypeScript": "![TypeScript](https://img.shields.io/badge/TypeScript-3178C6?style=flat&logo=typescript&logoColor=white)",
	"JavaScript": "![JavaScript](https://img.shields.io/badge/JavaScript-F7DF1E?style=flat&logo=javascript&logoColor=black)",
	"Rust":       "![Rust](https://img.shields.io/badge/Rust-000000?style=flat&logo=rust&logoColor=white)",
	"React":      "![React](https://img.shields.io/badge/React-61DAFB?style=flat&logo=react&logoColor=black)",
	"Vue":        "![Vue](https://img.shields.io/badge/Vue.js-4FC08D?style=flat&logo=vue.js&logoColor=white)",
	"FastAPI":    "![FastAPI](https://img.shields.io/badge/FastAPI-009688?style=flat&logo=fastapi&logoColor=white)",
	"Django":     "![Django](https://img.shields.io/badge/Django-092E20?style=flat&logo=django&logoColor=white)",
	"Next.js":    "![Next.js](https://img.shields.io/badge/Next.js-000000?style=flat&logo=next.js&logoColor=white)",
	"MCP":        "![MCP](https://img.shields.io/badge/MCP-Server-blue?style=flat)",
}

// LanguageName returns the display name of a language id
func LanguageName(lang string) string {
	if name, ok := languageNames[lang]; ok {
		return name
	}
	if lang == "" {
		return ""
	}
	return strings.ToUpper(lang[:1]) + lang[1:]
}

// DetectTechStack lists the languages and recognizable frameworks of a
// project, sorted by name
func DetectTechStack(a *types.AnalysisResult) []string {
	stack := make(map[string]struct{})
	for lang := range a.LanguageBreakdown {
		if name := LanguageName(lang); name != "" {
			stack[name] = struct{}{}
		}
	}
	for _, dep := range a.Dependencies {
		name := strings.ToLower(dep.Name)
		for _, k := range keyDependencies {
			if strings.Contains(name, k.fragment) {
				stack[k.name] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(stack))
	for name := range stack {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Badges renders shields.io badges for the known parts of a tech stack
func Badges(stack []string) string {
	var out []string
	for _, tech := range stack {
		if b, ok := badges[tech]; ok {
			out = append(out, b)
		}
	}
	return strings.Join(out, " ")
}

func hasAny(stack []string, names ...string) bool {
	for _, s := range stack {
		for _, n := range names {
			if s == n {
				return true
			}
		}
	}
	return false
}
