package types

import (
	"path"
	"strings"
)

var extensionLanguages = map[string]string{
	".py":    "python",
	".pyi":   "python",
	".ts":    "typescript",
	".tsx":   "typescript",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".go":    "go",
	".rs":    "rust",
	".java":  "java",
	".kt":    "kotlin",
	".swift": "swift",
	".rb":    "ruby",
	".php":   "php",
	".cs":    "csharp",
	".cpp":   "cpp",
	".c":     "c",
	".md":    "markdown",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".sql":   "sql",
	".sh":    "bash",
	".ps1":   "powershell",
}

// LanguageForPath detects a language from the file extension. Unknown extensions return "".
func LanguageForPath(p string) string {
	return extensionLanguages[strings.ToLower(path.Ext(p))]
}
