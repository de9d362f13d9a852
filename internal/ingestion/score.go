package ingestion

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// filenameScores ranks well-known filenames
var filenameScores = map[string]float64{
	"main.py": 100, "__main__.py": 100, "app.py": 100, "index.ts": 100, "main.go": 100,
	"server.py": 95, "server.ts": 95, "index.js": 95,
	"pyproject.toml": 90, "package.json": 90, "Cargo.toml": 90, "go.mod": 90,
	"setup.py": 85, "requirements.txt": 85,
	"README.md": 80, "README": 80,
	".env.example": 75, "config.py": 75, "settings.py": 75,
}

type patternScore struct {
	pattern string
	score   float64
}

// priorityPatterns are tried in order after the filename table
var priorityPatterns = []patternScore{
	{"**/models/**", 85}, {"**/schemas/**", 85},
	{"**/api/**", 80}, {"**/routes/**", 80},
	{"**/services/**", 75}, {"**/core/**", 75},
	{"**/utils/**", 60}, {"**/helpers/**", 60},
	{"**/tests/**", 50}, {"**/__tests__/**", 50},
}

var extensionScores = map[string]float64{
	".py": 70, ".ts": 70, ".go": 70, ".rs": 70,
	".js": 65, ".java": 65, ".kt": 65, ".swift": 65,
	".md": 40, ".txt": 30, ".json": 50, ".yaml": 55, ".yml": 55,
}

// defaultScore is used when no table matches
const defaultScore = 50

// Importance scores a slash-separated relative path. Filenames win over
// directory patterns, which win over extensions.
func Importance(p string) float64 {
	if s, ok := filenameScores[path.Base(p)]; ok {
		return s
	}
	for _, ps := range priorityPatterns {
		if ok, _ := doublestar.Match(ps.pattern, p); ok {
			return ps.score
		}
	}
	if s, ok := extensionScores[strings.ToLower(path.Ext(p))]; ok {
		return s
	}
	return defaultScore
}
