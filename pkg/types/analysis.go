package types

import (
	"sort"
	"strings"
)

// AnalysisDepth controls how many analysis passes run
type AnalysisDepth string

const (
	DepthShallow AnalysisDepth = "shallow"
	DepthMedium  AnalysisDepth = "medium"
	DepthDeep    AnalysisDepth = "deep"
)

// ParseDepth maps a depth name to an AnalysisDepth, defaulting to deep
func ParseDepth(name string) AnalysisDepth {
	switch AnalysisDepth(strings.ToLower(strings.TrimSpace(name))) {
	case DepthShallow:
		return DepthShallow
	case DepthMedium:
		return DepthMedium
	default:
		return DepthDeep
	}
}

// Focus areas accepted by the analyzer
const (
	FocusArchitecture = "architecture"
	FocusDependencies = "dependencies"
	FocusAPI          = "api"
	FocusPatterns     = "patterns"
)

// DefaultFocusAreas is used when the caller names none
var DefaultFocusAreas = []string{FocusArchitecture, FocusDependencies, FocusAPI, FocusPatterns}

// Dependency is a declared project dependency
type Dependency struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	DepType string `json:"dep_type"`
	Source  string `json:"source,omitempty"`
}

// APIEndpoint is one route exposed by the analyzed project
type APIEndpoint struct {
	Path        string           `json:"path"`
	Method      string           `json:"method"`
	Handler     string           `json:"handler,omitempty"`
	Description string           `json:"description,omitempty"`
	Parameters  []map[string]any `json:"parameters,omitempty"`
}

// PatternMatch is a detected design pattern with a confidence in [0, 1]
type PatternMatch struct {
	Name        string   `json:"name"`
	Confidence  float64  `json:"confidence"`
	Locations   []string `json:"locations,omitempty"`
	Description string   `json:"description,omitempty"`
}

// FileInfo summarizes one file in the analyzed tree
type FileInfo struct {
	Path            string  `json:"path"`
	Size            int64   `json:"size"`
	Language        string  `json:"language,omitempty"`
	ImportanceScore float64 `json:"importance_score"`
	Description     string  `json:"description,omitempty"`
}

// Component is an architectural unit such as a service, module, package or layer
type Component struct {
	Name         string   `json:"name"`
	CompType     string   `json:"comp_type"`
	Files        []string `json:"files,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Description  string   `json:"description,omitempty"`
}

// AnalysisResult is the complete structural analysis of a repository
type AnalysisResult struct {
	Source            string             `json:"source"`
	Summary           string             `json:"summary"`
	LanguageBreakdown map[string]float64 `json:"language_breakdown"`
	Architecture      []Component        `json:"architecture"`
	Dependencies      []Dependency       `json:"dependencies"`
	Patterns          []PatternMatch     `json:"patterns"`
	APISurface        []APIEndpoint      `json:"api_surface"`
	FileTree          []FileInfo         `json:"file_tree"`
	EntryPoints       []string           `json:"entry_points"`
	TotalFiles        int                `json:"total_files"`
	TotalTokens       int                `json:"total_tokens"`
	AnalysisDepth     AnalysisDepth      `json:"analysis_depth"`
}

// Languages returns the languages in the breakdown in descending share, ties by name
func (a *AnalysisResult) Languages() []string {
	langs := make([]string, 0, len(a.LanguageBreakdown))
	for lang := range a.LanguageBreakdown {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool {
		si, sj := a.LanguageBreakdown[langs[i]], a.LanguageBreakdown[langs[j]]
		if si != sj {
			return si > sj
		}
		return langs[i] < langs[j]
	})
	return langs
}
