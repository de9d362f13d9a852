package types

import "strings"

// ReadmeTone sets the voice of generated prose
type ReadmeTone string

const (
	ToneProfessional ReadmeTone = "professional"
	ToneCasual       ReadmeTone = "casual"
	ToneTechnical    ReadmeTone = "technical"
)

// ParseTone maps a tone name to a ReadmeTone, defaulting to professional
func ParseTone(name string) ReadmeTone {
	switch ReadmeTone(strings.ToLower(strings.TrimSpace(name))) {
	case ToneCasual:
		return ToneCasual
	case ToneTechnical:
		return ToneTechnical
	default:
		return ToneProfessional
	}
}

// ReadmeSection identifies one README section
type ReadmeSection string

const (
	SectionTitle        ReadmeSection = "title"
	SectionBadges       ReadmeSection = "badges"
	SectionDescription  ReadmeSection = "description"
	SectionFeatures     ReadmeSection = "features"
	SectionInstallation ReadmeSection = "installation"
	SectionUsage        ReadmeSection = "usage"
	SectionArchitecture ReadmeSection = "architecture"
	SectionAPI          ReadmeSection = "api"
	SectionDevelopment  ReadmeSection = "development"
	SectionTesting      ReadmeSection = "testing"
	SectionDeployment   ReadmeSection = "deployment"
	SectionContributing ReadmeSection = "contributing"
	SectionLicense      ReadmeSection = "license"
)

// AllSections lists every README section in rendering order
var AllSections = []ReadmeSection{
	SectionTitle, SectionBadges, SectionDescription, SectionFeatures,
	SectionInstallation, SectionUsage, SectionArchitecture, SectionAPI,
	SectionDevelopment, SectionTesting, SectionDeployment, SectionContributing,
	SectionLicense,
}

// ParseSection returns the section for name and whether it is known
func ParseSection(name string) (ReadmeSection, bool) {
	s := ReadmeSection(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range AllSections {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// SectionContent is the rendered body of one README section
type SectionContent struct {
	SectionType ReadmeSection `json:"section_type"`
	Title       string        `json:"title"`
	Content     string        `json:"content"`
	Order       int           `json:"order"`
	Diagrams    []string      `json:"diagrams,omitempty"`
}

// ReadmeResult is the assembled README
type ReadmeResult struct {
	Source            string           `json:"source"`
	Markdown          string           `json:"markdown"`
	Sections          []SectionContent `json:"sections"`
	Tone              ReadmeTone       `json:"tone"`
	HasDiagrams       bool             `json:"has_diagrams"`
	DetectedTechStack []string         `json:"detected_tech_stack"`
	WordCount         int              `json:"word_count"`
}
