package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/docgen-mcp/pkg/types"
)

// DetectPatterns flags DDD naming patterns on a type-like symbol from any
// language
func DetectPatterns(sym *types.Symbol) {
	detectDDDPatterns(sym)
}

// detectDDDPatterns identifies domain-driven design patterns based on naming conventions
func detectDDDPatterns(sym *types.Symbol) {
	if sym.Kind != types.KindStruct && sym.Kind != types.KindInterface && sym.Kind != types.KindType {
		return
	}

	checkAggregateRoot(sym)
	checkEntity(sym)
	checkValueObject(sym)
	checkRepository(sym)
	checkService(sym)
	checkCommand(sym)
	checkQuery(sym)
	checkHandler(sym)
}

func checkAggregateRoot(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "Aggregate") || strings.HasSuffix(sym.Name, "AggregateRoot") {
		sym.IsAggregateRoot = true
		sym.IsEntity = true // aggregates are also entities
	}
}

func checkEntity(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "Entity") {
		sym.IsEntity = true
	}
}

func checkValueObject(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "VO") || strings.HasSuffix(sym.Name, "ValueObject") {
		sym.IsValueObject = true
	}
}

func checkRepository(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "Repository") || strings.HasSuffix(sym.Name, "Repo") {
		sym.IsRepository = true
	}
}

func checkService(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "Service") {
		sym.IsService = true
	}
}

func checkCommand(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "Command") || strings.HasSuffix(sym.Name, "Cmd") {
		sym.IsCommand = true
	}
}

func checkQuery(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "Query") {
		sym.IsQuery = true
	}
}

func checkHandler(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "Handler") {
		sym.IsHandler = true
	}
}

// IsEntityLikeStruct reports whether a struct's fields include an identity
// field: "ID", "Id", or a name ending in "ID" such as "UserID"
func IsEntityLikeStruct(fields []string) bool {
	for _, field := range fields {
		if strings.EqualFold(field, "id") || (len(field) > 2 && strings.HasSuffix(field, "ID")) {
			return true
		}
	}
	return false
}

var patternDescriptions = map[string]string{
	types.PatternAggregateRoot: "Consistency boundary owning a cluster of entities",
	types.PatternEntity:        "Domain objects with a stable identity",
	types.PatternValueObject:   "Immutable values compared by content",
	types.PatternRepository:    "Persistence abstraction over domain objects",
	types.PatternService:       "Stateless domain or application operations",
	types.PatternCommand:       "Write-side requests (CQRS)",
	types.PatternQuery:         "Read-side requests (CQRS)",
	types.PatternHandler:       "Handlers dispatching commands, queries or requests",
}

// maxLocations caps the locations reported per pattern
const maxLocations = 10

// AggregatePatterns groups flagged symbols into pattern matches. Confidence
// grows with the number of occurrences and is capped at 0.95. Matches are
// ordered by confidence, then name.
func AggregatePatterns(symbols []types.Symbol) []types.PatternMatch {
	locations := make(map[string][]string)
	for i := range symbols {
		sym := &symbols[i]
		for _, name := range sym.Patterns() {
			locations[name] = append(locations[name], fmt.Sprintf("%s:%s", sym.File, sym.Name))
		}
	}

	matches := make([]types.PatternMatch, 0, len(locations))
	for name, locs := range locations {
		sort.Strings(locs)
		confidence := 0.5 + 0.1*float64(len(locs))
		if confidence > 0.95 {
			confidence = 0.95
		}
		if len(locs) > maxLocations {
			locs = locs[:maxLocations]
		}
		matches = append(matches, types.PatternMatch{
			Name:        name,
			Confidence:  confidence,
			Locations:   locs,
			Description: patternDescriptions[name],
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].Name < matches[j].Name
	})
	return matches
}
