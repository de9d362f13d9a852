package types

import (
	"errors"
	"go/token"
)

// SymbolKind represents the type of Go language symbol
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindStruct    SymbolKind = "struct"
	KindInterface SymbolKind = "interface"
	KindType      SymbolKind = "type"
	KindConst     SymbolKind = "const"
	KindVar       SymbolKind = "var"
)

// Position represents a location in source code
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// DDD pattern names reported by static analysis
const (
	PatternAggregateRoot = "Aggregate Root"
	PatternEntity        = "Entity"
	PatternValueObject   = "Value Object"
	PatternRepository    = "Repository"
	PatternService       = "Service"
	PatternCommand       = "Command"
	PatternQuery         = "Query"
	PatternHandler       = "Handler"
)

// Symbol is a top-level declaration extracted from Go source
type Symbol struct {
	Name      string     `json:"name"`
	Kind      SymbolKind `json:"kind"`
	Package   string     `json:"package"`
	File      string     `json:"file"`
	Signature string     `json:"signature,omitempty"`
	Receiver  string     `json:"receiver,omitempty"` // methods only
	Exported  bool       `json:"exported"`
	Start     Position   `json:"start"`
	End       Position   `json:"end"`

	// Naming convention flags
	IsAggregateRoot bool `json:"is_aggregate_root,omitempty"`
	IsEntity        bool `json:"is_entity,omitempty"`
	IsValueObject   bool `json:"is_value_object,omitempty"`
	IsRepository    bool `json:"is_repository,omitempty"`
	IsService       bool `json:"is_service,omitempty"`
	IsCommand       bool `json:"is_command,omitempty"`
	IsQuery         bool `json:"is_query,omitempty"`
	IsHandler       bool `json:"is_handler,omitempty"`
}

// Validate checks the structural consistency of the symbol
func (s *Symbol) Validate() error {
	if s.Name == "" {
		return errors.New("symbol name is required")
	}

	switch s.Kind {
	case KindFunction, KindMethod, KindStruct, KindInterface, KindType, KindConst, KindVar:
	default:
		return errors.New("invalid symbol kind")
	}

	if s.Kind == KindMethod && s.Receiver == "" {
		return errors.New("methods must have a receiver type")
	}
	if s.Kind != KindMethod && s.Receiver != "" {
		return errors.New("only methods can have a receiver type")
	}

	if s.Start.Line <= 0 || s.End.Line <= 0 {
		return errors.New("invalid position: line numbers must be positive")
	}
	if s.Start.Line > s.End.Line {
		return errors.New("invalid position: start line must be before or equal to end line")
	}

	if s.Exported != token.IsExported(s.Name) {
		return errors.New("exported flag does not match symbol name")
	}

	return nil
}

// Patterns returns the DDD pattern names flagged on the symbol
func (s *Symbol) Patterns() []string {
	var out []string
	flags := []struct {
		set  bool
		name string
	}{
		{s.IsAggregateRoot, PatternAggregateRoot},
		{s.IsEntity, PatternEntity},
		{s.IsValueObject, PatternValueObject},
		{s.IsRepository, PatternRepository},
		{s.IsService, PatternService},
		{s.IsCommand, PatternCommand},
		{s.IsQuery, PatternQuery},
		{s.IsHandler, PatternHandler},
	}
	for _, f := range flags {
		if f.set {
			out = append(out, f.name)
		}
	}
	return out
}
