package types

import "errors"

// Domain errors for type validation
var (
	ErrEmptySource    = errors.New("source is required")
	ErrUnknownDiagram = errors.New("unknown diagram type")
	ErrUnknownSection = errors.New("unknown readme section")
)
