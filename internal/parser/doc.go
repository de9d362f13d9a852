// Package parser extracts top-level symbols, imports and HTTP route
// registrations from Go source using go/parser and go/ast.
//
// # Basic Usage
//
//	p := parser.New()
//	result := p.ParseSource("internal/api/routes.go", src)
//
//	for _, symbol := range result.Symbols {
//	    fmt.Printf("%s %s (%v)\n", symbol.Kind, symbol.Name, symbol.Patterns())
//	}
//	for _, route := range result.Routes {
//	    fmt.Printf("%s %s -> %s\n", route.Method, route.Path, route.Handler)
//	}
//
// # Domain-Driven Design (DDD) Pattern Detection
//
// Type declarations are flagged by naming convention:
//
//	symbol.IsRepository     // "*Repository" or "*Repo" suffix
//	symbol.IsService        // "*Service" suffix
//	symbol.IsEntity         // "*Entity" suffix or struct with an ID field
//	symbol.IsAggregateRoot  // "*Aggregate" suffix
//	symbol.IsValueObject    // "*VO" or "*ValueObject" suffix
//	symbol.IsCommand        // "*Command" suffix (CQRS)
//	symbol.IsQuery          // "*Query" suffix (CQRS)
//	symbol.IsHandler        // "*Handler" suffix
//
// AggregatePatterns folds flagged symbols across many files into
// types.PatternMatch values for repository analysis.
//
// # Routes
//
// Calls such as mux.HandleFunc("/x", h), mux.HandleFunc("POST /x", h) and
// router.GET("/x", h) with a literal path are reported as types.Route.
//
// # Error Handling
//
// Syntax errors are recorded on the result, never returned. Partial results
// are still extracted from whatever AST the parser recovered.
package parser
