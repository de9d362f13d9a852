// Package types provides shared type definitions for the docgen MCP server.
//
// The chunking types (Chunk, ChunkResult, ChunkStrategy) describe the output of
// the codebase chunker. FileRecord carries the per-file metadata produced by
// ingestion: path, size, language and an optional importance score.
//
//	rec := types.FileRecord{Path: "src/main.py", Importance: types.Score(100)}
//	rec.ImportanceOr(types.DefaultImportance) // 100
//
// AnalysisResult, DiagramResult and ReadmeResult are the documentation
// artifacts built on top of a chunked or analyzed codebase. Their JSON field
// names are stable and are returned verbatim by the MCP tools.
//
// Symbol and ParseResult describe Go declarations extracted by the AST parser.
// Symbols carry naming convention flags used for pattern detection:
//
//	symbol.IsRepository  // "*Repository" suffix
//	symbol.IsService     // "*Service" suffix
//	symbol.IsEntity      // "*Entity" suffix or an ID field
//	symbol.IsAggregateRoot// "*Aggregate" suffix
//
// Enumerated string types (strategy, depth, diagram type, tone, section) each
// have a Parse function that normalizes user input.
package types
