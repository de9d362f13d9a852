// Package mcp implements the Model Context Protocol (MCP) server for docgen.
//
// The server exposes five tools to AI coding assistants:
//   - analyze_repository: Structural analysis of a repository or local path
//   - chunk_codebase: Token-bounded chunks for LLM consumption
//   - extract_architecture: Mermaid diagrams and component relationships
//   - generate_readme: A README assembled from an analysis
//   - get_status: What has been recorded for a source
//
// # Protocol Overview
//
// MCP is JSON-RPC 2.0 over stdio:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {"content": [{"type": "text", "text": "..."}]}}
//
// Every successful tool call returns a single text content item holding the
// JSON encoding of its result.
//
// # Basic Usage
//
//	docgen-mcp
//
// The binary listens on stdin and writes responses to stdout. Logs go to
// stderr.
//
// # Tool: chunk_codebase
//
//	Request:
//	{
//	  "name": "chunk_codebase",
//	  "arguments": {
//	    "source": "https://github.com/user/repo",
//	    "strategy": "hybrid",
//	    "max_tokens": 100000,
//	    "overlap_tokens": 500,
//	    "preserve_context": true
//	  }
//	}
//
//	Response:
//	{
//	  "source": "https://github.com/user/repo",
//	  "strategy": "hybrid",
//	  "total_chunks": 3,
//	  "total_tokens": 241877,
//	  "chunks": [...]
//	}
//
// # Tool: extract_architecture and generate_readme
//
// Both accept an analysis_json argument holding a prior analyze_repository
// result. Without it the latest stored analysis for the source is reused,
// and a fresh analysis runs only when nothing is stored. generate_readme
// needs at least one of source or analysis_json.
//
// # Tool: get_status
//
//	Response:
//	{
//	  "ingested": true,
//	  "source": {"source": "...", "file_count": 247, "total_tokens": 180211},
//	  "analyses": {"count": 2, "latest_depth": "deep"},
//	  "chunk_runs": {"count": 1, "recent": [...]},
//	  "health": {"database_accessible": true, "schema_version": "1.1.0", "llm_enabled": false}
//	}
//
// An unknown source is not an error: the response carries "ingested": false.
//
// # MCP Client Configuration
//
//	{
//	  "mcpServers": {
//	    "docgen": {
//	      "command": "/usr/local/bin/docgen-mcp",
//	      "env": {
//	        "ANTHROPIC_API_KEY": "your-api-key"
//	      }
//	    }
//	  }
//	}
//
// Without provider credentials the server runs in static mode: analysis,
// chunking, diagrams and README sections are derived from the source alone.
//
// # Error Handling
//
// Failures are JSON-RPC errors with a data object naming the cause:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "invalid strategy",
//	    "data": {"param": "strategy", "value": "random", "allowed": [...]}
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (bad enum value, glob, size or JSON)
//   - -32603: Internal error (database, provider, filesystem)
//   - -32001: Source not found (missing path, failed clone)
//   - -32002: Ingestion of the same source already in progress
//   - -32004: Missing input (empty source)
package mcp
