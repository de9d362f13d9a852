// Package ingestion turns a local directory or remote git repository into
// the combined content format consumed by the chunker.
//
// # Basic Usage
//
//	engine := ingestion.New(ingestion.WithToken(os.Getenv("GITHUB_TOKEN")))
//
//	result, err := engine.Ingest(ctx, "github.com/owner/repo", ingestion.Options{
//	    ExcludePatterns: []string{"docs/**"},
//	})
//
//	fmt.Printf("%d files, ~%d tokens\n", result.FileCount, result.TotalTokens)
//
// # Sources
//
// Local paths are resolved to an absolute directory. Anything that looks
// like a git remote (http, https, ssh, git@ or a github.com/ shorthand) is
// shallow-cloned with go-git into a temporary directory, which is removed
// once ingestion finishes.
//
// # Output
//
// Every text file becomes one block:
//
//	================================================
//	FILE: src/main.py
//	================================================
//	<file body>
//
// Blocks are ordered by relative path. Binary files (a NUL byte in the
// first 8000 bytes) and files above MaxFileSize are skipped and counted in
// SkippedFiles. Each FileRecord carries a language and an importance score
// that the hybrid chunking strategy uses for ordering.
//
// # Filtering
//
// Include and exclude patterns use doublestar syntax. A pattern without a
// slash also matches the base name, so "*.py" matches "pkg/mod.py". Hidden
// directories, dependency trees such as node_modules, and lock files are
// always excluded.
package ingestion
