// Package chunker partitions a combined codebase blob into token-bounded chunks.
//
// The input is the text produced by ingestion: every file wrapped in a header
// of two 48-character "=" separator lines around "FILE: <path>". SplitFiles
// recovers the per-file blocks; everything downstream works on those blocks.
//
// # Basic Usage
//
//	c := chunker.New(chunker.WithEstimator(tokens.NewDefault("o200k_base")))
//	result := c.Chunk(content, files, types.StrategyHybrid, chunker.DefaultConfig())
//
//	for _, chunk := range result.Chunks {
//	    fmt.Printf("chunk %d: %d files, %d tokens\n",
//	        chunk.ID, len(chunk.Files), chunk.TokenCount)
//	}
//
// # Strategies
//
// All four strategies share one greedy packing discipline: a unit is appended
// to the open chunk unless it would push the chunk over MaxTokens, in which
// case the open chunk is sealed first. Units are never split, so a unit that
// is over budget on its own becomes a single oversized chunk.
//   - file: each file is a unit, in split order
//   - directory: each parent directory is a unit, ordered by directory weight;
//     a directory over budget falls back to per-file units
//   - semantic: each import cluster is a unit, in discovery order
//   - hybrid: files in descending importance, each pulling in its unplaced
//     direct import relations; chunks then receive overlap from their predecessor
//
// # Import Graph
//
// BuildImportGraph relates files through textual import statements. Python
// imports resolve by dotted module name, JavaScript and TypeScript relative
// imports resolve by path with extension fallbacks, and Go imports resolve to
// batch directories through the module path in go.mod. Anything unresolved is
// dropped. FindClusters walks the relation iteratively to produce connected
// components.
//
// # Token Estimation
//
// The estimator is injected with WithEstimator. A failing or panicking
// estimator never fails a chunking call; the count falls back to chars/4.
//
// # Determinism
//
// Given the same input the chunker produces the same chunks: sort orders are
// stable and neighbor sets are visited in path order.
package chunker
