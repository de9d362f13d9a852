// Package storage persists ingestion, analysis and chunking results in SQLite.
//
// Tables:
//   - sources: one row per local path or remote URL with its content digest
//   - analyses: encoded analyzer results per source
//   - chunk_results: encoded chunk runs with their parameters
//   - schema_version: applied migrations
//
// Migrations are ordered by semantic version and can be rolled back one at a
// time with RollbackMigration.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage("~/.docgen/docgen.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	src := &storage.Source{Source: "/path/to/repo", Digest: digest}
//	if err := store.UpsertSource(ctx, src); err != nil {
//	    return err
//	}
//	err = store.SaveAnalysis(ctx, &storage.Analysis{
//	    SourceID: src.ID,
//	    Depth:    types.DepthDeep,
//	    Result:   result,
//	})
//
// # Build Tags
//
// The default build uses modernc.org/sqlite and needs no C compiler. Building
// with the cgo_sqlite tag switches to github.com/mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags "cgo_sqlite" ./...
package storage
