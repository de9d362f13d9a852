// Package pipeline wires ingestion, chunking, analysis, diagram and README
// generation together for the MCP server and the CLI.
//
// A Pipeline without a completion client runs every stage on its static
// fallback. With storage configured, each ingestion updates the source row
// and each analysis or chunk run is saved in a single transaction, so that
// later diagram and README requests can reuse the latest analysis:
//
//	store, _ := storage.NewSQLiteStorage(dbPath)
//	p := pipeline.New(pipeline.WithStorage(store), pipeline.WithClient(client))
//
//	analysis, err := p.Analyze(ctx, pipeline.AnalyzeRequest{Source: "./repo"})
//	diagrams, err := p.Diagrams(ctx, pipeline.DiagramRequest{Source: "./repo"})
package pipeline
