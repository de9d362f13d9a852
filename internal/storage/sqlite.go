package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/docgen-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidRecord is returned when a record is missing required fields
	ErrInvalidRecord = errors.New("invalid record")
)

// DefaultChunkRunLimit bounds ListChunkResults when no limit is given
const DefaultChunkRunLimit = 20

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Single writer; this also keeps ":memory:" databases on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage opens dbPath and brings its schema up to date
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) querier() querier {
	return t.tx
}

func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Source operations

func (s *SQLiteStorage) upsertSourceWithQuerier(ctx context.Context, q querier, src *Source) error {
	if src.Source == "" {
		return fmt.Errorf("%w: source is required", ErrInvalidRecord)
	}

	query := `
		INSERT INTO sources (source, digest, file_count, total_tokens, last_ingested_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			digest = excluded.digest,
			file_count = excluded.file_count,
			total_tokens = excluded.total_tokens,
			last_ingested_at = excluded.last_ingested_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now().UTC()
	if src.LastIngestedAt.IsZero() {
		src.LastIngestedAt = now
	}
	err := q.QueryRowContext(ctx, query,
		src.Source, src.Digest, src.FileCount, src.TotalTokens,
		src.LastIngestedAt, now, now).Scan(&src.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}
	src.UpdatedAt = now
	return nil
}

// UpsertSource inserts the source or refreshes its ingestion stats. It
// sets ID and UpdatedAt; CreatedAt is only populated by GetSource.
func (s *SQLiteStorage) UpsertSource(ctx context.Context, src *Source) error {
	return s.upsertSourceWithQuerier(ctx, s.querier(), src)
}

func (s *SQLiteStorage) getSourceWithQuerier(ctx context.Context, q querier, source string) (*Source, error) {
	query := `
		SELECT id, source, digest, file_count, total_tokens, last_ingested_at, created_at, updated_at
		FROM sources
		WHERE source = ?
	`
	var src Source
	var lastIngestedAt sql.NullTime
	err := q.QueryRowContext(ctx, query, source).Scan(
		&src.ID, &src.Source, &src.Digest, &src.FileCount, &src.TotalTokens,
		&lastIngestedAt, &src.CreatedAt, &src.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastIngestedAt.Valid {
		src.LastIngestedAt = lastIngestedAt.Time
	}
	return &src, nil
}

// GetSource looks a source up by its path or URL
func (s *SQLiteStorage) GetSource(ctx context.Context, source string) (*Source, error) {
	return s.getSourceWithQuerier(ctx, s.querier(), source)
}

// Analysis operations

func (s *SQLiteStorage) saveAnalysisWithQuerier(ctx context.Context, q querier, a *Analysis) error {
	if a.SourceID == 0 || a.Result == nil {
		return fmt.Errorf("%w: analysis needs a source id and result", ErrInvalidRecord)
	}

	encoded, err := json.Marshal(a.Result)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	now := time.Now().UTC()
	result, err := q.ExecContext(ctx,
		"INSERT INTO analyses (source_id, depth, result, created_at) VALUES (?, ?, ?, ?)",
		a.SourceID, string(a.Depth), string(encoded), now)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id
	a.CreatedAt = now
	return nil
}

// SaveAnalysis stores a new analysis for its source
func (s *SQLiteStorage) SaveAnalysis(ctx context.Context, a *Analysis) error {
	return s.saveAnalysisWithQuerier(ctx, s.querier(), a)
}

func (s *SQLiteStorage) getLatestAnalysisWithQuerier(ctx context.Context, q querier, sourceID int64) (*Analysis, error) {
	query := `
		SELECT id, source_id, depth, result, created_at
		FROM analyses
		WHERE source_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	var a Analysis
	var depth, encoded string
	err := q.QueryRowContext(ctx, query, sourceID).Scan(&a.ID, &a.SourceID, &depth, &encoded, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	a.Depth = types.AnalysisDepth(depth)
	a.Result = &types.AnalysisResult{}
	if err := json.Unmarshal([]byte(encoded), a.Result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis %d: %w", a.ID, err)
	}
	return &a, nil
}

// GetLatestAnalysis returns the most recent analysis for a source
func (s *SQLiteStorage) GetLatestAnalysis(ctx context.Context, sourceID int64) (*Analysis, error) {
	return s.getLatestAnalysisWithQuerier(ctx, s.querier(), sourceID)
}

// Chunk run operations

func (s *SQLiteStorage) saveChunkResultWithQuerier(ctx context.Context, q querier, run *ChunkRun) error {
	if run.SourceID == 0 || len(run.Result) == 0 {
		return fmt.Errorf("%w: chunk run needs a source id and result", ErrInvalidRecord)
	}

	query := `
		INSERT INTO chunk_results (source_id, strategy, max_tokens, overlap_tokens, total_chunks, total_tokens, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, query,
		run.SourceID, string(run.Strategy), run.MaxTokens, run.OverlapTokens,
		run.TotalChunks, run.TotalTokens, string(run.Result), now)
	if err != nil {
		return fmt.Errorf("failed to save chunk result: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	run.ID = id
	run.CreatedAt = now
	return nil
}

// SaveChunkResult records a chunking run for its source
func (s *SQLiteStorage) SaveChunkResult(ctx context.Context, run *ChunkRun) error {
	return s.saveChunkResultWithQuerier(ctx, s.querier(), run)
}

func (s *SQLiteStorage) listChunkResultsWithQuerier(ctx context.Context, q querier, sourceID int64, limit int) ([]*ChunkRun, error) {
	if limit <= 0 {
		limit = DefaultChunkRunLimit
	}

	query := `
		SELECT id, source_id, strategy, max_tokens, overlap_tokens, total_chunks, total_tokens, created_at
		FROM chunk_results
		WHERE source_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, query, sourceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*ChunkRun
	for rows.Next() {
		var run ChunkRun
		var strategy string
		if err := rows.Scan(&run.ID, &run.SourceID, &strategy, &run.MaxTokens, &run.OverlapTokens,
			&run.TotalChunks, &run.TotalTokens, &run.CreatedAt); err != nil {
			return nil, err
		}
		run.Strategy = types.ChunkStrategy(strategy)
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// ListChunkResults returns the newest chunk runs for a source without
// their encoded results
func (s *SQLiteStorage) ListChunkResults(ctx context.Context, sourceID int64, limit int) ([]*ChunkRun, error) {
	return s.listChunkResultsWithQuerier(ctx, s.querier(), sourceID, limit)
}

// Status operations

func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier, source string) (*SourceStatus, error) {
	src, err := s.getSourceWithQuerier(ctx, q, source)
	if err != nil {
		return nil, err
	}

	status := &SourceStatus{Source: src}

	err = q.QueryRowContext(ctx, "SELECT COUNT(*) FROM analyses WHERE source_id = ?", src.ID).Scan(&status.AnalysisCount)
	if err != nil {
		return nil, err
	}

	if status.AnalysisCount > 0 {
		var createdAt time.Time
		var depth string
		err = q.QueryRowContext(ctx, `
			SELECT created_at, depth FROM analyses
			WHERE source_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		`, src.ID).Scan(&createdAt, &depth)
		if err != nil {
			return nil, err
		}
		status.LatestAnalysisAt = &createdAt
		status.LatestDepth = types.AnalysisDepth(depth)
	}

	err = q.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunk_results WHERE source_id = ?", src.ID).Scan(&status.ChunkRunCount)
	if err != nil {
		return nil, err
	}

	status.RecentChunkRuns, err = s.listChunkResultsWithQuerier(ctx, q, src.ID, 5)
	if err != nil {
		return nil, err
	}

	var pageCount, pageSize int
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.DatabaseSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	var version string
	_ = q.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)
	status.Health = HealthStatus{
		DatabaseAccessible: true,
		SchemaVersion:      version,
	}

	return status, nil
}

// GetStatus summarizes the stored analyses and chunk runs for a source
func (s *SQLiteStorage) GetStatus(ctx context.Context, source string) (*SourceStatus, error) {
	return s.getStatusWithQuerier(ctx, s.querier(), source)
}

// Transaction operations run against the open transaction

func (t *sqliteTx) UpsertSource(ctx context.Context, src *Source) error {
	return t.storage.upsertSourceWithQuerier(ctx, t.querier(), src)
}

func (t *sqliteTx) GetSource(ctx context.Context, source string) (*Source, error) {
	return t.storage.getSourceWithQuerier(ctx, t.querier(), source)
}

func (t *sqliteTx) SaveAnalysis(ctx context.Context, a *Analysis) error {
	return t.storage.saveAnalysisWithQuerier(ctx, t.querier(), a)
}

func (t *sqliteTx) GetLatestAnalysis(ctx context.Context, sourceID int64) (*Analysis, error) {
	return t.storage.getLatestAnalysisWithQuerier(ctx, t.querier(), sourceID)
}

func (t *sqliteTx) SaveChunkResult(ctx context.Context, run *ChunkRun) error {
	return t.storage.saveChunkResultWithQuerier(ctx, t.querier(), run)
}

func (t *sqliteTx) ListChunkResults(ctx context.Context, sourceID int64, limit int) ([]*ChunkRun, error) {
	return t.storage.listChunkResultsWithQuerier(ctx, t.querier(), sourceID, limit)
}

func (t *sqliteTx) GetStatus(ctx context.Context, source string) (*SourceStatus, error) {
	return t.storage.getStatusWithQuerier(ctx, t.querier(), source)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions not supported")
}
