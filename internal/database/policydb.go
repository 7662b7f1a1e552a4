package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/benchscan/internal/model"
)

// PolicyDB provides SQLite-based storage for extraction results.
// It manages connection pooling and provides methods for CRUD operations.
//
// Design decision: We use a single database file for all documents rather
// than a file per document. This keeps cross-document queries (e.g. "all
// flagged records across benchmarks") in one place and simplifies
// backup/restore operations.
type PolicyDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures PolicyDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a PolicyDB at the specified path.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*PolicyDB, error) {
	dbPath := filepath.Join(dbDir, "benchscan.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string.
	// We use modernc.org/sqlite which uses a different connection string
	// format. When CreateIfNotExists is false, mode=rw prevents creating
	// new files; mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; multiple connections would just
	// contend on the write lock.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pdb := &PolicyDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := pdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pdb, nil
}

// Close closes the database connection.
func (pdb *PolicyDB) Close() error {
	return pdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (pdb *PolicyDB) createTables() error {
	schema := `
	-- Extraction runs store one complete result per document run
	CREATE TABLE IF NOT EXISTS extractions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		document_id TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		matched INTEGER NOT NULL DEFAULT 0,
		validated INTEGER NOT NULL DEFAULT 0,
		duplicates INTEGER NOT NULL DEFAULT 0,
		flagged INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_extractions_document ON extractions(document_id);
	CREATE INDEX IF NOT EXISTS idx_extractions_timestamp ON extractions(timestamp);

	-- Policies expose per-record fields to plain SQL for review queries
	CREATE TABLE IF NOT EXISTS policies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		extraction_id INTEGER NOT NULL REFERENCES extractions(id) ON DELETE CASCADE,
		policy_id TEXT NOT NULL,
		document_id TEXT NOT NULL,
		section_number TEXT,
		category TEXT,
		policy_name TEXT NOT NULL,
		registry_path TEXT,
		required_value TEXT,
		level INTEGER NOT NULL DEFAULT 1,
		risk TEXT,
		confidence REAL NOT NULL DEFAULT 0,
		needs_review INTEGER NOT NULL DEFAULT 0,
		record_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_policies_extraction ON policies(extraction_id);
	CREATE INDEX IF NOT EXISTS idx_policies_document ON policies(document_id);
	CREATE INDEX IF NOT EXISTS idx_policies_category ON policies(category);
	CREATE INDEX IF NOT EXISTS idx_policies_review ON policies(needs_review);
	`

	_, err := pdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveResult stores one extraction result: the full JSON blob plus one
// policies row per record. The two writes share a transaction so a failed
// save never leaves a half-stored run.
func (pdb *PolicyDB) SaveResult(ctx context.Context, result *model.ExtractionResult) (int64, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize result: %w", err)
	}

	tx, err := pdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	res, err := tx.ExecContext(ctx, `
	INSERT INTO extractions (document_id, matched, validated, duplicates, flagged, error, result_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		result.Summary.DocumentID,
		result.Summary.Matched,
		result.Summary.Validated,
		result.Summary.Duplicates,
		result.Summary.Flagged,
		result.Summary.ErrorMessage,
		string(resultJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert extraction: %w", err)
	}

	extractionID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read extraction id: %w", err)
	}

	for _, rec := range result.Records {
		recordJSON, err := json.Marshal(rec)
		if err != nil {
			return 0, fmt.Errorf("failed to serialize record %s: %w", rec.PolicyID, err)
		}

		needsReview := 0
		if rec.NeedsReview {
			needsReview = 1
		}

		if _, err := tx.ExecContext(ctx, `
		INSERT INTO policies (extraction_id, policy_id, document_id, section_number, category,
			policy_name, registry_path, required_value, level, risk, confidence, needs_review, record_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			extractionID,
			rec.PolicyID,
			result.Summary.DocumentID,
			rec.SectionNumber,
			rec.Category,
			rec.PolicyName,
			rec.RegistryPath,
			rec.RequiredValue,
			rec.Level,
			rec.Risk.String(),
			rec.Confidence,
			needsReview,
			string(recordJSON),
		); err != nil {
			return 0, fmt.Errorf("failed to insert policy %s: %w", rec.PolicyID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit result: %w", err)
	}
	return extractionID, nil
}

// SaveBatch stores every per-document result of a batch, including failed
// documents (their summaries keep the error text for history queries).
func (pdb *PolicyDB) SaveBatch(ctx context.Context, batch *model.BatchResult) error {
	for _, result := range batch.Results {
		if result == nil {
			continue
		}
		if _, err := pdb.SaveResult(ctx, result); err != nil {
			return err
		}
	}
	return nil
}

// GetLatestResult retrieves the most recent extraction result for a
// document. Returns nil without error when the document has never been
// extracted.
func (pdb *PolicyDB) GetLatestResult(ctx context.Context, documentID string) (*model.ExtractionResult, error) {
	query := `
	SELECT result_json FROM extractions
	WHERE document_id = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var resultJSON string
	err := pdb.db.QueryRowContext(ctx, query, documentID).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get extraction result: %w", err)
	}

	var result model.ExtractionResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse result: %w", err)
	}
	return &result, nil
}

// ListDocuments returns all document IDs with stored extractions.
func (pdb *PolicyDB) ListDocuments(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT document_id FROM extractions
	ORDER BY document_id
	`

	rows, err := pdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows

	var documents []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan document id: %w", err)
		}
		documents = append(documents, id)
	}

	return documents, rows.Err()
}

// ExtractionMetadata contains summary information about a stored run.
// This is used for displaying history without loading the full result.
type ExtractionMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// DocumentID is the extracted document.
	DocumentID string

	// Timestamp is when the extraction was stored.
	Timestamp time.Time

	// Matched, Validated, Duplicates, and Flagged mirror the summary
	// counters of the stored run.
	Matched    int
	Validated  int
	Duplicates int
	Flagged    int

	// Error is the stored error text for failed runs, empty otherwise.
	Error string
}

// GetHistory retrieves extraction metadata for a document, most recent
// first. This is more efficient than loading full results when only the
// counters are needed.
func (pdb *PolicyDB) GetHistory(ctx context.Context, documentID string) ([]ExtractionMetadata, error) {
	query := `
	SELECT id, document_id, timestamp, matched, validated, duplicates, flagged, COALESCE(error, '')
	FROM extractions
	WHERE document_id = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := pdb.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows

	var results []ExtractionMetadata
	for rows.Next() {
		var meta ExtractionMetadata
		var timestamp string

		if err := rows.Scan(&meta.ID, &meta.DocumentID, &timestamp,
			&meta.Matched, &meta.Validated, &meta.Duplicates, &meta.Flagged, &meta.Error); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// QueryFlaggedRecords returns every stored record flagged for review,
// optionally filtered by category. This is the cross-document review
// query the policies table exists for.
func (pdb *PolicyDB) QueryFlaggedRecords(ctx context.Context, category string) ([]*model.PolicyRecord, error) {
	query := `
	SELECT record_json FROM policies
	WHERE needs_review = 1
	`
	args := make([]any, 0, 1)
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " ORDER BY document_id, policy_id"

	rows, err := pdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flagged records: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows

	var records []*model.PolicyRecord
	for rows.Next() {
		var recordJSON string
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		var rec model.PolicyRecord
		if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
			continue // Skip malformed records
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// GetResultByID retrieves a stored extraction result by its database ID.
func (pdb *PolicyDB) GetResultByID(ctx context.Context, id int64) (*model.ExtractionResult, error) {
	query := `
	SELECT result_json FROM extractions
	WHERE id = ?
	`

	var resultJSON string
	err := pdb.db.QueryRowContext(ctx, query, id).Scan(&resultJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get extraction result: %w", err)
	}

	var result model.ExtractionResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse result: %w", err)
	}
	return &result, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
