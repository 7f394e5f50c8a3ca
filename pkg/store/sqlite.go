/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: sqlite.go
Description: SQLite index of batch analysis runs. Each run and every analyzed file's
fingerprint is stored so buckets can be queried across runs. Fingerprints are 64-bit
unsigned values and are stored in a signed INTEGER column bit for bit.
*/

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kleascm/flatcrawler/pkg/analysis"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started INTEGER NOT NULL,
	finished INTEGER NOT NULL,
	analyzed INTEGER NOT NULL,
	skipped INTEGER NOT NULL,
	failed INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS files (
	run_id TEXT NOT NULL REFERENCES runs(id),
	path TEXT NOT NULL,
	file_name TEXT NOT NULL,
	field_count INTEGER NOT NULL,
	hash INTEGER NOT NULL,
	fields JSON,
	PRIMARY KEY (run_id, path)
);
CREATE INDEX IF NOT EXISTS idx_files_fingerprint ON files(field_count, hash);
`

// Bucket is a (field count, fingerprint) pair and how many files share it
type Bucket struct {
	FieldCount int    `json:"field_count"`
	Hash       uint64 `json:"hash"`
	Files      int    `json:"files"`
}

// SQLiteStore persists analysis runs
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the index at path
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun stores run and its results in one transaction. Saving the same run twice
// replaces the earlier rows.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *analysis.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, started, finished, analyzed, skipped, failed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Started.UnixNano(), run.Finished.UnixNano(), run.Analyzed, run.Skipped, run.Failed,
	); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO files (run_id, path, file_name, field_count, hash, fields)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range run.Results {
		fields, err := json.Marshal(r.Fields)
		if err != nil {
			return fmt.Errorf("encode fields of %s: %w", r.Path, err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, r.Path, r.FileName, r.FieldCount, int64(r.Hash), string(fields)); err != nil {
			return fmt.Errorf("insert %s: %w", r.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Buckets returns the fingerprint buckets of one run, or of every run when runID is
// empty, ordered by field count then hash.
func (s *SQLiteStore) Buckets(ctx context.Context, runID string) ([]Bucket, error) {
	query := `SELECT field_count, hash, COUNT(DISTINCT path) FROM files`
	var args []interface{}
	if runID != "" {
		query += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	query += ` GROUP BY field_count, hash`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query buckets: %w", err)
	}
	defer rows.Close()

	var out []Bucket
	for rows.Next() {
		var (
			b    Bucket
			hash int64
		)
		if err := rows.Scan(&b.FieldCount, &hash, &b.Files); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		b.Hash = uint64(hash)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FieldCount != out[j].FieldCount {
			return out[i].FieldCount < out[j].FieldCount
		}
		return out[i].Hash < out[j].Hash
	})
	return out, nil
}

// Matches returns every stored file with the given fingerprint, across runs,
// ordered by file name then path.
func (s *SQLiteStore) Matches(ctx context.Context, fieldCount int, hash uint64) ([]analysis.Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT path, file_name, fields FROM files
		WHERE field_count = ? AND hash = ?
		ORDER BY file_name, path`, fieldCount, int64(hash))
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	var out []analysis.Result
	for rows.Next() {
		var (
			r      = analysis.Result{FieldCount: fieldCount, Hash: hash}
			fields sql.NullString
		)
		if err := rows.Scan(&r.Path, &r.FileName, &fields); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if fields.Valid && fields.String != "" {
			if err := json.Unmarshal([]byte(fields.String), &r.Fields); err != nil {
				return nil, fmt.Errorf("decode fields of %s: %w", r.Path, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
