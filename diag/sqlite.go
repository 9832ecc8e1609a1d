package diag

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Schema for the stitch_failures table. OpenSQLite applies it.
const Schema = `
CREATE TABLE IF NOT EXISTS stitch_failures (
	id TEXT PRIMARY KEY,
	request_id TEXT NOT NULL,
	ts INTEGER NOT NULL,
	kind TEXT NOT NULL,
	segment INTEGER NOT NULL,
	error TEXT,
	fallback INTEGER NOT NULL,
	segments TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_stitch_failures_ts ON stitch_failures(ts);
CREATE INDEX IF NOT EXISTS idx_stitch_failures_req ON stitch_failures(request_id);
`

// SQLite appends records to a SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies Schema.
// Use ":memory:" for a private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("diag: open %s: %w", path, err)
	}
	// One connection: ":memory:" databases are per connection and writers
	// never contend.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("diag: pragma: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("diag: schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// NewSQLite wraps an already open database and applies Schema.
func NewSQLite(db *sql.DB) (*SQLite, error) {
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("diag: schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Record implements Recorder.
func (s *SQLite) Record(ctx context.Context, r Record) error {
	segments, err := json.Marshal(r.Segments)
	if err != nil {
		return fmt.Errorf("diag: encode segments: %w", err)
	}
	fallback := 0
	if r.Fallback {
		fallback = 1
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO stitch_failures (id, request_id, ts, kind, segment, error, fallback, segments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.RequestID, r.Time.UnixMicro(), r.Kind, r.Segment, r.Error, fallback, string(segments))
	if err != nil {
		return fmt.Errorf("diag: insert: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultMemoryRecords
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, ts, kind, segment, error, fallback, segments
		FROM stitch_failures ORDER BY ts DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("diag: query: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r        Record
			ts       int64
			errText  sql.NullString
			fallback int
			segments string
		)
		if err := rows.Scan(&r.ID, &r.RequestID, &ts, &r.Kind, &r.Segment, &errText, &fallback, &segments); err != nil {
			return nil, fmt.Errorf("diag: scan: %w", err)
		}
		r.Time = time.UnixMicro(ts).UTC()
		r.Error = errText.String
		r.Fallback = fallback != 0
		if err := json.Unmarshal([]byte(segments), &r.Segments); err != nil {
			return nil, fmt.Errorf("diag: decode segments: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
