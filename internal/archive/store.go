// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive indexes saved reports and background task history in a
// SQLite database so that separate CLI invocations and the HTTP server can
// list, search and export past research.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/deep-research/pkg/types"
)

// ErrNotFound is returned when a report id does not exist.
var ErrNotFound = errors.New("not found")

// DefaultMaxResults limits searches when no limit is given.
const DefaultMaxResults = 20

// Store manages the archive database.
type Store struct {
	db         *sql.DB
	maxResults int

	// fts is false when the sqlite3 driver was built without FTS5; searches
	// then fall back to LIKE matching.
	fts bool

	now func() time.Time
}

// Open opens or creates the archive at cfg.Path and creates the schema if
// it does not exist. ":memory:" opens a private in-memory database.
func Open(cfg types.ArchiveConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("archive path is empty")
	}

	dsn := "file::memory:?cache=private&_foreign_keys=on"
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
		dsn = cfg.Path + "?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if cfg.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	s := &Store{db: db, maxResults: maxResults, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// FullText reports whether searches use the FTS5 index.
func (s *Store) FullText() bool { return s.fts }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL UNIQUE,
			query TEXT NOT NULL,
			sub_queries TEXT,
			diversity REAL,
			coverage REAL,
			sources INTEGER,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			status TEXT NOT NULL,
			start_time TEXT,
			filepath TEXT,
			error TEXT,
			updated_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='reports_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		s.fts = true
		return nil
	}

	if _, err := s.db.Exec(
		`CREATE VIRTUAL TABLE reports_fts USING fts5(query, sub_queries, content, content=reports, content_rowid=id)`,
	); err != nil {
		if strings.Contains(err.Error(), "no such module") {
			return nil
		}
		return fmt.Errorf("creating FTS table: %w", err)
	}

	triggers := []string{
		`CREATE TRIGGER reports_ai AFTER INSERT ON reports BEGIN
			INSERT INTO reports_fts(rowid, query, sub_queries, content)
			VALUES (new.id, new.query, new.sub_queries, new.content);
		END`,
		`CREATE TRIGGER reports_ad AFTER DELETE ON reports BEGIN
			INSERT INTO reports_fts(reports_fts, rowid, query, sub_queries, content)
			VALUES ('delete', old.id, old.query, old.sub_queries, old.content);
		END`,
		`CREATE TRIGGER reports_au AFTER UPDATE ON reports BEGIN
			INSERT INTO reports_fts(reports_fts, rowid, query, sub_queries, content)
			VALUES ('delete', old.id, old.query, old.sub_queries, old.content);
			INSERT INTO reports_fts(rowid, query, sub_queries, content)
			VALUES (new.id, new.query, new.sub_queries, new.content);
		END`,
	}
	for _, stmt := range triggers {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	s.fts = true
	return nil
}

// AddReport indexes a saved report. Re-adding the same path replaces the
// previous entry. The record's ID is returned.
func (s *Store) AddReport(ctx context.Context, rec types.ReportRecord) (int64, error) {
	if rec.Path == "" {
		return 0, fmt.Errorf("report path is empty")
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = s.now().UTC().Format(time.RFC3339)
	}
	subJSON, _ := json.Marshal(rec.SubQueries)

	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO reports (path, query, sub_queries, diversity, coverage, sources, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
			query=excluded.query, sub_queries=excluded.sub_queries,
			diversity=excluded.diversity, coverage=excluded.coverage,
			sources=excluded.sources, content=excluded.content, created_at=excluded.created_at
		 RETURNING id`,
		rec.Path, rec.Query, string(subJSON), rec.DiversityScore, rec.CoverageScore,
		rec.SourceCount, rec.Content, rec.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting report: %w", err)
	}
	return id, nil
}

// Report returns one report including its content.
func (s *Store) Report(ctx context.Context, id int64) (types.ReportRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, path, query, sub_queries, diversity, coverage, sources, content, created_at
		 FROM reports WHERE id = ?`, id)
	rec, err := scanReport(row.Scan, true)
	if err == sql.ErrNoRows {
		return types.ReportRecord{}, fmt.Errorf("report %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.ReportRecord{}, fmt.Errorf("looking up report: %w", err)
	}
	return rec, nil
}

func scanReport(scan func(...any) error, withContent bool) (types.ReportRecord, error) {
	var (
		rec     types.ReportRecord
		subJSON sql.NullString
		content sql.NullString
	)
	dest := []any{&rec.ID, &rec.Path, &rec.Query, &subJSON, &rec.DiversityScore,
		&rec.CoverageScore, &rec.SourceCount}
	if withContent {
		dest = append(dest, &content)
	}
	dest = append(dest, &rec.CreatedAt)
	if err := scan(dest...); err != nil {
		return rec, err
	}
	if subJSON.Valid {
		json.Unmarshal([]byte(subJSON.String), &rec.SubQueries)
	}
	rec.Content = content.String
	return rec, nil
}
