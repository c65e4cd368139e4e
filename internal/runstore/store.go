// Package runstore persists extraction runs in SQLite.
package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no run has the requested id.
var ErrNotFound = errors.New("run not found")

// Run is one stored extraction.
type Run struct {
	ID         string          `json:"id"`
	DocHash    string          `json:"doc_hash"`
	Filename   string          `json:"filename"`
	Pages      string          `json:"pages,omitempty"`
	Steps      string          `json:"steps"`
	Results    json.RawMessage `json:"results"`
	DurationMs int64           `json:"duration_ms"`
	CreatedAt  time.Time       `json:"created_at"`
}

type Store struct {
	*sql.DB
	path string
}

// openDB opens a SQLite database. A single connection is kept so that
// ":memory:" databases are shared by every query.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// Open opens or creates the store at path and applies the schema.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	s := &Store{DB: db, path: path}
	if err := s.InitSchema(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

// InitSchema creates the tables if they do not exist.
func (s *Store) InitSchema() error {
	_, err := s.Exec(schema)
	return err
}

// Save inserts r, assigning an id and timestamp when they are empty.
func (s *Store) Save(ctx context.Context, r *Run) error {
	if r.ID == "" {
		r.ID = NewID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if len(r.Results) == 0 {
		r.Results = json.RawMessage("null")
	}
	_, err := s.ExecContext(ctx,
		`INSERT INTO runs (id, doc_hash, filename, pages, steps, results, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.DocHash, r.Filename, r.Pages, r.Steps, string(r.Results), r.DurationMs, r.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}
	return nil
}

const runColumns = `id, doc_hash, filename, pages, steps, results, duration_ms, created_at`

func scanRun(row interface{ Scan(...any) error }) (*Run, error) {
	var (
		r       Run
		results string
		created int64
	)
	if err := row.Scan(&r.ID, &r.DocHash, &r.Filename, &r.Pages, &r.Steps, &results, &r.DurationMs, &created); err != nil {
		return nil, err
	}
	r.Results = json.RawMessage(results)
	r.CreatedAt = time.UnixMilli(created).UTC()
	return &r, nil
}

// Get returns the run with the given id.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return r, nil
}

// ForDocument lists the runs against a document, newest first.
func (s *Store) ForDocument(ctx context.Context, docHash string, limit int) ([]Run, error) {
	return s.list(ctx, `SELECT `+runColumns+` FROM runs WHERE doc_hash = ? ORDER BY created_at DESC, id DESC LIMIT ?`, docHash, limit)
}

// Recent lists the newest runs.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	return s.list(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// Prune deletes runs older than maxAge and returns how many were removed.
func (s *Store) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	res, err := s.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}
