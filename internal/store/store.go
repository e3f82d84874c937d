// Package store is the persistence collaborator: it caches compiled
// document models and enforces the at-most-one in-flight run per book
// invariant the compiler core assumes but does not implement.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okvee/bookpress/internal/book"
)

// ErrRunInFlight is returned by AcquireRun when another run already
// holds the book.
var ErrRunInFlight = errors.New("a compile run is already in flight for this book")

// ErrNotFound is returned when a book has no cached model.
var ErrNotFound = errors.New("book not found")

const schema = `
CREATE TABLE IF NOT EXISTS books (
	book_id     TEXT PRIMARY KEY,
	filename    TEXT NOT NULL,
	model       BLOB NOT NULL,
	total_pages INTEGER NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS runs (
	book_id    TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL,
	started_at TEXT NOT NULL
);
`

// Store is a sqlite-backed book model cache.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the database at path. Use
// ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under the worker pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// AcquireRun registers an in-flight run for the book. The primary key on
// runs makes acquisition atomic: a second acquire fails until the first
// run releases.
func (s *Store) AcquireRun(ctx context.Context, bookID, jobID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (book_id, job_id, started_at) VALUES (?, ?, ?)`,
		bookID, jobID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		// Constraint violation means the slot is taken.
		var exists int
		row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE book_id = ?`, bookID)
		if scanErr := row.Scan(&exists); scanErr == nil && exists > 0 {
			return ErrRunInFlight
		}
		return fmt.Errorf("acquire run: %w", err)
	}
	return nil
}

// ReleaseRun removes the in-flight marker for the book.
func (s *Store) ReleaseRun(ctx context.Context, bookID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE book_id = ?`, bookID)
	return err
}

// SaveDocument caches the compiled model for the book, replacing any
// previous model.
func (s *Store) SaveDocument(ctx context.Context, bookID, filename string, doc *book.Document) error {
	model, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO books (book_id, filename, model, total_pages, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(book_id) DO UPDATE SET
			filename = excluded.filename,
			model = excluded.model,
			total_pages = excluded.total_pages,
			updated_at = excluded.updated_at`,
		bookID, filename, model, doc.TotalPages, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// GetDocument returns the cached model for the book.
func (s *Store) GetDocument(ctx context.Context, bookID string) (*book.Document, error) {
	var model []byte
	row := s.db.QueryRowContext(ctx, `SELECT model FROM books WHERE book_id = ?`, bookID)
	if err := row.Scan(&model); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var doc book.Document
	if err := json.Unmarshal(model, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal model: %w", err)
	}
	return &doc, nil
}

// BookInfo is one row of the book listing.
type BookInfo struct {
	BookID     string `json:"book_id"`
	Filename   string `json:"filename"`
	TotalPages int    `json:"total_pages"`
	UpdatedAt  string `json:"updated_at"`
}

// ListBooks returns cached books, most recently updated first.
func (s *Store) ListBooks(ctx context.Context) ([]BookInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT book_id, filename, total_pages, updated_at FROM books ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []BookInfo
	for rows.Next() {
		var b BookInfo
		if err := rows.Scan(&b.BookID, &b.Filename, &b.TotalPages, &b.UpdatedAt); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// DeleteBook removes the cached model.
func (s *Store) DeleteBook(ctx context.Context, bookID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE book_id = ?`, bookID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
