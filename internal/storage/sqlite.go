package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // Driver sqlite
)

// SQLite stores documents as rows of the documents table.
type SQLite struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLite opens the database, sets connection pool parameters, and runs migrations.
func NewSQLite(dbPath string) (*SQLite, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One writer is all a single process needs.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// Load implements Documents.
func (s *SQLite) Load(ctx context.Context, name string, v any) (bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal([]byte(body), v); err != nil {
		log.Warn().Err(err).Str("document", name).Msg("Unreadable document, starting empty")
		return false, nil
	}

	return true, nil
}

// Save implements Documents.
func (s *SQLite) Save(ctx context.Context, name string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO documents (name, body, updated_at, revision)
	VALUES (?, ?, ?, 1)
	ON CONFLICT(name) DO UPDATE SET
		body = excluded.body,
		updated_at = excluded.updated_at,
		revision = documents.revision + 1;
	`, name, string(body), time.Now())

	return err
}

// Revision returns how many times the named document has been written.
func (s *SQLite) Revision(ctx context.Context, name string) (int64, error) {
	var rev int64
	err := s.db.QueryRowContext(ctx, `SELECT revision FROM documents WHERE name = ?`, name).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}

	return rev, err
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
