// Package sqlite is a single-file store backend. Candidates are rows of their
// own table ordered by a position column, so a per-candidate update is a
// single-row write.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"aicruit/internal/store"

	"github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// New opens the database at dsn. Transactions take the write lock up front so
// read-modify-write sequences on a candidate row cannot interleave.
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("sqlite DSN cannot be empty")
	}
	db, err := sql.Open("sqlite3", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if strings.Contains(dsn, ":memory:") {
		// each connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	return &Store{db: db}, nil
}

func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_txlock=immediate&_busy_timeout=5000&_foreign_keys=1"
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS job_postings (
		job_id      TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		company     TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		criteria    TEXT NOT NULL DEFAULT '{}',
		status      TEXT NOT NULL DEFAULT 'Ongoing',
		job_link    TEXT NOT NULL DEFAULT '',
		owners      TEXT NOT NULL DEFAULT '[]',
		created_at  DATETIME NOT NULL,
		updated_at  DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS candidates (
		job_id             TEXT NOT NULL REFERENCES job_postings(job_id) ON DELETE CASCADE,
		id                 TEXT NOT NULL,
		position           INTEGER NOT NULL,
		email              TEXT NOT NULL DEFAULT '',
		cv_link            TEXT NOT NULL DEFAULT '',
		cv_score           REAL,
		composite_score    REAL,
		resume_breakdown   TEXT,
		flags              TEXT NOT NULL DEFAULT '[]',
		eval_retry_count   INTEGER NOT NULL DEFAULT 0,
		application_status TEXT NOT NULL DEFAULT 'CV Processed',
		created_at         DATETIME NOT NULL,
		PRIMARY KEY (job_id, id)
	)`,
	`CREATE INDEX IF NOT EXISTS candidates_position_idx ON candidates (job_id, position)`,
	`CREATE TABLE IF NOT EXISTS users (
		id                  TEXT PRIMARY KEY,
		email               TEXT NOT NULL,
		full_name           TEXT NOT NULL DEFAULT '',
		role                TEXT NOT NULL,
		jobs                TEXT NOT NULL DEFAULT '[]',
		invitation_accepted INTEGER NOT NULL DEFAULT 0,
		created_at          DATETIME NOT NULL,
		updated_at          DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_idx ON users (lower(email))`,
	`CREATE TABLE IF NOT EXISTS background_jobs (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id             TEXT NOT NULL UNIQUE,
		task_type           TEXT NOT NULL,
		payload             TEXT NOT NULL DEFAULT '{}',
		queue               TEXT NOT NULL DEFAULT '',
		status              TEXT NOT NULL,
		related_entity_type TEXT,
		related_entity_id   TEXT,
		created_at          DATETIME NOT NULL,
		updated_at          DATETIME NOT NULL
	)`,
}

// Migrate creates the tables and indexes the store needs. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d failed: %w", i+1, err)
		}
	}
	log.Debugf("Applied %d sqlite schema statements", len(schemaStatements))
	return nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
