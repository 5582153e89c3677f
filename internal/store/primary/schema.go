package primary

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS job_postings (
		job_id      TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		company     TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		criteria    JSONB NOT NULL DEFAULT '{}'::jsonb,
		status      TEXT NOT NULL DEFAULT 'Ongoing',
		job_link    TEXT NOT NULL DEFAULT '',
		owners      JSONB NOT NULL DEFAULT '[]'::jsonb,
		candidates  JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS job_postings_candidates_idx ON job_postings USING GIN (candidates jsonb_path_ops)`,
	`CREATE TABLE IF NOT EXISTS users (
		id                  TEXT PRIMARY KEY,
		email               TEXT NOT NULL,
		full_name           TEXT NOT NULL DEFAULT '',
		role                TEXT NOT NULL,
		jobs                JSONB NOT NULL DEFAULT '[]'::jsonb,
		invitation_accepted BOOLEAN NOT NULL DEFAULT false,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (lower(email))`,
	`CREATE TABLE IF NOT EXISTS background_jobs (
		id                  BIGSERIAL PRIMARY KEY,
		task_id             UUID NOT NULL UNIQUE,
		task_type           TEXT NOT NULL,
		payload             JSONB NOT NULL DEFAULT '{}'::jsonb,
		queue               TEXT NOT NULL DEFAULT '',
		status              TEXT NOT NULL,
		related_entity_type TEXT,
		related_entity_id   TEXT,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS background_jobs_related_idx ON background_jobs (related_entity_type, related_entity_id)`,
}

// Migrate creates the tables and indexes the store needs. It is idempotent.
func (s *StoreImpl) Migrate(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d failed: %w", i+1, err)
		}
	}
	log.Infof("Applied %d schema statements", len(schemaStatements))
	return nil
}
