package postgres

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "initial schema",
		stmts: []string{
			`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
			`CREATE TABLE IF NOT EXISTS blog_post (
				id      SERIAL PRIMARY KEY,
				title   VARCHAR(250) NOT NULL,
				slug    VARCHAR(250) NOT NULL,
				author  VARCHAR(150) NOT NULL,
				body    TEXT NOT NULL,
				publish TIMESTAMPTZ NOT NULL,
				created TIMESTAMPTZ NOT NULL,
				updated TIMESTAMPTZ NOT NULL,
				status  VARCHAR(10) NOT NULL DEFAULT 'draft'
			)`,
			`CREATE INDEX IF NOT EXISTS blog_post_publish_idx ON blog_post (publish DESC)`,
			`CREATE INDEX IF NOT EXISTS blog_post_slug_publish_idx ON blog_post (slug, publish)`,
			`CREATE TABLE IF NOT EXISTS blog_tag (
				id   SERIAL PRIMARY KEY,
				name VARCHAR(100) NOT NULL,
				slug VARCHAR(100) NOT NULL UNIQUE
			)`,
			`CREATE TABLE IF NOT EXISTS blog_post_tags (
				post_id INTEGER NOT NULL REFERENCES blog_post (id) ON DELETE CASCADE,
				tag_id  INTEGER NOT NULL REFERENCES blog_tag (id) ON DELETE CASCADE,
				PRIMARY KEY (post_id, tag_id)
			)`,
			`CREATE TABLE IF NOT EXISTS blog_comment (
				id      SERIAL PRIMARY KEY,
				post_id INTEGER NOT NULL REFERENCES blog_post (id) ON DELETE CASCADE,
				name    VARCHAR(80) NOT NULL,
				email   VARCHAR(254) NOT NULL,
				body    TEXT NOT NULL,
				created TIMESTAMPTZ NOT NULL,
				updated TIMESTAMPTZ NOT NULL,
				active  BOOLEAN NOT NULL DEFAULT TRUE
			)`,
			`CREATE INDEX IF NOT EXISTS blog_comment_created_idx ON blog_comment (created)`,
		},
	},
	{
		version: 2,
		name:    "restrict post status",
		stmts: []string{
			`ALTER TABLE blog_post DROP CONSTRAINT IF EXISTS blog_post_status_check`,
			`ALTER TABLE blog_post ADD CONSTRAINT blog_post_status_check CHECK (status IN ('draft', 'published'))`,
		},
	},
	{
		version: 3,
		name:    "trigram index on titles",
		stmts: []string{
			`CREATE INDEX IF NOT EXISTS blog_post_title_trgm_idx ON blog_post USING gin (title gin_trgm_ops)`,
		},
	},
}

// Migrate applies every migration newer than the recorded schema version.
// Each migration runs in its own transaction.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	err = s.db.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		log.Infof("[postgres] applied migration %d: %s", m.version, m.name)
	}
	return nil
}

func (s *Store) apply(ctx context.Context, m migration) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, stmt := range m.stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
