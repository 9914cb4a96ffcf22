// Package postgres implements the blog repositories on PostgreSQL. Title
// search relies on the pg_trgm extension, which Migrate installs.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"blog/app/repositories"
)

type Store struct {
	db *pgxpool.Pool
}

func New(ctx context.Context, conStr string) (*Store, error) {
	db, err := pgxpool.Connect(ctx, conStr)
	if err != nil {
		return nil, err
	}
	s := Store{
		db: db,
	}

	return &s, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) Close() {
	s.db.Close()
}

// Posts returns the post repository backed by this pool.
func (s *Store) Posts() *Posts {
	return &Posts{db: s.db}
}

// Comments returns the comment repository backed by this pool.
func (s *Store) Comments() *Comments {
	return &Comments{db: s.db}
}

// Tags returns the tag repository backed by this pool.
func (s *Store) Tags() *Tags {
	return &Tags{db: s.db}
}

// scanner is satisfied by pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repositories.ErrNotFound
	}
	return err
}

// query accumulates WHERE conditions and their positional arguments.
type query struct {
	conds []string
	args  []interface{}
}

// arg registers v and returns its placeholder.
func (q *query) arg(v interface{}) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

func (q *query) where(cond string) {
	q.conds = append(q.conds, cond)
}

func (q *query) clause() string {
	if len(q.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.conds, " AND ")
}

// filterQuery translates a PostFilter into conditions on the blog_post alias p.
// Limit and Offset are left to the caller.
func filterQuery(f repositories.PostFilter) *query {
	q := &query{}
	if f.Status != "" {
		q.where("p.status = " + q.arg(string(f.Status)))
	}
	if f.ExcludeID != 0 {
		q.where("p.id <> " + q.arg(f.ExcludeID))
	}
	if f.Slug != "" {
		q.where("p.slug = " + q.arg(f.Slug))
	}
	if !f.From.IsZero() {
		q.where("p.publish >= " + q.arg(f.From))
	}
	if !f.To.IsZero() {
		q.where("p.publish < " + q.arg(f.To))
	}
	if f.TagSlug != "" {
		q.where(`EXISTS (
			SELECT 1 FROM blog_post_tags ft JOIN blog_tag t ON t.id = ft.tag_id
			WHERE ft.post_id = p.id AND t.slug = ` + q.arg(f.TagSlug) + `)`)
	}
	if len(f.TagIDs) > 0 {
		q.where(`EXISTS (
			SELECT 1 FROM blog_post_tags ft
			WHERE ft.post_id = p.id AND ft.tag_id = ANY(` + q.arg(int32s(f.TagIDs)) + `))`)
	}
	return q
}

func (q *query) page(f repositories.PostFilter) string {
	var sb strings.Builder
	if f.Limit > 0 {
		sb.WriteString(" LIMIT " + q.arg(f.Limit))
	}
	if f.Offset > 0 {
		sb.WriteString(" OFFSET " + q.arg(f.Offset))
	}
	return sb.String()
}

func int32s(ids []int) []int32 {
	out := make([]int32, len(ids))
	for i, id := range ids {
		out[i] = int32(id)
	}
	return out
}

var (
	_ repositories.PostRepository    = (*Posts)(nil)
	_ repositories.CommentRepository = (*Comments)(nil)
	_ repositories.TagRepository     = (*Tags)(nil)
)
