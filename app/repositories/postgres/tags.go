package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4/pgxpool"

	"blog/app/models"
)

// Tags implements repositories.TagRepository on the blog_tag table.
type Tags struct {
	db *pgxpool.Pool
}

func (s *Tags) GetByID(ctx context.Context, id int) (*models.Tag, error) {
	var t models.Tag
	err := s.db.QueryRow(ctx, `SELECT id, slug, name FROM blog_tag WHERE id = $1`, id).Scan(&t.ID, &t.Slug, &t.Name)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (s *Tags) GetBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	var t models.Tag
	err := s.db.QueryRow(ctx, `SELECT id, slug, name FROM blog_tag WHERE slug = $1`, slug).Scan(&t.ID, &t.Slug, &t.Name)
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// Ensure inserts the tag or returns the existing row with the same slug.
func (s *Tags) Ensure(ctx context.Context, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	slug := models.Slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("tag %q has no usable slug", name)
	}

	var t models.Tag
	err := s.db.QueryRow(ctx, `
		INSERT INTO blog_tag (name, slug) VALUES ($1, $2)
		ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
		RETURNING id, slug, name
	`, name, slug).Scan(&t.ID, &t.Slug, &t.Name)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Tags) List(ctx context.Context) ([]*models.Tag, error) {
	rows, err := s.db.Query(ctx, `SELECT id, slug, name FROM blog_tag ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []*models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Slug, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, &t)
	}
	return tags, rows.Err()
}
