package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"blog/app/models"
	"blog/app/repositories"
)

const postColumns = `p.id, p.title, p.slug, p.author, p.body, p.publish, p.created, p.updated, p.status`

// Posts implements repositories.PostRepository. Similar and Search are
// answered by SQL: shared tag counts via a join on blog_post_tags, and title
// similarity via pg_trgm.
type Posts struct {
	db *pgxpool.Pool
}

func scanPost(row scanner, extra ...interface{}) (*models.Post, error) {
	var (
		p      models.Post
		status string
	)
	dest := append([]interface{}{
		&p.ID, &p.Title, &p.Slug, &p.Author, &p.Body,
		&p.Publish, &p.Created, &p.Updated, &status,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	p.Status = models.Status(status)
	p.Publish = p.Publish.UTC()
	p.Created = p.Created.UTC()
	p.Updated = p.Updated.UTC()
	return &p, nil
}

func (s *Posts) Create(ctx context.Context, post *models.Post) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO blog_post (title, slug, author, body, publish, created, updated, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`,
		post.Title,
		post.Slug,
		post.Author,
		post.Body,
		post.Publish,
		post.Created,
		post.Updated,
		string(post.Status),
	).Scan(&post.ID)
	if err != nil {
		return err
	}

	if err := setTags(ctx, tx, post); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Posts) GetByID(ctx context.Context, id int) (*models.Post, error) {
	post, err := scanPost(s.db.QueryRow(ctx, `SELECT `+postColumns+` FROM blog_post p WHERE p.id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.loadTags(ctx, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *Posts) List(ctx context.Context, filter repositories.PostFilter) ([]*models.Post, error) {
	q := filterQuery(filter)
	sql := `SELECT ` + postColumns + ` FROM blog_post p` + q.clause() +
		` ORDER BY p.publish DESC, p.id DESC` + q.page(filter)

	rows, err := s.db.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadTags(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Posts) Count(ctx context.Context, filter repositories.PostFilter) (int, error) {
	q := filterQuery(filter)
	var total int
	err := s.db.QueryRow(ctx, `SELECT COUNT(p.id) FROM blog_post p`+q.clause(), q.args...).Scan(&total)
	return total, err
}

func (s *Posts) Similar(ctx context.Context, filter repositories.PostFilter, post *models.Post, limit int) ([]models.SimilarPost, error) {
	if len(post.Tags) == 0 {
		return nil, nil
	}
	filter.TagIDs = nil
	filter.ExcludeID = post.ID
	q := filterQuery(filter)
	q.where("st.tag_id = ANY(" + q.arg(int32s(post.TagIDs())) + ")")

	sql := `SELECT ` + postColumns + `, COUNT(st.tag_id) AS same_tags
		FROM blog_post p JOIN blog_post_tags st ON st.post_id = p.id` + q.clause() + `
		GROUP BY p.id
		ORDER BY same_tags DESC, p.publish DESC, p.id DESC`
	if limit > 0 {
		sql += ` LIMIT ` + q.arg(limit)
	}

	rows, err := s.db.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		similar []models.SimilarPost
		posts   []*models.Post
	)
	for rows.Next() {
		var same int
		p, err := scanPost(rows, &same)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
		similar = append(similar, models.SimilarPost{Post: p, SameTags: same})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadTags(ctx, posts); err != nil {
		return nil, err
	}
	return similar, nil
}

func (s *Posts) Search(ctx context.Context, filter repositories.PostFilter, query string, threshold float64) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	q := filterQuery(filter)
	qp := q.arg(query)
	q.where("similarity(p.title, " + qp + ") > " + q.arg(threshold))

	sql := `SELECT ` + postColumns + `, similarity(p.title, ` + qp + `) AS sim
		FROM blog_post p` + q.clause() + `
		ORDER BY sim DESC, p.publish DESC, p.id DESC` + q.page(filter)

	rows, err := s.db.Query(ctx, sql, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		results []models.SearchResult
		posts   []*models.Post
	)
	for rows.Next() {
		var sim float32
		p, err := scanPost(rows, &sim)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
		results = append(results, models.SearchResult{Post: p, Similarity: float64(sim)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadTags(ctx, posts); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Posts) Update(ctx context.Context, post *models.Post) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE blog_post
		SET title = $2, slug = $3, author = $4, body = $5, publish = $6, updated = $7, status = $8
		WHERE id = $1
	`,
		post.ID,
		post.Title,
		post.Slug,
		post.Author,
		post.Body,
		post.Publish,
		post.Updated,
		string(post.Status),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM blog_post_tags WHERE post_id = $1`, post.ID); err != nil {
		return err
	}
	if err := setTags(ctx, tx, post); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Delete removes the post. Its comments and tag links go with it through
// ON DELETE CASCADE.
func (s *Posts) Delete(ctx context.Context, id int) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM blog_post WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func setTags(ctx context.Context, tx pgx.Tx, post *models.Post) error {
	if len(post.Tags) == 0 {
		return nil
	}
	batch := new(pgx.Batch)
	for _, t := range post.Tags {
		batch.Queue(`
			INSERT INTO blog_post_tags (post_id, tag_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, post.ID, t.ID)
	}
	return tx.SendBatch(ctx, batch).Close()
}

// loadTags fills the Tags of every post with a single query.
func (s *Posts) loadTags(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	byID := make(map[int]*models.Post, len(posts))
	ids := make([]int, 0, len(posts))
	for _, p := range posts {
		p.Tags = []models.Tag{}
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	rows, err := s.db.Query(ctx, `
		SELECT pt.post_id, t.id, t.slug, t.name
		FROM blog_post_tags pt JOIN blog_tag t ON t.id = pt.tag_id
		WHERE pt.post_id = ANY($1)
		ORDER BY t.name
	`, int32s(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			postID int
			t      models.Tag
		)
		if err := rows.Scan(&postID, &t.ID, &t.Slug, &t.Name); err != nil {
			return err
		}
		if p, ok := byID[postID]; ok {
			p.Tags = append(p.Tags, t)
		}
	}
	return rows.Err()
}
