package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"blog/app/models"
	"blog/app/repositories"
)

const commentColumns = `id, post_id, name, email, body, created, updated, active`

// Comments implements repositories.CommentRepository on the blog_comment table.
type Comments struct {
	db *pgxpool.Pool
}

func scanComment(row scanner) (*models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.PostID, &c.Name, &c.Email, &c.Body, &c.Created, &c.Updated, &c.Active)
	if err != nil {
		return nil, err
	}
	c.Created = c.Created.UTC()
	c.Updated = c.Updated.UTC()
	return &c, nil
}

func (s *Comments) Create(ctx context.Context, comment *models.Comment) error {
	return s.db.QueryRow(ctx, `
		INSERT INTO blog_comment (post_id, name, email, body, created, updated, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		comment.PostID,
		comment.Name,
		comment.Email,
		comment.Body,
		comment.Created,
		comment.Updated,
		comment.Active,
	).Scan(&comment.ID)
}

func (s *Comments) GetByID(ctx context.Context, id int) (*models.Comment, error) {
	c, err := scanComment(s.db.QueryRow(ctx, `SELECT `+commentColumns+` FROM blog_comment WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (s *Comments) ListByPost(ctx context.Context, postID int, activeOnly bool) ([]*models.Comment, error) {
	sql := `SELECT ` + commentColumns + ` FROM blog_comment WHERE post_id = $1`
	if activeOnly {
		sql += ` AND active`
	}
	sql += ` ORDER BY created, id`

	rows, err := s.db.Query(ctx, sql, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []*models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *Comments) Update(ctx context.Context, comment *models.Comment) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE blog_comment SET name = $2, email = $3, body = $4, updated = $5, active = $6
		WHERE id = $1
	`,
		comment.ID,
		comment.Name,
		comment.Email,
		comment.Body,
		comment.Updated,
		comment.Active,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (s *Comments) Delete(ctx context.Context, id int) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM blog_comment WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (s *Comments) DeleteByPost(ctx context.Context, postID int) error {
	_, err := s.db.Exec(ctx, `DELETE FROM blog_comment WHERE post_id = $1`, postID)
	return err
}
