package repositories

import (
	"context"

	"blog/app/models"
)

// PostRepository defines the interface for post data access. Reads go through
// List/Count with a PostFilter; ranking reads take the same filter as their
// base relation.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int) (*models.Post, error)
	List(ctx context.Context, filter PostFilter) ([]*models.Post, error)
	Count(ctx context.Context, filter PostFilter) (int, error)
	Similar(ctx context.Context, filter PostFilter, post *models.Post, limit int) ([]models.SimilarPost, error)
	Search(ctx context.Context, filter PostFilter, query string, threshold float64) ([]models.SearchResult, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id int) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id int) (*models.Comment, error)
	ListByPost(ctx context.Context, postID int, activeOnly bool) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id int) error
	DeleteByPost(ctx context.Context, postID int) error
}

// TagRepository defines the interface for the tag vocabulary.
type TagRepository interface {
	GetByID(ctx context.Context, id int) (*models.Tag, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tag, error)
	// Ensure returns the tag whose slug matches name's slug, creating it when missing.
	Ensure(ctx context.Context, name string) (*models.Tag, error)
	List(ctx context.Context) ([]*models.Tag, error)
}
