package repositories

import (
	"context"
	"strings"
	"time"

	"blog/app/models"
)

// PublishedPosts is the view of a PostRepository that anonymous readers may
// see. Every read it performs is restricted to published posts, and it keeps
// the repository's default ordering (publish descending).
type PublishedPosts struct {
	posts PostRepository
}

// Published layers the published-only view over posts.
func Published(posts PostRepository) *PublishedPosts {
	return &PublishedPosts{posts: posts}
}

func restrict(filter PostFilter) PostFilter {
	filter.Status = models.StatusPublished
	return filter
}

// List returns published posts matching filter.
func (p *PublishedPosts) List(ctx context.Context, filter PostFilter) ([]*models.Post, error) {
	return p.posts.List(ctx, restrict(filter))
}

// Count returns the number of published posts matching filter.
func (p *PublishedPosts) Count(ctx context.Context, filter PostFilter) (int, error) {
	return p.posts.Count(ctx, restrict(filter))
}

// Get returns the published post with the given id. Drafts are reported as ErrNotFound.
func (p *PublishedPosts) Get(ctx context.Context, id int) (*models.Post, error) {
	post, err := p.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.IsPublished() {
		return nil, ErrNotFound
	}
	return post, nil
}

// ByDate returns the published post with slug whose publish instant falls on
// the calendar day of day, in day's location. More than one match is a broken
// (publish date, slug) invariant and yields ErrDuplicatePost.
func (p *PublishedPosts) ByDate(ctx context.Context, day time.Time, slug string) (*models.Post, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	posts, err := p.posts.List(ctx, restrict(PostFilter{
		Slug:  slug,
		From:  from,
		To:    from.AddDate(0, 0, 1),
		Limit: 2,
	}))
	if err != nil {
		return nil, err
	}
	switch len(posts) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return posts[0], nil
	default:
		return nil, ErrDuplicatePost
	}
}

// Similar returns up to limit published posts sharing tags with post, ranked by
// shared-tag count then recency. A post without tags has no similar posts.
func (p *PublishedPosts) Similar(ctx context.Context, post *models.Post, limit int) ([]models.SimilarPost, error) {
	if post == nil || !post.IsPublished() {
		return nil, ErrNotFound
	}
	if len(post.Tags) == 0 {
		return nil, nil
	}
	return p.posts.Similar(ctx, restrict(PostFilter{}), post, limit)
}

// Search ranks published posts by title similarity to query. A blank query
// returns nothing without touching the store.
func (p *PublishedPosts) Search(ctx context.Context, query string, threshold float64) ([]models.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	return p.posts.Search(ctx, restrict(PostFilter{}), query, threshold)
}
