package repositories

import (
	"time"

	"blog/app/models"
)

// PostFilter narrows a post read. Zero values mean "no restriction".
type PostFilter struct {
	Status    models.Status
	TagSlug   string
	TagIDs    []int // any of
	ExcludeID int
	Slug      string
	From      time.Time // publish >= From
	To        time.Time // publish < To
	Limit     int
	Offset    int
}

// Match reports whether post satisfies every restriction of the filter except paging.
func (f PostFilter) Match(post *models.Post) bool {
	if f.Status != "" && post.Status != f.Status {
		return false
	}
	if f.ExcludeID != 0 && post.ID == f.ExcludeID {
		return false
	}
	if f.Slug != "" && post.Slug != f.Slug {
		return false
	}
	if !f.From.IsZero() && post.Publish.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !post.Publish.Before(f.To) {
		return false
	}
	if f.TagSlug != "" && !post.HasTagSlug(f.TagSlug) {
		return false
	}
	if len(f.TagIDs) > 0 && !hasAnyTag(post, f.TagIDs) {
		return false
	}
	return true
}

// Page applies Offset and Limit to an already ordered slice.
func (f PostFilter) Page(posts []*models.Post) []*models.Post {
	if f.Offset > 0 {
		if f.Offset >= len(posts) {
			return []*models.Post{}
		}
		posts = posts[f.Offset:]
	}
	if f.Limit > 0 && len(posts) > f.Limit {
		posts = posts[:f.Limit]
	}
	return posts
}

func hasAnyTag(post *models.Post, ids []int) bool {
	for _, t := range post.Tags {
		for _, id := range ids {
			if t.ID == id {
				return true
			}
		}
	}
	return false
}
