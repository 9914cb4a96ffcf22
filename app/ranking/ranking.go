package ranking

import (
	"sort"
	"strings"

	"blog/app/models"
)

// DefaultSimilarLimit caps the similar-posts list.
const DefaultSimilarLimit = 4

// SimilarPosts ranks candidates by the number of tags they share with post,
// most shared first and most recently published next. The post itself and
// candidates sharing no tag are dropped. limit <= 0 means no limit.
//
// Candidates are expected to be pre-filtered (published only).
func SimilarPosts(post *models.Post, candidates []*models.Post, limit int) []models.SimilarPost {
	if post == nil || len(post.Tags) == 0 {
		return nil
	}

	tagIDs := make(map[int]struct{}, len(post.Tags))
	for _, t := range post.Tags {
		tagIDs[t.ID] = struct{}{}
	}

	var ranked []models.SimilarPost
	for _, c := range candidates {
		if c == nil || c.ID == post.ID {
			continue
		}
		same := 0
		for _, t := range c.Tags {
			if _, ok := tagIDs[t.ID]; ok {
				same++
			}
		}
		if same > 0 {
			ranked = append(ranked, models.SimilarPost{Post: c, SameTags: same})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.SameTags != b.SameTags {
			return a.SameTags > b.SameTags
		}
		return newer(a.Post, b.Post)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// ByTitle ranks candidates by the trigram similarity of their title to query
// and keeps those scoring strictly above threshold. A blank query yields nothing.
func ByTitle(query string, candidates []*models.Post, threshold float64) []models.SearchResult {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	var results []models.SearchResult
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if score := Similarity(c.Title, query); score > threshold {
			results = append(results, models.SearchResult{Post: c, Similarity: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		return newer(a.Post, b.Post)
	})
	return results
}

// SortByPublish orders posts the way the store's default relation does:
// publish descending, id descending on ties.
func SortByPublish(posts []*models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return newer(posts[i], posts[j])
	})
}

func newer(a, b *models.Post) bool {
	if !a.Publish.Equal(b.Publish) {
		return a.Publish.After(b.Publish)
	}
	return a.ID > b.ID
}
