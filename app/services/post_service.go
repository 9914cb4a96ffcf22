package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"blog/app/forms"
	"blog/app/models"
	"blog/app/ranking"
	"blog/app/repositories"
)

var (
	ErrSlugTaken   = errors.New("a post with this slug already exists for the publish date")
	ErrInvalidPost = errors.New("invalid post")
)

// Options tune how posts are paged, ranked and dated. Zero fields take the
// values of DefaultOptions.
type Options struct {
	PerPage         int
	SimilarLimit    int
	SearchThreshold float64
	Location        *time.Location
}

func DefaultOptions() Options {
	return Options{
		PerPage:         3,
		SimilarLimit:    ranking.DefaultSimilarLimit,
		SearchThreshold: ranking.DefaultThreshold,
		Location:        time.UTC,
	}
}

// PostService handles business logic for blog posts. Reader-facing reads go
// through the published view; only the write methods see drafts.
type PostService struct {
	postRepo    repositories.PostRepository
	published   *repositories.PublishedPosts
	commentRepo repositories.CommentRepository
	tagRepo     repositories.TagRepository
	opts        Options
}

// NewPostService creates a new PostService
func NewPostService(postRepo repositories.PostRepository, commentRepo repositories.CommentRepository, tagRepo repositories.TagRepository, opts Options) *PostService {
	def := DefaultOptions()
	if opts.PerPage < 1 {
		opts.PerPage = def.PerPage
	}
	if opts.SimilarLimit < 1 {
		opts.SimilarLimit = def.SimilarLimit
	}
	if opts.SearchThreshold <= 0 {
		opts.SearchThreshold = def.SearchThreshold
	}
	if opts.Location == nil {
		opts.Location = def.Location
	}
	return &PostService{
		postRepo:    postRepo,
		published:   repositories.Published(postRepo),
		commentRepo: commentRepo,
		tagRepo:     tagRepo,
		opts:        opts,
	}
}

// Location returns the zone publish dates are expressed in.
func (s *PostService) Location() *time.Location {
	return s.opts.Location
}

// Page describes one page of a paginated listing.
type Page struct {
	Number   int `json:"number"`
	NumPages int `json:"num_pages"`
	Total    int `json:"total"`
	PerPage  int `json:"per_page"`
}

func (p Page) HasPrevious() bool { return p.Number > 1 }

func (p Page) HasNext() bool { return p.Number < p.NumPages }

func (p Page) PreviousNumber() int { return p.Number - 1 }

func (p Page) NextNumber() int { return p.Number + 1 }

// newPage resolves the requested page number. Anything that is not an integer
// selects the first page; numbers outside the range select the last page.
func newPage(raw string, total, perPage int) Page {
	numPages := (total + perPage - 1) / perPage
	if numPages < 1 {
		numPages = 1
	}
	number, err := strconv.Atoi(strings.TrimSpace(raw))
	switch {
	case err != nil:
		number = 1
	case number < 1 || number > numPages:
		number = numPages
	}
	return Page{Number: number, NumPages: numPages, Total: total, PerPage: perPage}
}

// PostList is a page of published posts, optionally narrowed to one tag.
type PostList struct {
	Posts []*models.Post `json:"posts"`
	Tag   *models.Tag    `json:"tag,omitempty"`
	Page  Page           `json:"page"`
}

// ListPublished returns one page of published posts, newest first. An unknown
// tag slug yields repositories.ErrNotFound.
func (s *PostService) ListPublished(ctx context.Context, tagSlug, rawPage string) (*PostList, error) {
	var (
		filter repositories.PostFilter
		tag    *models.Tag
	)
	if tagSlug != "" {
		var err error
		tag, err = s.tagRepo.GetBySlug(ctx, tagSlug)
		if err != nil {
			return nil, err
		}
		filter.TagSlug = tag.Slug
	}

	total, err := s.published.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}
	page := newPage(rawPage, total, s.opts.PerPage)

	filter.Limit = page.PerPage
	filter.Offset = (page.Number - 1) * page.PerPage
	posts, err := s.published.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	s.localize(posts...)

	return &PostList{Posts: posts, Tag: tag, Page: page}, nil
}

// PostDetail is everything the detail page shows besides the comment form.
type PostDetail struct {
	Post     *models.Post         `json:"post"`
	Comments []*models.Comment    `json:"comments"`
	Similar  []models.SimilarPost `json:"similar_posts"`
}

// Detail finds the published post with slug published on year/month/day in
// the configured zone. Impossible dates are reported as not found.
func (s *PostService) Detail(ctx context.Context, year, month, day int, slug string) (*PostDetail, error) {
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, s.opts.Location)
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return nil, repositories.ErrNotFound
	}

	post, err := s.published.ByDate(ctx, date, slug)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicatePost) {
			log.Errorf("[posts] %d/%d/%d/%s: %v", year, month, day, slug, err)
		}
		return nil, err
	}

	comments, err := s.commentRepo.ListByPost(ctx, post.ID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}

	similar, err := s.published.Similar(ctx, post, s.opts.SimilarLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank similar posts: %w", err)
	}
	if similar == nil {
		similar = []models.SimilarPost{}
	}

	s.localize(post)
	for _, sp := range similar {
		s.localize(sp.Post)
	}
	for _, c := range comments {
		c.Created = c.Created.In(s.opts.Location)
		c.Updated = c.Updated.In(s.opts.Location)
	}
	post.Comments = comments

	return &PostDetail{Post: post, Comments: comments, Similar: similar}, nil
}

// GetPublished returns a published post by ID.
func (s *PostService) GetPublished(ctx context.Context, id int) (*models.Post, error) {
	post, err := s.published.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.localize(post)
	return post, nil
}

// Similar ranks the posts sharing tags with the published post id.
func (s *PostService) Similar(ctx context.Context, id int) ([]models.SimilarPost, error) {
	post, err := s.published.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	similar, err := s.published.Similar(ctx, post, s.opts.SimilarLimit)
	if err != nil {
		return nil, err
	}
	if similar == nil {
		similar = []models.SimilarPost{}
	}
	for _, sp := range similar {
		s.localize(sp.Post)
	}
	return similar, nil
}

// Search validates form and ranks published posts by title similarity to its
// query. An invalid form is returned as forms.Errors and runs no query.
func (s *PostService) Search(ctx context.Context, form *forms.SearchForm) ([]models.SearchResult, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	results, err := s.published.Search(ctx, form.Query, s.opts.SearchThreshold)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	for _, r := range results {
		s.localize(r.Post)
	}
	return results, nil
}

// CreatePost validates and stores a new post. Tag names are resolved to tags,
// creating missing ones; a nil tagNames keeps post.Tags as given. A missing
// slug is derived from the title.
func (s *PostService) CreatePost(ctx context.Context, post *models.Post, tagNames []string) error {
	post.BeforeCreate()
	if post.Slug == "" {
		post.Slug = models.Slugify(post.Title)
	}
	if tagNames != nil {
		if err := s.resolveTags(ctx, post, tagNames); err != nil {
			return err
		}
	}
	if err := post.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPost, err)
	}
	if err := s.checkSlug(ctx, post); err != nil {
		return err
	}
	return s.postRepo.Create(ctx, post)
}

// UpdatePost validates and saves an existing post. A nil tagNames keeps the
// current tags.
func (s *PostService) UpdatePost(ctx context.Context, post *models.Post, tagNames []string) error {
	existing, err := s.postRepo.GetByID(ctx, post.ID)
	if err != nil {
		return err
	}

	post.Created = existing.Created
	post.BeforeUpdate()
	if post.Slug == "" {
		post.Slug = models.Slugify(post.Title)
	}
	if tagNames == nil {
		post.Tags = existing.Tags
	} else if err := s.resolveTags(ctx, post, tagNames); err != nil {
		return err
	}
	if err := post.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPost, err)
	}
	if err := s.checkSlug(ctx, post); err != nil {
		return err
	}
	return s.postRepo.Update(ctx, post)
}

// DeletePost deletes a post and all its comments
func (s *PostService) DeletePost(ctx context.Context, id int) error {
	if _, err := s.postRepo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.commentRepo.DeleteByPost(ctx, id); err != nil {
		return fmt.Errorf("failed to delete comments: %w", err)
	}
	return s.postRepo.Delete(ctx, id)
}

// FindByDate returns the post of any status with slug on the publish day of
// day in the configured zone.
func (s *PostService) FindByDate(ctx context.Context, day time.Time, slug string) (*models.Post, error) {
	day = day.In(s.opts.Location)
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.opts.Location)
	posts, err := s.postRepo.List(ctx, repositories.PostFilter{
		Slug:  slug,
		From:  from,
		To:    from.AddDate(0, 0, 1),
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, repositories.ErrNotFound
	}
	return posts[0], nil
}

// checkSlug keeps (publish date, slug) unique across all posts.
func (s *PostService) checkSlug(ctx context.Context, post *models.Post) error {
	other, err := s.FindByDate(ctx, post.Publish, post.Slug)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if other.ID != post.ID {
		return ErrSlugTaken
	}
	return nil
}

func (s *PostService) resolveTags(ctx context.Context, post *models.Post, names []string) error {
	seen := make(map[int]bool, len(names))
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		tag, err := s.tagRepo.Ensure(ctx, name)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPost, err)
		}
		if seen[tag.ID] {
			continue
		}
		seen[tag.ID] = true
		tags = append(tags, *tag)
	}
	post.Tags = tags
	return nil
}

func (s *PostService) localize(posts ...*models.Post) {
	for _, p := range posts {
		p.Localize(s.opts.Location)
		if p.Tags == nil {
			p.Tags = []models.Tag{}
		}
	}
}
