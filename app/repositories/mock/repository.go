// Package mock provides in-memory repositories for service and handler tests.
package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"blog/app/models"
	"blog/app/ranking"
	"blog/app/repositories"
)

type PostRepository struct {
	posts  map[int]*models.Post
	nextID int
	mutex  sync.RWMutex

	// Err, when set, is returned by every read and write.
	Err error

	searches int
}

type CommentRepository struct {
	comments map[int]*models.Comment
	nextID   int
	mutex    sync.RWMutex

	Err error
}

type TagRepository struct {
	tags   map[int]*models.Tag
	nextID int
	mutex  sync.RWMutex
}

func NewPostRepository() *PostRepository {
	return &PostRepository{
		posts:  make(map[int]*models.Post),
		nextID: 1,
	}
}

func (m *PostRepository) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.posts = make(map[int]*models.Post)
	m.nextID = 1
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{
		comments: make(map[int]*models.Comment),
		nextID:   1,
	}
}

func NewTagRepository() *TagRepository {
	return &TagRepository{
		tags:   make(map[int]*models.Tag),
		nextID: 1,
	}
}

func copyPost(p *models.Post) *models.Post {
	c := *p
	c.Tags = append([]models.Tag(nil), p.Tags...)
	c.Comments = nil
	return &c
}

// PostRepository implementation
func (m *PostRepository) Create(ctx context.Context, post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return m.Err
	}

	post.ID = m.nextID
	m.nextID++
	m.posts[post.ID] = copyPost(post)
	return nil
}

func (m *PostRepository) GetByID(ctx context.Context, id int) (*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	post, exists := m.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return copyPost(post), nil
}

func (m *PostRepository) Update(ctx context.Context, post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return m.Err
	}

	if _, exists := m.posts[post.ID]; !exists {
		return repositories.ErrNotFound
	}
	m.posts[post.ID] = copyPost(post)
	return nil
}

func (m *PostRepository) Delete(ctx context.Context, id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return m.Err
	}

	if _, exists := m.posts[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *PostRepository) matching(filter repositories.PostFilter) ([]*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	var posts []*models.Post
	for _, post := range m.posts {
		if filter.Match(post) {
			posts = append(posts, copyPost(post))
		}
	}
	return posts, nil
}

func (m *PostRepository) List(ctx context.Context, filter repositories.PostFilter) ([]*models.Post, error) {
	posts, err := m.matching(filter)
	if err != nil {
		return nil, err
	}
	ranking.SortByPublish(posts)
	return filter.Page(posts), nil
}

func (m *PostRepository) Count(ctx context.Context, filter repositories.PostFilter) (int, error) {
	posts, err := m.matching(filter)
	return len(posts), err
}

func (m *PostRepository) Similar(ctx context.Context, filter repositories.PostFilter, post *models.Post, limit int) ([]models.SimilarPost, error) {
	filter.TagIDs = post.TagIDs()
	filter.ExcludeID = post.ID
	candidates, err := m.matching(filter)
	if err != nil {
		return nil, err
	}
	return ranking.SimilarPosts(post, candidates, limit), nil
}

func (m *PostRepository) Search(ctx context.Context, filter repositories.PostFilter, query string, threshold float64) ([]models.SearchResult, error) {
	m.mutex.Lock()
	m.searches++
	m.mutex.Unlock()

	candidates, err := m.matching(filter)
	if err != nil {
		return nil, err
	}
	return ranking.ByTitle(query, candidates, threshold), nil
}

// Searches reports how many times Search has been called.
func (m *PostRepository) Searches() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.searches
}

// CommentRepository implementation
func (m *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return m.Err
	}

	comment.ID = m.nextID
	m.nextID++
	stored := *comment
	m.comments[comment.ID] = &stored
	return nil
}

func (m *CommentRepository) GetByID(ctx context.Context, id int) (*models.Comment, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	comment, exists := m.comments[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	c := *comment
	return &c, nil
}

func (m *CommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return m.Err
	}

	if _, exists := m.comments[comment.ID]; !exists {
		return repositories.ErrNotFound
	}
	stored := *comment
	m.comments[comment.ID] = &stored
	return nil
}

func (m *CommentRepository) Delete(ctx context.Context, id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return m.Err
	}

	if _, exists := m.comments[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m *CommentRepository) DeleteByPost(ctx context.Context, postID int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return m.Err
	}

	for id, comment := range m.comments {
		if comment.PostID == postID {
			delete(m.comments, id)
		}
	}
	return nil
}

func (m *CommentRepository) ListByPost(ctx context.Context, postID int, activeOnly bool) ([]*models.Comment, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	comments := []*models.Comment{}
	for _, comment := range m.comments {
		if comment.PostID != postID || (activeOnly && !comment.Active) {
			continue
		}
		c := *comment
		comments = append(comments, &c)
	}
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].Created.Equal(comments[j].Created) {
			return comments[i].Created.Before(comments[j].Created)
		}
		return comments[i].ID < comments[j].ID
	})
	return comments, nil
}

// TagRepository implementation
func (m *TagRepository) GetByID(ctx context.Context, id int) (*models.Tag, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	tag, exists := m.tags[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	t := *tag
	return &t, nil
}

func (m *TagRepository) GetBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, tag := range m.tags {
		if tag.Slug == slug {
			t := *tag
			return &t, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *TagRepository) Ensure(ctx context.Context, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	slug := models.Slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("tag %q has no usable slug", name)
	}
	if tag, err := m.GetBySlug(ctx, slug); err == nil {
		return tag, nil
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	tag := &models.Tag{ID: m.nextID, Slug: slug, Name: name}
	m.nextID++
	m.tags[tag.ID] = tag
	t := *tag
	return &t, nil
}

func (m *TagRepository) List(ctx context.Context) ([]*models.Tag, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	tags := make([]*models.Tag, 0, len(m.tags))
	for _, tag := range m.tags {
		t := *tag
		tags = append(tags, &t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

var (
	_ repositories.PostRepository    = (*PostRepository)(nil)
	_ repositories.CommentRepository = (*CommentRepository)(nil)
	_ repositories.TagRepository     = (*TagRepository)(nil)
)
