package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"blog/app/models"
	"blog/app/repositories/mock"
)

type fixture struct {
	posts    *mock.PostRepository
	comments *mock.CommentRepository
	tags     *mock.TagRepository
	service  *PostService
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		posts:    mock.NewPostRepository(),
		comments: mock.NewCommentRepository(),
		tags:     mock.NewTagRepository(),
	}
	f.service = NewPostService(f.posts, f.comments, f.tags, opts)
	return f
}

func (f *fixture) tag(t *testing.T, name string) models.Tag {
	t.Helper()
	tag, err := f.tags.Ensure(context.Background(), name)
	require.NoError(t, err)
	return *tag
}

func (f *fixture) post(t *testing.T, title string, status models.Status, publish time.Time, tags ...models.Tag) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:   title,
		Author:  "admin",
		Body:    "Body of " + title,
		Publish: publish,
		Status:  status,
		Tags:    tags,
	}
	require.NoError(t, f.service.CreatePost(context.Background(), post, nil))
	return post
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}
