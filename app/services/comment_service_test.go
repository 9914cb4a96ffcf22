package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog/app/forms"
	"blog/app/models"
	"blog/app/repositories"
)

func TestCommentService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	service := NewCommentService(f.comments, f.posts)

	post := f.post(t, "Test Post", models.StatusPublished, date(2024, 2, 1))
	draft := f.post(t, "Draft Post", models.StatusDraft, date(2024, 2, 1))

	t.Run("add comment", func(t *testing.T) {
		form := &forms.CommentForm{Name: " Ann ", Email: "ann@example.com", Body: "Lovely"}
		comment, err := service.AddComment(ctx, post.ID, form)
		require.NoError(t, err)
		assert.Greater(t, comment.ID, 0)
		assert.Equal(t, "Ann", comment.Name)
		assert.Equal(t, post.ID, comment.PostID)
		assert.True(t, comment.Active)
		assert.False(t, comment.Created.IsZero())
	})

	t.Run("invalid form stores nothing", func(t *testing.T) {
		_, err := service.AddComment(ctx, post.ID, &forms.CommentForm{Name: "Bob", Email: "nope"})
		fe, ok := forms.AsErrors(err)
		require.True(t, ok)
		assert.True(t, fe.Has("email"))
		assert.True(t, fe.Has("body"))

		list, err := service.ListActive(ctx, post.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("draft and missing posts", func(t *testing.T) {
		form := &forms.CommentForm{Name: "Ann", Email: "ann@example.com", Body: "hi"}
		_, err := service.AddComment(ctx, draft.ID, form)
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		_, err = service.AddComment(ctx, 404, form)
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		_, err = service.ListActive(ctx, draft.ID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("hidden comments are not listed", func(t *testing.T) {
		form := &forms.CommentForm{Name: "Spam", Email: "spam@example.com", Body: "buy now"}
		spam, err := service.AddComment(ctx, post.ID, form)
		require.NoError(t, err)

		_, err = service.SetActive(ctx, spam.ID, false)
		require.NoError(t, err)

		list, err := service.ListActive(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Ann", list[0].Name)

		_, err = service.SetActive(ctx, 999, true)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("store failure", func(t *testing.T) {
		f.comments.Err = errors.New("write failed")
		defer func() { f.comments.Err = nil }()

		form := &forms.CommentForm{Name: "Ann", Email: "ann@example.com", Body: "hi"}
		_, err := service.AddComment(ctx, post.ID, form)
		assert.ErrorContains(t, err, "write failed")
	})
}
