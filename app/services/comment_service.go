package services

import (
	"context"
	"fmt"
	"time"

	"blog/app/forms"
	"blog/app/models"
	"blog/app/repositories"
)

// CommentService handles business logic for comments
type CommentService struct {
	commentRepo repositories.CommentRepository
	published   *repositories.PublishedPosts
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		published:   repositories.Published(postRepo),
	}
}

// AddComment validates form and attaches a new active comment to the
// published post postID. Form failures come back as forms.Errors and nothing
// is stored.
func (s *CommentService) AddComment(ctx context.Context, postID int, form *forms.CommentForm) (*models.Comment, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	post, err := s.published.Get(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Name:  form.Name,
		Email: form.Email,
		Body:  form.Body,
	}
	if err := comment.SetPost(post); err != nil {
		return nil, err
	}
	comment.BeforeCreate()
	if err := comment.Validate(); err != nil {
		return nil, fmt.Errorf("invalid comment: %w", err)
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to save comment: %w", err)
	}
	return comment, nil
}

// ListActive returns the active comments of a published post, oldest first.
func (s *CommentService) ListActive(ctx context.Context, postID int) ([]*models.Comment, error) {
	if _, err := s.published.Get(ctx, postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID, true)
}

// SetActive shows or hides a comment.
func (s *CommentService) SetActive(ctx context.Context, id int, active bool) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	comment.Active = active
	comment.Updated = time.Now()
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}
