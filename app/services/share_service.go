package services

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"blog/app/forms"
	"blog/app/mail"
	"blog/app/models"
)

// ShareService recommends published posts by email.
type ShareService struct {
	posts   *PostService
	mailer  mail.Mailer
	from    string
	baseURL string
}

// NewShareService creates a ShareService. baseURL is prefixed to post paths
// to build the link sent in the message.
func NewShareService(posts *PostService, mailer mail.Mailer, from, baseURL string) *ShareService {
	if from == "" {
		from = mail.DefaultFrom
	}
	return &ShareService{
		posts:   posts,
		mailer:  mailer,
		from:    from,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Post returns the published post the share form is about.
func (s *ShareService) Post(ctx context.Context, postID int) (*models.Post, error) {
	return s.posts.GetPublished(ctx, postID)
}

// Share validates form and hands one recommendation message to the mailer.
// The post is returned even when the form is invalid so it can be shown
// again. A mailer failure is logged and not retried; the share still counts
// as sent.
func (s *ShareService) Share(ctx context.Context, postID int, form *forms.EmailPostForm) (*models.Post, error) {
	post, err := s.posts.GetPublished(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := form.Validate(); err != nil {
		return post, err
	}

	msg := s.Message(post, form)
	if err := s.mailer.Send(ctx, msg); err != nil {
		log.WithField("post_id", post.ID).Warnf("[share] failed to send recommendation to %s: %v", form.To, err)
	}
	return post, nil
}

// Message builds the recommendation for post from form.
func (s *ShareService) Message(post *models.Post, form *forms.EmailPostForm) mail.Message {
	postURL := s.baseURL + post.AbsoluteURL()
	return mail.Message{
		Subject: fmt.Sprintf("%s recommends you read %s", form.Name, post.Title),
		Body:    fmt.Sprintf("Read %s at %s\n\n%s's comments: %s", post.Title, postURL, form.Name, form.Comments),
		From:    s.from,
		To:      []string{form.To},
	}
}
