package models

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks if the comment meets all validation requirements
func (c *Comment) Validate() error {
	return validate.Struct(c)
}

// BeforeCreate sets up any necessary fields before creation. New comments are active.
func (c *Comment) BeforeCreate() {
	now := time.Now()
	if c.Created.IsZero() {
		c.Created = now
	}
	c.Updated = now
	c.Active = true
}

// SetPost sets the parent post and updates the PostID
func (c *Comment) SetPost(post *Post) error {
	if post == nil {
		return errors.New("post cannot be nil")
	}

	c.Post = post
	c.PostID = post.ID
	return nil
}

func (c *Comment) String() string {
	if c.Post != nil {
		return fmt.Sprintf("Comment by %s on %s", c.Name, c.Post.Title)
	}
	return fmt.Sprintf("Comment by %s on post %d", c.Name, c.PostID)
}
