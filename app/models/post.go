package models

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	for i := range p.Tags {
		if err := validate.Struct(&p.Tags[i]); err != nil {
			return err
		}
	}
	return nil
}

// BeforeCreate stamps the creation time and fills defaults before the first save.
func (p *Post) BeforeCreate() {
	now := time.Now()
	if p.Created.IsZero() {
		p.Created = now
	}
	p.Updated = now
	if p.Publish.IsZero() {
		p.Publish = now
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
}

// BeforeUpdate stamps the modification time. Created is never touched.
func (p *Post) BeforeUpdate() {
	p.Updated = time.Now()
}

// IsPublished reports whether the post is visible to anonymous readers.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// TagIDs returns the identifiers of the post's tags.
func (p *Post) TagIDs() []int {
	ids := make([]int, 0, len(p.Tags))
	for _, t := range p.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

// HasTagSlug reports whether the post carries a tag with the given slug.
func (p *Post) HasTagSlug(slug string) bool {
	for _, t := range p.Tags {
		if t.Slug == slug {
			return true
		}
	}
	return false
}

// Localize converts the post's timestamps into loc.
func (p *Post) Localize(loc *time.Location) {
	if loc == nil {
		return
	}
	p.Publish = p.Publish.In(loc)
	p.Created = p.Created.In(loc)
	p.Updated = p.Updated.In(loc)
}

// AbsoluteURL returns the canonical detail path of the post, built from its publish date.
func (p *Post) AbsoluteURL() string {
	return fmt.Sprintf("/%d/%d/%d/%s/", p.Publish.Year(), int(p.Publish.Month()), p.Publish.Day(), p.Slug)
}

// AddComment adds a comment to the post
func (p *Post) AddComment(comment *Comment) error {
	if comment == nil {
		return errors.New("comment cannot be nil")
	}

	comment.PostID = p.ID
	comment.Post = p
	p.Comments = append(p.Comments, comment)
	return nil
}

func (p *Post) String() string {
	return p.Title
}
