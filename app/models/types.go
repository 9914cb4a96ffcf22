package models

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Status is the publication state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Post represents a blog post with its tags and comments.
type Post struct {
	ID       int        `json:"id" validate:"gte=0"`
	Title    string     `json:"title" validate:"required,max=250"`
	Slug     string     `json:"slug" validate:"required,max=250,slug"`
	Author   string     `json:"author" validate:"required,max=150"`
	Body     string     `json:"body" validate:"required"`
	Publish  time.Time  `json:"publish" validate:"required"`
	Created  time.Time  `json:"created"`
	Updated  time.Time  `json:"updated"`
	Status   Status     `json:"status" validate:"oneof=draft published"`
	Tags     []Tag      `json:"tags"`
	Comments []*Comment `json:"comments,omitempty" validate:"-"`
}

// Comment represents a reader comment on a blog post.
type Comment struct {
	ID      int       `json:"id" bson:"_id" validate:"gte=0"`
	PostID  int       `json:"post_id" bson:"post_id" validate:"required,gt=0"`
	Name    string    `json:"name" bson:"name" validate:"required,max=80"`
	Email   string    `json:"email" bson:"email" validate:"required,email"`
	Body    string    `json:"body" bson:"body" validate:"required"`
	Created time.Time `json:"created" bson:"created"`
	Updated time.Time `json:"updated" bson:"updated"`
	Active  bool      `json:"active" bson:"active"`
	Post    *Post     `json:"-" bson:"-" validate:"-"`
}

// Tag is an entry of the tagging vocabulary.
type Tag struct {
	ID   int    `json:"id"`
	Slug string `json:"slug" validate:"required,max=100,slug"`
	Name string `json:"name" validate:"required,max=100"`
}

// SimilarPost is a post ranked by the number of tags it shares with another post.
type SimilarPost struct {
	*Post
	SameTags int `json:"same_tags"`
}

// SearchResult is a post ranked by the trigram similarity of its title to a query.
type SearchResult struct {
	*Post
	Similarity float64 `json:"similarity"`
}

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}
