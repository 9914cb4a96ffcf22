package forms

import (
	"net/url"
	"strings"
)

// EmailPostForm collects who recommends a post to whom.
type EmailPostForm struct {
	Name     string `form:"name" json:"name" validate:"required,max=25"`
	Email    string `form:"email" json:"email" validate:"required,email"`
	To       string `form:"to" json:"to" validate:"required,email"`
	Comments string `form:"comments" json:"comments"`
}

func EmailPostFromValues(values url.Values) EmailPostForm {
	return EmailPostForm{
		Name:     field(values, "name"),
		Email:    field(values, "email"),
		To:       field(values, "to"),
		Comments: field(values, "comments"),
	}
}

func (f *EmailPostForm) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.To = strings.TrimSpace(f.To)
	f.Comments = strings.TrimSpace(f.Comments)
	return check(f)
}
