package forms

import (
	"net/url"
	"strings"
)

// CommentForm is the reader comment form shown on a post's detail page.
type CommentForm struct {
	Name  string `form:"name" json:"name" validate:"required,max=80"`
	Email string `form:"email" json:"email" validate:"required,email"`
	Body  string `form:"body" json:"body" validate:"required"`
}

func CommentFromValues(values url.Values) CommentForm {
	return CommentForm{
		Name:  field(values, "name"),
		Email: field(values, "email"),
		Body:  field(values, "body"),
	}
}

// Validate trims the fields and checks them. Failures are returned as Errors.
func (f *CommentForm) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Body = strings.TrimSpace(f.Body)
	return check(f)
}
