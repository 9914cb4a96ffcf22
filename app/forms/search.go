package forms

import (
	"net/url"
	"strings"
)

type SearchForm struct {
	Query string `form:"query" json:"query" validate:"required"`
}

func SearchFromValues(values url.Values) SearchForm {
	return SearchForm{Query: field(values, "query")}
}

func (f *SearchForm) Validate() error {
	f.Query = strings.TrimSpace(f.Query)
	return check(f)
}
