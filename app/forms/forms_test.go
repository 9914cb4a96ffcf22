package forms

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentForm(t *testing.T) {
	tests := []struct {
		name    string
		values  url.Values
		invalid []string
	}{
		{
			name:   "valid",
			values: url.Values{"name": {"Ann"}, "email": {"ann@example.com"}, "body": {"Great post"}},
		},
		{
			name:    "missing everything",
			values:  url.Values{},
			invalid: []string{"name", "email", "body"},
		},
		{
			name:    "bad email",
			values:  url.Values{"name": {"Ann"}, "email": {"not-an-email"}, "body": {"hi"}},
			invalid: []string{"email"},
		},
		{
			name:    "name too long",
			values:  url.Values{"name": {strings.Repeat("a", 81)}, "email": {"a@b.co"}, "body": {"hi"}},
			invalid: []string{"name"},
		},
		{
			name:    "whitespace body",
			values:  url.Values{"name": {"Ann"}, "email": {"a@b.co"}, "body": {"   "}},
			invalid: []string{"body"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := CommentFromValues(tt.values)
			err := form.Validate()
			if len(tt.invalid) == 0 {
				assert.NoError(t, err)
				return
			}
			fe, ok := AsErrors(err)
			require.True(t, ok, "expected field errors, got %v", err)
			assert.Len(t, fe, len(tt.invalid))
			for _, f := range tt.invalid {
				assert.True(t, fe.Has(f), "expected error on %s", f)
			}
		})
	}
}

func TestEmailPostForm(t *testing.T) {
	form := EmailPostFromValues(url.Values{
		"name":     {" Bob "},
		"email":    {"bob@example.com"},
		"to":       {"alice@example.com"},
		"comments": {""},
	})
	require.NoError(t, form.Validate())
	assert.Equal(t, "Bob", form.Name)

	form.Name = strings.Repeat("b", 26)
	form.To = "nobody"
	fe, ok := AsErrors(form.Validate())
	require.True(t, ok)
	assert.Equal(t, "Ensure this value has at most 25 characters (it has 26).", fe["name"])
	assert.Equal(t, "Enter a valid email address.", fe["to"])
}

func TestSearchForm(t *testing.T) {
	form := SearchFromValues(url.Values{"query": {"  django "}})
	require.NoError(t, form.Validate())
	assert.Equal(t, "django", form.Query)

	empty := SearchForm{}
	fe, ok := AsErrors(empty.Validate())
	require.True(t, ok)
	assert.Equal(t, "This field is required.", fe["query"])
}

func TestErrors(t *testing.T) {
	err := Errors{"name": "required", "body": "required"}
	assert.Equal(t, "invalid form: body: required; name: required", err.Error())

	wrapped := errors.Join(errors.New("context"), err)
	fe, ok := AsErrors(wrapped)
	require.True(t, ok)
	assert.True(t, fe.Has("body"))

	_, ok = AsErrors(errors.New("plain"))
	assert.False(t, ok)
}
