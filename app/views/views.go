// Package views renders the blog's HTML pages from templates embedded in the
// binary. Every page is parsed together with layout.html and executed through
// its "layout" template.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"
)

//go:embed layout.html posts/*.html
var files embed.FS

var pages = []string{"list", "detail", "share", "search"}

// Renderer holds one parsed template set per page.
type Renderer struct {
	templates map[string]*template.Template
}

func New() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(files, "layout.html", "posts/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// Render executes page into w. Output is buffered so a failing template does
// not leave a half-written response.
func (r *Renderer) Render(w io.Writer, page string, data interface{}) error {
	t, ok := r.templates[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

var funcs = template.FuncMap{
	"formatDate":    formatDate,
	"truncateWords": truncateWords,
	"paragraphs":    paragraphs,
	"pluralize":     pluralize,
	"add1":          func(i int) int { return i + 1 },
}

func formatDate(t time.Time) string {
	return t.Format("January 2, 2006 15:04")
}

// truncateWords keeps the first n words of s, marking the cut with an ellipsis.
func truncateWords(n int, s string) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + " …"
}

// paragraphs splits text on blank lines.
func paragraphs(s string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
