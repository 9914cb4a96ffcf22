package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"

	"blog/app/forms"
	"blog/app/models"
	"blog/app/repositories"
	"blog/app/services"
)

// importFile is the layout of a posts file:
//
//	[[post]]
//	title = "Go routines"
//	author = "admin"
//	publish = 2024-03-01T09:30:00Z
//	status = "published"
//	tags = ["go"]
//	body = """..."""
//
//	  [[post.comment]]
//	  name = "Ann"
//	  email = "ann@example.com"
//	  body = "Nice."
type importFile struct {
	Posts []importPost `toml:"post"`
}

type importPost struct {
	Title    string          `toml:"title"`
	Slug     string          `toml:"slug"`
	Author   string          `toml:"author"`
	Body     string          `toml:"body"`
	Publish  time.Time       `toml:"publish"`
	Status   string          `toml:"status"`
	Tags     []string        `toml:"tags"`
	Comments []importComment `toml:"comment"`

	// Replace overwrites the post already published under the same date
	// and slug. Delete removes it together with its comments.
	Replace bool `toml:"replace"`
	Delete  bool `toml:"delete"`
}

type importComment struct {
	Name   string `toml:"name"`
	Email  string `toml:"email"`
	Body   string `toml:"body"`
	Hidden bool   `toml:"hidden"`
}

// ImportReport counts what an import stored.
type ImportReport struct {
	Posts    int
	Updated  int
	Deleted  int
	Comments int
	Skipped  int
}

// ImportFile stores the posts described in path. Posts whose slug is already
// taken on their publish date are skipped unless marked replace or delete.
// Comments are only imported for new published posts.
func ImportFile(ctx context.Context, app *App, path string) (ImportReport, error) {
	var (
		file   importFile
		report ImportReport
	)
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return report, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		log.Warnf("[import] unknown keys in %s: %v", path, undecoded)
	}

	for i, p := range file.Posts {
		post := &models.Post{
			Title:   p.Title,
			Slug:    p.Slug,
			Author:  p.Author,
			Body:    p.Body,
			Publish: p.Publish,
			Status:  models.Status(p.Status),
		}
		if post.Slug == "" {
			post.Slug = models.Slugify(post.Title)
		}
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}

		if p.Replace || p.Delete {
			existing, err := app.Posts.FindByDate(ctx, post.Publish, post.Slug)
			if errors.Is(err, repositories.ErrNotFound) {
				log.Warnf("[import] post %d %q: nothing to replace or delete, skipped", i+1, p.Title)
				report.Skipped++
				continue
			}
			if err != nil {
				return report, err
			}
			if p.Delete {
				if err := app.Posts.DeletePost(ctx, existing.ID); err != nil {
					return report, fmt.Errorf("post %d %q: %w", i+1, p.Title, err)
				}
				report.Deleted++
				continue
			}
			post.ID = existing.ID
			if post.Status == "" {
				post.Status = existing.Status
			}
			if p.Tags == nil {
				tags = nil
			}
			if err := app.Posts.UpdatePost(ctx, post, tags); err != nil {
				return report, fmt.Errorf("post %d %q: %w", i+1, p.Title, err)
			}
			report.Updated++
			continue
		}

		err := app.Posts.CreatePost(ctx, post, tags)
		if errors.Is(err, services.ErrSlugTaken) {
			log.Warnf("[import] post %d %q: %v, skipped", i+1, p.Title, err)
			report.Skipped++
			continue
		}
		if err != nil {
			return report, fmt.Errorf("post %d %q: %w", i+1, p.Title, err)
		}
		report.Posts++

		if len(p.Comments) > 0 && !post.IsPublished() {
			log.Warnf("[import] post %q is not published, its %d comments are ignored", p.Title, len(p.Comments))
			continue
		}
		for j, c := range p.Comments {
			form := forms.CommentForm{Name: c.Name, Email: c.Email, Body: c.Body}
			comment, err := app.Comments.AddComment(ctx, post.ID, &form)
			if err != nil {
				return report, fmt.Errorf("post %q comment %d: %w", p.Title, j+1, err)
			}
			if c.Hidden {
				if _, err := app.Comments.SetActive(ctx, comment.ID, false); err != nil {
					return report, err
				}
			}
			report.Comments++
		}
	}
	log.Infof("[import] %s: %d created, %d updated, %d deleted, %d comments, %d skipped",
		path, report.Posts, report.Updated, report.Deleted, report.Comments, report.Skipped)
	return report, nil
}
