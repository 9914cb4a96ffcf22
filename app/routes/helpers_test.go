package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"blog/app/mail"
	"blog/app/models"
	"blog/app/repositories"
	"blog/app/services"
	"blog/app/views"
)

type outbox struct {
	messages []mail.Message
}

func (o *outbox) Send(ctx context.Context, msg mail.Message) error {
	o.messages = append(o.messages, msg)
	return nil
}

type testEnv struct {
	router *mux.Router
	posts  *services.PostService
	outbox *outbox
}

// setupTestRouter wires the full stack over an in-memory badger database.
func setupTestRouter(t *testing.T, health func(context.Context) error) *testEnv {
	t.Helper()
	repo, err := repositories.NewRepository("")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	v, err := views.New()
	require.NoError(t, err)

	env := &testEnv{outbox: &outbox{}}
	env.posts = services.NewPostService(repo.Posts(), repo.Comments(), repo.Tags(), services.DefaultOptions())
	env.router = Setup(Services{
		Posts:    env.posts,
		Comments: services.NewCommentService(repo.Comments(), repo.Posts()),
		Share:    services.NewShareService(env.posts, env.outbox, "", "http://localhost:8080"),
		Health:   health,
	}, v)
	return env
}

func (e *testEnv) seed(t *testing.T, title string, status models.Status, publish time.Time, tags ...string) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:   title,
		Author:  "admin",
		Body:    "Body of " + title,
		Publish: publish,
		Status:  status,
	}
	require.NoError(t, e.posts.CreatePost(context.Background(), post, tags))
	return post
}

func (e *testEnv) request(method, target, body, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(target string) *httptest.ResponseRecorder {
	return e.request(http.MethodGet, target, "", "")
}

func on(d int) time.Time {
	return time.Date(2024, time.March, d, 9, 30, 0, 0, time.UTC)
}
