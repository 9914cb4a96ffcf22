package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog/app/mail"
	"blog/app/models"
	"blog/app/repositories/mock"
	"blog/app/services"
	"blog/app/views"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *recordingMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

type testApp struct {
	router   *mux.Router
	posts    *mock.PostRepository
	comments *mock.CommentRepository
	service  *services.PostService
	mailer   *recordingMailer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	v, err := views.New()
	require.NoError(t, err)

	app := &testApp{
		posts:    mock.NewPostRepository(),
		comments: mock.NewCommentRepository(),
		mailer:   &recordingMailer{},
	}
	app.service = services.NewPostService(app.posts, app.comments, mock.NewTagRepository(), services.DefaultOptions())
	commentService := services.NewCommentService(app.comments, app.posts)
	shareService := services.NewShareService(app.service, app.mailer, "", "http://blog.test")

	pc := NewPostController(app.service, commentService, v)
	cc := NewCommentController(commentService)
	sc := NewShareController(shareService, v)

	r := mux.NewRouter()
	r.HandleFunc("/", pc.List).Methods("GET")
	r.HandleFunc("/tag/{tag_slug}/", pc.List).Methods("GET")
	r.HandleFunc("/search/", pc.Search).Methods("GET")
	r.HandleFunc("/{year:[0-9]+}/{month:[0-9]+}/{day:[0-9]+}/{slug}/", pc.Detail).Methods("GET", "POST")
	r.HandleFunc("/{id:[0-9]+}/share/", sc.Share).Methods("GET", "POST")
	r.HandleFunc("/api/posts", pc.List).Methods("GET")
	r.HandleFunc("/api/posts/{year:[0-9]+}/{month:[0-9]+}/{day:[0-9]+}/{slug}", pc.Detail).Methods("GET")
	r.HandleFunc("/api/posts/{id:[0-9]+}/similar", pc.Similar).Methods("GET")
	r.HandleFunc("/api/posts/{id:[0-9]+}/comments", cc.Index).Methods("GET")
	r.HandleFunc("/api/posts/{id:[0-9]+}/comments", cc.Create).Methods("POST")
	r.HandleFunc("/api/posts/{id:[0-9]+}/share", sc.Share).Methods("POST")
	r.HandleFunc("/api/search", pc.Search).Methods("GET")
	app.router = r
	return app
}

func (a *testApp) post(t *testing.T, title string, status models.Status, publish time.Time, tags ...string) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:   title,
		Author:  "admin",
		Body:    "Body of " + title,
		Publish: publish,
		Status:  status,
	}
	require.NoError(t, a.service.CreatePost(context.Background(), post, tags))
	return post
}

func (a *testApp) do(method, target string, body string, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) get(target string) *httptest.ResponseRecorder {
	return a.do("GET", target, "", "")
}

func (a *testApp) postForm(target string, values url.Values) *httptest.ResponseRecorder {
	return a.do("POST", target, values.Encode(), "application/x-www-form-urlencoded")
}

func (a *testApp) postJSON(target string, v interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(v)
	return a.do("POST", target, string(data), "application/json")
}

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 12, 0, 0, 0, time.UTC)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestPostController_List(t *testing.T) {
	app := newTestApp(t)
	for i, title := range []string{"First", "Second", "Third", "Fourth"} {
		app.post(t, title, models.StatusPublished, day(i+1), "go")
	}
	app.post(t, "Secret draft", models.StatusDraft, day(20), "go")
	app.post(t, "Web post", models.StatusPublished, day(5), "web")

	tests := []struct {
		name     string
		target   string
		status   int
		contains []string
		excludes []string
	}{
		{"first page", "/", http.StatusOK, []string{"Web post", "Fourth", "Third", "Page 1 of 2."}, []string{"Secret draft", "First"}},
		{"second page", "/?page=2", http.StatusOK, []string{"Second", "First", "Page 2 of 2."}, []string{"Fourth"}},
		{"page out of range", "/?page=99", http.StatusOK, []string{"Page 2 of 2."}, nil},
		{"page not a number", "/?page=abc", http.StatusOK, []string{"Page 1 of 2."}, nil},
		{"tag filter", "/tag/web/", http.StatusOK, []string{"Posts tagged with", "Web post"}, []string{"Fourth"}},
		{"unknown tag", "/tag/nope/", http.StatusNotFound, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.get(tt.target)
			require.Equal(t, tt.status, w.Code)
			for _, s := range tt.contains {
				assert.Contains(t, w.Body.String(), s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, w.Body.String(), s)
			}
		})
	}

	t.Run("api", func(t *testing.T) {
		w := app.get("/api/posts?tag=go&page=2")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var list services.PostList
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		assert.Equal(t, 2, list.Page.Number)
		require.Len(t, list.Posts, 1)
		assert.Equal(t, "First", list.Posts[0].Title)
		require.NotNil(t, list.Tag)
		assert.Equal(t, "go", list.Tag.Slug)
	})

	t.Run("api unknown tag", func(t *testing.T) {
		w := app.get("/api/posts?tag=nope")
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Not found", decode(t, w)["error"])
	})
}

func TestPostController_Detail(t *testing.T) {
	app := newTestApp(t)
	post := app.post(t, "Go routines", models.StatusPublished, day(10), "go", "concurrency")
	app.post(t, "Go channels", models.StatusPublished, day(9), "go")
	draft := app.post(t, "Draft", models.StatusDraft, day(10), "go")

	t.Run("renders", func(t *testing.T) {
		w := app.get(post.AbsoluteURL())
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "<h1>Go routines</h1>")
		assert.Contains(t, body, "Go channels")
		assert.Contains(t, body, "There are no comments yet.")
		assert.Contains(t, body, "/1/share/")
	})

	t.Run("not found", func(t *testing.T) {
		for _, target := range []string{
			"/2021/3/21/nonexistent-slug/",
			draft.AbsoluteURL(),
			"/2024/2/30/go-routines/",
			"/99999999999999999999/3/21/go-routines/",
		} {
			assert.Equal(t, http.StatusNotFound, app.get(target).Code, target)
		}
	})

	t.Run("invalid comment", func(t *testing.T) {
		w := app.postForm(post.AbsoluteURL(), url.Values{"name": {"Ann"}, "body": {"Hi"}})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "This field is required.")
		assert.Contains(t, w.Body.String(), `value="Ann"`)

		comments, err := app.comments.ListByPost(context.Background(), post.ID, false)
		require.NoError(t, err)
		assert.Empty(t, comments)
	})

	t.Run("comment added", func(t *testing.T) {
		w := app.postForm(post.AbsoluteURL(), url.Values{
			"name":  {"Ann"},
			"email": {"ann@example.com"},
			"body":  {"Nice post"},
		})
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Your comment has been added.")
		assert.Contains(t, body, "1 comment")
		assert.Contains(t, body, "Nice post")

		comments, err := app.comments.ListByPost(context.Background(), post.ID, true)
		require.NoError(t, err)
		require.Len(t, comments, 1)
		assert.Equal(t, "Ann", comments[0].Name)
	})

	t.Run("api", func(t *testing.T) {
		w := app.get("/api/posts/2024/1/10/go-routines")
		require.Equal(t, http.StatusOK, w.Code)

		var detail services.PostDetail
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
		assert.Equal(t, "Go routines", detail.Post.Title)
		assert.Len(t, detail.Comments, 1)
		require.Len(t, detail.Similar, 1)
		assert.Equal(t, "Go channels", detail.Similar[0].Title)
		assert.Equal(t, 1, detail.Similar[0].SameTags)
	})

	t.Run("comment posted with json accept header", func(t *testing.T) {
		form := url.Values{"name": {"Bob"}, "email": {"bob@example.com"}, "body": {"Via fetch"}}
		req := httptest.NewRequest("POST", post.AbsoluteURL(), strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()
		app.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "Via fetch", decode(t, w)["body"])

		comments, err := app.comments.ListByPost(context.Background(), post.ID, true)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, "Bob", comments[1].Name)
	})
}

func TestPostController_Similar(t *testing.T) {
	app := newTestApp(t)
	a := app.post(t, "A", models.StatusPublished, day(1), "x", "y")
	app.post(t, "B", models.StatusPublished, day(2), "x")
	app.post(t, "C", models.StatusPublished, day(3), "x", "y")
	draft := app.post(t, "D", models.StatusDraft, day(4), "x")

	w := app.get("/api/posts/" + itoa(a.ID) + "/similar")
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Similar []models.SimilarPost `json:"similar_posts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Similar, 2)
	assert.Equal(t, "C", out.Similar[0].Title)
	assert.Equal(t, "B", out.Similar[1].Title)

	assert.Equal(t, http.StatusNotFound, app.get("/api/posts/"+itoa(draft.ID)+"/similar").Code)
}

func TestPostController_Search(t *testing.T) {
	app := newTestApp(t)
	app.post(t, "Django tutorial", models.StatusPublished, day(1))
	app.post(t, "Cooking pasta", models.StatusPublished, day(2))

	t.Run("form only", func(t *testing.T) {
		w := app.get("/search/")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Search for posts")
		assert.NotContains(t, w.Body.String(), "This field is required.")
	})

	t.Run("empty query", func(t *testing.T) {
		w := app.get("/search/?query=")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "This field is required.")
	})

	t.Run("results", func(t *testing.T) {
		w := app.get("/search/?query=djago")
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Found 1 result")
		assert.Contains(t, body, "Django tutorial")
		assert.NotContains(t, body, "Cooking pasta")
	})

	t.Run("api", func(t *testing.T) {
		w := app.get("/api/search?query=djago")
		require.Equal(t, http.StatusOK, w.Code)

		var out struct {
			Query   string                `json:"query"`
			Results []models.SearchResult `json:"results"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		assert.Equal(t, "djago", out.Query)
		require.Len(t, out.Results, 1)
		assert.Equal(t, "Django tutorial", out.Results[0].Title)
		assert.Greater(t, out.Results[0].Similarity, 0.1)
		assert.Contains(t, w.Body.String(), `"tags":[]`)
	})

	t.Run("api empty query", func(t *testing.T) {
		w := app.get("/api/search")
		require.Equal(t, http.StatusBadRequest, w.Code)
		errs := decode(t, w)["errors"].(map[string]interface{})
		assert.Equal(t, "This field is required.", errs["query"])
	})
}

func TestCommentController(t *testing.T) {
	app := newTestApp(t)
	post := app.post(t, "Published", models.StatusPublished, day(1))
	draft := app.post(t, "Draft", models.StatusDraft, day(1))
	base := "/api/posts/" + itoa(post.ID) + "/comments"

	w := app.postJSON(base, map[string]string{"name": "Bob", "email": "bob@example.com", "body": "First!"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	assert.Equal(t, "Bob", created["name"])
	assert.Equal(t, true, created["active"])

	w = app.postForm(base, url.Values{"name": {"Eve"}, "email": {"eve@example.com"}, "body": {"Second"}})
	require.Equal(t, http.StatusCreated, w.Code)

	tests := []struct {
		name   string
		target string
		body   interface{}
		status int
	}{
		{"invalid email", base, map[string]string{"name": "Bob", "email": "nope", "body": "x"}, http.StatusBadRequest},
		{"draft post", "/api/posts/" + itoa(draft.ID) + "/comments", map[string]string{"name": "Bob", "email": "bob@example.com", "body": "x"}, http.StatusNotFound},
		{"missing post", "/api/posts/999/comments", map[string]string{"name": "Bob", "email": "bob@example.com", "body": "x"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, app.postJSON(tt.target, tt.body).Code)
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		w := app.do("POST", base, "{", "application/json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list", func(t *testing.T) {
		w := app.get(base)
		require.Equal(t, http.StatusOK, w.Code)

		var out struct {
			Comments []models.Comment `json:"comments"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		require.Len(t, out.Comments, 2)
		assert.Equal(t, "Bob", out.Comments[0].Name)
		assert.Equal(t, "Eve", out.Comments[1].Name)
	})
}

func TestShareController(t *testing.T) {
	app := newTestApp(t)
	post := app.post(t, "Shared post", models.StatusPublished, day(3))
	target := "/" + itoa(post.ID) + "/share/"

	t.Run("form", func(t *testing.T) {
		w := app.get(target)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "by e-mail")
	})

	t.Run("invalid", func(t *testing.T) {
		w := app.postForm(target, url.Values{"name": {"Ann"}, "email": {"ann@example.com"}, "to": {"bad"}})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Enter a valid email address.")
		assert.Empty(t, app.mailer.sent)
	})

	t.Run("sent", func(t *testing.T) {
		w := app.postForm(target, url.Values{
			"name":     {"Ann"},
			"email":    {"ann@example.com"},
			"to":       {"bob@example.com"},
			"comments": {"Worth it"},
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "E-mail successfully sent")
		assert.Contains(t, w.Body.String(), "bob@example.com")

		require.Len(t, app.mailer.sent, 1)
		msg := app.mailer.sent[0]
		assert.Equal(t, "Ann recommends you read Shared post", msg.Subject)
		assert.Contains(t, msg.Body, "http://blog.test/2024/1/3/shared-post/")
		assert.Equal(t, []string{"bob@example.com"}, msg.To)
	})

	t.Run("api", func(t *testing.T) {
		w := app.postJSON("/api/posts/"+itoa(post.ID)+"/share", map[string]string{
			"name": "Ann", "email": "ann@example.com", "to": "carl@example.com",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decode(t, w)["sent"])
		assert.Len(t, app.mailer.sent, 2)

		w = app.postJSON("/api/posts/"+itoa(post.ID)+"/share", map[string]string{"name": "Ann"})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing post", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, app.get("/999/share/").Code)
	})
}

func TestSendErrorHidesStoreFailures(t *testing.T) {
	app := newTestApp(t)
	app.posts.Err = errors.New("disk on fire")

	w := app.get("/api/posts")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk on fire")

	w = app.get("/")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error\n", w.Body.String())
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
