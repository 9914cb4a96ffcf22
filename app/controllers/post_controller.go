package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"blog/app/forms"
	"blog/app/models"
	"blog/app/repositories"
	"blog/app/services"
	"blog/app/views"
)

// PostController handles HTTP requests for blog posts
type PostController struct {
	responder
	posts    *services.PostService
	comments *services.CommentService
}

// NewPostController creates a new PostController
func NewPostController(posts *services.PostService, comments *services.CommentService, v *views.Renderer) *PostController {
	return &PostController{
		responder: responder{views: v},
		posts:     posts,
		comments:  comments,
	}
}

// List shows one page of published posts. The tag comes from the {tag_slug}
// path variable on the site and from ?tag= on the API.
func (pc *PostController) List(w http.ResponseWriter, r *http.Request) {
	tagSlug := mux.Vars(r)["tag_slug"]
	if tagSlug == "" {
		tagSlug = r.URL.Query().Get("tag")
	}

	list, err := pc.posts.ListPublished(r.Context(), tagSlug, r.URL.Query().Get("page"))
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	if isAPI(r) {
		pc.sendJSON(w, http.StatusOK, list)
		return
	}
	pc.render(w, r, "list", list)
}

type detailPage struct {
	*services.PostDetail
	Form       forms.CommentForm
	Errors     forms.Errors
	NewComment *models.Comment
}

// Detail shows a published post with its active comments and similar posts.
// On the site a POST submits the comment form.
func (pc *PostController) Detail(w http.ResponseWriter, r *http.Request) {
	var date [3]int
	for i, name := range []string{"year", "month", "day"} {
		n, err := intVar(r, name)
		if err != nil {
			// digits the route accepted but no calendar has
			pc.sendError(w, r, repositories.ErrNotFound)
			return
		}
		date[i] = n
	}

	detail, err := pc.posts.Detail(r.Context(), date[0], date[1], date[2], mux.Vars(r)["slug"])
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	if isAPI(r) {
		if r.Method == http.MethodPost {
			pc.createComment(w, r, detail.Post.ID)
			return
		}
		pc.sendJSON(w, http.StatusOK, detail)
		return
	}

	page := detailPage{PostDetail: detail}
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}
		page.Form = forms.CommentFromValues(r.PostForm)
		comment, err := pc.comments.AddComment(r.Context(), detail.Post.ID, &page.Form)
		if fe, ok := forms.AsErrors(err); ok {
			page.Errors = fe
		} else if err != nil {
			pc.sendError(w, r, err)
			return
		} else {
			page.NewComment = comment
			page.Comments = append(page.Comments, comment)
		}
	}
	pc.render(w, r, "detail", page)
}

// createComment answers a comment POST from a client that asked for JSON.
func (pc *PostController) createComment(w http.ResponseWriter, r *http.Request, postID int) {
	var form forms.CommentForm
	if err := decodeForm(r, &form, forms.CommentFromValues); err != nil {
		pc.sendError(w, r, err)
		return
	}
	comment, err := pc.comments.AddComment(r.Context(), postID, &form)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	pc.sendJSON(w, http.StatusCreated, comment)
}

// Similar returns the posts sharing the most tags with a published post.
func (pc *PostController) Similar(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	similar, err := pc.posts.Similar(r.Context(), id)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	pc.sendJSON(w, http.StatusOK, map[string]interface{}{"similar_posts": similar})
}

type searchPage struct {
	Form     forms.SearchForm
	Errors   forms.Errors
	Searched bool
	Results  []models.SearchResult
}

// Search ranks published posts by how closely their titles match ?query=.
// Without the parameter the site shows an empty search form.
func (pc *PostController) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := searchPage{Form: forms.SearchFromValues(query)}

	if _, ok := query["query"]; !ok && !isAPI(r) {
		pc.render(w, r, "search", page)
		return
	}

	results, err := pc.posts.Search(r.Context(), &page.Form)
	if fe, ok := forms.AsErrors(err); ok && !isAPI(r) {
		page.Errors = fe
		pc.render(w, r, "search", page)
		return
	}
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	if isAPI(r) {
		pc.sendJSON(w, http.StatusOK, map[string]interface{}{
			"query":   page.Form.Query,
			"results": results,
		})
		return
	}
	page.Searched = true
	page.Results = results
	pc.render(w, r, "search", page)
}
