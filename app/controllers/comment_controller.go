package controllers

import (
	"net/http"

	"blog/app/forms"
	"blog/app/services"
)

// CommentController serves the comment API of published posts.
type CommentController struct {
	responder
	comments *services.CommentService
}

func NewCommentController(comments *services.CommentService) *CommentController {
	return &CommentController{comments: comments}
}

// Index lists the active comments of a post, oldest first.
func (cc *CommentController) Index(w http.ResponseWriter, r *http.Request) {
	postID, err := intVar(r, "id")
	if err != nil {
		cc.sendError(w, r, err)
		return
	}
	comments, err := cc.comments.ListActive(r.Context(), postID)
	if err != nil {
		cc.sendError(w, r, err)
		return
	}
	cc.sendJSON(w, http.StatusOK, map[string]interface{}{"comments": comments})
}

// Create adds a comment from a JSON body or a urlencoded form.
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	postID, err := intVar(r, "id")
	if err != nil {
		cc.sendError(w, r, err)
		return
	}

	var form forms.CommentForm
	if err := decodeForm(r, &form, forms.CommentFromValues); err != nil {
		cc.sendError(w, r, err)
		return
	}

	comment, err := cc.comments.AddComment(r.Context(), postID, &form)
	if err != nil {
		cc.sendError(w, r, err)
		return
	}
	cc.sendJSON(w, http.StatusCreated, comment)
}
