package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"blog/app/forms"
	"blog/app/models"
	"blog/app/services"
	"blog/app/views"
)

// ShareController handles recommending a post by email.
type ShareController struct {
	responder
	share *services.ShareService
}

func NewShareController(share *services.ShareService, v *views.Renderer) *ShareController {
	return &ShareController{responder: responder{views: v}, share: share}
}

type sharePage struct {
	Post   *models.Post
	Form   forms.EmailPostForm
	Errors forms.Errors
	Sent   bool
}

// Share shows the share form on GET and sends the recommendation on POST.
func (sc *ShareController) Share(w http.ResponseWriter, r *http.Request) {
	postID, err := intVar(r, "id")
	if err != nil {
		sc.sendError(w, r, err)
		return
	}

	if r.Method != http.MethodPost {
		post, err := sc.share.Post(r.Context(), postID)
		if err != nil {
			sc.sendError(w, r, err)
			return
		}
		sc.render(w, r, "share", sharePage{Post: post})
		return
	}

	var form forms.EmailPostForm
	if err := decodeForm(r, &form, forms.EmailPostFromValues); err != nil {
		sc.sendError(w, r, err)
		return
	}

	post, err := sc.share.Share(r.Context(), postID, &form)
	fe, invalid := forms.AsErrors(err)
	if err != nil && !(invalid && !isAPI(r)) {
		sc.sendError(w, r, err)
		return
	}

	if isAPI(r) {
		sc.sendJSON(w, http.StatusOK, map[string]interface{}{"sent": true, "to": form.To})
		return
	}
	sc.render(w, r, "share", sharePage{Post: post, Form: form, Errors: fe, Sent: err == nil})
}

// decodeForm fills dst from a JSON body, or from urlencoded values through
// fromValues for any other content type.
func decodeForm[T any](r *http.Request, dst *T, fromValues func(url.Values) T) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	*dst = fromValues(r.PostForm)
	return nil
}
