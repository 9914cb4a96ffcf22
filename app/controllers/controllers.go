// Package controllers turns HTTP requests into service calls. Every handler
// serves both the HTML site and the JSON API; API requests are recognised by
// their /api path prefix or an Accept header asking for JSON.
package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"blog/app/forms"
	"blog/app/middleware"
	"blog/app/repositories"
	"blog/app/views"
)

var errBadRequest = errors.New("invalid request")

func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api") || r.Header.Get("Accept") == "application/json"
}

// intVar reads the numeric path variable name.
func intVar(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		return 0, fmt.Errorf("%w: bad %s", errBadRequest, name)
	}
	return n, nil
}

// responder holds the response helpers shared by the controllers.
type responder struct {
	views *views.Renderer
}

func (rs responder) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warnf("[http] failed to encode response: %v", err)
	}
}

// sendError maps err to a status code and writes it in the caller's format.
// Unexpected errors are logged and their text is not shown to the client.
func (rs responder) sendError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	fe, isForm := forms.AsErrors(err)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		status, message = http.StatusNotFound, "Not found"
	case errors.Is(err, errBadRequest):
		status, message = http.StatusBadRequest, err.Error()
	case isForm:
		status, message = http.StatusBadRequest, "invalid form"
	default:
		log.WithFields(log.Fields{
			"path":       r.URL.Path,
			"request_id": middleware.GetRequestID(r.Context()),
		}).Errorf("[http] %v", err)
	}

	if !isAPI(r) {
		http.Error(w, message, status)
		return
	}
	body := map[string]interface{}{"error": message}
	if isForm {
		body["errors"] = fe
	}
	rs.sendJSON(w, status, body)
}

func (rs responder) render(w http.ResponseWriter, r *http.Request, page string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := rs.views.Render(w, page, data); err != nil {
		rs.sendError(w, r, err)
	}
}
