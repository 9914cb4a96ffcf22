package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"blog/app/controllers"
	"blog/app/middleware"
	"blog/app/services"
	"blog/app/views"
)

// Services are the collaborators the handlers call into.
type Services struct {
	Posts    *services.PostService
	Comments *services.CommentService
	Share    *services.ShareService

	// Health reports whether the backing stores are reachable. Nil means
	// always healthy.
	Health func(ctx context.Context) error
}

// Setup defines the blog's web and API routes and returns the router.
func Setup(svc Services, v *views.Renderer) *mux.Router {
	router := mux.NewRouter()

	// Apply global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	postController := controllers.NewPostController(svc.Posts, svc.Comments, v)
	commentController := controllers.NewCommentController(svc.Comments)
	shareController := controllers.NewShareController(svc.Share, v)

	router.NotFoundHandler = http.HandlerFunc(notFound)
	router.HandleFunc("/healthz", health(svc.Health)).Methods("GET")

	// API routes with JSON content type
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.ContentTypeJSON)
	api.HandleFunc("/search", postController.Search).Methods("GET")

	apiPosts := api.PathPrefix("/posts").Subrouter()
	apiPosts.HandleFunc("", postController.List).Methods("GET")
	apiPosts.HandleFunc("/{year:[0-9]+}/{month:[0-9]+}/{day:[0-9]+}/{slug}", postController.Detail).Methods("GET")
	apiPosts.HandleFunc("/{id:[0-9]+}/similar", postController.Similar).Methods("GET")
	apiPosts.HandleFunc("/{id:[0-9]+}/comments", commentController.Index).Methods("GET")
	apiPosts.HandleFunc("/{id:[0-9]+}/comments", commentController.Create).Methods("POST")
	apiPosts.HandleFunc("/{id:[0-9]+}/share", shareController.Share).Methods("POST")

	// Web routes
	router.HandleFunc("/", postController.List).Methods("GET")
	router.HandleFunc("/tag/{tag_slug}/", postController.List).Methods("GET")
	router.HandleFunc("/search/", postController.Search).Methods("GET")
	router.HandleFunc("/{year:[0-9]+}/{month:[0-9]+}/{day:[0-9]+}/{slug}/", postController.Detail).Methods("GET", "POST")
	router.HandleFunc("/{id:[0-9]+}/share/", shareController.Share).Methods("GET", "POST")

	return router
}

func notFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Not found"})
		return
	}
	http.NotFound(w, r)
}

func health(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				log.Warnf("[http] health check failed: %v", err)
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Write([]byte("ok"))
	}
}
