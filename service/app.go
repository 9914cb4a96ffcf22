package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"blog/app/config"
	"blog/app/mail"
	"blog/app/repositories"
	"blog/app/repositories/mongo"
	"blog/app/repositories/postgres"
	"blog/app/routes"
	"blog/app/services"
	"blog/app/views"
)

// App is the blog wired together from a Config: stores, services and router.
type App struct {
	Posts    *services.PostService
	Comments *services.CommentService
	Share    *services.ShareService

	badger  *repositories.Repository
	closers []func(ctx context.Context) error
	checks  []func(ctx context.Context) error
}

// NewApp opens the stores selected by cfg. Close releases them.
func NewApp(ctx context.Context, cfg config.Config) (_ *App, err error) {
	app := &App{}
	defer func() {
		if err != nil {
			app.Close(ctx)
		}
	}()

	var (
		posts    repositories.PostRepository
		comments repositories.CommentRepository
		tags     repositories.TagRepository
	)

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		store, err := postgres.New(ctx, cfg.Storage.Postgres.ConString())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres %s: %w", cfg.Storage.Postgres, err)
		}
		app.closers = append(app.closers, func(context.Context) error { store.Close(); return nil })
		app.checks = append(app.checks, store.Ping)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		posts, comments, tags = store.Posts(), store.Comments(), store.Tags()
		log.Infof("[app] using postgres store %s", cfg.Storage.Postgres.Host)
	default:
		repo, err := repositories.NewRepository(cfg.Storage.BadgerPath)
		if err != nil {
			return nil, err
		}
		app.badger = repo
		app.closers = append(app.closers, func(context.Context) error { return repo.Close() })
		posts, comments, tags = repo.Posts(), repo.Comments(), repo.Tags()
		log.Infof("[app] using badger store at %q", cfg.Storage.BadgerPath)
	}

	if cfg.Comments.Driver == config.DriverMongo {
		store, err := mongo.New(ctx, &cfg.Comments.Mongo)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo %s: %w", cfg.Comments.Mongo, err)
		}
		app.closers = append(app.closers, store.Close)
		app.checks = append(app.checks, store.Ping)
		comments = store
		log.Infof("[app] comments stored in mongo %s", cfg.Comments.Mongo.Host)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("blog.timeZone: %w", err)
	}

	mailer, closeMailer, err := mail.New(cfg.Mail)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func(context.Context) error { return closeMailer() })

	app.Posts = services.NewPostService(posts, comments, tags, services.Options{
		PerPage:         cfg.Blog.PostsPerPage,
		SimilarLimit:    cfg.Blog.SimilarLimit,
		SearchThreshold: cfg.Blog.SearchThreshold,
		Location:        loc,
	})
	app.Comments = services.NewCommentService(comments, posts)
	app.Share = services.NewShareService(app.Posts, mailer, cfg.Mail.From, cfg.HTTP.BaseURL)
	return app, nil
}

// Badger returns the embedded store, or nil when another driver is in use.
func (a *App) Badger() *repositories.Repository {
	return a.badger
}

// Ping checks every external store.
func (a *App) Ping(ctx context.Context) error {
	for _, check := range a.checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Router builds the HTTP handler for the app.
func (a *App) Router() (*mux.Router, error) {
	v, err := views.New()
	if err != nil {
		return nil, err
	}
	return routes.Setup(routes.Services{
		Posts:    a.Posts,
		Comments: a.Comments,
		Share:    a.Share,
		Health:   a.Ping,
	}, v), nil
}

// Close releases the stores in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// RunAppServer serves the blog until SIGINT or SIGTERM, then shuts the server
// down gracefully and closes the stores.
func RunAppServer(cfg config.Config) error {
	ctx := context.Background()
	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	router, err := app.Router()
	if err != nil {
		app.Close(ctx)
		return err
	}
	timeout, err := cfg.ShutdownTimeout()
	if err != nil {
		app.Close(ctx)
		return fmt.Errorf("http.shutdownTimeout: %w", err)
	}

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("[server] starting on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		app.Close(ctx)
		if !ok {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case sig := <-sigChan:
		log.Infof("[server] received %s, shutting down", sig)
	}

	shutdownCtx, shutdownRelease := context.WithTimeout(ctx, timeout)
	defer shutdownRelease()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("[server] HTTP server shutdown error: %v", err)
	} else {
		log.Info("[server] HTTP server shut down gracefully")
	}

	if err := app.Close(shutdownCtx); err != nil {
		return err
	}
	log.Info("[server] stores closed")
	return nil
}
