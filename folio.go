// Package folio serves a portfolio blog whose reader state lives per browser
// profile: likes, bookmarks, shares, comments and custom posts are kept in a
// storage namespace keyed by a profile cookie.
//
// Templates are supplied through ViewFuncs; DefaultViews wires the
// components of the views package.
package folio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/devemco/folio/metrics"
	"github.com/devemco/folio/storage"
	"github.com/devemco/folio/views"
)

// ViewFuncs holds the templ components the app renders pages with.
type ViewFuncs struct {
	Index       func(p views.IndexPage) templ.Component
	Featured    func(card *views.PostCard) templ.Component
	Post        func(p views.PostPage) templ.Component
	Engagement  func(p views.PostPage) templ.Component
	Manage      func(p views.ManagePage) templ.Component
	NotFound    func(site views.SiteConfig, meta views.PageMeta) templ.Component
	ServerError func() templ.Component
}

// DefaultViews returns the components of the views package.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Index:       views.Index,
		Featured:    views.Featured,
		Post:        views.Post,
		Engagement:  views.Engagement,
		Manage:      views.Manage,
		NotFound:    views.NotFound,
		ServerError: views.ServerError,
	}
}

// App is the central folio application. It wires together storage, the
// profile sessions, handlers, middleware and templates.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Backend  storage.Backend
	Sessions *SessionCache
	Views    ViewFuncs
	Logger   *slog.Logger

	commentLimiter *RateLimiter
	customRoutes   []func(*App)
	staticDir      string
	now            func() time.Time
	cancel         context.CancelFunc
	ready          bool
}

// New creates a new App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		Logger:    slog.Default(),
		staticDir: "public",
		now:       time.Now,
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup opens storage and registers middleware and routes. Start calls it;
// tests call it directly and drive a.Echo with httptest.
func (a *App) Setup(ctx context.Context) error {
	if a.ready {
		return nil
	}
	if a.Config.SessionSecret == "" {
		return errors.New("folio: SessionSecret is required")
	}

	if a.Backend == nil {
		backend, err := storage.Open(ctx, a.Config.Storage)
		if err != nil {
			return fmt.Errorf("folio: open storage: %w", err)
		}
		a.Backend = backend
		a.Logger.Info("storage opened", "driver", a.Config.Storage.Driver)
	}

	a.Sessions = NewSessionCache(a.Backend, SessionConfig{
		TTL:              a.Config.SessionTTL,
		Namespace:        a.Config.Namespace,
		FeaturedInterval: a.Config.FeaturedInterval,
		Now:              a.now,
		Logger:           a.Logger,
	})

	a.commentLimiter = NewRateLimiter(a.Config.CommentLimit, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start sets the app up and serves until the server is shut down.
func (a *App) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if err := a.Setup(ctx); err != nil {
		return err
	}
	go a.Sessions.Run(ctx)

	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Framework assets are embedded; everything else under /public/ comes
	// from the static dir, including uploaded covers.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS))))
	e.GET("/public/folio.js", embeddedHandler)
	e.GET("/public/blog.css", embeddedHandler)
	e.GET("/public/highlight.css", handleHighlightCSS)
	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/metrics", metrics.Handler())

	e.GET("/", handleRootRedirect)
	e.GET("/sitemap.xml", a.handleSitemap, a.profileMiddleware)
	e.GET("/feed.xml", a.handleFeed, a.profileMiddleware)

	site := e.Group("/blog", a.profileMiddleware)
	site.GET("/", a.handleIndex)
	site.GET("/featured/", a.handleFeatured)
	site.GET("/post/", a.handlePost)
	site.POST("/post/like/", a.handleLike)
	site.POST("/post/bookmark/", a.handleBookmark)
	site.POST("/post/share/", a.handleShare)
	site.POST("/post/comments/", a.handleComment)

	manage := site.Group("/manage")
	manage.GET("/", a.handleManage)
	manage.POST("/like/", a.handleManageLike)
	manage.POST("/bookmark/", a.handleManageBookmark)
	manage.POST("/share/", a.handleManageShare)
	manage.POST("/reset/", a.handleManageReset)
	manage.POST("/clear/", a.handleManageClear)
	manage.POST("/comments/edit/", a.handleManageCommentEdit)
	manage.POST("/comments/delete/", a.handleManageCommentDelete)
	manage.GET("/export/", a.handleManageExport)
	manage.POST("/import/", a.handleManageImport)
	manage.POST("/posts/", a.handlePostCreate)
	manage.POST("/posts/update/", a.handlePostUpdate)
	manage.POST("/posts/delete/", a.handlePostDelete)
	manage.POST("/images/", a.handleImageUpload)
	manage.POST("/images/delete/", a.handleImageDelete)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	if a.commentLimiter != nil {
		a.commentLimiter.Stop()
	}
	if a.Backend != nil {
		return a.Backend.Close()
	}
	return nil
}
