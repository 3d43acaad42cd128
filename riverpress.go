// Package riverpress is the Grand River Analytics CMS: a public research
// blog with a password-protected admin, built with Echo and SQLite.
//
// The App wires the store, sessions, handlers and middleware together. The
// same App drives the static exporter in-process.
package riverpress

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/grandriver/riverpress/model"
)

// App is the central riverpress application.
type App struct {
	Config   Config
	Echo     *echo.Echo
	Store    *Store
	Sessions SessionStore

	loginLimiter *LoginLimiter
	stopPruner   func()
	passwordHash []byte
	sessionKey   []byte
	static       fs.FS
	now          func() time.Time
}

// Option customizes an App.
type Option func(*App)

// WithStatic sets the assets served under /static/.
func WithStatic(fsys fs.FS) Option {
	return func(a *App) { a.static = fsys }
}

// WithSessionStore replaces the cookie-backed session store.
func WithSessionStore(s SessionStore) Option {
	return func(a *App) { a.Sessions = s }
}

// WithClock overrides the time source used for CSRF expiry and timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// New creates an App with the given configuration. Call Setup before
// serving requests.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	a := &App{
		Config:   cfg,
		Echo:     e,
		Sessions: cookieSessions{},
		static:   StaticFS(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Setup opens and seeds the database, then installs middleware and routes.
func (a *App) Setup(ctx context.Context) error {
	a.Echo.Logger.SetLevel(logLevel(a.Config.LogLevel))

	hash, defaulted, err := a.Config.adminPasswordHash()
	if err != nil {
		return fmt.Errorf("riverpress: admin password: %w", err)
	}
	if defaulted {
		a.Echo.Logger.Warnf("ADMIN_PASSWORD is not set; using the default development password %q", DefaultAdminPassword)
	}
	a.passwordHash = hash

	key, random, err := a.Config.sessionKey()
	if err != nil {
		return fmt.Errorf("riverpress: %w", err)
	}
	if random {
		a.Echo.Logger.Warn("SECRET_KEY is not set; sessions will not survive a restart")
	}
	a.sessionKey = key

	store, err := NewStore(ctx, a.Config.DatabasePath, a.Config.BackupCSVPath, a.Echo.Logger)
	if err != nil {
		return fmt.Errorf("riverpress: init store: %w", err)
	}
	a.Store = store
	if err := store.Seed(ctx, model.DefaultSettings(a.Config.BaseURL), model.Timestamp(a.now())); err != nil {
		store.Close()
		return fmt.Errorf("riverpress: seed: %w", err)
	}

	if err := a.pruneViews(ctx); err != nil {
		a.Echo.Logger.Warnf("prune page views: %v", err)
	}
	a.stopPruner = a.startViewPruner(24 * time.Hour)
	a.loginLimiter = NewLoginLimiter(a.Config.LoginMax, a.Config.LoginWindow)

	a.setupMiddleware()
	a.setupRoutes()
	return nil
}

// Start serves HTTP on the configured address until the server is closed.
func (a *App) Start() error {
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/static/*", echo.WrapHandler(http.StripPrefix("/static/", http.FileServer(http.FS(a.static)))))
	e.Static("/uploads", a.Config.UploadsDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/rss.xml", a.handleFeed)
	e.GET("/health", handleHealth)

	e.GET("/", a.handleHome)
	e.GET("/blog", a.handleBlog)
	e.GET("/blog/page/:page/", a.handleBlogPage)
	e.GET("/post/:slug", a.handlePost)
	e.GET("/team", a.handleTeam)
	e.GET("/contact", a.handleContact)
	e.POST("/contact", a.handleContactSubmit)
	e.GET("/admin-unavailable/", a.handleAdminUnavailable)

	e.GET("/admin/login", a.handleLoginForm)
	e.POST("/admin/login", a.handleLogin)
	e.GET("/admin/logout", a.handleLogout)

	admin := e.Group("/admin", a.requireAdmin)
	admin.GET("", a.handleDashboard)
	admin.GET("/new", a.handleNewPost)
	admin.POST("/new", a.handleSavePost)
	admin.GET("/edit/:id", a.handleEditPost)
	admin.POST("/edit/:id", a.handleSavePost)
	admin.POST("/delete/:id", a.handleDeletePost)
	admin.POST("/duplicate/:id", a.handleDuplicatePost)
	admin.GET("/preview/:id", a.handlePreviewPost)
	admin.GET("/images", a.handleImages)
	admin.POST("/images", a.handleImageUpload)
	admin.POST("/images/delete/:filename", a.handleImageDelete)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.stopPruner != nil {
		a.stopPruner()
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

func logLevel(s string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
