package riverpress

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/grandriver/riverpress/model"
)

const (
	ctxStore    = "riverpress.store"
	ctxSettings = "riverpress.settings"
)

const contentSecurityPolicy = "default-src 'self'; " +
	"script-src 'self' 'unsafe-inline' https://cdn.jsdelivr.net https://cdn.tiny.cloud; " +
	"style-src 'self' 'unsafe-inline' https://cdn.jsdelivr.net https://cdn.tiny.cloud https://use.typekit.net https://p.typekit.net; " +
	"img-src 'self' https: data: blob:; " +
	"font-src 'self' data: https://use.typekit.net https://cdn.tiny.cloud; " +
	"connect-src 'self' https://cdn.tiny.cloud; " +
	"frame-ancestors 'none'"

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d (%s) id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.HasPrefix(path, "/static/img/") || strings.HasPrefix(path, "/uploads/")
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: contentSecurityPolicy,
		HSTSMaxAge:            31536000,
	}))

	e.Use(session.Middleware(newCookieStore(a.sessionKey, a.Config.SessionMaxAge, a.Config.CookieSecure)))
	e.Use(a.requestScope)
	e.Use(a.csrfProtect)
	e.Use(a.countViews)
	e.Use(cacheControlMiddleware)
}

func isAsset(path string) bool {
	return strings.HasPrefix(path, "/static/") || strings.HasPrefix(path, "/uploads/")
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		switch {
		case isAsset(path):
			c.Response().Header().Set("Cache-Control", "public, max-age=86400")
		case path == "/sitemap.xml" || path == "/rss.xml" || path == "/robots.txt":
			c.Response().Header().Set("Cache-Control", "public, max-age=3600")
		case strings.HasPrefix(path, "/admin"), path == "/contact", path == "/health":
			c.Response().Header().Set("Cache-Control", "no-store")
		default:
			c.Response().Header().Set("Cache-Control", "public, max-age=300")
		}
		return next(c)
	}
}

// requestScope gives each request its own lazily acquired database
// connection and resolves the site settings once, releasing the connection
// when the request ends.
func (a *App) requestScope(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if isAsset(c.Request().URL.Path) {
			return next(c)
		}
		conn := newLazyConn(a.Store.db)
		defer conn.Close()

		store := a.Store.Scoped(conn)
		settings, err := store.Settings(c.Request().Context())
		if errors.Is(err, ErrNotFound) {
			settings = model.DefaultSettings(a.Config.BaseURL)
		} else if err != nil {
			return err
		}
		if settings.BaseURL == "" {
			settings.BaseURL = a.Config.BaseURL
		}
		c.Set(ctxStore, store)
		c.Set(ctxSettings, settings)
		return next(c)
	}
}

// store returns the request-scoped Store, falling back to the shared pool.
func (a *App) store(c echo.Context) *Store {
	if s, ok := c.Get(ctxStore).(*Store); ok {
		return s
	}
	return a.Store
}

func (a *App) settings(c echo.Context) model.Settings {
	if s, ok := c.Get(ctxSettings).(model.Settings); ok {
		return s
	}
	return model.DefaultSettings(a.Config.BaseURL)
}

// requireAdmin redirects visitors without an authenticated session to the
// login page.
func (a *App) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !a.IsAdmin(c) {
			if err := a.flash(c, FlashError, "Please log in to continue."); err != nil {
				return err
			}
			return c.Redirect(http.StatusSeeOther, "/admin/login")
		}
		return next(c)
	}
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if errors.Is(err, ErrNotFound) || (ok && he.Code == http.StatusNotFound) {
		_ = a.renderNotFound(c)
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.serverErrorPage(c))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
