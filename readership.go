package riverpress

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/grandriver/riverpress/analytics"
)

const (
	viewRetentionDays = 365
	dashboardDays     = 30
)

// countViews records successful reader GETs of tracked pages. Bots and
// logged-in admins are not counted. A failed write is logged, never
// surfaced to the reader.
func (a *App) countViews(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		req := c.Request()
		if err != nil || req.Method != http.MethodGet || c.Response().Status != http.StatusOK {
			return err
		}
		if !analytics.Tracked(req.URL.Path) || analytics.IsBot(req.UserAgent()) || a.IsAdmin(c) {
			return nil
		}
		v := analytics.NewView(a.now(), req.URL.Path, req.Referer(), req.UserAgent(), siteHost(a.settings(c).BaseURL))
		if err := a.store(c).RecordView(req.Context(), v); err != nil {
			c.Logger().Warnf("record view of %s: %v", v.Path, err)
		}
		return nil
	}
}

func siteHost(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// pruneViews drops view counters past the retention period.
func (a *App) pruneViews(ctx context.Context) error {
	return a.Store.PruneViews(ctx, analytics.Day(a.now().AddDate(0, 0, -viewRetentionDays)))
}

// startViewPruner prunes once a day until the returned stop function is called.
func (a *App) startViewPruner(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := a.pruneViews(context.Background()); err != nil {
					a.Echo.Logger.Errorf("prune page views: %v", err)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}
