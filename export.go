package riverpress

import (
	"context"
	"io/fs"
	"os"
	"strconv"

	"github.com/grandriver/riverpress/export"
)

// exportPages are the routes every static export contains.
var exportPages = []string{
	"/",
	"/blog",
	"/team",
	"/contact",
	"/admin-unavailable/",
	"/rss.xml",
	"/sitemap.xml",
	"/robots.txt",
}

// ExportRoutes lists the routes of a static export: the fixed pages, the
// blog pages after the first, and every published post.
func (a *App) ExportRoutes(ctx context.Context) ([]string, error) {
	slugs, err := a.Store.PublishedSlugs(ctx)
	if err != nil {
		return nil, err
	}
	routes := append([]string(nil), exportPages...)
	pages := (len(slugs) + blogPageSize - 1) / blogPageSize
	for page := 2; page <= pages; page++ {
		routes = append(routes, "/blog/page/"+strconv.Itoa(page)+"/")
	}
	for _, slug := range slugs {
		routes = append(routes, "/post/"+slug)
	}
	return routes, nil
}

// Export renders the public site into dir. The App must be set up.
func (a *App) Export(ctx context.Context, dir string) error {
	routes, err := a.ExportRoutes(ctx)
	if err != nil {
		return err
	}
	assets := map[string]fs.FS{"static": a.static}
	if info, err := os.Stat(a.Config.UploadsDir); err == nil && info.IsDir() {
		assets["uploads"] = os.DirFS(a.Config.UploadsDir)
	}
	e := &export.Exporter{Handler: a.Echo, OutDir: dir, Assets: assets}
	if err := e.Run(ctx, routes); err != nil {
		return err
	}
	a.Echo.Logger.Infof("exported %d routes to %s", len(routes), dir)
	return nil
}
