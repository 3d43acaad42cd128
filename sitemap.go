package riverpress

import (
	"encoding/xml"

	"github.com/labstack/echo/v4"

	"github.com/grandriver/riverpress/model"
)

// sitemapPages are the static routes listed ahead of the posts.
var sitemapPages = []string{"/", "/team", "/contact", "/blog"}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.store(c).AllPublished(c.Request().Context())
	if err != nil {
		return err
	}
	today := a.now().UTC().Format("2006-01-02")
	return writeXML(c, "application/xml; charset=utf-8", buildSitemap(a.settings(c).BaseURL, today, posts))
}

func buildSitemap(base, today string, posts []model.Post) sitemapURLSet {
	urls := make([]sitemapURL, 0, len(sitemapPages)+len(posts))
	for _, path := range sitemapPages {
		urls = append(urls, sitemapURL{Loc: absURL(base, path), LastMod: today})
	}
	for _, p := range posts {
		lastMod := p.LastModified()
		if lastMod == "" {
			lastMod = today
		}
		urls = append(urls, sitemapURL{Loc: absURL(base, p.Path()), LastMod: lastMod})
	}
	return sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
}
