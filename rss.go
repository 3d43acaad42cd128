package riverpress

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/grandriver/riverpress/model"
)

const feedSize = 15

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.store(c).ListPublished(c.Request().Context(), feedSize, 0)
	if err != nil {
		return err
	}
	return writeXML(c, "application/rss+xml; charset=utf-8", buildFeed(a.settings(c), posts))
}

func buildFeed(st model.Settings, posts []model.Post) rssXML {
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		pubDate := p.DisplayDate()
		if t, ok := model.ParseDate(pubDate); ok {
			pubDate = t.Format(time.RFC1123Z)
		}
		link := absURL(st.BaseURL, p.Path())
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        link,
			GUID:        link,
			PubDate:     pubDate,
			Description: p.Excerpt,
		})
	}
	return rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       st.SiteName,
			Link:        st.BaseURL,
			Description: st.SiteDescription,
			Items:       items,
		},
	}
}

func writeXML(c echo.Context, contentType string, v any) error {
	c.Response().Header().Set(echo.HeaderContentType, contentType)
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(v)
}
