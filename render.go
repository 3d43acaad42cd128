package riverpress

import (
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/grandriver/riverpress/seo"
	"github.com/grandriver/riverpress/views"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// page assembles the data shared by every rendered page. It issues the CSRF
// token and drains queued flashes, so it must run before the response is
// written.
func (a *App) page(c echo.Context, nav string, meta seo.Meta, jsonld ...seo.Document) (views.Page, error) {
	token, err := a.csrfToken(c)
	if err != nil {
		return views.Page{}, err
	}
	s, err := a.Sessions.Get(c)
	if err != nil {
		return views.Page{}, err
	}
	var flashes []views.Flash
	if pending := s.TakeFlashes(); len(pending) > 0 {
		for _, f := range pending {
			flashes = append(flashes, views.Flash{Kind: f.Kind, Message: f.Message})
		}
		if err := a.Sessions.Set(c, s); err != nil {
			return views.Page{}, err
		}
	}
	return views.Page{
		Meta:      meta,
		Settings:  a.settings(c),
		Year:      a.now().Year(),
		CSRFToken: token,
		Flashes:   flashes,
		Nav:       nav,
		Assets: views.Assets{
			TinyMCEScript: a.Config.TinyMCEScriptURL,
			TinyMCEKey:    a.Config.TinyMCEAPIKey,
			FontsURL:      a.Config.FontsURL,
		},
		JSONLD: jsonld,
		Admin:  s.Authenticated,
	}, nil
}

// absURL joins the site base URL and a root-relative path.
func absURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + path
}

// pageTitle suffixes title with the site name.
func pageTitle(title, siteName string) string {
	if title == "" || title == siteName {
		return siteName
	}
	return title + " · " + siteName
}

func (a *App) renderNotFound(c echo.Context) error {
	st := a.settings(c)
	meta := seo.BuildMeta(pageTitle("Page not found", st.SiteName), st.SiteDescription,
		absURL(st.BaseURL, c.Request().URL.Path), "", "")
	p, err := a.page(c, "", meta)
	if err != nil {
		return err
	}
	return RenderStatus(c, http.StatusNotFound, views.NotFound(p))
}

// serverErrorPage renders without touching the session, which may be the
// thing that failed.
func (a *App) serverErrorPage(c echo.Context) templ.Component {
	st := a.settings(c)
	return views.ServerError(views.Page{
		Meta:     seo.BuildMeta(pageTitle("Server error", st.SiteName), st.SiteDescription, st.BaseURL, "", ""),
		Settings: st,
		Year:     a.now().Year(),
	})
}
