// Package views renders the site's pages. Pages are html/template files
// embedded in the binary and handed to callers as templ components.
package views

import (
	"embed"
	"html/template"
	"path"

	"github.com/a-h/templ"

	"github.com/grandriver/riverpress/model"
	"github.com/grandriver/riverpress/richtext"
	"github.com/grandriver/riverpress/seo"
)

//go:embed templates/*.html
var files embed.FS

// Flash is a one-time notice rendered at the top of a page.
type Flash struct {
	Kind    string
	Message string
}

// Assets are third-party scripts and stylesheets referenced by pages.
type Assets struct {
	TinyMCEScript string
	TinyMCEKey    string
	FontsURL      string
}

// Page is the data every page shares: metadata, settings, and session state.
type Page struct {
	Meta      seo.Meta
	Settings  model.Settings
	Year      int
	CSRFToken string
	Flashes   []Flash
	Nav       string // active navigation entry
	Assets    Assets
	JSONLD    []seo.Document
	Admin     bool // the visitor is logged in
}

// document is what templates execute against: the shared Page plus the
// page-specific Body.
type document struct {
	Page
	Body any
}

var funcs = template.FuncMap{
	"formatDate": model.FormatDate,
	"tagList":    model.SplitTags,
	"richText":   richtext.Sanitize,
	"jsonld": func(d seo.Document) template.JS {
		return template.JS(d.JSON())
	},
	"heroStyles": func() []model.HeroStyle { return model.HeroStyles },
}

var pages = parsePages(
	"home.html",
	"blog.html",
	"post.html",
	"team.html",
	"contact.html",
	"admin_unavailable.html",
	"admin_login.html",
	"admin_dashboard.html",
	"admin_edit.html",
	"admin_images.html",
	"not_found.html",
	"server_error.html",
)

// parsePages pairs each page file with a private copy of the layout and
// returns the layout entry point of each pair.
func parsePages(names ...string) map[string]*template.Template {
	base := template.Must(template.New("").Funcs(funcs).ParseFS(files, "templates/layout.html"))
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t := template.Must(template.Must(base.Clone()).ParseFS(files, path.Join("templates", name)))
		out[name] = t.Lookup("layout")
	}
	return out
}

func render(name string, p Page, body any) templ.Component {
	return templ.FromGoHTML(pages[name], document{Page: p, Body: body})
}

// BlogData is the paginated blog index.
type BlogData struct {
	Posts      []model.Post
	Page       int
	TotalPages int
	Tags       []string
	PrevURL    string
	NextURL    string
}

// PostData is a post detail page, public or preview.
type PostData struct {
	Post      model.Post
	ReadTime  int
	Summary   []string
	HeroStyle model.HeroStyle
	More      []model.Post
	Preview   bool
}

// DashboardData is the admin post list and recent readership.
type DashboardData struct {
	Posts      []model.Post
	Stats      model.DashboardStats
	TopPaths   []model.Count
	TopSources []model.Count
	Days       int // readership window
}

// EditData is the admin post form. Post is nil when creating.
type EditData struct {
	Post   *model.Post
	Mode   string // "new" or "edit"
	Action string // form target
}

// LoginData is the admin login form.
type LoginData struct {
	Error string
}

// ContactData is the contact page.
type ContactData struct {
	Success bool
}

func Home(p Page, posts []model.Post) templ.Component {
	return render("home.html", p, posts)
}

func Blog(p Page, d BlogData) templ.Component {
	return render("blog.html", p, d)
}

func Post(p Page, d PostData) templ.Component {
	return render("post.html", p, d)
}

func Team(p Page, members []model.TeamMember) templ.Component {
	return render("team.html", p, members)
}

func Contact(p Page, d ContactData) templ.Component {
	return render("contact.html", p, d)
}

func AdminUnavailable(p Page) templ.Component {
	return render("admin_unavailable.html", p, nil)
}

func AdminLogin(p Page, d LoginData) templ.Component {
	return render("admin_login.html", p, d)
}

func AdminDashboard(p Page, d DashboardData) templ.Component {
	return render("admin_dashboard.html", p, d)
}

func AdminEdit(p Page, d EditData) templ.Component {
	return render("admin_edit.html", p, d)
}

func AdminImages(p Page, images []model.Image) templ.Component {
	return render("admin_images.html", p, images)
}

func NotFound(p Page) templ.Component {
	return render("not_found.html", p, nil)
}

func ServerError(p Page) templ.Component {
	return render("server_error.html", p, nil)
}
