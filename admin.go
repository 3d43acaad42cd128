package riverpress

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/grandriver/riverpress/analytics"
	"github.com/grandriver/riverpress/model"
	"github.com/grandriver/riverpress/seo"
	"github.com/grandriver/riverpress/views"
)

// Save actions submitted by the post editor.
const (
	actionDraft   = "draft"
	actionPublish = "publish"
	actionPreview = "preview"
)

func (a *App) adminMeta(c echo.Context, title, description, path string) seo.Meta {
	return seo.BuildMeta(title, description, absURL(a.settings(c).BaseURL, path), "", "")
}

func (a *App) handleLoginForm(c echo.Context) error {
	if a.IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin")
	}
	return a.renderLogin(c, http.StatusOK, "")
}

func (a *App) renderLogin(c echo.Context, code int, errMsg string) error {
	p, err := a.page(c, "admin", a.adminMeta(c, "Admin Login", "Secure login for Grand River Analytics.", "/admin/login"))
	if err != nil {
		return err
	}
	return RenderStatus(c, code, views.AdminLogin(p, views.LoginData{Error: errMsg}))
}

func (a *App) handleLogin(c echo.Context) error {
	if a.IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin")
	}
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	password := c.FormValue("password")
	if bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) != nil {
		a.loginLimiter.Record(ip)
		return a.renderLogin(c, http.StatusOK, "Invalid credentials.")
	}
	a.loginLimiter.Reset(ip)

	s, err := a.Sessions.Get(c)
	if err != nil {
		return err
	}
	s.Authenticated = true
	s.AddFlash(FlashSuccess, "Welcome back.")
	if err := a.Sessions.Set(c, s); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin")
}

func (a *App) handleLogout(c echo.Context) error {
	if err := a.Sessions.Clear(c); err != nil {
		return err
	}
	if err := a.flash(c, FlashSuccess, "You have been logged out."); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/login")
}

func (a *App) handleDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	store := a.store(c)
	posts, err := store.ListAll(ctx)
	if err != nil {
		return err
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	since := analytics.Day(a.now().AddDate(0, 0, -dashboardDays))
	topPaths, err := store.TopPaths(ctx, since, 5)
	if err != nil {
		return err
	}
	topSources, err := store.TopSources(ctx, since, 5)
	if err != nil {
		return err
	}
	p, err := a.page(c, "admin", a.adminMeta(c, "Admin Dashboard", "Manage research posts.", "/admin"))
	if err != nil {
		return err
	}
	return Render(c, views.AdminDashboard(p, views.DashboardData{
		Posts:      posts,
		Stats:      stats,
		TopPaths:   topPaths,
		TopSources: topSources,
		Days:       dashboardDays,
	}))
}

// postID parses the :id route parameter. A malformed id is a missing post.
func postID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, ErrNotFound
	}
	return id, nil
}

func (a *App) handleNewPost(c echo.Context) error {
	p, err := a.page(c, "admin", a.adminMeta(c, "New Post", "Create a research post.", "/admin/new"))
	if err != nil {
		return err
	}
	return Render(c, views.AdminEdit(p, views.EditData{Mode: "new", Action: "/admin/new"}))
}

func (a *App) handleEditPost(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	post, err := a.store(c).PostByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	path := "/admin/edit/" + strconv.FormatInt(id, 10)
	p, err := a.page(c, "admin", a.adminMeta(c, "Edit "+post.Title, "Edit research post.", path))
	if err != nil {
		return err
	}
	return Render(c, views.AdminEdit(p, views.EditData{Post: &post, Mode: "edit", Action: path}))
}

// postForm is the trimmed editor submission.
type postForm struct {
	Title           string
	Slug            string
	Excerpt         string
	Content         string
	CoverURL        string
	Tags            string
	PublishDate     string
	Action          string
	HeroKicker      string
	HeroStyle       model.HeroStyle
	HighlightQuote  string
	SummaryPoints   string
	CTALabel        string
	CTAURL          string
	MetaTitle       string
	MetaDescription string
	Featured        bool
}

func readPostForm(c echo.Context) postForm {
	field := func(name string) string { return strings.TrimSpace(c.FormValue(name)) }
	f := postForm{
		Title:           field("title"),
		Slug:            field("slug"),
		Excerpt:         field("excerpt"),
		Content:         field("content"),
		CoverURL:        field("cover_url"),
		Tags:            model.JoinTags(c.FormValue("tags")),
		PublishDate:     field("publish_date"),
		Action:          field("action"),
		HeroKicker:      field("hero_kicker"),
		HeroStyle:       model.NormalizeHeroStyle(c.FormValue("hero_style")),
		HighlightQuote:  field("highlight_quote"),
		SummaryPoints:   field("summary_points"),
		CTALabel:        field("cta_label"),
		CTAURL:          field("cta_url"),
		MetaTitle:       field("meta_title"),
		MetaDescription: field("meta_description"),
		Featured:        c.FormValue("featured") != "",
	}
	if f.Action == "" {
		f.Action = actionDraft
	}
	return f
}

// handleSavePost creates a post (POST /admin/new) or updates one
// (POST /admin/edit/:id). Validation failures redirect back to the form
// with an error notice.
func (a *App) handleSavePost(c echo.Context) error {
	ctx := c.Request().Context()
	store := a.store(c)

	var existing *model.Post
	if c.Param("id") != "" {
		id, err := postID(c)
		if err != nil {
			return err
		}
		post, err := store.PostByID(ctx, id)
		if err != nil {
			return err
		}
		existing = &post
	}

	back := c.Request().URL.RequestURI()
	reject := func(msg string) error {
		if err := a.flash(c, FlashError, msg); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, back)
	}

	f := readPostForm(c)
	if f.Title == "" || f.Excerpt == "" || f.Content == "" {
		return reject("Title, excerpt, and content are required.")
	}
	slug := model.Slugify(firstNonEmpty(f.Slug, f.Title))
	if slug == "" {
		return reject("Unable to generate a slug. Please adjust the title.")
	}

	now := model.Timestamp(a.now())
	publishDate := f.PublishDate
	if publishDate == "" && existing != nil {
		publishDate = existing.PublishDate
	}
	if publishDate == "" {
		publishDate = now
	}

	post := model.Post{
		Title:           f.Title,
		Slug:            slug,
		Excerpt:         f.Excerpt,
		Content:         f.Content,
		CoverURL:        f.CoverURL,
		Tags:            f.Tags,
		Featured:        f.Featured,
		UpdatedAt:       now,
		PublishDate:     publishDate,
		MetaTitle:       f.MetaTitle,
		MetaDescription: f.MetaDescription,
		HeroKicker:      f.HeroKicker,
		HeroStyle:       f.HeroStyle,
		HighlightQuote:  f.HighlightQuote,
		SummaryPoints:   f.SummaryPoints,
		CTALabel:        f.CTALabel,
		CTAURL:          f.CTAURL,
	}
	switch f.Action {
	case actionPublish:
		post.Published = true
	case actionPreview:
		post.Published = existing != nil && existing.Published
	}

	var (
		id  int64
		err error
		msg string
	)
	if existing != nil {
		post.ID = existing.ID
		post.CreatedAt = existing.CreatedAt
		err = store.UpdatePost(ctx, post)
		id, msg = existing.ID, "Post updated."
	} else {
		post.CreatedAt = now
		id, err = store.CreatePost(ctx, post)
		msg = "Post created."
	}
	if errors.Is(err, ErrSlugTaken) {
		return reject("Slug already in use.")
	}
	if err != nil {
		return err
	}

	if err := a.flash(c, FlashSuccess, msg); err != nil {
		return err
	}
	target := "/admin/edit/"
	if f.Action == actionPreview {
		target = "/admin/preview/"
	}
	return c.Redirect(http.StatusSeeOther, target+strconv.FormatInt(id, 10))
}

func (a *App) handleDeletePost(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	if err := a.store(c).DeletePost(c.Request().Context(), id); err != nil {
		return err
	}
	if err := a.flash(c, FlashSuccess, "Post deleted."); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin")
}

func (a *App) handleDuplicatePost(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	newID, err := a.store(c).DuplicatePost(c.Request().Context(), id, model.Timestamp(a.now()))
	if err != nil {
		return err
	}
	if err := a.flash(c, FlashSuccess, "Draft copied."); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/edit/"+strconv.FormatInt(newID, 10))
}

func (a *App) handlePreviewPost(c echo.Context) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	post, err := a.store(c).PostByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return a.renderPost(c, post, true)
}
