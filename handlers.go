package riverpress

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/grandriver/riverpress/model"
	"github.com/grandriver/riverpress/richtext"
	"github.com/grandriver/riverpress/seo"
	"github.com/grandriver/riverpress/views"
)

const (
	homePostCount = 6
	blogPageSize  = 10
	morePostCount = 3
)

var teamMembers = []model.TeamMember{
	{
		Name:     "Alex Morgan",
		Title:    "Founder & Lead Analyst",
		Bio:      "Covers U.S. financials with a focus on bank asset sensitivity and fintech disruption.",
		Photo:    "/static/img/team/alex-morgan.svg",
		LinkedIn: "https://www.linkedin.com/",
	},
	{
		Name:     "Priya Desai",
		Title:    "Technology Strategist",
		Bio:      "Analyzes enterprise software and AI monetization frameworks across hyperscalers.",
		Photo:    "/static/img/team/priya-desai.svg",
		LinkedIn: "https://www.linkedin.com/",
	},
	{
		Name:     "Ethan Clarke",
		Title:    "Energy & Industrials Analyst",
		Bio:      "Frames upstream capital allocation and energy transition implications for integrated majors.",
		Photo:    "/static/img/team/ethan-clarke.svg",
		LinkedIn: "https://www.linkedin.com/",
	},
}

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	st := a.settings(c)
	posts, err := a.store(c).HomePosts(ctx, homePostCount)
	if err != nil {
		return err
	}
	image := ""
	if len(posts) > 0 {
		image = posts[0].CoverURL
	}
	meta := seo.BuildMeta(st.SiteName+" · Independent Equity Research", st.SiteDescription, st.BaseURL, image, "")
	p, err := a.page(c, "home", meta,
		seo.Breadcrumbs(st.BaseURL, []seo.Crumb{{Label: "Home", Path: "/"}}),
		seo.Organization(st.BaseURL, st.SiteName, st.SiteDescription, absURL(st.BaseURL, "/static/img/logo.svg")),
		seo.WebsiteSearch(st.BaseURL),
	)
	if err != nil {
		return err
	}
	return Render(c, views.Home(p, posts))
}

// parsePage reads a 1-based page number. Anything unparseable or below 1
// is page 1.
func parsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// totalPages is ceil(total/size), never less than 1.
func totalPages(total, size int) int {
	if total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// blogPageURL links to a blog page by path rather than query, so the links
// also resolve on a static export.
func blogPageURL(page int) string {
	if page <= 1 {
		return "/blog"
	}
	return "/blog/page/" + strconv.Itoa(page) + "/"
}

func (a *App) handleBlog(c echo.Context) error {
	return a.renderBlog(c, parsePage(c.QueryParam("page")))
}

func (a *App) handleBlogPage(c echo.Context) error {
	return a.renderBlog(c, parsePage(c.Param("page")))
}

func (a *App) renderBlog(c echo.Context, page int) error {
	ctx := c.Request().Context()
	st := a.settings(c)
	store := a.store(c)

	posts, err := store.ListPublished(ctx, blogPageSize, (page-1)*blogPageSize)
	if err != nil {
		return err
	}
	total, err := store.CountPublished(ctx)
	if err != nil {
		return err
	}
	tags, err := store.PublishedTags(ctx)
	if err != nil {
		return err
	}

	data := views.BlogData{
		Posts:      posts,
		Page:       page,
		TotalPages: totalPages(total, blogPageSize),
		Tags:       tags,
	}
	if page > 1 {
		data.PrevURL = blogPageURL(page - 1)
	}
	if page < data.TotalPages {
		data.NextURL = blogPageURL(page + 1)
	}

	canonical := st.BaseURL + "/blog"
	if page > 1 {
		canonical += "?page=" + strconv.Itoa(page)
	}
	meta := seo.BuildMeta("Blog · "+st.SiteName,
		"Stock write-ups and sector notes from Grand River Analytics.", canonical, "", "")
	p, err := a.page(c, "blog", meta,
		seo.Breadcrumbs(st.BaseURL, []seo.Crumb{{Label: "Home", Path: "/"}, {Label: "Blog", Path: "/blog"}}),
		seo.WebsiteSearch(st.BaseURL),
	)
	if err != nil {
		return err
	}
	return Render(c, views.Blog(p, data))
}

func (a *App) handlePost(c echo.Context) error {
	post, err := a.store(c).PostBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	if !post.Published && !a.IsAdmin(c) {
		return ErrNotFound
	}
	return a.renderPost(c, post, false)
}

// renderPost renders the detail page shared by the public route and the
// admin preview.
func (a *App) renderPost(c echo.Context, post model.Post, preview bool) error {
	st := a.settings(c)
	more, err := a.store(c).MorePosts(c.Request().Context(), post.Slug, morePostCount)
	if err != nil {
		return err
	}

	title := pageTitle(firstNonEmpty(post.MetaTitle, post.Title), st.SiteName)
	if preview {
		title = "Preview · " + title
	}
	description := firstNonEmpty(post.MetaDescription, post.Excerpt, st.SiteDescription)
	meta := seo.BuildMeta(title, description, absURL(st.BaseURL, post.Path()), post.CoverURL, "article")

	p, err := a.page(c, "blog", meta,
		seo.Breadcrumbs(st.BaseURL, []seo.Crumb{
			{Label: "Home", Path: "/"},
			{Label: "Blog", Path: "/blog"},
			{Label: post.Title, Path: post.Path()},
		}),
		seo.WebsiteSearch(st.BaseURL),
		seo.BlogPosting(st.BaseURL, post, st.SiteName, st.SiteDescription),
	)
	if err != nil {
		return err
	}
	return Render(c, views.Post(p, views.PostData{
		Post:      post,
		ReadTime:  richtext.ReadTime(post.Content),
		Summary:   post.SummaryList(),
		HeroStyle: model.NormalizeHeroStyle(string(post.HeroStyle)),
		More:      more,
		Preview:   preview,
	}))
}

func (a *App) handleTeam(c echo.Context) error {
	st := a.settings(c)
	meta := seo.BuildMeta("Team · "+st.SiteName,
		"Meet the sector specialists behind our research.", st.BaseURL+"/team", "", "")
	p, err := a.page(c, "team", meta,
		seo.Breadcrumbs(st.BaseURL, []seo.Crumb{{Label: "Home", Path: "/"}, {Label: "Team", Path: "/team"}}),
		seo.WebsiteSearch(st.BaseURL),
	)
	if err != nil {
		return err
	}
	return Render(c, views.Team(p, teamMembers))
}

func (a *App) contactPage(c echo.Context) (views.Page, error) {
	st := a.settings(c)
	meta := seo.BuildMeta("Contact · "+st.SiteName,
		"Connect with the Grand River Analytics team for research access and inquiries.",
		st.BaseURL+"/contact", "", "")
	return a.page(c, "contact", meta,
		seo.Breadcrumbs(st.BaseURL, []seo.Crumb{{Label: "Home", Path: "/"}, {Label: "Contact", Path: "/contact"}}),
		seo.WebsiteSearch(st.BaseURL),
	)
}

func (a *App) handleContact(c echo.Context) error {
	p, err := a.contactPage(c)
	if err != nil {
		return err
	}
	return Render(c, views.Contact(p, views.ContactData{}))
}

// handleContactSubmit validates the form and logs the message. Nothing is
// sent; a filled honeypot field is rejected outright.
func (a *App) handleContactSubmit(c echo.Context) error {
	if strings.TrimSpace(c.FormValue("website")) != "" {
		return c.String(http.StatusBadRequest, "Bad Request")
	}
	name := strings.TrimSpace(c.FormValue("name"))
	email := strings.TrimSpace(c.FormValue("email"))
	message := strings.TrimSpace(c.FormValue("message"))

	success := name != "" && email != "" && message != ""
	if success {
		c.Logger().Infof("contact form submitted by %s <%s>: %s", name, email, message)
		if err := a.flash(c, FlashSuccess, "Thanks for reaching out. We'll be in touch soon."); err != nil {
			return err
		}
	} else if err := a.flash(c, FlashError, "All fields are required."); err != nil {
		return err
	}

	p, err := a.contactPage(c)
	if err != nil {
		return err
	}
	return Render(c, views.Contact(p, views.ContactData{Success: success}))
}

func (a *App) handleAdminUnavailable(c echo.Context) error {
	st := a.settings(c)
	meta := seo.BuildMeta("Admin Offline · "+st.SiteName,
		"This deployment exposes the public site only. Run the riverpress server on dynamic hosting to access the admin tools.",
		st.BaseURL+"/admin-unavailable/", "", "")
	p, err := a.page(c, "", meta,
		seo.Breadcrumbs(st.BaseURL, []seo.Crumb{{Label: "Home", Path: "/"}, {Label: "Admin", Path: "/admin-unavailable/"}}),
		seo.WebsiteSearch(st.BaseURL),
	)
	if err != nil {
		return err
	}
	return Render(c, views.AdminUnavailable(p))
}

func (a *App) handleRobots(c echo.Context) error {
	base := a.settings(c).BaseURL
	return c.String(http.StatusOK, "User-agent: *\nAllow: /\nSitemap: "+base+"/sitemap.xml\n")
}

func handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
