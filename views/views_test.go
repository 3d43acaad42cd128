package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/grandriver/riverpress/model"
	"github.com/grandriver/riverpress/seo"
)

func testPage() Page {
	st := model.DefaultSettings("https://example.com")
	return Page{
		Meta:      seo.BuildMeta("Title · "+st.SiteName, st.SiteDescription, st.BaseURL, "", ""),
		Settings:  st,
		Year:      2024,
		CSRFToken: "tok",
		Flashes:   []Flash{{Kind: "success", Message: "Saved <ok>"}},
		Nav:       "blog",
		JSONLD:    []seo.Document{seo.WebsiteSearch(st.BaseURL)},
	}
}

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	return buf.String()
}

func TestPagesRender(t *testing.T) {
	post := model.Post{
		ID:             7,
		Title:          "Apple Services",
		Slug:           "apple-services",
		Excerpt:        "Services keep compounding.",
		Content:        "<p>Body</p><script>alert(1)</script>",
		Tags:           "Tech, Large-Cap",
		Published:      true,
		CreatedAt:      "2024-01-15T09:00:00.000000",
		PublishDate:    "2024-01-15",
		HeroStyle:      model.HeroSlate,
		HighlightQuote: "Margins expand.",
		SummaryPoints:  "one\ntwo",
		CTALabel:       "Download",
		CTAURL:         "https://example.com/model.xlsx",
	}
	p := testPage()
	tests := []struct {
		name     string
		cmp      templ.Component
		contains []string
	}{
		{"home", Home(p, []model.Post{post}), []string{"Latest research", `href="/post/apple-services"`}},
		{"blog", Blog(p, BlogData{Posts: []model.Post{post}, Page: 1, TotalPages: 2, NextURL: "/blog?page=2"}),
			[]string{"Page 1 of 2", `rel="next" href="/blog?page=2"`}},
		{"post", Post(p, PostData{Post: post, ReadTime: 1, Summary: post.SummaryList(), HeroStyle: post.HeroStyle}),
			[]string{"hero-slate", "Key points", "Margins expand.", "<p>Body</p>"}},
		{"preview", Post(p, PostData{Post: post, Preview: true}), []string{"/admin/edit/7"}},
		{"team", Team(p, []model.TeamMember{{Name: "Alex Morgan", Title: "Founder"}}), []string{"Alex Morgan"}},
		{"contact", Contact(p, ContactData{}), []string{`name="csrf_token" value="tok"`}},
		{"unavailable", AdminUnavailable(p), []string{"<main>"}},
		{"login", AdminLogin(p, LoginData{Error: "Invalid credentials."}), []string{"Invalid credentials."}},
		{"dashboard", AdminDashboard(p, DashboardData{
			Posts:    []model.Post{post},
			Stats:    model.DashboardStats{Published: 1},
			TopPaths: []model.Count{{Name: "/post/apple-services", Views: 4}},
			Days:     30,
		}), []string{"Readership, last 30 days", "/admin/duplicate/7"}},
		{"new", AdminEdit(p, EditData{Mode: "new", Action: "/admin/new"}), []string{"New post", `action="/admin/new"`}},
		{"edit", AdminEdit(p, EditData{Post: &post, Mode: "edit", Action: "/admin/edit/7"}),
			[]string{"Edit post", `<option value="slate" selected>`, "View live"}},
		{"images", AdminImages(p, []model.Image{{Filename: "chart.jpg", Width: 800, Height: 600}}),
			[]string{`src="/uploads/chart.jpg"`, "/admin/images/delete/chart.jpg"}},
		{"not found", NotFound(p), []string{"Page not found"}},
		{"server error", ServerError(p), []string{"<main>"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := renderString(t, tt.cmp)
			for _, want := range tt.contains {
				if !strings.Contains(html, want) {
					t.Errorf("output missing %q", want)
				}
			}
			if strings.Contains(html, "<script>alert(1)") {
				t.Error("unsanitized script in output")
			}
		})
	}
}

func TestLayout(t *testing.T) {
	html := renderString(t, NotFound(testPage()))
	for _, want := range []string{
		`<link rel="canonical" href="https://example.com">`,
		`<script type="application/ld+json">{"@context":"https://schema.org"`,
		`<a href="/blog" aria-current="page">`,
		"Saved &lt;ok&gt;",
		"&copy; 2024 Grand River Analytics.",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("layout missing %q", want)
		}
	}
	if strings.Contains(html, "/admin/logout") {
		t.Error("admin links shown to a visitor")
	}

	p := testPage()
	p.Admin = true
	if html := renderString(t, NotFound(p)); !strings.Contains(html, "/admin/logout") {
		t.Error("admin links missing for an admin")
	}
}
