// Package model holds the content types shared by the store, handlers, and views.
package model

import (
	"strings"
	"time"
)

// HeroStyle selects the color treatment of a post's hero banner.
type HeroStyle string

const (
	HeroLight    HeroStyle = "light"
	HeroSlate    HeroStyle = "slate"
	HeroMidnight HeroStyle = "midnight"
)

// HeroStyles lists the allowed hero styles in the order shown by the editor.
var HeroStyles = []HeroStyle{HeroLight, HeroSlate, HeroMidnight}

// NormalizeHeroStyle maps s onto an allowed hero style, falling back to light.
func NormalizeHeroStyle(s string) HeroStyle {
	v := HeroStyle(strings.ToLower(strings.TrimSpace(s)))
	for _, allowed := range HeroStyles {
		if v == allowed {
			return v
		}
	}
	return HeroLight
}

// Post is a research article stored in the posts table.
// Optional text columns are empty strings when NULL in the database.
type Post struct {
	ID              int64
	Title           string
	Slug            string
	Excerpt         string
	Content         string // rich-text HTML
	CoverURL        string
	Tags            string // comma-joined
	Published       bool
	Featured        bool
	CreatedAt       string // ISO-8601
	UpdatedAt       string // ISO-8601
	PublishDate     string
	MetaTitle       string
	MetaDescription string
	HeroKicker      string
	HeroStyle       HeroStyle
	HighlightQuote  string
	SummaryPoints   string // newline-delimited
	CTALabel        string
	CTAURL          string
}

// Path is the public URL path of the post.
func (p Post) Path() string {
	return "/post/" + p.Slug
}

// TagList splits the comma-joined tags, dropping blanks.
func (p Post) TagList() []string {
	return SplitTags(p.Tags)
}

// SummaryList returns the non-blank summary points, one per line.
func (p Post) SummaryList() []string {
	var out []string
	for _, line := range strings.Split(p.SummaryPoints, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// DisplayDate is the publish date, or the creation time when none was set.
func (p Post) DisplayDate() string {
	if p.PublishDate != "" {
		return p.PublishDate
	}
	return p.CreatedAt
}

// LastModified returns the YYYY-MM-DD prefix of the update timestamp.
func (p Post) LastModified() string {
	if len(p.UpdatedAt) >= 10 {
		return p.UpdatedAt[:10]
	}
	return p.UpdatedAt
}

// SplitTags splits a comma-joined tag string into trimmed, non-empty tags.
func SplitTags(tags string) []string {
	var out []string
	for _, t := range strings.Split(tags, ",") {
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// JoinTags normalizes a user-entered tag list to the stored "a, b" form.
func JoinTags(raw string) string {
	return strings.Join(SplitTags(raw), ", ")
}

// Timestamp formats t the way created_at/updated_at are stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000")
}

// ParseDate parses the ISO-8601 forms stored in date columns.
func ParseDate(value string) (time.Time, bool) {
	v := strings.Replace(value, "Z", "+00:00", 1)
	for _, layout := range []string{
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders an ISO-8601 date as "January 02, 2006".
// Unparseable values are returned unchanged.
func FormatDate(value string) string {
	if t, ok := ParseDate(value); ok {
		return t.Format("January 02, 2006")
	}
	return value
}

// DashboardStats counts posts by state for the admin dashboard.
type DashboardStats struct {
	Published int
	Draft     int
	Featured  int
}

// TeamMember is a static team page entry.
type TeamMember struct {
	Name     string
	Title    string
	Bio      string
	Photo    string
	LinkedIn string
}

// Count is a named total, such as views per path on the dashboard.
type Count struct {
	Name  string
	Views int
}
