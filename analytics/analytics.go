// Package analytics classifies page views for the readership counts shown
// on the admin dashboard. It keeps no visitor identifiers: a view is reduced
// to a day, a path, a traffic source and a device class.
package analytics

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// View is one counted page view.
type View struct {
	Day    string // YYYY-MM-DD, UTC
	Path   string
	Source string
	Device string
}

// Device classes.
const (
	Desktop = "Desktop"
	Mobile  = "Mobile"
	Tablet  = "Tablet"
)

// Sources that are not a referring domain.
const (
	Direct   = "Direct"
	Internal = "Internal"
)

var bots = []string{
	"bot", "crawler", "spider", "crawl", "slurp", "scrape",
	"googlebot", "bingbot", "yandex", "baidu", "duckduckbot",
	"facebookexternalhit", "twitterbot", "linkedinbot",
	"ahrefsbot", "semrushbot", "mj12bot", "dotbot",
	"curl", "wget", "python-requests", "go-http-client",
}

// IsBot reports whether the User-Agent looks like a crawler or script.
// An empty User-Agent counts as a bot.
func IsBot(ua string) bool {
	ua = strings.ToLower(strings.TrimSpace(ua))
	if ua == "" {
		return true
	}
	for _, bot := range bots {
		if strings.Contains(ua, bot) {
			return true
		}
	}
	return false
}

// DeviceClass buckets a User-Agent into Desktop, Mobile or Tablet.
// iPad user agents contain "mobile", so tablets are checked first.
func DeviceClass(ua string) string {
	ua = strings.ToLower(ua)
	switch {
	case strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad"):
		return Tablet
	case strings.Contains(ua, "mobile") || strings.Contains(ua, "android"):
		return Mobile
	default:
		return Desktop
	}
}

var searchEngines = []struct{ needle, name string }{
	{"google.", "Google"},
	{"bing.", "Bing"},
	{"duckduckgo.", "DuckDuckGo"},
	{"yahoo.", "Yahoo"},
	{"linkedin.", "LinkedIn"},
	{"github.", "GitHub"},
}

var referrerDomain = regexp.MustCompile(`^https?://(?:www\.)?([^/:]+)`)

// Source names where a view came from. Referrers on siteHost are Internal.
func Source(referrer, siteHost string) string {
	referrer = strings.TrimSpace(referrer)
	if referrer == "" {
		return Direct
	}
	if siteHost != "" {
		if u, err := url.Parse(referrer); err == nil && strings.EqualFold(u.Hostname(), siteHost) {
			return Internal
		}
	}
	lower := strings.ToLower(referrer)
	for _, se := range searchEngines {
		if strings.Contains(lower, se.needle) {
			return se.name
		}
	}
	if m := referrerDomain.FindStringSubmatch(referrer); len(m) > 1 {
		return strings.ToLower(m[1])
	}
	return "Other"
}

// Tracked reports whether views of path are counted: the home page, the
// blog index and post pages.
func Tracked(path string) bool {
	return path == "/" || path == "/blog" || strings.HasPrefix(path, "/blog/page/") ||
		strings.HasPrefix(path, "/post/")
}

// NewView builds the View for a request at t.
func NewView(t time.Time, path, referrer, userAgent, siteHost string) View {
	return View{
		Day:    Day(t),
		Path:   path,
		Source: Source(referrer, siteHost),
		Device: DeviceClass(userAgent),
	}
}

// Day formats t as the UTC calendar day views are bucketed by.
func Day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
