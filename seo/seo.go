// Package seo builds page metadata and schema.org JSON-LD documents.
// Every function is pure; optional inputs that are empty are left out of
// the output rather than emitted as empty values.
package seo

import (
	"encoding/json"

	"github.com/grandriver/riverpress/model"
)

// Meta carries per-page OpenGraph and SEO metadata into the <head> template.
type Meta struct {
	Title       string
	Description string
	Canonical   string // canonical + og:url
	ImageURL    string // og:image, optional
	OGType      string // "website" or "article"
}

// Document is a JSON-LD object.
type Document map[string]any

// JSON encodes d, returning "{}" if it cannot be marshalled.
func (d Document) JSON() string {
	b, err := json.Marshal(d)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BuildMeta assembles page metadata. An empty ogType means "website".
func BuildMeta(title, description, canonical, imageURL, ogType string) Meta {
	if ogType == "" {
		ogType = "website"
	}
	return Meta{
		Title:       title,
		Description: description,
		Canonical:   canonical,
		ImageURL:    imageURL,
		OGType:      ogType,
	}
}

// Organization describes the publisher.
func Organization(baseURL, name, description, logoURL string) Document {
	d := Document{
		"@context":    "https://schema.org",
		"@type":       "Organization",
		"url":         baseURL,
		"name":        name,
		"description": description,
	}
	if logoURL != "" {
		d["logo"] = logoURL
	}
	return d
}

// WebsiteSearch describes the site with a SearchAction targeting the blog index.
func WebsiteSearch(baseURL string) Document {
	return Document{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"url":      baseURL,
		"potentialAction": map[string]any{
			"@type":       "SearchAction",
			"target":      baseURL + "/blog?query={search_term_string}",
			"query-input": "required name=search_term_string",
		},
	}
}

// Crumb is one breadcrumb entry; Path is relative to the base URL.
type Crumb struct {
	Label string
	Path  string
}

// Breadcrumbs builds a BreadcrumbList with 1-based positions in crumb order.
func Breadcrumbs(baseURL string, crumbs []Crumb) Document {
	items := make([]map[string]any, 0, len(crumbs))
	for i, c := range crumbs {
		items = append(items, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     c.Label,
			"item":     baseURL + c.Path,
		})
	}
	return Document{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": items,
	}
}

// BlogPosting describes a single post. The description falls back from the
// meta description to the excerpt to the site description, and the
// modification date from updated_at to the publish date.
func BlogPosting(baseURL string, post model.Post, siteName, siteDescription string) Document {
	published := post.DisplayDate()
	modified := post.UpdatedAt
	if modified == "" {
		modified = published
	}
	canonical := baseURL + post.Path()
	description := firstNonEmpty(post.MetaDescription, post.Excerpt, siteDescription)

	d := Document{
		"@context":         "https://schema.org",
		"@type":            "BlogPosting",
		"headline":         post.Title,
		"description":      description,
		"datePublished":    published,
		"dateModified":     modified,
		"mainEntityOfPage": canonical,
		"url":              canonical,
		"author": map[string]string{
			"@type": "Organization",
			"name":  siteName,
		},
		"publisher": map[string]string{
			"@type":       "Organization",
			"name":        siteName,
			"description": siteDescription,
		},
	}
	if post.CoverURL != "" {
		d["image"] = post.CoverURL
	}
	if tags := post.TagList(); len(tags) > 0 {
		d["keywords"] = tags
	}
	return d
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
