// Package richtext sanitizes and measures the HTML produced by the admin
// rich-text editor.
package richtext

import (
	"html/template"
	"math"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const wordsPerMinute = 200

var (
	ugc    = newContentPolicy()
	strict = bluemonday.StrictPolicy()
)

func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("target").OnElements("a")
	return p
}

// Sanitize strips scripts, event handlers and other unsafe markup from
// editor HTML and marks the result safe for html/template.
func Sanitize(html string) template.HTML {
	return template.HTML(ugc.Sanitize(html))
}

// PlainText removes every tag, leaving the text content.
func PlainText(html string) string {
	return strict.Sanitize(strings.NewReplacer("<", " <", ">", "> ").Replace(html))
}

// ReadTime estimates reading time in whole minutes, never less than one.
func ReadTime(html string) int {
	words := len(strings.Fields(PlainText(html)))
	return max(1, int(math.Ceil(float64(words)/wordsPerMinute)))
}
