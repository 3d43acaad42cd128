package model

import (
	"strconv"
	"strings"
	"unicode"
)

// Slugify converts a title to a URL-safe slug: lowercase ASCII letters,
// digits, and single hyphens, with no leading or trailing hyphen.
//
// Characters outside [a-z0-9], whitespace and '-' are dropped first, so
// "R&D" and "r_d" both become "rd". Runs of whitespace and hyphens collapse
// to one hyphen.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	pendingDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			pendingDash = true
		}
	}
	return b.String()
}

// CopySlug returns the first candidate of base-copy, base-copy-2, base-copy-3, ...
// for which taken reports false.
func CopySlug(base string, taken func(string) (bool, error)) (string, error) {
	root := base + "-copy"
	candidate := root
	for n := 2; ; n++ {
		used, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
		candidate = root + "-" + strconv.Itoa(n)
	}
}
