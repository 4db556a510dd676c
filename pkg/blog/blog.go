// Package blog holds small helpers for document metadata: URL slugs
// and title extraction from markdown content.
package blog

import (
	"regexp"
	"strings"
)

var (
	slugInvalidRe  = regexp.MustCompile(`[^a-z0-9]+`)
	slugHyphensRe  = regexp.MustCompile(`-{2,}`)
	headingLineRe  = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	inlineMarkupRe = regexp.MustCompile("(\\*\\*|__|\\*|_|`)")
)

// Slugify converts a title into a URL-safe slug: lowercase, runs of
// non-alphanumeric characters become single hyphens, leading and
// trailing hyphens are dropped.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = slugInvalidRe.ReplaceAllString(slug, "-")
	slug = slugHyphensRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// Title extracts a document title from markdown content: the first
// level-one heading if present, otherwise the first non-empty line with
// inline markup stripped. Returns "" for empty content.
func Title(content string) string {
	if m := headingLineRe.FindStringSubmatch(content); m != nil {
		return cleanTitle(m[1])
	}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return cleanTitle(strings.TrimLeft(line, "# "))
		}
	}
	return ""
}

func cleanTitle(s string) string {
	s = inlineMarkupRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
