package search

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultExcerptLength is the character budget for derived excerpts.
const DefaultExcerptLength = 180

var (
	fencedCodeRe = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe = regexp.MustCompile("`[^`]*`")
	imageRe      = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkRe       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	headingRe    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasisRe   = regexp.MustCompile(`(\*\*|__|\*|_)`)
	blockquoteRe = regexp.MustCompile(`(?m)^>\s?`)
	hrRe         = regexp.MustCompile(`(?m)^(-{3,}|\*{3,}|_{3,})\s*$`)
	listMarkerRe = regexp.MustCompile(`(?m)^\s*([-*+]|\d+\.)\s+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Excerpt derives a plain-text preview from markdown content: markup is
// stripped, whitespace collapsed, and the text truncated to maxLen
// characters with a trailing ellipsis when cut. Empty content yields an
// empty excerpt.
func Excerpt(content string, maxLen int) string {
	if content == "" {
		return ""
	}
	if maxLen <= 0 {
		maxLen = DefaultExcerptLength
	}

	text := content
	text = fencedCodeRe.ReplaceAllString(text, " ")
	text = imageRe.ReplaceAllString(text, " ")
	text = linkRe.ReplaceAllString(text, "$1")
	text = htmlTagRe.ReplaceAllString(text, " ")
	text = inlineCodeRe.ReplaceAllString(text, " ")
	text = headingRe.ReplaceAllString(text, "")
	text = blockquoteRe.ReplaceAllString(text, "")
	text = hrRe.ReplaceAllString(text, " ")
	text = listMarkerRe.ReplaceAllString(text, "")
	text = emphasisRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxLen])) + "…"
}
