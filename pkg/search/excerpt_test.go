package search

import (
	"strings"
	"testing"
)

func TestExcerptStripsMarkdown(t *testing.T) {
	content := "# Title\n\nSome **bold** text with `code` and a [link](url)."

	got := Excerpt(content, DefaultExcerptLength)

	for _, forbidden := range []string{"#", "**", "`", "[", "]", "(url)"} {
		if strings.Contains(got, forbidden) {
			t.Errorf("excerpt %q contains %q", got, forbidden)
		}
	}
	if !strings.Contains(got, "link") {
		t.Errorf("excerpt %q should preserve the link's visible text", got)
	}
	if !strings.Contains(got, "bold") {
		t.Errorf("excerpt %q should preserve emphasized text", got)
	}
}

func TestExcerptStripsBlocks(t *testing.T) {
	content := "Intro paragraph.\n\n```go\nfunc secret() {}\n```\n\n> quoted line\n\n---\n\n- item one\n1. item two\n\n![alt text](image.png)\n\n<div>markup</div>"

	got := Excerpt(content, DefaultExcerptLength)

	for _, forbidden := range []string{"func secret", "```", ">", "---", "![", "<div>"} {
		if strings.Contains(got, forbidden) {
			t.Errorf("excerpt %q contains %q", got, forbidden)
		}
	}
	for _, wanted := range []string{"Intro paragraph.", "quoted line", "item one", "item two", "markup"} {
		if !strings.Contains(got, wanted) {
			t.Errorf("excerpt %q should contain %q", got, wanted)
		}
	}
}

func TestExcerptCollapsesWhitespace(t *testing.T) {
	got := Excerpt("first   line\n\n\nsecond\tline", DefaultExcerptLength)
	if got != "first line second line" {
		t.Errorf("got %q, want %q", got, "first line second line")
	}
}

func TestExcerptTruncates(t *testing.T) {
	content := strings.Repeat("word ", 100)

	got := Excerpt(content, DefaultExcerptLength)

	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated excerpt should end with ellipsis, got %q", got)
	}
	// Budget plus the appended ellipsis rune.
	if n := len([]rune(got)); n > DefaultExcerptLength+1 {
		t.Errorf("excerpt length = %d runes, want <= %d", n, DefaultExcerptLength+1)
	}
}

func TestExcerptShortContentUntouched(t *testing.T) {
	got := Excerpt("Just a sentence.", DefaultExcerptLength)
	if got != "Just a sentence." {
		t.Errorf("got %q", got)
	}
	if strings.HasSuffix(got, "…") {
		t.Error("short content should not get an ellipsis")
	}
}

func TestExcerptEmpty(t *testing.T) {
	if got := Excerpt("", DefaultExcerptLength); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
