package blog

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"Go's Concurrency Model", "go-s-concurrency-model"},
		{"  Spaces   everywhere  ", "spaces-everywhere"},
		{"UPPER case & Symbols!?", "upper-case-symbols"},
		{"already-a-slug", "already-a-slug"},
		{"100% coverage", "100-coverage"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		if got := Slugify(tt.title); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"h1 heading", "# My Post\n\nBody text.", "My Post"},
		{"h1 later in file", "intro line\n\n# Actual Title\n", "Actual Title"},
		{"no heading", "Just a first line.\nSecond line.", "Just a first line."},
		{"markup in heading", "# **Bold** and `code`", "Bold and code"},
		{"leading blank lines", "\n\n\nFirst real line", "First real line"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title(tt.content); got != tt.want {
				t.Errorf("Title(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}
