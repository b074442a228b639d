package parser

import (
	"testing"
)

func TestSlug_RelativeNoExtension(t *testing.T) {
	got := Slug("/vault/Projects/My Note.md", "/vault")
	if got != "projects/my-note" {
		t.Errorf("slug = %q, want %q", got, "projects/my-note")
	}
}

func TestSlug_Underscores(t *testing.T) {
	got := Slug("/vault/daily_log.md", "/vault")
	if got != "daily-log" {
		t.Errorf("slug = %q, want %q", got, "daily-log")
	}
}

func TestParseNote_FrontmatterTitleWins(t *testing.T) {
	data := []byte("---\ntitle: Explicit\ntags:\n  - go\n  - \"#rag\"\n---\n# Heading Title\nBody here.\n")
	n := ParseNote(data, "/vault/note.md", "/vault")
	if n.Title != "Explicit" {
		t.Errorf("title = %q, want %q", n.Title, "Explicit")
	}
	if len(n.Tags) != 2 || n.Tags[0] != "go" || n.Tags[1] != "rag" {
		t.Errorf("tags = %v, want [go rag]", n.Tags)
	}
	if n.Body != "# Heading Title\nBody here.\n" {
		t.Errorf("body = %q", n.Body)
	}
}

func TestParseNote_TitleFromFirstH1(t *testing.T) {
	data := []byte("intro paragraph\n\n# The Real Title\nmore text\n# Second Title\n")
	n := ParseNote(data, "/vault/untitled.md", "/vault")
	if n.Title != "The Real Title" {
		t.Errorf("title = %q, want %q", n.Title, "The Real Title")
	}
}

func TestParseNote_TitleFromFilename(t *testing.T) {
	n := ParseNote([]byte("no headings here\n"), "/vault/sub/Plain Note.md", "/vault")
	if n.Title != "Plain Note" {
		t.Errorf("title = %q, want %q", n.Title, "Plain Note")
	}
	if n.Slug != "sub/plain-note" {
		t.Errorf("slug = %q, want %q", n.Slug, "sub/plain-note")
	}
}

func TestParseNote_MalformedFrontmatter(t *testing.T) {
	data := []byte("---\n: bad: yaml: {{{\n---\nBody\n")
	n := ParseNote(data, "/vault/x.md", "/vault")
	if n.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", n.Frontmatter)
	}
	if n.Body != string(data) {
		t.Errorf("malformed frontmatter should keep full text as body")
	}
}

func TestParseNote_NoFrontmatter(t *testing.T) {
	n := ParseNote([]byte("just a body\n"), "/vault/x.md", "/vault")
	if n.Frontmatter != nil {
		t.Errorf("expected nil frontmatter")
	}
	if n.Body != "just a body\n" {
		t.Errorf("body = %q", n.Body)
	}
	if n.WordCount != 3 {
		t.Errorf("word count = %d, want 3", n.WordCount)
	}
}

func TestParseNote_ScalarTagAndAlias(t *testing.T) {
	data := []byte("---\ntags: \"#solo\"\naliases: other-name\n---\nbody\n")
	n := ParseNote(data, "/vault/x.md", "/vault")
	if len(n.Tags) != 1 || n.Tags[0] != "solo" {
		t.Errorf("tags = %v, want [solo]", n.Tags)
	}
	if len(n.Aliases) != 1 || n.Aliases[0] != "other-name" {
		t.Errorf("aliases = %v, want [other-name]", n.Aliases)
	}
}

func TestParseNote_NonStringTagsDropped(t *testing.T) {
	data := []byte("---\ntags:\n  - 42\n  - ok\n  - \"\"\n---\nbody\n")
	n := ParseNote(data, "/vault/x.md", "/vault")
	if len(n.Tags) != 1 || n.Tags[0] != "ok" {
		t.Errorf("tags = %v, want [ok]", n.Tags)
	}
}

func TestParseNote_Provenance(t *testing.T) {
	data := []byte("---\nsource_type: book\nsource_title: SICP\nsource_author: Abelson\nsource_url: https://example.org\n---\nbody\n")
	n := ParseNote(data, "/vault/x.md", "/vault")
	if n.SourceType != "book" || n.SourceTitle != "SICP" || n.SourceAuthor != "Abelson" || n.SourceURL != "https://example.org" {
		t.Errorf("provenance = %q %q %q %q", n.SourceType, n.SourceTitle, n.SourceAuthor, n.SourceURL)
	}
}

func TestSplitFrontmatter_UnclosedDelimiter(t *testing.T) {
	fm, body := SplitFrontmatter([]byte("---\ntitle: x\nno closing delim\n"))
	if fm != nil {
		t.Errorf("expected nil frontmatter")
	}
	if body == "" {
		t.Errorf("expected full text as body")
	}
}
