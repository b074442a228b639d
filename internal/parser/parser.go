// Package parser turns raw Markdown into notes, link edges, and chunks.
package parser

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/laguz/internal/models"
)

var h1Re = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// Slug derives the stable note identity from its path relative to root:
// forward slashes, no extension, each segment normalized with Slugify so
// that wikilink targets and file-derived slugs share one namespace.
func Slug(path, root string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))

	parts := strings.Split(rel, "/")
	for i, p := range parts {
		parts[i] = Slugify(p)
	}
	return strings.Join(parts, "/")
}

// Slugify normalizes a single slug segment: lowercase, spaces and
// underscores become hyphens.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	return strings.ReplaceAll(s, "_", "-")
}

// ParseNote parses one Markdown file into a Note. It never panics; a
// malformed frontmatter block degrades to an empty map with the full text
// kept as body.
func ParseNote(data []byte, path, root string) models.Note {
	fm, body := SplitFrontmatter(data)

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	return models.Note{
		FilePath:     path,
		Slug:         Slug(path, root),
		Title:        resolveTitle(fm, body, stem),
		Body:         body,
		Frontmatter:  fm,
		Tags:         NormalizeTags(fm["tags"]),
		Aliases:      stringList(fm["aliases"]),
		SourceType:   stringField(fm, "source_type"),
		SourceTitle:  stringField(fm, "source_title"),
		SourceAuthor: stringField(fm, "source_author"),
		SourceURL:    stringField(fm, "source_url"),
		WordCount:    len(strings.Fields(body)),
	}
}

// SplitFrontmatter separates a leading YAML block (between --- delimiters at
// the very start) from the Markdown body. Missing or malformed frontmatter
// yields a nil map and the full text as body.
func SplitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	if !bytes.HasPrefix(data, []byte(delim)) {
		return nil, string(data)
	}

	rest := data[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	body := rest[idx+1+len(delim):]

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, string(data)
	}
	return fm, strings.TrimLeft(string(body), "\n\r")
}

// resolveTitle applies the title precedence: frontmatter title, first H1
// anywhere in the body, filename stem.
func resolveTitle(fm map[string]any, body, stem string) string {
	if t, ok := fm["title"].(string); ok && t != "" {
		return t
	}
	if m := h1Re.FindStringSubmatch(body); m != nil {
		return strings.TrimSpace(m[1])
	}
	return stem
}

// NormalizeTags accepts a frontmatter tags value (single string or list),
// strips the leading # marker and surrounding whitespace, and drops
// empty or non-string entries.
func NormalizeTags(raw any) []string {
	var out []string
	for _, item := range anyList(raw) {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "#"))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stringList(raw any) []string {
	var out []string
	for _, item := range anyList(raw) {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// anyList lifts a scalar into a one-element list so that single-valued and
// list-valued frontmatter fields parse the same way.
func anyList(raw any) []any {
	switch v := raw.(type) {
	case nil:
		return nil
	case []any:
		return v
	default:
		return []any{v}
	}
}

func stringField(fm map[string]any, key string) string {
	if s, ok := fm[key].(string); ok {
		return s
	}
	return ""
}
