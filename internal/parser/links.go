package parser

import (
	"regexp"
	"strings"

	"github.com/starford/laguz/internal/models"
)

// wikilinkRe matches [[Target]], [[Target|display]], [[Target#section]] and
// [[Target#section|display]]. The target group stops at ']', '|' or '#'.
var wikilinkRe = regexp.MustCompile(`\[\[([^\]|#]+)(#[^\]|]*)?(\|[^\]]*)?\]\]`)

// ExtractLinks scans a note body for wikilinks and returns one directed edge
// per match, in source order. Targets are slug-normalized (per path segment
// when the reference points into a sub-folder); the section suffix is
// ignored for targeting. Edges are not deduplicated and targets are not
// checked for existence — dangling edges are intentional.
func ExtractLinks(body, sourceSlug string) []models.Link {
	var out []models.Link
	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		target := strings.TrimSpace(m[1])
		if target == "" {
			continue
		}

		text := target
		if m[3] != "" {
			text = strings.TrimSpace(strings.TrimPrefix(m[3], "|"))
		}

		out = append(out, models.Link{
			SourceSlug: sourceSlug,
			TargetSlug: targetSlug(target),
			LinkText:   text,
		})
	}
	return out
}

// targetSlug normalizes a wikilink target; path separators delimit
// independently slugified segments.
func targetSlug(target string) string {
	if !strings.Contains(target, "/") {
		return Slugify(target)
	}
	parts := strings.Split(target, "/")
	for i, p := range parts {
		parts[i] = Slugify(p)
	}
	return strings.Join(parts, "/")
}
