package parser

import (
	"regexp"
	"strings"

	"github.com/starford/laguz/internal/models"
)

// DefaultMaxChars is the chunk size ceiling used when the config leaves it
// unset.
const DefaultMaxChars = 512

var blankSplitRe = regexp.MustCompile(`\n\s*\n`)

// block is an intermediate structural unit produced by the line scan.
type block struct {
	content   string
	heading   string
	kind      string
	startLine int
	endLine   int
}

// ChunkNote splits a note body into retrieval-sized chunks. Fenced code
// blocks are atomic regardless of size; heading lines update the heading
// context carried onto subsequent blocks; oversized paragraphs are split on
// blank lines and then hard-cut at the last newline at or before the
// boundary. Whitespace-only fragments are dropped.
func ChunkNote(body string, maxChars int) []models.Chunk {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	var chunks []models.Chunk
	for _, b := range scanBlocks(strings.Split(body, "\n")) {
		switch {
		case len(b.content) <= maxChars:
			chunks = appendChunk(chunks, models.Chunk{
				Content:        b.content,
				HeadingContext: b.heading,
				Type:           b.kind,
				StartLine:      b.startLine,
				EndLine:        b.endLine,
			})
		case b.kind == models.ChunkTypeCode:
			// Code is never split.
			chunks = appendChunk(chunks, models.Chunk{
				Content:        b.content,
				HeadingContext: b.heading,
				Type:           b.kind,
				StartLine:      b.startLine,
				EndLine:        b.endLine,
			})
		default:
			chunks = splitOversized(chunks, b, maxChars)
		}
	}
	return chunks
}

// scanBlocks folds the line sequence into ordered blocks, threading the
// current heading through the scan.
func scanBlocks(lines []string) []block {
	var blocks []block
	heading := ""
	i := 0
	for i < len(lines) {
		line := lines[i]

		if strings.HasPrefix(line, "```") {
			start := i
			code := []string{line}
			i++
			for i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
				code = append(code, lines[i])
				i++
			}
			if i < len(lines) {
				code = append(code, lines[i])
				i++
			}
			blocks = append(blocks, block{
				content:   strings.Join(code, "\n"),
				heading:   heading,
				kind:      models.ChunkTypeCode,
				startLine: start + 1,
				endLine:   i,
			})
			continue
		}

		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			heading = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
			blocks = append(blocks, block{
				content:   line,
				heading:   heading,
				kind:      models.ChunkTypeHeading,
				startLine: i + 1,
				endLine:   i + 1,
			})
			i++
			continue
		}

		start := i
		var para []string
		for i < len(lines) {
			trimmed := strings.TrimSpace(lines[i])
			if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "```") {
				break
			}
			para = append(para, lines[i])
			i++
		}
		if len(para) > 0 {
			blocks = append(blocks, block{
				content:   strings.Join(para, "\n"),
				heading:   heading,
				kind:      models.ChunkTypeParagraph,
				startLine: start + 1,
				endLine:   start + len(para),
			})
		}
		for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
			i++
		}
	}
	return blocks
}

// splitOversized cuts a non-code block down to maxChars pieces: first on
// blank-line paragraph boundaries, then hard cuts at the last newline at or
// before the boundary, falling back to a cut at the boundary itself when no
// newline lies past the midpoint.
func splitOversized(chunks []models.Chunk, b block, maxChars int) []models.Chunk {
	offset := 0
	for _, part := range blankSplitRe.Split(b.content, -1) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if len(part) <= maxChars {
			chunks = appendChunk(chunks, models.Chunk{
				Content:        part,
				HeadingContext: b.heading,
				Type:           models.ChunkTypeParagraph,
				StartLine:      b.startLine + offset,
				EndLine:        b.startLine + offset + strings.Count(part, "\n"),
			})
			offset += strings.Count(part, "\n") + 1
			continue
		}

		rest := part
		for rest != "" {
			take := rest
			if len(rest) > maxChars {
				take = rest[:maxChars]
				if nl := strings.LastIndexByte(take, '\n'); nl > maxChars/2 {
					take = rest[:nl+1]
				}
			}
			rest = rest[len(take):]
			chunks = appendChunk(chunks, models.Chunk{
				Content:        strings.TrimSpace(take),
				HeadingContext: b.heading,
				Type:           models.ChunkTypeParagraph,
				StartLine:      b.startLine + offset,
				EndLine:        b.startLine + offset + strings.Count(take, "\n"),
			})
			offset += strings.Count(take, "\n") + 1
		}
	}
	return chunks
}

func appendChunk(chunks []models.Chunk, c models.Chunk) []models.Chunk {
	if strings.TrimSpace(c.Content) == "" {
		return chunks
	}
	return append(chunks, c)
}

// EmbeddingText is the text handed to the embedding model for a chunk:
// document title and heading context prefixed onto the raw content so that
// retrieval sees structural context, not just the snippet.
func EmbeddingText(c models.Chunk, noteTitle string) string {
	var parts []string
	if noteTitle != "" {
		parts = append(parts, "Title: "+noteTitle)
	}
	if c.HeadingContext != "" {
		parts = append(parts, "Section: "+c.HeadingContext)
	}
	parts = append(parts, c.Content)
	return strings.Join(parts, " | ")
}
