package utils

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"sync"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	markdown     goldmark.Markdown
	ugcPolicy    *bluemonday.Policy
	strictPolicy *bluemonday.Policy
	initOnce     sync.Once
)

func initRenderer() {
	initOnce.Do(func() {
		// Raw HTML in post bodies is rendered, then cut down to the UGC set.
		markdown = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		)

		ugcPolicy = bluemonday.UGCPolicy()
		ugcPolicy.RequireNoFollowOnLinks(true)

		strictPolicy = bluemonday.StrictPolicy()
	})
}

// RenderMarkdown converts markdown to sanitized HTML.
func RenderMarkdown(src string) (string, error) {
	initRenderer()

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return ugcPolicy.Sanitize(buf.String()), nil
}

// PlainExcerpt strips all markup from rendered HTML. Text longer than limit
// runes is cut on a word boundary and ends with an ellipsis.
func PlainExcerpt(renderedHTML string, limit int) string {
	initRenderer()

	text := html.UnescapeString(strictPolicy.Sanitize(renderedHTML))
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}

	cut := string(runes[:limit])
	if !unicode.IsSpace(runes[limit]) {
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
