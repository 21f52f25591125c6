// Package markdown converts note content between markdown and HTML.
// Notes are stored as markdown; rendering happens on demand and imports
// from HTML sources are converted on the way in.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/yuin/goldmark"
)

var renderer = goldmark.New()

// Render converts markdown content to HTML.
func Render(content string) (string, error) {
	var b bytes.Buffer
	if err := renderer.Convert([]byte(content), &b); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return b.String(), nil
}

// htmlTagPattern matches common HTML tags to detect if a string contains HTML.
// Looks for opening tags like <p>, <br>, <div>, <b>, etc.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

// ContainsHTML checks if a string appears to contain HTML markup.
func ContainsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// FromHTML converts HTML content to markdown for storage.
// Input without HTML markup is returned unchanged, so pasting plain
// text or markdown through the import path is lossless.
func FromHTML(s string) string {
	if s == "" || !ContainsHTML(s) {
		return s
	}

	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		// If conversion fails, keep the original content.
		return s
	}

	return strings.TrimSpace(md)
}
