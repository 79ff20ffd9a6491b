// internal/service/excerpt.go
package service

import (
	"html"
	"strings"
)

const excerptWords = 40

// StripTags removes HTML markup and collapses whitespace, leaving plain
// text suitable for an email excerpt.
func StripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(html.UnescapeString(b.String())), " ")
}

// TrimWords keeps at most n words, appending an ellipsis when truncated.
func TrimWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "…"
}

// ResolveExcerpt prefers the explicit excerpt and otherwise derives one
// from the stripped body text.
func ResolveExcerpt(excerpt, body string) string {
	if strings.TrimSpace(excerpt) != "" {
		return StripTags(excerpt)
	}
	return TrimWords(StripTags(body), excerptWords)
}
