package service

import (
	"strings"

	"golang.org/x/net/html"
)

// htmlToText flattens article HTML into plain text for chat snippets.
// Script and style contents are dropped; remaining text nodes are joined
// with single spaces.
func htmlToText(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var parts []string
	skipDepth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(parts, " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if tag := string(name); (tag == "script" || tag == "style") && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			if text := strings.Join(strings.Fields(string(z.Text())), " "); text != "" {
				parts = append(parts, text)
			}
		}
	}
}

// snippetText cuts plain text to at most max runes.
func snippetText(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max]))
}
