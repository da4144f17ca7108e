// Package textutil reduces pasted article markup to the visible text.
package textutil

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var tagPattern = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9-]*(\s[^<>]*)?/?>`)

const (
	noiseSelector = "script, style, noscript, iframe, svg, template, head"
	blockSelector = "p, div, li, br, h1, h2, h3, h4, h5, h6, blockquote, article, section, tr"

	// blockBreak marks the end of a block element; source newlines inside
	// a block are ordinary whitespace
	blockBreak = "\uE000"
)

// LooksLikeHTML reports whether s contains at least one markup tag
func LooksLikeHTML(s string) bool {
	return tagPattern.MatchString(s)
}

// ExtractText returns the visible text of an HTML fragment or document,
// one line per block element. Plain text is returned trimmed and otherwise
// untouched.
func ExtractText(s string) string {
	if !LooksLikeHTML(s) {
		return strings.TrimSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	doc.Find(noiseSelector).Remove()
	doc.Find(blockSelector).Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml(blockBreak)
	})

	return collapse(doc.Text())
}

func collapse(text string) string {
	var lines []string
	for _, line := range strings.Split(text, blockBreak) {
		if fields := strings.Fields(line); len(fields) > 0 {
			lines = append(lines, strings.Join(fields, " "))
		}
	}
	return strings.Join(lines, "\n")
}
