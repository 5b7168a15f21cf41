package search

import (
	"regexp"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

var (
	htmlTagRegex   = regexp.MustCompile(`(?s)<\s*/?\s*[a-zA-Z][^>]*>`)
	blankLineRegex = regexp.MustCompile(`\n{3,}`)
)

// Normalizer turns search content into bounded markdown
type Normalizer struct {
	maxChars  int
	converter *md.Converter
}

// NewNormalizer creates a normalizer; maxChars <= 0 disables truncation
func NewNormalizer(maxChars int) *Normalizer {
	return &Normalizer{
		maxChars:  maxChars,
		converter: md.NewConverter("", true, nil),
	}
}

// Content converts HTML to markdown, collapses blank runs and truncates
func (n *Normalizer) Content(content string) string {
	content = strings.TrimSpace(content)
	if htmlTagRegex.MatchString(content) {
		if converted, err := n.converter.ConvertString(content); err == nil {
			content = converted
		}
	}
	content = blankLineRegex.ReplaceAllString(content, "\n\n")
	return n.truncate(strings.TrimSpace(content))
}

func (n *Normalizer) truncate(s string) string {
	if n.maxChars <= 0 || utf8.RuneCountInString(s) <= n.maxChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:n.maxChars]) + "..."
}
