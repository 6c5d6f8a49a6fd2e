package twig

import (
	"bytes"
	"io"
	"strings"

	"github.com/flosch/pongo2/v6"
	"golang.org/x/net/html"
)

// DefaultExcerptWords is the word count of excerpt without a parameter.
const DefaultExcerptWords = 50

// Excerpt returns the first words of the text content of an HTML fragment.
// Script and style bodies are skipped. A truncated excerpt ends with "…".
func Excerpt(fragment string, words int) string {
	if words <= 0 {
		words = DefaultExcerptWords
	}
	z := html.NewTokenizer(strings.NewReader(fragment))
	var text bytes.Buffer
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return ""
			}
			return truncateWords(text.String(), words)
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawTextTag(name) {
				skip++
			}
			text.WriteByte(' ')
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawTextTag(name) && skip > 0 {
				skip--
			}
			text.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				text.Write(z.Text())
			}
		}
	}
}

func isRawTextTag(name []byte) bool {
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

func truncateWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) <= n {
		return strings.Join(fields, " ")
	}
	return strings.Join(fields[:n], " ") + "…"
}

// filterExcerpt: {{ content()|excerpt:30 }}.
func filterExcerpt(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	words := DefaultExcerptWords
	if param != nil && param.IsInteger() {
		words = param.Integer()
	}
	return pongo2.AsValue(Excerpt(in.String(), words)), nil
}
