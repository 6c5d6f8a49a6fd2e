// Package markdown converts page segments written in Markdown to HTML with
// goldmark and hooks the conversion into the content-rendering event.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/pagebuilder/internal/config"
)

// Options controls how Markdown is converted.
type Options struct {
	// GFM enables GitHub Flavored Markdown (tables, strikethrough, autolinks, task lists).
	GFM bool
	// Unsafe keeps raw HTML, which templates rendered ahead of Markdown produce.
	Unsafe bool
	// HardWraps renders newlines as <br>.
	HardWraps bool
}

// OptionsFromConfig reads markdown.gfm, markdown.unsafe and markdown.hard_wraps.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		GFM:       cfg.GetBool("markdown.gfm"),
		Unsafe:    cfg.GetBool("markdown.unsafe"),
		HardWraps: cfg.GetBool("markdown.hard_wraps"),
	}
}

// Converter renders Markdown to HTML.
type Converter struct {
	md goldmark.Markdown
}

// NewConverter builds a goldmark instance for opts.
func NewConverter(opts Options) *Converter {
	var exts []goldmark.Extender
	if opts.GFM {
		exts = append(exts, extension.GFM)
	}
	var htmlOpts []renderer.Option
	if opts.Unsafe {
		htmlOpts = append(htmlOpts, html.WithUnsafe())
	}
	if opts.HardWraps {
		htmlOpts = append(htmlOpts, html.WithHardWraps())
	}

	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(htmlOpts...),
	)
	return &Converter{md: md}
}

// Convert returns the HTML for src.
func (c *Converter) Convert(src string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ParseBody parses a Markdown body (frontmatter already removed) into a goldmark AST.
func (c *Converter) ParseBody(body []byte) gmast.Node {
	return c.md.Parser().Parse(text.NewReader(body))
}
