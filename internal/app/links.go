package app

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/pagebuilder/internal/markdown"
	"git.home.luguber.info/inful/pagebuilder/internal/page"
)

// CheckLinks reports Markdown links that point at a route no page provides.
// Only page-like destinations are checked: absolute URLs, fragments and
// files with other extensions (images, downloads) are skipped. It is a no-op
// when the markdown plugin is not attached.
func (a *App) CheckLinks(pages []*page.Page) []string {
	conv := a.markdown.Converter()
	if conv == nil {
		return nil
	}
	known := make(map[string]bool, len(pages))
	for _, p := range pages {
		known[p.Route] = true
	}

	var warnings []string
	for _, p := range pages {
		if p.Format != page.FormatMarkdown {
			continue
		}
		for _, id := range p.SegmentIDs() {
			body, _ := p.Segment(id)
			for _, link := range conv.ExtractLinks([]byte(body)) {
				if link.Kind == markdown.LinkKindImage {
					continue
				}
				route, ok := linkRoute(linkBase(p), link.Destination)
				if !ok || known[route] {
					continue
				}
				warnings = append(warnings, fmt.Sprintf("page %q links to unknown page %q", p.Route, link.Destination))
			}
		}
	}
	return warnings
}

// linkBase is the route directory relative links of p resolve against:
// the page route itself for index files, its parent otherwise.
func linkBase(p *page.Page) string {
	stem := strings.TrimSuffix(filepath.Base(p.Path), filepath.Ext(p.Path))
	if stem == "index" {
		return "/" + p.Route
	}
	return path.Dir("/" + p.Route)
}

// linkRoute resolves a link destination against base. ok is false for
// destinations that are not page links.
func linkRoute(base, dest string) (string, bool) {
	dest = strings.TrimSpace(dest)
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "//") || strings.Contains(dest, ":") {
		return "", false
	}
	if i := strings.IndexAny(dest, "?#"); i >= 0 {
		dest = dest[:i]
	}
	switch ext := path.Ext(dest); ext {
	case ".md", ".markdown", ".html":
		dest = strings.TrimSuffix(dest, ext)
	case "":
	default:
		return "", false
	}

	var resolved string
	if strings.HasPrefix(dest, "/") {
		resolved = path.Clean(dest)
	} else {
		resolved = path.Join(base, dest)
	}
	resolved = strings.Trim(resolved, "/")
	if resolved == "index" {
		return "", true
	}
	return strings.TrimSuffix(resolved, "/index"), true
}
