// Package page models site pages: YAML frontmatter, named content segments and
// the metadata the renderer needs (route, layout, format).
package page

import (
	"maps"
	"path/filepath"
	"strings"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

// Content formats.
const (
	FormatMarkdown = "markdown"
	FormatRaw      = "raw"
)

// DefaultLayout is used when the frontmatter does not name a layout.
const DefaultLayout = "default"

// Page is a parsed page file.
type Page struct {
	// Path is the source file path.
	Path string
	// Route is the slash-separated route without leading or trailing slash ("" is the home page).
	Route string

	Title  string
	Layout string
	Format string
	Hidden bool

	// Data holds the frontmatter with defaults applied.
	Data map[string]any

	// Fingerprint is the mdfp content fingerprint of frontmatter and body.
	Fingerprint string

	segments map[string]string
	order    []string
}

// Parse builds a page from raw file content. route is stored as given
// (trimmed of slashes); format defaults from the extension of path.
func Parse(path, route string, content []byte) (*Page, error) {
	fm, body, _, err := SplitFrontmatter(content)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryContent, "invalid page frontmatter").
			WithContext("path", path).
			Build()
	}
	fields, err := ParseYAML(fm)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryContent, "failed to parse page frontmatter").
			WithContext("path", path).
			Build()
	}

	fingerprint, err := computeFingerprint(fields, body)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryContent, "failed to fingerprint page").
			WithContext("path", path).
			Build()
	}

	p := &Page{
		Path:        path,
		Route:       CleanRoute(route),
		Data:        applyDefaults(fields, path),
		Fingerprint: fingerprint,
	}
	p.Title, _ = p.Data["title"].(string)
	p.Layout, _ = p.Data["layout"].(string)
	p.Format, _ = p.Data["format"].(string)
	p.Hidden, _ = p.Data["hidden"].(bool)
	p.segments, p.order = SplitSegments(string(body))

	return p, nil
}

// Segment returns the raw text of the segment with the given id.
func (p *Page) Segment(id string) (string, bool) {
	s, ok := p.segments[id]
	return s, ok
}

// SegmentIDs returns the segment ids in document order.
func (p *Page) SegmentIDs() []string {
	return append([]string(nil), p.order...)
}

// Params returns a copy of the page data, suitable as event parameters.
func (p *Page) Params() map[string]any {
	out := maps.Clone(p.Data)
	if out == nil {
		out = map[string]any{}
	}
	out["route"] = p.Route
	return out
}

func applyDefaults(fields map[string]any, path string) map[string]any {
	data := maps.Clone(fields)
	if data == nil {
		data = map[string]any{}
	}
	if s, _ := data["layout"].(string); strings.TrimSpace(s) == "" {
		data["layout"] = DefaultLayout
	}
	if s, _ := data["format"].(string); strings.TrimSpace(s) == "" {
		data["format"] = formatFromPath(path)
	}
	if _, ok := data["twig"]; !ok {
		data["twig"] = true
	}
	if s, _ := data["title"].(string); s == "" {
		data["title"] = titleFromPath(path)
	}
	return data
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatRaw
	}
}

func titleFromPath(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if stem == "index" {
		stem = filepath.Base(filepath.Dir(path))
	}
	stem = strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return ""
	}
	return strings.ToUpper(stem[:1]) + stem[1:]
}

// computeFingerprint hashes the frontmatter (minus the fingerprint field) and
// body with mdfp.
func computeFingerprint(fields map[string]any, body []byte) (string, error) {
	forHash := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == mdfp.FingerprintField {
			continue
		}
		forHash[k] = v
	}

	fm := ""
	if len(forHash) > 0 {
		out, err := yaml.Marshal(forHash)
		if err != nil {
			return "", err
		}
		fm = strings.TrimSuffix(string(out), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(fm, string(body)), nil
}
