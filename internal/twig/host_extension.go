package twig

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"

	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/host"
	"git.home.luguber.info/inful/pagebuilder/internal/page"
)

// HostExtensionName is the name the host extension registers under.
const HostExtensionName = "host"

// SegmentRenderer renders one content segment of a page.
type SegmentRenderer interface {
	RenderPageSegment(ctx context.Context, segmentID string, p *page.Page) (string, error)
}

// HostExtension exposes host services to templates.
//
// Functions: url, absurl, content, data, translate, menu, breadcrumb,
// addcss, addjs, assets. Filters: slugify, t, sanitize. Tests: current.
// Globals: page, site.
type HostExtension struct {
	services host.Services
	cfg      *config.Config
	segments SegmentRenderer
	policy   *bluemonday.Policy

	mu   sync.RWMutex
	page *page.Page
}

// NewHostExtension binds the extension to services. segments may be nil, in
// which case content() renders nothing.
func NewHostExtension(services host.Services, cfg *config.Config, segments SegmentRenderer) *HostExtension {
	return &HostExtension{
		services: services,
		cfg:      cfg,
		segments: segments,
		policy:   bluemonday.UGCPolicy(),
	}
}

func (h *HostExtension) Name() string { return HostExtensionName }

// SetPage makes p the current page seen by templates.
func (h *HostExtension) SetPage(p *page.Page) {
	h.mu.Lock()
	h.page = p
	h.mu.Unlock()
}

// Page returns the current page, or nil.
func (h *HostExtension) Page() *page.Page {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.page
}

func (h *HostExtension) Functions() map[string]any {
	return map[string]any{
		"url":        h.url,
		"absurl":     h.absURL,
		"content":    h.content,
		"data":       h.data,
		"translate":  h.translate,
		"menu":       h.menu,
		"breadcrumb": h.breadcrumb,
		"addcss":     h.addAsset(host.AssetCSS),
		"addjs":      h.addAsset(host.AssetJS),
		"assets":     h.assets,
	}
}

func (h *HostExtension) Filters() map[string]pongo2.FilterFunction {
	return map[string]pongo2.FilterFunction{
		"slugify":  h.filterSlugify,
		"t":        h.filterTranslate,
		"sanitize": h.filterSanitize,
		"excerpt":  filterExcerpt,
	}
}

func (h *HostExtension) Tests() map[string]TestFunction {
	return map[string]TestFunction{
		"current": h.testCurrent,
	}
}

func (h *HostExtension) Globals() map[string]any {
	return map[string]any{
		"page": h.pageView(),
		"site": h.siteView(),
	}
}

func (h *HostExtension) url(route *pongo2.Value) string {
	return h.services.URLGenerator().Generate(route.String())
}

func (h *HostExtension) absURL(route *pongo2.Value) string {
	return h.services.URLGenerator().GenerateAbsolute(route.String())
}

// content renders a segment of the current page. The output is trusted HTML.
func (h *HostExtension) content(args ...*pongo2.Value) (*pongo2.Value, error) {
	id := page.DefaultSegment
	if len(args) > 0 && args[0].String() != "" {
		id = args[0].String()
	}
	p := h.Page()
	if p == nil || h.segments == nil {
		return pongo2.AsSafeValue(""), nil
	}
	out, err := h.segments.RenderPageSegment(context.Background(), id, p)
	if err != nil {
		return nil, err
	}
	return pongo2.AsSafeValue(out), nil
}

func (h *HostExtension) data(name *pongo2.Value) (any, error) {
	return h.services.DataRepository().Load(name.String())
}

// translate(category, message[, params]).
func (h *HostExtension) translate(args ...*pongo2.Value) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("translate expects a category and a message")
	}
	var params map[string]any
	if len(args) > 2 {
		params, _ = args[2].Interface().(map[string]any)
	}
	return h.services.Translator().Translate(args[0].String(), args[1].String(), params), nil
}

func (h *HostExtension) menu() []host.MenuItem {
	return h.services.Menu().Items()
}

// breadcrumb lists the menu items on the path to the current route, home first.
func (h *HostExtension) breadcrumb() []host.MenuItem {
	route := h.services.Environment().Route()
	menu := h.services.Menu()

	var trail []host.MenuItem
	if home, ok := menu.Find(""); ok {
		trail = append(trail, home)
	}
	if route == "" {
		return trail
	}
	parts := strings.Split(route, "/")
	for i := range parts {
		if item, ok := menu.Find(strings.Join(parts[:i+1], "/")); ok {
			trail = append(trail, item)
		}
	}
	return trail
}

func (h *HostExtension) addAsset(kind host.AssetKind) func(*pongo2.Value) string {
	return func(path *pongo2.Value) string {
		h.services.Assets().Add(kind, path.String())
		return ""
	}
}

func (h *HostExtension) assets(kind *pongo2.Value) []string {
	return h.services.Assets().List(host.AssetKind(kind.String()))
}

func (h *HostExtension) filterSlugify(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(h.services.SlugGenerator().Generate(in.String())), nil
}

// filterTranslate: {{ "Read more"|t }} or {{ "Read more"|t:"blog" }}.
func (h *HostExtension) filterTranslate(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	category := "app"
	if param != nil && param.String() != "" {
		category = param.String()
	}
	return pongo2.AsValue(h.services.Translator().Translate(category, in.String(), nil)), nil
}

func (h *HostExtension) filterSanitize(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsSafeValue(h.policy.Sanitize(in.String())), nil
}

func (h *HostExtension) testCurrent(in, _ *pongo2.Value) (bool, error) {
	return strings.Trim(in.String(), "/") == h.services.Environment().Route(), nil
}

func (h *HostExtension) pageView() map[string]any {
	p := h.Page()
	if p == nil {
		return map[string]any{}
	}
	view := p.Params()
	view["title"] = p.Title
	view["layout"] = p.Layout
	view["format"] = p.Format
	view["segments"] = p.SegmentIDs()
	view["fingerprint"] = p.Fingerprint
	return view
}

func (h *HostExtension) siteView() map[string]any {
	view := map[string]any{
		"title":    h.cfg.GetString("site.title"),
		"url":      h.cfg.GetString("site.url"),
		"language": h.services.Translator().Language(),
		"theme":    h.cfg.GetString("theme"),
		"baseUrl":  h.services.Environment().BaseURL(),
	}
	if names, err := h.services.DataRepository().Names(); err == nil {
		view["data"] = names
	}
	return view
}

var _ Extension = (*HostExtension)(nil)
