// Package app assembles a site: it registers the rendering plugins, attaches
// the enabled ones to the event bus, loads pages and renders them through
// the onRenderLayout event.
package app

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/events"
	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/host"
	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
	"git.home.luguber.info/inful/pagebuilder/internal/markdown"
	"git.home.luguber.info/inful/pagebuilder/internal/metrics"
	"git.home.luguber.info/inful/pagebuilder/internal/page"
	"git.home.luguber.info/inful/pagebuilder/internal/plugin"
	"git.home.luguber.info/inful/pagebuilder/internal/twig"
)

// App owns the event bus, the host services and the attached plugins.
// Rendering is sequential: the environment route and the current page are
// shared state of one site.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	recorder metrics.Recorder

	bus      *events.Manager
	services *host.Bundle
	registry *plugin.Registry
	twig     *twig.Plugin
	markdown *markdown.Plugin

	mu       sync.Mutex
	attached []plugin.Plugin
	pages    []*page.Page
	booted   bool
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger; nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder; nil keeps the no-op recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(a *App) {
		if rec != nil {
			a.recorder = rec
		}
	}
}

// New creates an App and registers the built-in plugins. Nothing is attached
// until Boot.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, ferrors.ValidationError("configuration is required").Build()
	}
	a := &App{
		cfg:      cfg,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.assemble(); err != nil {
		return nil, err
	}
	return a, nil
}

// assemble builds a fresh bus, service bundle and plugin set. Host services
// read their files here, so assembling again picks up edited catalogs.
func (a *App) assemble() error {
	a.bus = events.NewManager(a.logger)
	a.services = host.NewBundle(a.cfg, a.logger)
	a.registry = plugin.NewRegistry()
	a.twig = twig.NewPlugin(twig.WithRecorder(a.recorder))
	a.markdown = markdown.NewPlugin()

	for _, p := range []plugin.Plugin{a.twig, a.markdown} {
		if err := a.registry.Register(p); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) Config() *config.Config           { return a.cfg }
func (a *App) Bus() *events.Manager             { return a.bus }
func (a *App) Services() *host.Bundle           { return a.services }
func (a *App) Registry() *plugin.Registry       { return a.registry }
func (a *App) Logger() *slog.Logger             { return a.logger }
func (a *App) Recorder() metrics.Recorder       { return a.recorder }
func (a *App) TwigPlugin() *twig.Plugin         { return a.twig }
func (a *App) MarkdownPlugin() *markdown.Plugin { return a.markdown }

// Attached returns the plugins attached by Boot, in attach order.
func (a *App) Attached() []plugin.Plugin {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]plugin.Plugin, len(a.attached))
	copy(out, a.attached)
	return out
}

// EnabledPlugins reads plugins.enable as a list of names.
func EnabledPlugins(cfg *config.Config) []string {
	switch v := cfg.Get("plugins.enable").(type) {
	case []string:
		return v
	case []any:
		names := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				names = append(names, s)
			}
		}
		return names
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}

// Boot attaches the enabled plugins, publishes onPluginsInitialized and
// loads the pages.
func (a *App) Boot(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.booted {
		return ferrors.PluginError("application already booted").Build()
	}

	pc := plugin.NewContext(a.bus, a.cfg, a.services, a.logger)
	attached, err := a.registry.AttachAll(pc, EnabledPlugins(a.cfg))
	if err != nil {
		return err
	}
	a.attached = attached

	if _, err := a.bus.Trigger(ctx, events.PluginsInitialized, nil, nil); err != nil {
		a.detachLocked()
		return err
	}
	if err := a.loadPagesLocked(); err != nil {
		a.detachLocked()
		return err
	}
	a.booted = true
	a.logger.Info("Site booted", "plugins", len(attached), "pages", len(a.pages))
	return nil
}

// Reload detaches the plugins, assembles new ones and boots again. Extension
// helpers, translation catalogs and data files are read anew. Accessors
// return the new bus and services afterwards.
func (a *App) Reload(ctx context.Context) error {
	a.mu.Lock()
	err := plugin.Cleanup(a.attached)
	a.attached = nil
	a.booted = false
	a.pages = nil
	if err != nil {
		a.logger.Warn("Plugin cleanup failed during reload", logfields.Error(err))
	}
	if err := a.assemble(); err != nil {
		a.mu.Unlock()
		return err
	}
	a.mu.Unlock()

	if err := a.Boot(ctx); err != nil {
		return err
	}
	a.logger.Info("Site reloaded")
	return nil
}

func (a *App) detachLocked() {
	if err := plugin.Cleanup(a.attached); err != nil {
		a.logger.Warn("Plugin cleanup failed", logfields.Error(err))
	}
	a.attached = nil
}

// ReloadPages re-reads pages.path and refreshes the menu.
func (a *App) ReloadPages() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadPagesLocked()
}

func (a *App) loadPagesLocked() error {
	pages, err := page.LoadDir(a.cfg.GetString("pages.path"))
	if err != nil {
		return err
	}
	items := make([]host.MenuItem, 0, len(pages))
	for _, p := range pages {
		items = append(items, host.MenuItem{Route: p.Route, Title: p.Title, Layout: p.Layout, Hidden: p.Hidden})
	}
	a.services.MenuList().Set(items)
	a.pages = pages
	return nil
}

// Pages returns the loaded pages sorted by route.
func (a *App) Pages() []*page.Page {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*page.Page, len(a.pages))
	copy(out, a.pages)
	return out
}

// Page looks up a loaded page by route. Slashes around route are ignored.
func (a *App) Page(route string) (*page.Page, error) {
	route = page.CleanRoute(route)
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range a.pages {
		if p.Route == route {
			return p, nil
		}
	}
	return nil, ferrors.NotFoundError("page not found").WithContext("route", route).Build()
}

// RenderPage renders p through onRenderLayout. The environment route is set
// to the page route and the asset registry starts empty.
func (a *App) RenderPage(ctx context.Context, p *page.Page) (string, error) {
	if p == nil {
		return "", ferrors.ValidationError("page is required").Build()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.booted {
		return "", ferrors.PluginError("application not booted").Build()
	}

	a.services.Env().SetRoute(p.Route)
	a.services.Assets().Reset()

	out, err := a.bus.TriggerString(ctx, events.RenderLayout, "", map[string]any{"page": p})
	if err != nil {
		a.logger.Error("Page render failed", logfields.Page(p.Route), logfields.Error(err))
		return "", err
	}
	return out, nil
}

// InvalidateTemplates drops compiled templates so edited layouts are re-read.
func (a *App) InvalidateTemplates() {
	if r := a.twig.Renderer(); r != nil {
		if engine := r.Engine(); engine != nil {
			engine.ClearCache()
		}
	}
}

// Close detaches every attached plugin.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := plugin.Cleanup(a.attached)
	a.attached = nil
	a.booted = false
	return err
}
