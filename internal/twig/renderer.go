// Package twig connects the page-rendering lifecycle to the pongo2 template
// engine (Twig/Django syntax).
//
// The Renderer builds the engine from configuration (search paths, namespaces,
// extensions) and offers three operations: Render a named template,
// RenderString an inline template and RenderPageSegment. Plugin glues them to
// the host's event bus.
package twig

import (
	"context"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/flosch/pongo2/v6"

	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/events"
	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/host"
	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
	"git.home.luguber.info/inful/pagebuilder/internal/metrics"
	"git.home.luguber.info/inful/pagebuilder/internal/page"
)

// DefaultTheme is the theme every other theme falls back to.
const DefaultTheme = "default"

// Namespaces read from configuration, in registration order.
var configNamespaces = []struct {
	name string
	key  string
}{
	{"plugin", "plugins.path"},
	{"page", "pages.path"},
	{"post", "posts.path"},
	{"site", "site.path"},
}

// WidgetNamespace maps to WidgetsFS unless overridden with WithWidgets.
const WidgetNamespace = "widget"

// State is the renderer's initialization state.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyInitialized is returned by a second Init.
	ErrAlreadyInitialized = ferrors.PluginError("template renderer already initialized").Build()
	// ErrNotInitialized is returned when rendering before Init completed.
	ErrNotInitialized = ferrors.PluginError("template renderer not initialized").Build()
)

// templateEngine is the part of Engine the render operations use.
type templateEngine interface {
	Render(name string, ctx pongo2.Context) (string, error)
	RenderString(text string, ctx pongo2.Context) (string, error)
}

// Renderer owns one template engine and renders templates, strings and page
// segments with it.
type Renderer struct {
	cfg      *config.Config
	bus      *events.Manager
	services host.Services
	logger   *slog.Logger
	recorder metrics.Recorder
	widgets  fs.FS

	state atomic.Int32

	mu     sync.RWMutex
	engine *Engine
	exec   templateEngine
	host   *HostExtension
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Renderer) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// WithWidgets replaces the built-in widget templates.
func WithWidgets(fsys fs.FS) Option {
	return func(r *Renderer) {
		r.widgets = fsys
	}
}

// NewRenderer creates an uninitialized renderer. A nil services bundle is
// replaced by host.NewBundle(cfg).
func NewRenderer(cfg *config.Config, bus *events.Manager, services host.Services, opts ...Option) *Renderer {
	r := &Renderer{
		cfg:      cfg,
		bus:      bus,
		services: services,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		widgets:  WidgetsFS,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.services == nil {
		r.services = host.NewBundle(cfg, r.logger)
	}
	return r
}

// State returns the current initialization state.
func (r *Renderer) State() State {
	return State(r.state.Load())
}

// Initialized reports whether Init completed.
func (r *Renderer) Initialized() bool {
	return r.State() == StateReady
}

// Engine returns the engine, or nil before Init completed.
func (r *Renderer) Engine() *Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.engine
}

// HostExtension returns the host extension, or nil before Init completed.
func (r *Renderer) HostExtension() *HostExtension {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.host
}

// SearchPaths returns the template directories for theme: the layout
// directory itself without a theme, <layouts>/default for the default theme,
// and <layouts>/<theme> followed by <layouts>/default otherwise.
func SearchPaths(layoutDir, theme string) []string {
	switch theme {
	case "":
		return []string{layoutDir}
	case DefaultTheme:
		return []string{filepath.Join(layoutDir, DefaultTheme)}
	default:
		return []string{filepath.Join(layoutDir, theme), filepath.Join(layoutDir, DefaultTheme)}
	}
}

// LayoutName appends the configured layout extension, when any, to layout.
func LayoutName(layout, extension string) string {
	extension = strings.TrimSpace(extension)
	if extension == "" {
		return layout
	}
	return layout + "." + extension
}

// Init builds the template engine and publishes onTwigInitialized with the
// engine as target. It runs once: later calls return ErrAlreadyInitialized.
// A failed Init leaves the renderer uninitialized.
func (r *Renderer) Init(ctx context.Context) (err error) {
	if !r.state.CompareAndSwap(int32(StateUninitialized), int32(StateInitializing)) {
		return ErrAlreadyInitialized
	}
	defer func() {
		if err != nil && r.State() == StateInitializing {
			r.state.Store(int32(StateUninitialized))
		}
	}()

	engine, hostExt, err := r.buildEngine()
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.engine = engine
	r.exec = engine
	r.host = hostExt
	r.mu.Unlock()
	r.state.Store(int32(StateReady))

	r.logger.Info("Template engine initialized",
		logfields.Theme(r.cfg.GetString("theme")),
		slog.Any("paths", engine.Loader().Paths()),
		slog.Any("namespaces", engine.Loader().Namespaces()),
		slog.Bool("debug", engine.Debug()),
		slog.Bool("cache", engine.CacheEnabled()))

	if r.bus != nil {
		if _, err := r.bus.Trigger(ctx, events.TwigInitialized, engine, nil); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) buildEngine() (*Engine, *HostExtension, error) {
	theme := ""
	if !r.cfg.IsEmpty("theme") {
		theme = r.cfg.GetString("theme")
	}
	layoutDir := strings.TrimSpace(r.cfg.GetString("layouts.path"))
	if layoutDir == "" {
		return nil, nil, ferrors.TemplateError("layouts.path is not configured").Build()
	}
	loader, err := NewLoader(SearchPaths(layoutDir, theme))
	if err != nil {
		return nil, nil, err
	}
	for _, ns := range configNamespaces {
		dir := r.cfg.GetString(ns.key)
		if !loader.AddNamespace(ns.name, dir) {
			r.logger.Debug("Template namespace skipped", logfields.Namespace(ns.name), logfields.Path(dir))
		}
	}
	if r.widgets != nil {
		loader.AddNamespaceFS(WidgetNamespace, r.widgets)
	}

	debug := !r.cfg.IsEmpty("twig.debug")
	engine := NewEngine(loader, EngineOptions{
		Debug:  debug,
		Cache:  r.cacheEnabled(),
		Logger: r.logger,
	})

	if debug {
		if err := engine.AddExtension(DebugExtension{}); err != nil {
			return nil, nil, err
		}
	}

	hostExt := NewHostExtension(r.services, r.cfg, r)
	if err := engine.AddExtension(hostExt); err != nil {
		return nil, nil, err
	}

	if !r.cfg.IsEmpty("twig.extend") {
		discovered, err := Discover(engine,
			r.cfg.GetString("twig.extend.functions"),
			r.cfg.GetString("twig.extend.filters"),
			r.cfg.GetString("twig.extend.tests"))
		if err != nil {
			return nil, nil, err
		}
		if err := engine.AddExtension(discovered); err != nil {
			return nil, nil, err
		}
		for _, kind := range []ExtensionKind{KindFunction, KindFilter, KindTest} {
			r.recorder.AddExtensions(string(kind), discovered.Count(kind))
		}
	}

	return engine, hostExt, nil
}

// cacheEnabled interprets twig.cache: empty or false disables the compiled
// template cache, true enables it, and a directory enables it and makes sure
// the directory exists.
func (r *Renderer) cacheEnabled() bool {
	if r.cfg.IsEmpty("twig.cache") {
		return false
	}
	raw := strings.TrimSpace(r.cfg.GetString("twig.cache"))
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if err := os.MkdirAll(filepath.Clean(raw), 0o750); err != nil {
		r.logger.Warn("Template cache directory unavailable, caching in memory only",
			logfields.Path(raw), logfields.Error(err))
		return true
	}
	r.logger.Debug("Template cache enabled", logfields.Path(raw))
	return true
}

func (r *Renderer) ready() (templateEngine, *Engine, error) {
	if r.State() != StateReady {
		return nil, nil, ErrNotInitialized
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.exec, r.engine, nil
}

// fixedContext is added to every render and wins over caller values.
func (r *Renderer) fixedContext() pongo2.Context {
	env := r.services.Environment()
	return pongo2.Context{
		"route":   env.Route(),
		"baseUrl": env.BaseURL(),
		"theme":   r.cfg.GetString("theme"),
	}
}

func (r *Renderer) context(engine *Engine, extra map[string]any) pongo2.Context {
	ctx := pongo2.Context(engine.Globals())
	maps.Copy(ctx, extra)
	maps.Copy(ctx, r.fixedContext())
	if engine.Debug() {
		ctx["dump"] = contextDump(ctx)
	}
	return ctx
}

// Render renders the named template with extra merged under the fixed
// context. Engine errors are returned as they are.
func (r *Renderer) Render(name string, extra map[string]any) (string, error) {
	exec, engine, err := r.ready()
	if err != nil {
		return "", err
	}
	start := time.Now()
	out, err := exec.Render(name, r.context(engine, extra))
	r.observe(metrics.RenderTemplate, start, err)
	if err != nil {
		r.logger.Debug("Template render failed", logfields.Template(name), logfields.Error(err))
	}
	return out, err
}

// RenderString renders text as an inline template. Empty text is returned
// without touching the engine.
func (r *Renderer) RenderString(text string, extra map[string]any) (string, error) {
	if text == "" {
		r.recorder.IncRenderResult(metrics.RenderString, metrics.ResultSkipped)
		return text, nil
	}
	exec, engine, err := r.ready()
	if err != nil {
		return "", err
	}
	start := time.Now()
	out, err := exec.RenderString(text, r.context(engine, extra))
	r.observe(metrics.RenderString, start, err)
	return out, err
}

// RenderPageSegment publishes onRenderContent with the raw segment as target
// and the page data as params, and returns the text the listeners hand back.
// An unknown segment renders as the empty string.
func (r *Renderer) RenderPageSegment(ctx context.Context, segmentID string, p *page.Page) (string, error) {
	if p == nil {
		return "", ferrors.ValidationError("page is required").
			WithContext("segment", segmentID).
			Build()
	}
	segment, _ := p.Segment(segmentID)
	if r.bus == nil {
		return segment, nil
	}

	start := time.Now()
	out, err := r.bus.TriggerString(ctx, events.RenderContent, segment, p.Params())
	r.observe(metrics.RenderSegment, start, err)
	if err != nil {
		r.logger.Debug("Segment render failed",
			logfields.Page(p.Route), logfields.Segment(segmentID), logfields.Error(err))
	}
	return out, err
}

func (r *Renderer) observe(kind metrics.RenderKind, start time.Time, err error) {
	r.recorder.ObserveRenderDuration(kind, time.Since(start))
	r.recorder.IncRenderResult(kind, metrics.ResultOf(err))
}
