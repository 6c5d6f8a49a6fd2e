package twig

import (
	"log/slog"
	"maps"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
)

// Engine wraps a pongo2 template set bound to one Loader.
//
// Functions live in the set's globals and are private to the engine.
// Filters and tests go through pongo2's process-wide filter registry; a
// name registered by a later engine replaces the earlier one.
//
// Helpers must be added before rendering starts, that is during Init or
// from an onTwigInitialized listener. Rendering itself takes no lock, so a
// template may call back into the engine (the content function does).
type Engine struct {
	mu         sync.RWMutex
	set        *pongo2.TemplateSet
	loader     *Loader
	cache      bool
	extensions []Extension
	byName     map[string]Extension
	logger     *slog.Logger
}

// EngineOptions configures NewEngine.
type EngineOptions struct {
	// Debug disables the template cache and enables pongo2 debug output.
	Debug bool
	// Cache keeps compiled file templates in memory between renders.
	Cache  bool
	Logger *slog.Logger
}

// NewEngine creates an engine resolving templates through loader.
func NewEngine(loader *Loader, opts EngineOptions) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	set := pongo2.NewSet("pagebuilder", loader)
	set.Debug = opts.Debug
	set.Globals = pongo2.Context{}

	return &Engine{
		set:    set,
		loader: loader,
		cache:  opts.Cache && !opts.Debug,
		byName: make(map[string]Extension),
		logger: logger,
	}
}

// Loader returns the engine's loader. It never changes after construction.
func (e *Engine) Loader() *Loader {
	return e.loader
}

// TemplateSet exposes the underlying pongo2 set for collaborators that need
// lower-level access (for example from an onTwigInitialized listener).
func (e *Engine) TemplateSet() *pongo2.TemplateSet {
	return e.set
}

// Debug reports whether debug mode is on.
func (e *Engine) Debug() bool {
	return e.set.Debug
}

// CacheEnabled reports whether compiled templates are cached.
func (e *Engine) CacheEnabled() bool {
	return e.cache
}

// AddExtension registers every helper of ext. Adding two extensions with the
// same name is an error.
func (e *Engine) AddExtension(ext Extension) error {
	name := ext.Name()
	e.mu.Lock()
	if _, exists := e.byName[name]; exists {
		e.mu.Unlock()
		return ferrors.NewError(ferrors.CategoryAlreadyExists, "template extension already added").
			WithContext("extension", name).
			Build()
	}
	e.byName[name] = ext
	e.extensions = append(e.extensions, ext)
	for fname, fn := range ext.Functions() {
		e.set.Globals[fname] = fn
	}
	e.mu.Unlock()

	for fname, fn := range ext.Filters() {
		if err := e.AddFilter(fname, fn); err != nil {
			return err
		}
	}
	for tname, fn := range ext.Tests() {
		if err := e.AddTest(tname, fn); err != nil {
			return err
		}
	}

	e.logger.Debug("Template extension added",
		logfields.Extension(name),
		slog.Int("functions", len(ext.Functions())),
		slog.Int("filters", len(ext.Filters())),
		slog.Int("tests", len(ext.Tests())))
	return nil
}

// Extension returns the extension registered under name.
func (e *Engine) Extension(name string) (Extension, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ext, ok := e.byName[name]
	return ext, ok
}

// AddFunction exposes fn to templates as a callable global.
func (e *Engine) AddFunction(name string, fn any) {
	e.mu.Lock()
	e.set.Globals[name] = fn
	e.mu.Unlock()
}

// HasFunction reports whether a function (or global) named name exists.
func (e *Engine) HasFunction(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.set.Globals[name]
	return ok
}

// Filters live in one registry per process. filterOwners records which
// engine registered a name last so a takeover by another engine is logged.
var (
	filterOwnersMu sync.Mutex
	filterOwners   = map[string]*Engine{}
)

// AddFilter registers fn as filter name, replacing any existing filter.
// The last engine to register a name wins for every engine in the process.
func (e *Engine) AddFilter(name string, fn pongo2.FilterFunction) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return ferrors.ValidationError("filter needs a name and a function").Build()
	}

	filterOwnersMu.Lock()
	defer filterOwnersMu.Unlock()
	if owner, ok := filterOwners[name]; ok && owner != e {
		e.logger.Warn("Template filter replaced by another engine", "filter", name)
	}

	var err error
	if pongo2.FilterExists(name) {
		err = pongo2.ReplaceFilter(name, fn)
	} else {
		err = pongo2.RegisterFilter(name, fn)
	}
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryTemplate, "failed to register filter").
			WithContext("filter", name).
			Build()
	}
	filterOwners[name] = e
	return nil
}

// AddTest registers a boolean test (as a filter).
func (e *Engine) AddTest(name string, fn TestFunction) error {
	if fn == nil {
		return ferrors.ValidationError("test needs a function").WithContext("test", name).Build()
	}
	return e.AddFilter(name, testFilter(name, fn))
}

// Globals merges the per-render globals of all extensions, in the order the
// extensions were added.
func (e *Engine) Globals() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := map[string]any{}
	for _, ext := range e.extensions {
		maps.Copy(out, ext.Globals())
	}
	return out
}

// Render executes the named template. Errors come from pongo2 unchanged.
func (e *Engine) Render(name string, ctx pongo2.Context) (string, error) {
	var (
		tpl *pongo2.Template
		err error
	)
	if e.cache {
		tpl, err = e.set.FromCache(name)
	} else {
		tpl, err = e.set.FromFile(name)
	}
	if err != nil {
		return "", err
	}
	return tpl.Execute(ctx)
}

// RenderString compiles text as an anonymous template and executes it.
// Includes and extends inside text resolve through the engine's loader.
func (e *Engine) RenderString(text string, ctx pongo2.Context) (string, error) {
	tpl, err := e.set.FromString(text)
	if err != nil {
		return "", err
	}
	return tpl.Execute(ctx)
}

// Compile parses text once for repeated execution.
func (e *Engine) Compile(text string) (*pongo2.Template, error) {
	return e.set.FromString(text)
}

// ClearCache drops compiled templates; name-less calls clear everything.
func (e *Engine) ClearCache(names ...string) {
	e.set.CleanCache(names...)
}
