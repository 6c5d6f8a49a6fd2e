package twig

import (
	"context"

	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/events"
	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/page"
	"git.home.luguber.info/inful/pagebuilder/internal/plugin"
)

const (
	// PluginName is the registry name of the template plugin.
	PluginName = "twig"
	// MarkerParam gates onRenderContent: the plugin only renders segments
	// whose event carries a non-empty "twig" parameter.
	MarkerParam = "twig"
	// DefaultPriority runs the plugin ahead of content plugins such as markdown.
	DefaultPriority = 100
)

// Plugin attaches a Renderer to the host's lifecycle events.
type Plugin struct {
	plugin.BasePlugin

	opts     []Option
	cfg      *config.Config
	renderer *Renderer
	detach   []func()
}

// NewPlugin creates the plugin; opts are applied to the Renderer built in Attach.
func NewPlugin(opts ...Option) *Plugin {
	return &Plugin{opts: opts}
}

func (p *Plugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        PluginName,
		Version:     "v1.0.0",
		Type:        plugin.PluginTypeTemplate,
		Description: "Renders layouts and page content with pongo2 templates",
		Priority:    DefaultPriority,
	}
}

// Attach builds the renderer and subscribes to onPluginsInitialized,
// onRenderContent and onRenderLayout at pc.Priority.
func (p *Plugin) Attach(pc *plugin.Context) error {
	if pc == nil || pc.Bus == nil || pc.Config == nil {
		return ferrors.PluginError("plugin context needs a bus and a configuration").
			WithContext("plugin", PluginName).
			Build()
	}
	opts := append([]Option{WithLogger(pc.Logger)}, p.opts...)
	p.cfg = pc.Config
	p.renderer = NewRenderer(pc.Config, pc.Bus, pc.Services, opts...)

	for _, sub := range []struct {
		name     string
		listener events.Listener
	}{
		{events.PluginsInitialized, p.onPluginsInitialized},
		{events.RenderContent, p.onRenderContent},
		{events.RenderLayout, p.onRenderLayout},
	} {
		detach, err := pc.Bus.Attach(sub.name, sub.listener, pc.Priority)
		if err != nil {
			_ = p.Cleanup()
			return err
		}
		p.detach = append(p.detach, detach)
	}
	return nil
}

// Renderer returns the renderer built by Attach.
func (p *Plugin) Renderer() *Renderer {
	return p.renderer
}

// Cleanup detaches the plugin's listeners.
func (p *Plugin) Cleanup() error {
	for _, d := range p.detach {
		d()
	}
	p.detach = nil
	return nil
}

func (p *Plugin) onPluginsInitialized(ctx context.Context, evt events.Event) (any, error) {
	return evt.Target, p.renderer.Init(ctx)
}

func (p *Plugin) onRenderContent(_ context.Context, evt events.Event) (any, error) {
	if config.Empty(evt.Param(MarkerParam)) {
		return evt.Target, nil
	}
	text, ok := evt.Target.(string)
	if !ok {
		return evt.Target, ferrors.EventError("content target is not a string").
			WithContext("event", evt.Name).
			Build()
	}
	return p.renderer.RenderString(text, nil)
}

func (p *Plugin) onRenderLayout(_ context.Context, evt events.Event) (any, error) {
	pg, ok := evt.Param("page").(*page.Page)
	if !ok || pg == nil {
		return evt.Target, ferrors.EventError("layout event carries no page").
			WithContext("event", evt.Name).
			Build()
	}
	hostExt := p.renderer.HostExtension()
	if hostExt == nil {
		return evt.Target, ErrNotInitialized
	}
	hostExt.SetPage(pg)

	return p.renderer.Render(LayoutName(pg.Layout, p.cfg.GetString("layouts.extension")), nil)
}

var (
	_ plugin.PluginLifecycle = (*Plugin)(nil)
	_ SegmentRenderer        = (*Renderer)(nil)
)
