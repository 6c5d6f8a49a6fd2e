package markdown

import (
	"context"

	"git.home.luguber.info/inful/pagebuilder/internal/events"
	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/page"
	"git.home.luguber.info/inful/pagebuilder/internal/plugin"
)

const (
	// PluginName is the registry name of the Markdown plugin.
	PluginName = "markdown"
	// DefaultPriority places Markdown after template rendering.
	DefaultPriority = 50
)

// Plugin converts content segments whose page format is "markdown".
type Plugin struct {
	plugin.BasePlugin

	converter *Converter
	detach    func()
}

func NewPlugin() *Plugin {
	return &Plugin{}
}

func (p *Plugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        PluginName,
		Version:     "v1.0.0",
		Type:        plugin.PluginTypeContent,
		Description: "Converts Markdown segments to HTML",
		Priority:    DefaultPriority,
	}
}

// Attach subscribes to onRenderContent.
func (p *Plugin) Attach(pc *plugin.Context) error {
	if pc == nil || pc.Bus == nil || pc.Config == nil {
		return ferrors.PluginError("plugin context needs a bus and a configuration").
			WithContext("plugin", PluginName).
			Build()
	}
	p.converter = NewConverter(OptionsFromConfig(pc.Config))
	detach, err := pc.Bus.Attach(events.RenderContent, p.onRenderContent, pc.Priority)
	if err != nil {
		return err
	}
	p.detach = detach
	return nil
}

// Converter returns the converter built by Attach.
func (p *Plugin) Converter() *Converter {
	return p.converter
}

func (p *Plugin) Cleanup() error {
	if p.detach != nil {
		p.detach()
		p.detach = nil
	}
	return nil
}

func (p *Plugin) onRenderContent(_ context.Context, evt events.Event) (any, error) {
	if format, _ := evt.Param("format").(string); format != page.FormatMarkdown {
		return evt.Target, nil
	}
	text, ok := evt.Target.(string)
	if !ok {
		return evt.Target, ferrors.EventError("content target is not a string").
			WithContext("event", evt.Name).
			Build()
	}
	return p.converter.Convert(text)
}

var _ plugin.PluginLifecycle = (*Plugin)(nil)
