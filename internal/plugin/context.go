package plugin

import (
	"log/slog"

	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/events"
	"git.home.luguber.info/inful/pagebuilder/internal/host"
	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
)

// Context gives a plugin access to the host while it attaches.
type Context struct {
	// Bus is the host's event bus.
	Bus *events.Manager

	// Config is the site configuration.
	Config *config.Config

	// Services is the host capability bundle.
	Services host.Services

	// Logger provides structured logging for plugin operations.
	Logger *slog.Logger

	// Priority is the listener priority the plugin should attach with.
	Priority int
}

// NewContext creates a plugin context. A nil logger falls back to slog.Default().
func NewContext(bus *events.Manager, cfg *config.Config, services host.Services, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		Bus:      bus,
		Config:   cfg,
		Services: services,
		Logger:   logger,
	}
}

// For returns a copy scoped to one plugin: its logger carries the plugin name
// and Priority is set to the plugin's declared priority.
func (pc *Context) For(meta PluginMetadata) *Context {
	return &Context{
		Bus:      pc.Bus,
		Config:   pc.Config,
		Services: pc.Services,
		Logger:   pc.Logger.With(logfields.Plugin(meta.Name)),
		Priority: meta.Priority,
	}
}
