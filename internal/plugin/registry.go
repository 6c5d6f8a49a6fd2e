package plugin

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

// Registry manages plugin registration and attachment.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry creates a new empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
	}
}

// Register adds a plugin to the registry.
// Returns an error if a plugin with the same name already exists.
func (r *Registry) Register(plugin Plugin) error {
	if plugin == nil {
		return fmt.Errorf("cannot register nil plugin")
	}

	metadata := plugin.Metadata()
	if err := metadata.Validate(); err != nil {
		return fmt.Errorf("invalid plugin metadata: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.plugins[metadata.Name]; exists {
		return ferrors.NewError(ferrors.CategoryAlreadyExists, "plugin already registered").
			WithContext("plugin", metadata.Name).
			WithContext("registered_version", existing.Metadata().Version).
			Build()
	}

	r.plugins[metadata.Name] = plugin
	return nil
}

// Get retrieves a plugin by name.
func (r *Registry) Get(name string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plugin, ok := r.plugins[name]
	if !ok {
		return nil, ferrors.NotFoundError("plugin not found").
			WithContext("plugin", name).
			Build()
	}
	return plugin, nil
}

// Has checks if a plugin with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.plugins[name]
	return ok
}

// List returns all registered plugins sorted by name.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, 0, len(r.plugins))
	for _, plugin := range r.plugins {
		result = append(result, plugin)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Metadata().Name < result[j].Metadata().Name
	})
	return result
}

// ListByType returns all plugins of a specific type, sorted by name.
func (r *Registry) ListByType(pluginType PluginType) []Plugin {
	var result []Plugin
	for _, plugin := range r.List() {
		if plugin.Metadata().Type == pluginType {
			result = append(result, plugin)
		}
	}
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// AttachAll attaches the enabled plugins, in the given order, each with a
// context scoped by Context.For. Unknown names and unmet dependencies fail
// before anything is attached.
func (r *Registry) AttachAll(pc *Context, enabled []string) ([]Plugin, error) {
	selected := make([]Plugin, 0, len(enabled))
	seen := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		if seen[name] {
			continue
		}
		p, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		seen[name] = true
		selected = append(selected, p)
	}

	for _, p := range selected {
		meta := p.Metadata()
		for _, dep := range meta.Dependencies {
			if !seen[dep] {
				return nil, ferrors.PluginError("plugin dependency not enabled").
					WithContext("plugin", meta.Name).
					WithContext("dependency", dep).
					Build()
			}
		}
	}

	for _, p := range selected {
		meta := p.Metadata()
		scoped := pc.For(meta)
		if err := p.Attach(scoped); err != nil {
			return nil, NewPluginError(meta.Name, "attach", err)
		}
		scoped.Logger.Debug("Plugin attached", "version", meta.Version, "priority", meta.Priority)
	}
	return selected, nil
}

// Cleanup releases every plugin implementing PluginLifecycle and joins their errors.
func Cleanup(plugins []Plugin) error {
	var errs []error
	for _, p := range plugins {
		lc, ok := p.(PluginLifecycle)
		if !ok {
			continue
		}
		if err := lc.Cleanup(); err != nil {
			errs = append(errs, NewPluginError(p.Metadata().Name, "cleanup", err))
		}
	}
	return errors.Join(errs...)
}
