// Package plugin provides the plugin contract and registry used to extend the
// page pipeline. Plugins subscribe to lifecycle events on the host's event
// bus; the registry decides which plugins are enabled and in what order they
// attach.
package plugin

import (
	"fmt"
	"slices"
)

// Plugin represents a pagebuilder plugin with metadata and an attach hook.
type Plugin interface {
	// Metadata returns the plugin's metadata (name, version, type, priority).
	Metadata() PluginMetadata

	// Attach subscribes the plugin's listeners on pc.Bus.
	// It is called once per run, before any lifecycle event is triggered.
	Attach(pc *Context) error
}

// PluginLifecycle extends Plugin with an optional release hook.
type PluginLifecycle interface {
	Plugin

	// Cleanup is called when the host shuts down.
	Cleanup() error
}

// PluginMetadata describes a plugin's identity and how it attaches.
type PluginMetadata struct {
	// Name is the unique plugin identifier (e.g., "twig", "markdown").
	Name string

	// Version is the semantic version (e.g., "v1.0.0").
	Version string

	// Type identifies the plugin category.
	Type PluginType

	// Description provides a human-readable summary of the plugin's purpose.
	Description string

	// Priority is the listener priority used when the context does not
	// override it. Higher priorities run first.
	Priority int

	// Dependencies lists other plugins that must be enabled alongside this one.
	Dependencies []string
}

// String returns a human-readable representation of the plugin metadata.
func (m PluginMetadata) String() string {
	return fmt.Sprintf("%s@%s (%s)", m.Name, m.Version, m.Type)
}

// Validate checks if the plugin metadata is valid.
func (m PluginMetadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("plugin name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("plugin version is required")
	}
	if !m.Type.IsValid() {
		return fmt.Errorf("invalid plugin type: %s", m.Type)
	}
	if slices.Contains(m.Dependencies, m.Name) {
		return fmt.Errorf("plugin %s depends on itself", m.Name)
	}
	return nil
}

// BasePlugin provides default implementations for optional lifecycle methods.
// Plugins can embed this to avoid implementing them.
type BasePlugin struct{}

// Cleanup is a no-op default implementation.
func (b *BasePlugin) Cleanup() error {
	return nil
}
