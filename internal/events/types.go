package events

// Lifecycle events raised by the host application and its plugins.
const (
	// PluginsInitialized fires once after every enabled plugin is attached.
	PluginsInitialized = "onPluginsInitialized"

	// RenderContent fires per page segment. Target is the raw segment text,
	// params are the page's data. Listeners return the transformed text.
	RenderContent = "onRenderContent"

	// RenderLayout fires once per page. Target is the (initially empty) page
	// output, param "page" carries the page. Listeners return the output.
	RenderLayout = "onRenderLayout"

	// TwigInitialized fires after the template engine is built. Target is the
	// engine so other collaborators can extend it.
	TwigInitialized = "onTwigInitialized"
)

// Event is the value handed to listeners. It is passed by value: listeners
// communicate changes by returning a new target, never by mutating the event.
type Event struct {
	Name   string
	Target any
	Params map[string]any
}

// Param returns the named parameter or nil.
func (e Event) Param(name string) any {
	if e.Params == nil {
		return nil
	}
	return e.Params[name]
}

// StringTarget returns the target as a string, or "" when it is not one.
func (e Event) StringTarget() string {
	s, _ := e.Target.(string)
	return s
}
