// Package host defines the services the host application exposes to plugins
// and ships the default implementations used by pagebuilder.
//
// Plugins depend on the Services capability bundle only, never on the
// application type itself.
package host

// Environment describes the request being rendered.
type Environment interface {
	Route() string
	BaseURL() string
}

// URLGenerator builds links to routes.
type URLGenerator interface {
	Generate(route string) string
	GenerateAbsolute(route string) string
}

// SlugGenerator turns arbitrary text into URL-safe slugs.
type SlugGenerator interface {
	Generate(text string) string
}

// Assets collects stylesheet and script references requested by templates.
type Assets interface {
	Add(kind AssetKind, path string)
	List(kind AssetKind) []string
	Reset()
}

// Menu exposes the site's page tree to templates.
type Menu interface {
	Items() []MenuItem
	Find(route string) (MenuItem, bool)
}

// DataRepository loads structured site data by name.
type DataRepository interface {
	Load(name string) (any, error)
	Names() ([]string, error)
}

// Translator resolves translatable messages.
type Translator interface {
	Language() string
	Translate(category, message string, params map[string]any) string
}

// Services is the capability bundle handed to plugins at construction time.
type Services interface {
	Environment() Environment
	URLGenerator() URLGenerator
	SlugGenerator() SlugGenerator
	Assets() Assets
	Menu() Menu
	DataRepository() DataRepository
	Translator() Translator
}
