package config

// Defaults returns the built-in configuration tree. Directory values are
// relative to site.path (or prefixed with @site) and resolved by Load.
func Defaults() map[string]any {
	return map[string]any{
		"site": map[string]any{
			"path":     "",
			"url":      "",
			"language": "en",
			"title":    "",
		},
		"theme": "",
		"layouts": map[string]any{
			"path":      "@site/layouts",
			"extension": "html",
		},
		"pages":        map[string]any{"path": "@site/pages"},
		"posts":        map[string]any{"path": "@site/posts"},
		"plugins":      map[string]any{"path": "@site/plugins", "enable": []any{"twig", "markdown"}},
		"data":         map[string]any{"path": "@site/data"},
		"translations": map[string]any{"path": "@site/translations"},
		"twig": map[string]any{
			"debug": false,
			"cache": false,
			"extend": map[string]any{
				"functions": "@site/twig/functions",
				"filters":   "@site/twig/filters",
				"tests":     "@site/twig/tests",
			},
		},
		"markdown": map[string]any{
			"gfm":        true,
			"unsafe":     true,
			"hard_wraps": false,
		},
		"build": map[string]any{"output": "@site/public"},
		"logging": map[string]any{
			"level":  "info",
			"format": "text",
		},
	}
}
