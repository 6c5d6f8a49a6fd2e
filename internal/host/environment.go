package host

import (
	"net/url"
	"strings"
	"sync"
)

// Env is the mutable Environment the application updates per rendered page.
type Env struct {
	mu      sync.RWMutex
	route   string
	baseURL string
	origin  string
}

// NewEnv derives the base path and origin from the configured site URL
// (for example "https://example.org/blog" → base "/blog").
func NewEnv(siteURL string) *Env {
	env := &Env{}
	siteURL = strings.TrimSpace(siteURL)
	if siteURL == "" {
		return env
	}
	u, err := url.Parse(siteURL)
	if err != nil {
		return env
	}
	env.baseURL = strings.TrimRight(u.Path, "/")
	if u.Scheme != "" && u.Host != "" {
		env.origin = u.Scheme + "://" + u.Host
	}
	return env
}

func (e *Env) Route() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.route
}

func (e *Env) BaseURL() string {
	return e.baseURL
}

// Origin returns scheme://host of the site URL, or "".
func (e *Env) Origin() string {
	return e.origin
}

// SetRoute records the route currently being rendered.
func (e *Env) SetRoute(route string) {
	e.mu.Lock()
	e.route = strings.Trim(route, "/")
	e.mu.Unlock()
}

// URLs generates links relative to the environment's base URL.
type URLs struct {
	env *Env
}

func NewURLs(env *Env) *URLs {
	return &URLs{env: env}
}

// Generate returns the site-relative URL for route.
func (u *URLs) Generate(route string) string {
	route = strings.Trim(strings.TrimSpace(route), "/")
	if route == "" {
		return u.env.BaseURL() + "/"
	}
	return u.env.BaseURL() + "/" + route
}

// GenerateAbsolute prefixes Generate with the site origin when one is known.
func (u *URLs) GenerateAbsolute(route string) string {
	return u.env.Origin() + u.Generate(route)
}
