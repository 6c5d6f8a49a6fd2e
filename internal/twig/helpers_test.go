package twig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flosch/pongo2/v6"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/events"
	"git.home.luguber.info/inful/pagebuilder/internal/host"
)

// testSite is a throwaway site directory with a layouts tree.
type testSite struct {
	t       *testing.T
	root    string
	layouts string
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	root := t.TempDir()
	s := &testSite{t: t, root: root, layouts: filepath.Join(root, "layouts")}
	require.NoError(t, os.MkdirAll(s.layouts, 0o750))
	return s
}

func (s *testSite) write(rel, content string) string {
	s.t.Helper()
	path := filepath.Join(s.root, filepath.FromSlash(rel))
	require.NoError(s.t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(s.t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *testSite) path(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// values returns a configuration tree pointing at the site; callers adjust it
// before passing it to config.New.
func (s *testSite) values() map[string]any {
	return map[string]any{
		"site":    map[string]any{"path": s.root, "url": "https://example.org/sub", "title": "Example"},
		"theme":   "",
		"layouts": map[string]any{"path": s.layouts, "extension": ""},
		"pages":   map[string]any{"path": s.path("pages")},
		"posts":   map[string]any{"path": s.path("posts")},
		"plugins": map[string]any{"path": s.path("plugins")},
		"data":    map[string]any{"path": s.path("data")},
		"twig":    map[string]any{"debug": false, "cache": false},
	}
}

type testEnv struct {
	cfg      *config.Config
	bus      *events.Manager
	services *host.Bundle
	renderer *Renderer
}

func newTestEnv(t *testing.T, values map[string]any, opts ...Option) *testEnv {
	t.Helper()
	cfg := config.New(values)
	bus := events.NewManager(nil)
	services := host.NewBundle(cfg, nil)
	return &testEnv{
		cfg:      cfg,
		bus:      bus,
		services: services,
		renderer: NewRenderer(cfg, bus, services, opts...),
	}
}

// spyEngine counts calls before delegating.
type spyEngine struct {
	next    templateEngine
	renders int
	strings int
}

func (s *spyEngine) Render(name string, ctx pongo2.Context) (string, error) {
	s.renders++
	return s.next.Render(name, ctx)
}

func (s *spyEngine) RenderString(text string, ctx pongo2.Context) (string, error) {
	s.strings++
	return s.next.RenderString(text, ctx)
}

func installSpy(r *Renderer) *spyEngine {
	r.mu.Lock()
	defer r.mu.Unlock()
	spy := &spyEngine{next: r.exec}
	r.exec = spy
	return spy
}
