package twig

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flosch/pongo2/v6"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagebuilder/internal/events"
	"git.home.luguber.info/inful/pagebuilder/internal/page"
)

func TestSearchPaths(t *testing.T) {
	layouts := filepath.FromSlash("/site/layouts")
	tests := []struct {
		theme string
		want  []string
	}{
		{theme: "", want: []string{layouts}},
		{theme: "default", want: []string{filepath.Join(layouts, "default")}},
		{theme: "customX", want: []string{filepath.Join(layouts, "customX"), filepath.Join(layouts, "default")}},
	}
	for _, tt := range tests {
		t.Run("theme="+tt.theme, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, SearchPaths(layouts, tt.theme)); diff != "" {
				t.Errorf("SearchPaths mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInitSearchPathWithoutTheme(t *testing.T) {
	site := newTestSite(t)
	site.write("layouts/page.html", "root layout")

	env := newTestEnv(t, site.values())
	require.NoError(t, env.renderer.Init(context.Background()))

	assert.Equal(t, []string{site.layouts}, env.renderer.Engine().Loader().Paths())
	out, err := env.renderer.Render("page.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "root layout", out)
}

func TestInitSearchPathDefaultTheme(t *testing.T) {
	site := newTestSite(t)
	site.write("layouts/default/page.html", "default layout")

	values := site.values()
	values["theme"] = "default"
	env := newTestEnv(t, values)
	require.NoError(t, env.renderer.Init(context.Background()))

	assert.Equal(t, []string{filepath.Join(site.layouts, "default")}, env.renderer.Engine().Loader().Paths())
}

func TestInitCustomThemeFallsBackToDefault(t *testing.T) {
	site := newTestSite(t)
	site.write("layouts/customX/page.html", "custom page")
	site.write("layouts/default/page.html", "default page")
	site.write("layouts/default/only-default.html", "from default")

	values := site.values()
	values["theme"] = "customX"
	env := newTestEnv(t, values)
	require.NoError(t, env.renderer.Init(context.Background()))

	assert.Equal(t,
		[]string{filepath.Join(site.layouts, "customX"), filepath.Join(site.layouts, "default")},
		env.renderer.Engine().Loader().Paths())

	out, err := env.renderer.Render("page.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "custom page", out)

	out, err = env.renderer.Render("only-default.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "from default", out)
}

func TestInitFailsOnMissingSearchPath(t *testing.T) {
	site := newTestSite(t)
	values := site.values()
	values["theme"] = "missing"

	env := newTestEnv(t, values)
	err := env.renderer.Init(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateUninitialized, env.renderer.State())
	assert.Nil(t, env.renderer.Engine())

	// Fixing the directories makes a retry succeed.
	require.NoError(t, os.MkdirAll(filepath.Join(site.layouts, "missing"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(site.layouts, "default"), 0o750))
	require.NoError(t, env.renderer.Init(context.Background()))
	assert.Equal(t, StateReady, env.renderer.State())
}

func TestInitFailsWithoutLayoutsPath(t *testing.T) {
	site := newTestSite(t)
	values := site.values()
	values["layouts"] = map[string]any{"path": ""}

	env := newTestEnv(t, values)
	require.Error(t, env.renderer.Init(context.Background()))
	assert.False(t, env.renderer.Initialized())
}

func TestInitTwiceFailsFast(t *testing.T) {
	site := newTestSite(t)
	env := newTestEnv(t, site.values())

	require.NoError(t, env.renderer.Init(context.Background()))
	first := env.renderer.Engine()

	err := env.renderer.Init(context.Background())
	require.ErrorIs(t, err, ErrAlreadyInitialized)
	assert.Same(t, first, env.renderer.Engine())
	assert.Equal(t, StateReady, env.renderer.State())
}

func TestRenderBeforeInit(t *testing.T) {
	site := newTestSite(t)
	env := newTestEnv(t, site.values())

	_, err := env.renderer.Render("page.html", nil)
	require.ErrorIs(t, err, ErrNotInitialized)

	_, err = env.renderer.RenderString("{{ 1 }}", nil)
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestInitPublishesEngine(t *testing.T) {
	site := newTestSite(t)
	env := newTestEnv(t, site.values())

	var published any
	_, err := env.bus.Attach(events.TwigInitialized, func(_ context.Context, evt events.Event) (any, error) {
		published = evt.Target
		engine := evt.Target.(*Engine)
		engine.AddFunction("answer", func() int { return 42 })
		return evt.Target, nil
	}, 0)
	require.NoError(t, err)

	require.NoError(t, env.renderer.Init(context.Background()))
	assert.Same(t, env.renderer.Engine(), published)

	out, err := env.renderer.RenderString("{{ answer() }}", nil)
	require.NoError(t, err)
	assert.Equal(t, "42", out)
}

func TestRenderStringEmptySkipsEngine(t *testing.T) {
	site := newTestSite(t)
	env := newTestEnv(t, site.values())
	require.NoError(t, env.renderer.Init(context.Background()))

	spy := installSpy(env.renderer)
	gets := env.renderer.Engine().Loader().Gets()

	out, err := env.renderer.RenderString("", nil)
	require.NoError(t, err)
	assert.Equal(t, "", out)
	assert.Zero(t, spy.strings)
	assert.Zero(t, spy.renders)
	assert.Equal(t, gets, env.renderer.Engine().Loader().Gets())
}

func TestRenderStringKeepsLoader(t *testing.T) {
	site := newTestSite(t)
	site.write("layouts/page.html", "file {{ route }}")
	env := newTestEnv(t, site.values())
	require.NoError(t, env.renderer.Init(context.Background()))

	loader := env.renderer.Engine().Loader()
	paths := loader.Paths()

	out, err := env.renderer.RenderString("Hello {{ name }}", map[string]any{"name": "World"})
	require.NoError(t, err)
	assert.Equal(t, "Hello World", out)

	assert.Same(t, loader, env.renderer.Engine().Loader())
	assert.Equal(t, paths, env.renderer.Engine().Loader().Paths())

	out, err = env.renderer.Render("page.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "file ", out)
}

func TestRenderStringIncludesThroughLoader(t *testing.T) {
	site := newTestSite(t)
	site.write("layouts/partial.html", "partial")
	site.write("pages/snippet.html", "snippet")
	env := newTestEnv(t, site.values())
	require.NoError(t, env.renderer.Init(context.Background()))

	out, err := env.renderer.RenderString(`{% include "partial.html" %}+{% include "@page/snippet.html" %}+{% include "page:snippet.html" %}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "partial+snippet+snippet", out)
}

func TestRenderFixedContextWins(t *testing.T) {
	site := newTestSite(t)
	site.write("layouts/customX/ctx.html", "{{ foo }}|{{ route }}|{{ baseUrl }}|{{ theme }}")
	require.NoError(t, os.MkdirAll(filepath.Join(site.layouts, "default"), 0o750))

	values := site.values()
	values["theme"] = "customX"
	env := newTestEnv(t, values)
	env.services.Env().SetRoute("blog/post")
	require.NoError(t, env.renderer.Init(context.Background()))

	out, err := env.renderer.Render("ctx.html", map[string]any{"foo": "bar"})
	require.NoError(t, err)
	assert.Equal(t, "bar|blog/post|/sub|customX", out)

	out, err = env.renderer.Render("ctx.html", map[string]any{
		"foo":     "bar",
		"route":   "caller",
		"baseUrl": "caller",
		"theme":   "caller",
	})
	require.NoError(t, err)
	assert.Equal(t, "bar|blog/post|/sub|customX", out)
}

func TestRenderEngineErrorsPassThrough(t *testing.T) {
	site := newTestSite(t)
	env := newTestEnv(t, site.values())
	require.NoError(t, env.renderer.Init(context.Background()))

	_, err := env.renderer.Render("missing.html", nil)
	require.Error(t, err)
	var perr *pongo2.Error
	assert.True(t, errors.As(err, &perr), "expected a pongo2 error, got %T", err)

	_, err = env.renderer.RenderString("{{ value|no_such_filter }}", nil)
	require.Error(t, err)
	assert.True(t, errors.As(err, &perr), "expected a pongo2 error, got %T", err)
}

func TestNamespacesSkipUnreadableDirs(t *testing.T) {
	site := newTestSite(t)
	site.write("pages/a.html", "a")

	env := newTestEnv(t, site.values())
	require.NoError(t, env.renderer.Init(context.Background()))

	// posts and plugins directories do not exist.
	assert.Equal(t, []string{"page", "site", "widget"}, env.renderer.Engine().Loader().Namespaces())

	_, err := env.renderer.RenderString(`{% include "@post/x.html" %}`, nil)
	require.Error(t, err)
}

func TestDebugMode(t *testing.T) {
	site := newTestSite(t)
	values := site.values()
	values["twig"] = map[string]any{"debug": true}
	env := newTestEnv(t, values)
	require.NoError(t, env.renderer.Init(context.Background()))

	engine := env.renderer.Engine()
	assert.True(t, engine.Debug())
	assert.False(t, engine.CacheEnabled())
	_, ok := engine.Extension(DebugExtensionName)
	assert.True(t, ok)

	out, err := env.renderer.RenderString("{{ dump(x) }}", map[string]any{"x": map[string]any{"a": 1}})
	require.NoError(t, err)
	assert.Equal(t, `<pre class="dump">a: 1</pre>`, out)

	out, err = env.renderer.RenderString("{{ dump() }}", map[string]any{"x": map[string]any{"a": 1}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `<pre class="dump">`))
	assert.Contains(t, out, "x:\n    a: 1")
	assert.Contains(t, out, "route:")
	assert.Contains(t, out, "theme:")
	assert.NotContains(t, out, "dump:")
}

func TestNoDebugExtensionByDefault(t *testing.T) {
	site := newTestSite(t)
	env := newTestEnv(t, site.values())
	require.NoError(t, env.renderer.Init(context.Background()))

	assert.False(t, env.renderer.Engine().Debug())
	assert.False(t, env.renderer.Engine().HasFunction("dump"))
}

func TestCacheSetting(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{name: "false", value: false, want: false},
		{name: "empty", value: "", want: false},
		{name: "true", value: true, want: true},
		{name: "string false", value: "false", want: false},
		{name: "directory", value: "cache/twig", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := newTestSite(t)
			value := tt.value
			if s, ok := value.(string); ok && s == "cache/twig" {
				value = site.path(s)
			}
			values := site.values()
			values["twig"] = map[string]any{"cache": value}

			env := newTestEnv(t, values)
			require.NoError(t, env.renderer.Init(context.Background()))
			assert.Equal(t, tt.want, env.renderer.Engine().CacheEnabled())

			if tt.name == "directory" {
				info, err := os.Stat(site.path("cache/twig"))
				require.NoError(t, err)
				assert.True(t, info.IsDir())
			}
		})
	}
}

func TestCachedTemplatesClear(t *testing.T) {
	site := newTestSite(t)
	path := site.write("layouts/page.html", "v1")
	values := site.values()
	values["twig"] = map[string]any{"cache": true}
	env := newTestEnv(t, values)
	require.NoError(t, env.renderer.Init(context.Background()))

	out, err := env.renderer.Render("page.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "v1", out)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o600))
	out, err = env.renderer.Render("page.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "v1", out)

	env.renderer.Engine().ClearCache()
	out, err = env.renderer.Render("page.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "v2", out)
}

func TestRenderPageSegment(t *testing.T) {
	site := newTestSite(t)
	env := newTestEnv(t, site.values())

	var params map[string]any
	_, err := env.bus.Attach(events.RenderContent, func(_ context.Context, evt events.Event) (any, error) {
		params = evt.Params
		return "<" + evt.StringTarget() + ">", nil
	}, 0)
	require.NoError(t, err)

	p, err := page.Parse("about.md", "about", []byte("---\ntitle: About\n---\nIntro\n--- side ---\nAside\n"))
	require.NoError(t, err)

	out, err := env.renderer.RenderPageSegment(context.Background(), "side", p)
	require.NoError(t, err)
	assert.Equal(t, "<Aside>", out)
	assert.Equal(t, "About", params["title"])
	assert.Equal(t, "about", params["route"])

	out, err = env.renderer.RenderPageSegment(context.Background(), "nope", p)
	require.NoError(t, err)
	assert.Equal(t, "<>", out)

	_, err = env.renderer.RenderPageSegment(context.Background(), "side", nil)
	require.Error(t, err)
}

func TestLayoutName(t *testing.T) {
	assert.Equal(t, "default.twig", LayoutName("default", "twig"))
	assert.Equal(t, "default", LayoutName("default", ""))
	assert.Equal(t, "default", LayoutName("default", "   "))
	assert.Equal(t, "blog.html", LayoutName("blog", " html "))
}
