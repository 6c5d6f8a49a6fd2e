package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagebuilder/internal/app"
	"git.home.luguber.info/inful/pagebuilder/internal/config"
)

func writeSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"pagebuilder.yaml":     "site:\n  url: https://example.org/\n  title: Example\n",
		"layouts/default.html": "<h1>{{ page.title }}</h1>{{ content() }}",
		"pages/index.md":       "---\ntitle: Home\n---\nWelcome to *{{ site.title }}*\n",
		"pages/about.md":       "---\ntitle: About\n---\nAbout us\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return root
}

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli, kong.Vars{"version": "test"}, kong.Bind(&Global{}), kong.Exit(func(int) {}))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	return cli, kctx
}

func TestParseDefaults(t *testing.T) {
	cli, kctx := parse(t, "render")
	assert.Equal(t, "render", kctx.Command())
	assert.Equal(t, "pagebuilder.yaml", filepath.Base(cli.Config))
	assert.Empty(t, cli.Render.Route)

	cli, kctx = parse(t, "-v", "watch", "--metrics-addr", ":9102")
	assert.Equal(t, "watch", kctx.Command())
	assert.True(t, cli.Verbose)
	assert.Equal(t, ":9102", cli.Watch.MetricsAddr)
	assert.Equal(t, "300ms", cli.Watch.Quiet.String())
}

func TestRenderCommand(t *testing.T) {
	root := writeSite(t)
	cli, kctx := parse(t, "-c", filepath.Join(root, "pagebuilder.yaml"), "render", "about")

	var buf bytes.Buffer
	cli.Render.out = &buf
	require.NoError(t, kctx.Run(cli))
	assert.Equal(t, "<h1>About</h1><p>About us</p>\n", buf.String())
}

func TestRenderCommandUnknownPage(t *testing.T) {
	root := writeSite(t)
	cli, kctx := parse(t, "-c", filepath.Join(root, "pagebuilder.yaml"), "render", "nope")
	cli.Render.out = &bytes.Buffer{}
	require.Error(t, kctx.Run(cli))
}

func TestBuildCommand(t *testing.T) {
	root := writeSite(t)
	out := filepath.Join(t.TempDir(), "out")
	cli, kctx := parse(t, "-c", filepath.Join(root, "pagebuilder.yaml"), "build", "-o", out)
	require.NoError(t, kctx.Run(cli))

	data, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<h1>Home</h1><p>Welcome to <em>Example</em></p>\n", string(data))
	assert.FileExists(t, filepath.Join(out, "about", "index.html"))
}

func TestMissingConfig(t *testing.T) {
	cli, kctx := parse(t, "-c", filepath.Join(t.TempDir(), "absent.yaml"), "build")
	require.Error(t, kctx.Run(cli))
}

func TestWatchDirs(t *testing.T) {
	cfg, err := config.Parse([]byte("twig:\n  extend:\n    functions: \"\"\n    filters: \"\"\n    tests: \"\"\n"), "/site")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/site/layouts", "/site/pages", "/site/data", "/site/translations",
	}, WatchDirs(cfg))
}

func TestRebuilder(t *testing.T) {
	root := writeSite(t)
	cfg, err := config.Load(filepath.Join(root, "pagebuilder.yaml"))
	require.NoError(t, err)
	a, err := app.New(cfg)
	require.NoError(t, err)
	require.NoError(t, a.Boot(context.Background()))
	defer func() { _ = a.Close() }()

	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "pages", "new.md"), []byte("fresh"), 0o600))
	require.NoError(t, Rebuilder(a, out)(context.Background(), []string{filepath.Join(root, "pages", "new.md")}))

	data, err := os.ReadFile(filepath.Join(out, "new", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<h1>New</h1><p>fresh</p>\n", string(data))
}

func TestRebuilderReloadsExtensionsAndTranslations(t *testing.T) {
	root := writeSite(t)
	write := func(rel, content string) string {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}
	greet := write("twig/functions/greet.yaml", "template: \"v1-{{ args.0 }}\"\n")
	catalog := write("translations/en.yaml", "app:\n  Hi: one\n")
	write("pages/greet.html", "---\ntitle: Greet\n---\n{{ greet(\"x\") }}|{{ \"Hi\"|t }}")

	cfg, err := config.Load(filepath.Join(root, "pagebuilder.yaml"))
	require.NoError(t, err)
	a, err := app.New(cfg)
	require.NoError(t, err)
	require.NoError(t, a.Boot(context.Background()))
	defer func() { _ = a.Close() }()

	out := t.TempDir()
	rebuild := Rebuilder(a, out)
	read := func() string {
		data, err := os.ReadFile(filepath.Join(out, "greet", "index.html"))
		require.NoError(t, err)
		return string(data)
	}

	require.NoError(t, rebuild(context.Background(), []string{greet}))
	assert.Contains(t, read(), "v1-x|one")

	write("twig/functions/greet.yaml", "template: \"v2-{{ args.0 }}\"\n")
	write("translations/en.yaml", "app:\n  Hi: two\n")
	require.NoError(t, rebuild(context.Background(), []string{greet, catalog}))
	assert.Contains(t, read(), "v2-x|two")
	assert.Len(t, a.Attached(), 2)
}

func TestNeedsReload(t *testing.T) {
	root := t.TempDir()
	cfg, err := config.Parse([]byte("site:\n  url: https://example.org/\n"), root)
	require.NoError(t, err)
	dirs := ReloadDirs(cfg)

	assert.True(t, NeedsReload(dirs, []string{filepath.Join(root, "translations", "en.yaml")}))
	assert.True(t, NeedsReload(dirs, []string{filepath.Join(root, "twig", "filters", "x.yaml")}))
	assert.True(t, NeedsReload(dirs, []string{filepath.Join(root, "data", "nav", "main.yaml")}))
	assert.False(t, NeedsReload(dirs, []string{filepath.Join(root, "layouts", "default.html")}))
	assert.False(t, NeedsReload(dirs, []string{filepath.Join(root, "pages", "index.md")}))
	assert.False(t, NeedsReload(dirs, []string{filepath.Join(root, "datafile.yaml")}))
	assert.False(t, NeedsReload(dirs, nil))
}
