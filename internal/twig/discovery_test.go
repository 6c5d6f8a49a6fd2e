package twig

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

func extendValues(site *testSite, functions, filters, tests string) map[string]any {
	values := site.values()
	values["twig"] = map[string]any{
		"extend": map[string]any{
			"functions": functions,
			"filters":   filters,
			"tests":     tests,
		},
	}
	return values
}

func TestExtensionFiles(t *testing.T) {
	site := newTestSite(t)
	site.write("ext/b.yaml", "template: b")
	site.write("ext/a.yaml", "template: a")
	site.write("ext/readme.md", "ignored")
	site.write("ext/nested/c.yaml", "template: c")

	files := ExtensionFiles(site.path("ext") + "/")
	require.Len(t, files, 2)
	assert.ElementsMatch(t, []string{site.path("ext/a.yaml"), site.path("ext/b.yaml")}, files)

	assert.Empty(t, ExtensionFiles(""))
	assert.Empty(t, ExtensionFiles(site.path("missing")))
}

func TestDiscoveredFunctionsAreCallable(t *testing.T) {
	site := newTestSite(t)
	site.write("twig/functions/hello.yaml", "template: \"Hello {{ args.0 }}\"\n")
	site.write("twig/functions/loud.yaml", "name: shout\ntemplate: \"{{ args.0|upper }}!\"\n")

	env := newTestEnv(t, extendValues(site, site.path("twig/functions"), "", site.path("twig/missing")))
	require.NoError(t, env.renderer.Init(context.Background()))

	out, err := env.renderer.RenderString(`{{ hello("Ada") }} {{ shout("hi") }}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada HI!", out)

	ext, ok := env.renderer.Engine().Extension(DiscoveredExtensionName)
	require.True(t, ok)
	assert.Equal(t, 2, ext.(*DiscoveredExtension).Count(KindFunction))
}

func TestDiscoveryMissingDirectoryRegistersNothing(t *testing.T) {
	site := newTestSite(t)
	missing := filepath.Join(site.root, "nope")

	env := newTestEnv(t, extendValues(site, missing, missing, missing))
	require.NoError(t, env.renderer.Init(context.Background()))

	ext, ok := env.renderer.Engine().Extension(DiscoveredExtensionName)
	require.True(t, ok)
	d := ext.(*DiscoveredExtension)
	assert.Zero(t, d.Count(KindFunction))
	assert.Zero(t, d.Count(KindFilter))
	assert.Zero(t, d.Count(KindTest))
}

func TestDiscoverySkippedWithoutExtendKey(t *testing.T) {
	site := newTestSite(t)
	site.write("twig/functions/hello.yaml", "template: hi")

	env := newTestEnv(t, site.values())
	require.NoError(t, env.renderer.Init(context.Background()))

	_, ok := env.renderer.Engine().Extension(DiscoveredExtensionName)
	assert.False(t, ok)
	assert.False(t, env.renderer.Engine().HasFunction("hello"))
}

func TestDiscoveredFiltersAndTests(t *testing.T) {
	site := newTestSite(t)
	site.write("twig/filters/wrap.yaml", "template: \"[{{ value }}{% if param %}:{{ param }}{% endif %}]\"\n")
	site.write("twig/tests/long.yaml", "description: more than three characters\ntemplate: \"{% if value|length > 3 %}true{% endif %}\"\n")

	env := newTestEnv(t, extendValues(site, "", site.path("twig/filters"), site.path("twig/tests")))
	require.NoError(t, env.renderer.Init(context.Background()))

	out, err := env.renderer.RenderString(`{{ "a"|wrap }}{{ "b"|wrap:"x" }}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "[a][b:x]", out)

	out, err = env.renderer.RenderString(`{% if "abcd"|long %}yes{% else %}no{% endif %}/{% if "ab"|long %}yes{% else %}no{% endif %}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "yes/no", out)
}

func TestDiscoveryInvalidFileFailsInit(t *testing.T) {
	tests := map[string]string{
		"bad yaml":      "template: [unclosed\n",
		"no template":   "name: empty\n",
		"unknown field": "template: x\ncallable: foo\n",
		"bad template":  "template: \"{% if %}\"\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			site := newTestSite(t)
			site.write("twig/functions/broken.yaml", content)

			env := newTestEnv(t, extendValues(site, site.path("twig/functions"), "", ""))
			err := env.renderer.Init(context.Background())
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryTemplate))
			assert.Equal(t, StateUninitialized, env.renderer.State())
		})
	}
}
