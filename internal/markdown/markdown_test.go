package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/events"
	"git.home.luguber.info/inful/pagebuilder/internal/plugin"
)

func TestConvert(t *testing.T) {
	c := NewConverter(Options{GFM: true, Unsafe: true})

	out, err := c.Convert("# Title\n\nSome *emphasis* and ~~strike~~.\n\n<div class=\"x\">raw</div>\n")
	require.NoError(t, err)
	assert.Contains(t, out, `<h1 id="title">Title</h1>`)
	assert.Contains(t, out, "<em>emphasis</em>")
	assert.Contains(t, out, "<del>strike</del>")
	assert.Contains(t, out, `<div class="x">raw</div>`)
}

func TestConvertSafeModeDropsHTML(t *testing.T) {
	c := NewConverter(Options{})
	out, err := c.Convert("<script>alert(1)</script>\n")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}

func TestConvertHardWraps(t *testing.T) {
	c := NewConverter(Options{HardWraps: true})
	out, err := c.Convert("a\nb\n")
	require.NoError(t, err)
	assert.Contains(t, out, "<br>")
}

func TestExtractLinks(t *testing.T) {
	c := NewConverter(Options{})
	src := []byte("See [API](api.md), ![Diagram](diagram.png) and <https://example.com/path>.\n\nAlso [ref][r].\n\n[r]: /docs/ref\n")

	links := c.ExtractLinks(src)
	require.Len(t, links, 5)
	assert.Equal(t, Link{Kind: LinkKindInline, Destination: "api.md"}, links[0])
	assert.Equal(t, Link{Kind: LinkKindImage, Destination: "diagram.png"}, links[1])
	assert.Equal(t, Link{Kind: LinkKindAuto, Destination: "https://example.com/path"}, links[2])
	assert.Equal(t, Link{Kind: LinkKindInline, Destination: "/docs/ref"}, links[3])
	assert.Equal(t, Link{Kind: LinkKindReferenceDefinition, Destination: "/docs/ref"}, links[4])
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.New(map[string]any{"markdown": map[string]any{"gfm": true, "unsafe": false, "hard_wraps": true}})
	assert.Equal(t, Options{GFM: true, HardWraps: true}, OptionsFromConfig(cfg))
}

func TestPluginConvertsMarkdownOnly(t *testing.T) {
	bus := events.NewManager(nil)
	cfg := config.New(map[string]any{"markdown": map[string]any{"unsafe": true}})
	p := NewPlugin()
	require.NoError(t, p.Attach(plugin.NewContext(bus, cfg, nil, nil).For(p.Metadata())))

	out, err := bus.TriggerString(context.Background(), events.RenderContent, "**bold**", map[string]any{"format": "markdown"})
	require.NoError(t, err)
	assert.Equal(t, "<p><strong>bold</strong></p>\n", out)

	out, err = bus.TriggerString(context.Background(), events.RenderContent, "**bold**", map[string]any{"format": "raw"})
	require.NoError(t, err)
	assert.Equal(t, "**bold**", out)

	require.NoError(t, p.Cleanup())
	assert.Zero(t, bus.ListenerCount(events.RenderContent))
}

func TestPluginRunsAfterTemplates(t *testing.T) {
	bus := events.NewManager(nil)
	cfg := config.New(nil)
	p := NewPlugin()
	require.NoError(t, p.Attach(plugin.NewContext(bus, cfg, nil, nil).For(p.Metadata())))

	// A higher-priority listener stands in for the template plugin.
	_, err := bus.Attach(events.RenderContent, func(_ context.Context, evt events.Event) (any, error) {
		return "# " + evt.StringTarget(), nil
	}, DefaultPriority+50)
	require.NoError(t, err)

	out, err := bus.TriggerString(context.Background(), events.RenderContent, "Heading", map[string]any{"format": "markdown"})
	require.NoError(t, err)
	assert.Equal(t, "<h1 id=\"heading\">Heading</h1>\n", out)
}
