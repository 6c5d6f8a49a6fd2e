package twig

import (
	"html"
	"reflect"
	"strings"

	"github.com/flosch/pongo2/v6"
	"gopkg.in/yaml.v3"
)

// DebugExtensionName is registered only in debug mode.
const DebugExtensionName = "debug"

// DebugExtension provides dump(), rendering its arguments as YAML inside a
// <pre> block. Renders through a Renderer bind dump() to the render context,
// so a call without arguments shows every context variable. Variables set
// inside the template (loop or set) are not part of that context.
type DebugExtension struct {
	BaseExtension
}

func (DebugExtension) Name() string { return DebugExtensionName }

func (d DebugExtension) Functions() map[string]any {
	return map[string]any{"dump": d.dump}
}

func (DebugExtension) dump(args ...*pongo2.Value) (*pongo2.Value, error) {
	return dumpHTML(valuesOf(args)...)
}

// contextDump returns a dump function that falls back to ctx when called
// without arguments.
func contextDump(ctx pongo2.Context) func(args ...*pongo2.Value) (*pongo2.Value, error) {
	return func(args ...*pongo2.Value) (*pongo2.Value, error) {
		if len(args) > 0 {
			return dumpHTML(valuesOf(args)...)
		}
		data := make(map[string]any, len(ctx))
		for k, v := range ctx {
			if v == nil || reflect.TypeOf(v).Kind() != reflect.Func {
				data[k] = v
			}
		}
		return dumpHTML(data)
	}
}

func dumpHTML(values ...any) (*pongo2.Value, error) {
	var b strings.Builder
	for _, v := range values {
		out, err := yaml.Marshal(v)
		if err != nil {
			return nil, err
		}
		b.WriteString(`<pre class="dump">`)
		b.WriteString(html.EscapeString(strings.TrimSuffix(string(out), "\n")))
		b.WriteString("</pre>")
	}
	return pongo2.AsSafeValue(b.String()), nil
}
