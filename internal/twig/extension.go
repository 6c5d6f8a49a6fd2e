package twig

import (
	"github.com/flosch/pongo2/v6"
)

// TestFunction is a boolean predicate usable in templates. pongo2 has no
// "is" tests, so tests are registered as filters returning a boolean:
// {% if page.route|current %}.
type TestFunction func(in, param *pongo2.Value) (bool, error)

// Extension is a bundle of template helpers.
//
// Functions are placed in the template set's globals once, when the
// extension is added. Globals is evaluated on every render so it can expose
// per-request state such as the current page.
type Extension interface {
	Name() string
	Functions() map[string]any
	Filters() map[string]pongo2.FilterFunction
	Tests() map[string]TestFunction
	Globals() map[string]any
}

// BaseExtension implements Extension with no helpers; embed it and override
// what the extension provides.
type BaseExtension struct{}

func (BaseExtension) Functions() map[string]any                 { return nil }
func (BaseExtension) Filters() map[string]pongo2.FilterFunction { return nil }
func (BaseExtension) Tests() map[string]TestFunction            { return nil }
func (BaseExtension) Globals() map[string]any                   { return nil }

// testFilter adapts a TestFunction to pongo2's filter signature.
func testFilter(name string, fn TestFunction) pongo2.FilterFunction {
	return func(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		ok, err := fn(in, param)
		if err != nil {
			return nil, &pongo2.Error{Sender: "test:" + name, OrigError: err}
		}
		return pongo2.AsValue(ok), nil
	}
}

// valuesOf unwraps pongo2 values into plain Go values.
func valuesOf(args []*pongo2.Value) []any {
	out := make([]any, len(args))
	for i, a := range args {
		if a != nil {
			out[i] = a.Interface()
		}
	}
	return out
}
