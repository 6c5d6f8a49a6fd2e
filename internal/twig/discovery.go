package twig

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

// ExtensionKind selects how a discovered file is registered.
type ExtensionKind string

const (
	KindFunction ExtensionKind = "function"
	KindFilter   ExtensionKind = "filter"
	KindTest     ExtensionKind = "test"
)

// DiscoveredExtensionName is the name of the extension built from extend
// directories.
const DiscoveredExtensionName = "discovered"

// definition is one *.yaml file in an extend directory:
//
//	name: greet            # optional, defaults to the file name
//	template: "Hello {{ args.0 }}"
type definition struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Template    string `yaml:"template"`
}

// DiscoveredExtension holds helpers defined as template snippets on disk.
type DiscoveredExtension struct {
	BaseExtension
	functions map[string]any
	filters   map[string]pongo2.FilterFunction
	tests     map[string]TestFunction
}

func (d *DiscoveredExtension) Name() string { return DiscoveredExtensionName }

func (d *DiscoveredExtension) Functions() map[string]any                 { return d.functions }
func (d *DiscoveredExtension) Filters() map[string]pongo2.FilterFunction { return d.filters }
func (d *DiscoveredExtension) Tests() map[string]TestFunction            { return d.tests }

// Count returns the number of helpers of kind.
func (d *DiscoveredExtension) Count(kind ExtensionKind) int {
	switch kind {
	case KindFunction:
		return len(d.functions)
	case KindFilter:
		return len(d.filters)
	case KindTest:
		return len(d.tests)
	default:
		return 0
	}
}

// ExtensionFiles lists the *.yaml files directly inside dir. An empty or
// unreadable dir yields nothing. Callers must not depend on the order.
func ExtensionFiles(dir string) []string {
	dir = strings.TrimRight(strings.TrimSpace(dir), `/\`)
	if dir == "" {
		return nil
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil
	}
	sort.Strings(files)
	return files
}

// Discover compiles the helpers found in the three directories against
// engine. A file that cannot be read, parsed or compiled fails discovery.
func Discover(engine *Engine, functionsDir, filtersDir, testsDir string) (*DiscoveredExtension, error) {
	d := &DiscoveredExtension{
		functions: map[string]any{},
		filters:   map[string]pongo2.FilterFunction{},
		tests:     map[string]TestFunction{},
	}

	for _, src := range []struct {
		kind ExtensionKind
		dir  string
	}{
		{KindFunction, functionsDir},
		{KindFilter, filtersDir},
		{KindTest, testsDir},
	} {
		for _, file := range ExtensionFiles(src.dir) {
			def, err := readDefinition(file)
			if err != nil {
				return nil, err
			}
			tpl, err := engine.Compile(def.Template)
			if err != nil {
				return nil, ferrors.WrapError(err, ferrors.CategoryTemplate, "failed to compile template extension").
					WithContext("path", file).
					WithContext("kind", string(src.kind)).
					Build()
			}
			switch src.kind {
			case KindFunction:
				d.functions[def.Name] = templateFunction(tpl)
			case KindFilter:
				d.filters[def.Name] = templateFilter(def.Name, tpl)
			case KindTest:
				d.tests[def.Name] = templateTest(tpl)
			}
		}
	}
	return d, nil
}

func readDefinition(file string) (definition, error) {
	var def definition
	raw, err := os.ReadFile(file)
	if err != nil {
		return def, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read template extension").
			WithContext("path", file).
			Build()
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return def, ferrors.WrapError(err, ferrors.CategoryTemplate, "failed to parse template extension").
			WithContext("path", file).
			Build()
	}
	if strings.TrimSpace(def.Name) == "" {
		def.Name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	def.Name = strings.TrimSpace(def.Name)
	if def.Template == "" {
		return def, ferrors.TemplateError("template extension has no template").
			WithContext("path", file).
			Build()
	}
	return def, nil
}

// templateFunction renders tpl with the call arguments as "args".
func templateFunction(tpl *pongo2.Template) func(args ...*pongo2.Value) (*pongo2.Value, error) {
	return func(args ...*pongo2.Value) (*pongo2.Value, error) {
		out, err := tpl.Execute(pongo2.Context{"args": valuesOf(args)})
		if err != nil {
			return nil, err
		}
		return pongo2.AsSafeValue(out), nil
	}
}

// templateFilter renders tpl with "value" and "param".
func templateFilter(name string, tpl *pongo2.Template) pongo2.FilterFunction {
	return func(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		out, err := tpl.Execute(filterContext(in, param))
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsSafeValue(out), nil
	}
}

// templateTest renders tpl with "value" and "param" and reads the trimmed
// output as a boolean: "", "0" and "false" are false.
func templateTest(tpl *pongo2.Template) TestFunction {
	return func(in, param *pongo2.Value) (bool, error) {
		out, err := tpl.Execute(filterContext(in, param))
		if err != nil {
			return false, err
		}
		out = strings.TrimSpace(out)
		if b, err := strconv.ParseBool(out); err == nil {
			return b, nil
		}
		return out != "" && out != "0", nil
	}
}

func filterContext(in, param *pongo2.Value) pongo2.Context {
	ctx := pongo2.Context{"value": nil, "param": nil}
	if in != nil {
		ctx["value"] = in.Interface()
	}
	if param != nil {
		ctx["param"] = param.Interface()
	}
	return ctx
}
