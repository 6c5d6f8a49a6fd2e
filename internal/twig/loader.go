package twig

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

// Loader resolves template names against an ordered list of search paths and
// a set of namespaces. It implements pongo2.TemplateLoader.
//
// Names are logical: "layout.html" is looked up in every search path in
// order, "@widget/menu.html" and "widget:menu.html" in the widget namespace.
type Loader struct {
	paths      []string
	namespaces map[string]fs.FS
	nsDirs     map[string]string
	gets       atomic.Int64
}

// NewLoader builds a loader over paths. Every path must be an existing
// directory.
func NewLoader(paths []string) (*Loader, error) {
	l := &Loader{
		namespaces: make(map[string]fs.FS),
		nsDirs:     make(map[string]string),
	}
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			return nil, ferrors.TemplateError("template search path is empty").Build()
		}
		info, err := os.Stat(p)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryTemplate, "template search path is not accessible").
				WithContext("path", p).
				Build()
		}
		if !info.IsDir() {
			return nil, ferrors.TemplateError("template search path is not a directory").
				WithContext("path", p).
				Build()
		}
		l.paths = append(l.paths, filepath.Clean(p))
	}
	return l, nil
}

// AddNamespace maps ns to dir when dir is a readable directory. It reports
// whether the namespace was added; unreadable directories are skipped.
func (l *Loader) AddNamespace(ns, dir string) bool {
	if ns == "" || strings.TrimSpace(dir) == "" {
		return false
	}
	f, err := os.Open(dir)
	if err != nil {
		return false
	}
	info, err := f.Stat()
	_ = f.Close()
	if err != nil || !info.IsDir() {
		return false
	}
	l.namespaces[ns] = os.DirFS(dir)
	l.nsDirs[ns] = filepath.Clean(dir)
	return true
}

// AddNamespaceFS maps ns to an fs.FS, for templates shipped inside the binary.
func (l *Loader) AddNamespaceFS(ns string, fsys fs.FS) {
	if ns == "" || fsys == nil {
		return
	}
	l.namespaces[ns] = fsys
	delete(l.nsDirs, ns)
}

// Paths returns the search paths in lookup order.
func (l *Loader) Paths() []string {
	return append([]string(nil), l.paths...)
}

// Namespaces returns the registered namespace names, sorted.
func (l *Loader) Namespaces() []string {
	out := make([]string, 0, len(l.namespaces))
	for ns := range l.namespaces {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// NamespaceDir returns the directory behind ns, when it is disk backed.
func (l *Loader) NamespaceDir(ns string) (string, bool) {
	dir, ok := l.nsDirs[ns]
	return dir, ok
}

// Gets returns how many lookups the loader has served.
func (l *Loader) Gets() int64 {
	return l.gets.Load()
}

// Abs keeps names logical; resolution happens in Get.
func (l *Loader) Abs(_, name string) string {
	return name
}

// Get returns the template source for name.
func (l *Loader) Get(name string) (io.Reader, error) {
	l.gets.Add(1)

	ns, rel, ok := l.splitNamespace(name)
	if ok {
		fsys := l.namespaces[ns]
		clean, err := cleanName(rel)
		if err != nil {
			return nil, err
		}
		data, err := fs.ReadFile(fsys, clean)
		if err != nil {
			return nil, notFound(name).WithContext("namespace", ns).Build()
		}
		return bytes.NewReader(data), nil
	}

	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	for _, dir := range l.paths {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(clean)))
		if err == nil {
			return bytes.NewReader(data), nil
		}
	}
	return nil, notFound(name).WithContext("paths", l.Paths()).Build()
}

// Exists reports whether name resolves.
func (l *Loader) Exists(name string) bool {
	r, err := l.Get(name)
	return err == nil && r != nil
}

// splitNamespace recognizes "@ns/rest" and "ns:rest" for registered namespaces.
func (l *Loader) splitNamespace(name string) (string, string, bool) {
	if strings.HasPrefix(name, "@") {
		ns, rest, found := strings.Cut(name[1:], "/")
		if !found {
			return "", "", false
		}
		if _, ok := l.namespaces[ns]; ok {
			return ns, rest, true
		}
		return "", "", false
	}
	if ns, rest, found := strings.Cut(name, ":"); found {
		if _, ok := l.namespaces[ns]; ok {
			return ns, rest, true
		}
	}
	return "", "", false
}

func cleanName(name string) (string, error) {
	name = strings.TrimPrefix(strings.TrimSpace(filepath.ToSlash(name)), "/")
	invalid := name == ""
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			invalid = true
		}
	}
	clean := path.Clean(name)
	if invalid || clean == "." {
		return "", ferrors.ValidationError("invalid template name").
			WithContext("template", name).
			Build()
	}
	return clean, nil
}

func notFound(name string) *ferrors.ErrorBuilder {
	return ferrors.NotFoundError("template not found").WithContext("template", name)
}
