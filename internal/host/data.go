package host

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

// YAMLDataRepository serves <dir>/<name>.yaml (or .yml) documents, cached after first load.
type YAMLDataRepository struct {
	dir string

	mu    sync.Mutex
	cache map[string]any
}

func NewYAMLDataRepository(dir string) *YAMLDataRepository {
	return &YAMLDataRepository{dir: dir, cache: make(map[string]any)}
}

// Load returns the decoded document for name.
func (r *YAMLDataRepository) Load(name string) (any, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return nil, ferrors.ValidationError("invalid data name").
			WithContext("name", name).
			Build()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.cache[name]; ok {
		return v, nil
	}

	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(r.dir, name+ext)
		raw, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read data file").
				WithContext("path", path).
				Build()
		}
		var v any
		if err := yaml.Unmarshal(raw, &v); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryContent, "failed to parse data file").
				WithContext("path", path).
				Build()
		}
		r.cache[name] = v
		return v, nil
	}

	return nil, ferrors.NotFoundError("data file not found").
		WithContext("name", name).
		WithContext("dir", r.dir).
		Build()
}

// Names lists the available data documents; a missing directory yields none.
func (r *YAMLDataRepository) Names() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to list data directory").
			WithContext("dir", r.dir).
			Build()
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, strings.TrimSuffix(e.Name(), ext))
		}
	}
	sort.Strings(names)
	return names, nil
}
