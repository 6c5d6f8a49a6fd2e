package page

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

// Extensions lists the file extensions treated as pages.
var Extensions = []string{".md", ".markdown", ".html", ".txt"}

// CleanRoute normalizes a route to slash form without surrounding slashes.
func CleanRoute(route string) string {
	return strings.Trim(filepath.ToSlash(strings.TrimSpace(route)), "/")
}

// RouteFor derives the route of a page file relative to root:
// "blog/hello.md" → "blog/hello", "blog/index.md" → "blog", "index.md" → "".
func RouteFor(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	if rel == "index" {
		return "", nil
	}
	return strings.TrimSuffix(rel, "/index"), nil
}

// LoadFile reads and parses one page below root.
func LoadFile(root, path string) (*Page, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read page").
			WithContext("path", path).
			Build()
	}
	route, err := RouteFor(root, path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "page outside pages directory").
			WithContext("path", path).
			WithContext("root", root).
			Build()
	}
	return Parse(path, route, raw)
}

// LoadDir walks root and parses every page file, sorted by route. Hidden
// files and directories (leading dot or underscore) are skipped. A missing
// root yields no pages.
func LoadDir(root string) ([]*Page, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var pages []*Page
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsPageFile(path) {
			return nil
		}
		p, err := LoadFile(root, path)
		if err != nil {
			return err
		}
		pages = append(pages, p)
		return nil
	})
	if err != nil {
		if ferrors.IsClassified(err) {
			return nil, err
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to walk pages directory").
			WithContext("root", root).
			Build()
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Route < pages[j].Route })
	return pages, nil
}

// IsPageFile reports whether path has a page extension.
func IsPageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
