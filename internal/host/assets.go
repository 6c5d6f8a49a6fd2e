package host

import (
	"slices"
	"sync"
)

// AssetKind distinguishes stylesheets from scripts.
type AssetKind string

const (
	AssetCSS AssetKind = "css"
	AssetJS  AssetKind = "js"
)

// AssetList keeps asset paths per kind in first-added order, without duplicates.
type AssetList struct {
	mu    sync.Mutex
	items map[AssetKind][]string
}

func NewAssetList() *AssetList {
	return &AssetList{items: make(map[AssetKind][]string)}
}

func (a *AssetList) Add(kind AssetKind, path string) {
	if path == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if slices.Contains(a.items[kind], path) {
		return
	}
	a.items[kind] = append(a.items[kind], path)
}

func (a *AssetList) List(kind AssetKind) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.items[kind])
}

// Reset forgets all assets; the application calls it before each page.
func (a *AssetList) Reset() {
	a.mu.Lock()
	a.items = make(map[AssetKind][]string)
	a.mu.Unlock()
}
