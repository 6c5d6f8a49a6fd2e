package host

import (
	"sort"
	"sync"
)

// MenuItem is one navigable page.
type MenuItem struct {
	Route  string `json:"route"`
	Title  string `json:"title"`
	Layout string `json:"layout"`
	Hidden bool   `json:"hidden"`
}

// MenuList is a route-sorted page list replaced wholesale by the application.
type MenuList struct {
	mu    sync.RWMutex
	items []MenuItem
}

func NewMenuList() *MenuList {
	return &MenuList{}
}

// Set replaces the menu contents.
func (m *MenuList) Set(items []MenuItem) {
	sorted := make([]MenuItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Route < sorted[j].Route })

	m.mu.Lock()
	m.items = sorted
	m.mu.Unlock()
}

// Items returns the visible items.
func (m *MenuList) Items() []MenuItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MenuItem, 0, len(m.items))
	for _, item := range m.items {
		if !item.Hidden {
			out = append(out, item)
		}
	}
	return out
}

func (m *MenuList) Find(route string) (MenuItem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, item := range m.items {
		if item.Route == route {
			return item, true
		}
	}
	return MenuItem{}, false
}
