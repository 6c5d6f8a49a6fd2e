// Package manifest records what a site build rendered: the plugins that took
// part and, per page, the source fingerprint and the output file.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// FileName is the name of the manifest written into the output directory.
const FileName = ".pagebuilder-manifest.json"

// BuildManifest represents a complete record of a build's inputs and outputs.
type BuildManifest struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Theme     string          `json:"theme,omitempty"`
	Plugins   []PluginVersion `json:"plugins"`
	Pages     []PageEntry     `json:"pages"`
	Status    string          `json:"status"`
	Duration  int64           `json:"duration_ms"`
}

// PluginVersion represents a versioned plugin attached during a build.
type PluginVersion struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Type    string `json:"type"`
}

// PageEntry is one rendered page.
type PageEntry struct {
	Route       string `json:"route"`
	Source      string `json:"source"`
	Output      string `json:"output"`
	Fingerprint string `json:"fingerprint"`
}

// Fingerprints maps route to source fingerprint.
func (m *BuildManifest) Fingerprints() map[string]string {
	out := make(map[string]string, len(m.Pages))
	for _, p := range m.Pages {
		out[p.Route] = p.Fingerprint
	}
	return out
}

// Changed returns the routes whose fingerprint differs from prev, plus routes
// that are new. A nil prev reports every page.
func (m *BuildManifest) Changed(prev *BuildManifest) []string {
	var old map[string]string
	if prev != nil {
		old = prev.Fingerprints()
	}
	var changed []string
	for _, p := range m.Pages {
		if fp, ok := old[p.Route]; !ok || fp != p.Fingerprint {
			changed = append(changed, p.Route)
		}
	}
	sort.Strings(changed)
	return changed
}

// ToJSON serializes the manifest to JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Hash computes a deterministic hash of the theme, plugins and page
// fingerprints. Two builds with the same hash rendered the same inputs.
func (m *BuildManifest) Hash() (string, error) {
	pages := make([]PageEntry, len(m.Pages))
	copy(pages, m.Pages)
	sort.Slice(pages, func(i, j int) bool { return pages[i].Route < pages[j].Route })

	hashInput := struct {
		Theme   string          `json:"theme"`
		Plugins []PluginVersion `json:"plugins"`
		Pages   []PageEntry     `json:"pages"`
	}{
		Theme:   m.Theme,
		Plugins: m.Plugins,
		Pages:   pages,
	}

	data, err := json.Marshal(hashInput)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}
