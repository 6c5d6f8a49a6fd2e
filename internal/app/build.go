package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
	"git.home.luguber.info/inful/pagebuilder/internal/manifest"
	"git.home.luguber.info/inful/pagebuilder/internal/metrics"
)

// BuildStatus is the overall outcome of a site build.
type BuildStatus string

const (
	BuildStatusSuccess BuildStatus = "success"
	BuildStatusFailed  BuildStatus = "failed"
	BuildStatusSkipped BuildStatus = "skipped"
)

// BuildResult contains the outcome of a site build.
type BuildResult struct {
	ID     string
	Status BuildStatus

	// OutputPath is the directory the pages were written to.
	OutputPath string

	Manifest *manifest.BuildManifest

	// Changed lists the routes whose source differs from the previous build.
	Changed []string

	// Warnings are non-fatal findings such as links to unknown pages.
	Warnings []string

	Duration time.Duration
}

// OutputFile is the path of the rendered file for route, relative to the
// output directory.
func OutputFile(route string) string {
	if route == "" {
		return "index.html"
	}
	return filepath.Join(filepath.FromSlash(route), "index.html")
}

// Build renders every page into outDir (build.output when empty) and writes
// the build manifest. Rendering stops at the first failing page.
func (a *App) Build(ctx context.Context, outDir string) (*BuildResult, error) {
	start := time.Now()
	if outDir == "" {
		outDir = a.cfg.GetString("build.output")
	}
	if outDir == "" {
		return nil, ferrors.ConfigError("no output directory configured").
			WithContext("key", "build.output").Build()
	}

	result := &BuildResult{ID: uuid.NewString(), OutputPath: outDir}
	logger := a.logger.With(logfields.BuildID(result.ID))
	logger.Info("Build started", logfields.Path(outDir))

	m, err := a.build(ctx, outDir, result)
	result.Duration = time.Since(start)
	a.recorder.ObserveBuildDuration(result.Duration)
	if err != nil {
		result.Status = BuildStatusFailed
		a.recorder.IncBuildOutcome(metrics.ResultFailed)
		logger.Error("Build failed", logfields.Duration(result.Duration), logfields.Error(err))
		return result, err
	}

	m.Duration = result.Duration.Milliseconds()
	if err := writeManifest(outDir, m); err != nil {
		result.Status = BuildStatusFailed
		a.recorder.IncBuildOutcome(metrics.ResultFailed)
		return result, err
	}

	result.Status = BuildStatusSuccess
	result.Manifest = m
	a.recorder.IncBuildOutcome(metrics.ResultSuccess)
	a.recorder.SetPagesBuilt(len(m.Pages))
	for _, w := range result.Warnings {
		logger.Warn("Build warning", "warning", w)
	}
	logger.Info("Build finished",
		"pages", len(m.Pages),
		"changed", len(result.Changed),
		logfields.Duration(result.Duration))
	return result, nil
}

func (a *App) build(ctx context.Context, outDir string, result *BuildResult) (*manifest.BuildManifest, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").
			WithContext("path", outDir).Build()
	}

	prev, err := readManifest(outDir)
	if err != nil {
		a.logger.Warn("Ignoring unreadable previous manifest", logfields.Path(outDir), logfields.Error(err))
	}

	m := &manifest.BuildManifest{
		ID:        result.ID,
		Timestamp: time.Now().UTC(),
		Theme:     a.cfg.GetString("theme"),
		Status:    string(BuildStatusSuccess),
	}
	for _, p := range a.Attached() {
		meta := p.Metadata()
		m.Plugins = append(m.Plugins, manifest.PluginVersion{Name: meta.Name, Version: meta.Version, Type: string(meta.Type)})
	}

	pages := a.Pages()
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "build canceled").Build()
		}
		html, err := a.RenderPage(ctx, p)
		if err != nil {
			return nil, err
		}
		rel := OutputFile(p.Route)
		if err := writeFile(filepath.Join(outDir, rel), []byte(html)); err != nil {
			return nil, err
		}
		m.Pages = append(m.Pages, manifest.PageEntry{
			Route:       p.Route,
			Source:      p.Path,
			Output:      filepath.ToSlash(rel),
			Fingerprint: p.Fingerprint,
		})
	}

	result.Changed = m.Changed(prev)
	result.Warnings = a.CheckLinks(pages)
	return m, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create page directory").
			WithContext("path", path).Build()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write page").
			WithContext("path", path).Build()
	}
	return nil
}

func writeManifest(outDir string, m *manifest.BuildManifest) error {
	data, err := m.ToJSON()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "encode build manifest").Build()
	}
	return writeFile(filepath.Join(outDir, manifest.FileName), data)
}

// readManifest returns the previous build's manifest, or nil when there is none.
func readManifest(outDir string) (*manifest.BuildManifest, error) {
	data, err := os.ReadFile(filepath.Join(outDir, manifest.FileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return manifest.FromJSON(data)
}

// RenderRoute renders the page at route.
func (a *App) RenderRoute(ctx context.Context, route string) (string, error) {
	p, err := a.Page(route)
	if err != nil {
		return "", err
	}
	return a.RenderPage(ctx, p)
}
