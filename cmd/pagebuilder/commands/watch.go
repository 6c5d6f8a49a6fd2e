package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/pagebuilder/internal/app"
	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/metrics"
	"git.home.luguber.info/inful/pagebuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Output      string        `short:"o" help:"Output directory (defaults to build.output)" type:"path"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve Prometheus metrics on this address (e.g. :9102)"`
	Quiet       time.Duration `name:"quiet" help:"Quiet window before a rebuild" default:"300ms"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var opts []app.Option
	if w.MetricsAddr != "" {
		reg := prom.NewRegistry()
		opts = append(opts, app.WithRecorder(metrics.NewPrometheusRecorder(reg)))
		srv := &http.Server{
			Addr:              w.MetricsAddr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("Serving metrics", "addr", w.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	a, err := root.OpenApp(ctx, g, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if _, err := a.Build(ctx, w.Output); err != nil {
		slog.Error("Initial build failed", "error", err)
	}

	watcher, err := watch.New(watch.Config{
		Dirs:        WatchDirs(a.Config()),
		QuietWindow: w.Quiet,
		Logger:      slog.Default(),
	}, Rebuilder(a, w.Output))
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}

// WatchDirs lists the site directories whose changes trigger a rebuild.
// Configuration changes need a restart.
func WatchDirs(cfg *config.Config) []string {
	var dirs []string
	for _, key := range []string{"layouts.path", "pages.path", "data.path", "translations.path",
		"twig.extend.functions", "twig.extend.filters", "twig.extend.tests"} {
		if dir := cfg.GetString(key); dir != "" {
			dirs = append(dirs, filepath.Clean(dir))
		}
	}
	return dirs
}

// ReloadDirs lists the directories read once at boot. A change below one of
// them needs a full application reload rather than a template refresh.
func ReloadDirs(cfg *config.Config) []string {
	var dirs []string
	for _, key := range []string{"data.path", "translations.path",
		"twig.extend.functions", "twig.extend.filters", "twig.extend.tests"} {
		if dir := cfg.GetString(key); dir != "" {
			dirs = append(dirs, filepath.Clean(dir))
		}
	}
	return dirs
}

// NeedsReload reports whether any changed path lies in one of dirs.
func NeedsReload(dirs, changed []string) bool {
	for _, path := range changed {
		for _, dir := range dirs {
			if within(dir, path) {
				return true
			}
		}
	}
	return false
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Rebuilder returns a watch handler that builds the site again. Layout and
// page edits drop compiled templates and re-read the pages; edits to data,
// translations or extension helpers reload the whole application.
func Rebuilder(a *app.App, output string) watch.Handler {
	reloadDirs := ReloadDirs(a.Config())
	return func(ctx context.Context, changed []string) error {
		if NeedsReload(reloadDirs, changed) {
			slog.Info("Reloading", "changed", len(changed))
			if err := a.Reload(ctx); err != nil {
				return err
			}
		} else {
			slog.Info("Rebuilding", "changed", len(changed))
			a.InvalidateTemplates()
			if err := a.ReloadPages(); err != nil {
				return err
			}
		}
		_, err := a.Build(ctx, output)
		return err
	}
}

func metricsMux(reg *prom.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	return mux
}
