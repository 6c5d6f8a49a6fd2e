// Package watch reports changes below a set of site directories, coalescing
// bursts of file system events into one callback.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/logfields"
)

// DefaultQuietWindow is how long the tree must stay quiet before a change is reported.
const DefaultQuietWindow = 300 * time.Millisecond

// Handler receives the sorted, de-duplicated paths that changed. A returned
// error is logged; watching continues.
type Handler func(ctx context.Context, changed []string) error

type Config struct {
	// Dirs are watched recursively. Missing directories are skipped.
	Dirs []string
	// QuietWindow defaults to DefaultQuietWindow.
	QuietWindow time.Duration
	Logger      *slog.Logger
}

// Watcher watches directory trees with fsnotify.
type Watcher struct {
	cfg     Config
	handler Handler
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	readyOnce sync.Once
	ready     chan struct{}

	mu      sync.Mutex
	pending map[string]struct{}
}

func New(cfg Config, handler Handler) (*Watcher, error) {
	if handler == nil {
		return nil, ferrors.ValidationError("handler is required").Build()
	}
	if cfg.QuietWindow <= 0 {
		cfg.QuietWindow = DefaultQuietWindow
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create file watcher").Build()
	}
	return &Watcher{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		watcher: fw,
		ready:   make(chan struct{}),
		pending: map[string]struct{}{},
	}, nil
}

// Ready is closed once Run has registered every directory.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// WatchList returns the directories currently registered with fsnotify.
func (w *Watcher) WatchList() []string {
	list := w.watcher.WatchList()
	sort.Strings(list)
	return list
}

// Run watches until ctx is done, then closes the underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	if ctx == nil {
		return ferrors.ValidationError("context cannot be nil").Build()
	}
	defer func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	for _, dir := range w.cfg.Dirs {
		if err := w.addTree(dir); err != nil {
			return err
		}
	}
	w.readyOnce.Do(func() { close(w.ready) })
	w.logger.Info("Watching for changes", "dirs", len(w.WatchList()))

	timer := time.NewTimer(w.cfg.QuietWindow)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if ignored(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn("Failed to watch new directory", logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			w.logger.Debug("Change detected", logfields.Path(event.Name), "op", event.Op.String())
			w.mu.Lock()
			w.pending[event.Name] = struct{}{}
			w.mu.Unlock()
			timer.Reset(w.cfg.QuietWindow)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", logfields.Error(err))

		case <-timer.C:
			changed := w.drain()
			if len(changed) == 0 {
				continue
			}
			if err := w.handler(ctx, changed); err != nil {
				w.logger.Error("Change handler failed", "changed", len(changed), logfields.Error(err))
			}
		}
	}
}

func (w *Watcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	w.pending = map[string]struct{}{}
	sort.Strings(changed)
	return changed
}

// addTree registers dir and every directory below it.
func (w *Watcher) addTree(dir string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil
	}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && ignored(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
	if errors.Is(err, fs.ErrNotExist) {
		w.logger.Debug("Skipping missing directory", logfields.Path(dir))
		return nil
	}
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to watch directory").
			WithContext("path", dir).Build()
	}
	return nil
}

// ignored reports hidden files and editor backups.
func ignored(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp")
}
