package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce is how long the watcher waits for changes to settle before
// rebuilding. Editors often write a file several times per save.
const debounce = 100 * time.Millisecond

// Watcher monitors project files and rebuilds on change.
type Watcher struct {
	watcher    *fsnotify.Watcher
	server     *Server
	configPath string
	roots      []string
	stdout     io.Writer
	stderr     io.Writer

	mu      sync.Mutex
	timer   *time.Timer
	pending []string // changed paths since the last rebuild
	force   bool     // a pending change needs a reload even if output is unchanged
}

// NewWatcher creates a file watcher for the dev server.
func NewWatcher(s *Server, configPath string, stdout, stderr io.Writer) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:    fsWatcher,
		server:     s,
		configPath: configPath,
		stdout:     stdout,
		stderr:     stderr,
	}
	w.roots = w.collectRoots()
	return w, nil
}

// collectRoots returns the directories watched recursively: sources, the
// public directory and the themes directory.
func (w *Watcher) collectRoots() []string {
	cfg := w.server.config
	seen := make(map[string]bool)
	var roots []string
	add := func(dir string) {
		if dir == "" || seen[dir] {
			return
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return
		}
		seen[dir] = true
		roots = append(roots, dir)
	}
	add(cfg.Paths.Src)
	add(cfg.Paths.Public)
	add(filepath.Join(cfg.BaseDir, "themes"))
	return roots
}

// Start begins watching for file changes.
func (w *Watcher) Start(ctx context.Context) error {
	// The base directory holds the config and theme files; it is watched
	// without recursion.
	base := w.server.config.BaseDir
	if w.configPath != "" {
		base = filepath.Dir(w.configPath)
	}
	if base != "" {
		if err := w.watcher.Add(base); err != nil {
			w.logError("failed to watch %s: %v", base, err)
		}
	}

	for _, dir := range w.roots {
		if err := w.watchDirRecursive(dir); err != nil {
			w.logError("failed to watch %s: %v", dir, err)
		} else {
			w.logInfo("watching %s", w.rel(dir))
		}
	}

	go w.eventLoop(ctx)
	return nil
}

// watchDirRecursive adds a directory and its subdirectories to the watch list
func (w *Watcher) watchDirRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info.IsDir() {
			// Skip hidden directories
			if strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logError("watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}

	// New directories inside a watched tree need their own watch. Files
	// moved in with them are picked up by the rebuild.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			cfg := w.server.config
			themes := filepath.Join(cfg.BaseDir, "themes")
			if !within(event.Name, cfg.Paths.Src) && !within(event.Name, cfg.Paths.Public) && !within(event.Name, themes) {
				return
			}
			if err := w.watchDirRecursive(event.Name); err != nil {
				w.logError("failed to watch %s: %v", event.Name, err)
			}
			w.schedule(ctx, event.Name, within(event.Name, cfg.Paths.Public))
			return
		}
	}

	kind := w.classify(event.Name)
	switch kind {
	case changeIgnored:
		return
	case changeConfig:
		w.logInfo("config changed: %s (restart the server for config changes to take effect)", w.rel(event.Name))
		return
	}
	w.schedule(ctx, event.Name, kind == changePublic)
}

type changeKind int

const (
	changeIgnored changeKind = iota
	changeSource
	changeTheme
	changePublic
	changeConfig
)

// classify decides what a changed path means for the build.
func (w *Watcher) classify(path string) changeKind {
	cfg := w.server.config
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))

	if w.configPath != "" && path == w.configPath {
		return changeConfig
	}
	if within(path, cfg.Paths.Dist) {
		return changeIgnored
	}
	if within(path, cfg.Paths.Public) {
		return changePublic
	}
	if within(path, cfg.Paths.Src) {
		if ext == ".webc" {
			return changeSource
		}
		return changeIgnored
	}
	if within(path, filepath.Join(cfg.BaseDir, "themes")) || strings.HasPrefix(name, "theme.") {
		switch ext {
		case ".yaml", ".yml", ".toml":
			return changeTheme
		}
	}
	if cfg.Paths.Theme != "" && path == cfg.Paths.Theme {
		return changeTheme
	}
	return changeIgnored
}

// schedule queues a rebuild, restarting the debounce timer so a burst of
// changes results in a single build once it goes quiet.
func (w *Watcher) schedule(ctx context.Context, path string, force bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = append(w.pending, path)
	w.force = w.force || force
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounce, func() { w.flush(ctx) })
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	paths := w.pending
	force := w.force
	w.pending = nil
	w.force = false
	w.timer = nil
	w.mu.Unlock()

	if len(paths) == 0 || ctx.Err() != nil {
		return
	}
	if err := w.server.Rebuild(ctx, "changed: "+w.describe(paths), force); err != nil {
		w.logError("%s", describe(err))
	}
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) describe(paths []string) string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range paths {
		r := w.rel(p)
		if !seen[r] {
			seen[r] = true
			names = append(names, r)
		}
	}
	if len(names) > 3 {
		return fmt.Sprintf("%s and %d more", strings.Join(names[:3], ", "), len(names)-3)
	}
	return strings.Join(names, ", ")
}

func (w *Watcher) rel(path string) string {
	if r, err := filepath.Rel(w.server.config.BaseDir, path); err == nil && !strings.HasPrefix(r, "..") {
		return r
	}
	return path
}

// within reports whether path is dir or inside it.
func within(path, dir string) bool {
	if dir == "" {
		return false
	}
	r, err := filepath.Rel(dir, path)
	return err == nil && r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator))
}

// Close stops the watcher
func (w *Watcher) Close() error {
	w.stopTimer()
	return w.watcher.Close()
}

func (w *Watcher) logInfo(format string, args ...interface{}) {
	fmt.Fprintf(w.stdout, "[WATCH] "+format+"\n", args...)
}

func (w *Watcher) logError(format string, args ...interface{}) {
	fmt.Fprintf(w.stderr, "[WATCH ERROR] "+format+"\n", args...)
}
