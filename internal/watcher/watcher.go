// Package watcher monitors a vault for filesystem changes and triggers
// debounced re-audits. Used by "mag watch".
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a vault directory tree. Events on markdown files and the
// schema file are batched; after a quiet period the OnChange callback fires
// once with every path touched since the last batch.
type Watcher struct {
	root     string
	debounce time.Duration
	onChange func(paths []string)

	fsWatcher *fsnotify.Watcher
	pending   map[string]time.Time
	mu        sync.Mutex
}

// Config holds configuration options for the Watcher.
type Config struct {
	Root     string
	Debounce time.Duration // default: 400ms
	// OnChange receives the batch of changed vault-relative paths.
	OnChange func(paths []string)
}

// New creates a Watcher. It does not start watching until Start is called.
func New(cfg Config) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("vault root is required")
	}
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("change callback is required")
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 400 * time.Millisecond
	}

	return &Watcher{
		root:     cfg.Root,
		debounce: debounce,
		onChange: cfg.OnChange,
		pending:  make(map[string]time.Time),
	}, nil
}

// Start begins watching and blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	if err := w.addWatchRecursive(w.root); err != nil {
		return fmt.Errorf("failed to watch vault: %w", err)
	}

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case _, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if !w.relevant(path) {
		// A new directory still needs a watch so files created inside it
		// are seen.
		if event.Op&fsnotify.Create != 0 {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.addWatchRecursive(path)
			}
		}
		return
	}
	if w.shouldIgnore(path) {
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
		w.schedule(path)
	}
}

// relevant reports whether a change to the path can affect audit results.
func (w *Watcher) relevant(path string) bool {
	return strings.HasSuffix(path, ".md") || filepath.Base(path) == "schema.yaml"
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = time.Now()
}

// processDebounced flushes batches of pending paths once they have been
// quiet for the debounce period.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.flushReady()
		}
	}
}

func (w *Watcher) flushReady() {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, w.relPath(path))
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	if len(ready) == 0 {
		return
	}
	sort.Strings(ready)
	w.onChange(ready)
}

func (w *Watcher) relPath(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) addWatchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // unreadable subtrees are skipped, not fatal
		}
		if info.IsDir() {
			if w.shouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			w.fsWatcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) shouldIgnore(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if ignoredDir(part) {
			return true
		}
	}
	return false
}

func (w *Watcher) shouldIgnoreDir(path string) bool {
	if path == w.root {
		return false
	}
	return ignoredDir(filepath.Base(path))
}

func ignoredDir(name string) bool {
	return name == ".git" || name == ".trash" || name == "node_modules" ||
		(strings.HasPrefix(name, ".") && name != "." && name != "..")
}
