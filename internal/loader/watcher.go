package loader

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/marrow-labs/docchat-cli/internal/logger"
)

// DefaultDebounce batches the burst of events an editor save produces into
// one reload.
const DefaultDebounce = 500 * time.Millisecond

// Watch monitors root for changes and invokes fn with the changed paths
// after a debounce window. It blocks until ctx is cancelled.
func (l *Loader) Watch(ctx context.Context, root string, debounce time.Duration, fn func(paths []string)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addRecursive(watcher, root); err != nil {
		return err
	}
	logger.Info("Watching %s for changes", root)

	pending := make(map[string]bool)
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				// New directories must be watched too
				if err := addRecursive(watcher, event.Name); err == nil {
					logger.Debug("Watching new path %s", event.Name)
				}
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if !l.accepts(event.Name) || strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}
			pending[event.Name] = true
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-timerC:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				pending[p] = false
				paths = append(paths, p)
			}
			pending = make(map[string]bool)
			timerC = nil
			if len(paths) > 0 {
				fn(paths)
			}
		}
	}
}

// addRecursive watches a directory tree, skipping hidden directories. Files
// are covered by their parent directory's watch.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			// A file root is watched directly; files under a directory
			// are covered by the directory watch.
			if path == root {
				return watcher.Add(path)
			}
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
