package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 100 * time.Millisecond

// Watcher reloads the config file when it or one of its includes changes on
// disk and hands every successfully validated result to its callbacks.
// Invalid edits are logged and the previous config stays in effect.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	onChange []func(*LoadResult)

	// files, includeDirs and dirs come from the last successful load.
	files       map[string]bool
	includeDirs map[string]bool
	dirs        []string
	watched     map[string]bool
}

// NewWatcher creates a watcher for the config file at path.
func NewWatcher(path string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     path,
		debounce: defaultDebounce,
		logger:   logger,
		watched:  make(map[string]bool),
	}
}

// OnChange registers a callback invoked from Run's goroutine after a reload.
func (w *Watcher) OnChange(cb func(*LoadResult)) {
	w.onChange = append(w.onChange, cb)
}

// Run watches until ctx is cancelled. Directories are watched rather than
// files so that editors that replace a file on save are picked up.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	res, err := LoadFromPath(w.path)
	if err != nil {
		w.logger.Warn("config invalid, watching main file only", "error", err)
	}
	w.track(res)
	if err := w.rewatch(fw); err != nil {
		return err
	}
	w.logger.Info("watching config", "path", w.path, "dirs", len(w.watched))

	var debounce *time.Timer
	var fire <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(w.debounce)
			} else {
				debounce.Reset(w.debounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			if w.reload() {
				if err := w.rewatch(fw); err != nil {
					w.logger.Warn("config watcher error", "error", err)
				}
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

// track records what res was built from. A nil res leaves only the main file.
func (w *Watcher) track(res *LoadResult) {
	w.files = map[string]bool{
		filepath.Clean(w.path): true,
		canonicalPath(w.path):  true,
	}
	w.includeDirs = make(map[string]bool)
	w.dirs = []string{filepath.Dir(w.path)}
	if res == nil {
		return
	}
	w.dirs = append(w.dirs, res.WatchDirs()...)
	for _, f := range res.Files {
		w.files[f] = true
	}
	for _, d := range res.IncludeDirs {
		w.includeDirs[d] = true
	}
}

// rewatch makes fw watch exactly the directories the tracked files live in.
func (w *Watcher) rewatch(fw *fsnotify.Watcher) error {
	want := make(map[string]bool, len(w.dirs))
	for _, d := range w.dirs {
		want[d] = true
	}

	for d := range w.watched {
		if !want[d] {
			_ = fw.Remove(d)
			delete(w.watched, d)
		}
	}
	var errs []error
	for d := range want {
		if w.watched[d] {
			continue
		}
		if err := fw.Add(d); err != nil {
			errs = append(errs, fmt.Errorf("watch directory %s: %w", d, err))
			continue
		}
		w.watched[d] = true
	}
	return errors.Join(errs...)
}

// relevant reports whether a change to name can change the loaded config.
func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	if w.files[name] {
		return true
	}
	return w.includeDirs[filepath.Dir(name)] && isYAML(name)
}

// reload loads the config again and reports whether it was delivered.
func (w *Watcher) reload() bool {
	res, err := LoadFromPath(w.path)
	if err != nil {
		w.logger.Error("config reload failed, keeping previous config", "error", err)
		return false
	}
	w.track(res)
	w.logger.Info("config reloaded", "files", len(res.Files))
	for _, cb := range w.onChange {
		cb(res)
	}
	return true
}
