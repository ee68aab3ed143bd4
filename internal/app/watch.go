package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/whenever-systemd/internal/ctxlog"
	"github.com/vk/whenever-systemd/internal/fsutil"
	"github.com/vk/whenever-systemd/internal/hcl"
)

// debounceDelay collapses the burst of events an editor save produces.
const debounceDelay = 250 * time.Millisecond

// watch shows the schedule, then shows it again after every change until
// ctx is done. Evaluation errors are logged and do not stop watching.
func (a *App) watch(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	dirs, err := watchDirs(a.config.File)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	logger.Info("Watching schedule for changes.", "path", a.config.File, "dirs", len(dirs))

	a.rerender(ctx)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Watch stopped.")
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return errors.New("watcher closed unexpectedly")
			}
			if !a.relevant(ev) {
				continue
			}
			logger.Debug("Schedule change detected.", "file", ev.Name, "op", ev.Op.String())
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.Add(ev.Name)
				}
			}
			pending = time.After(debounceDelay)
		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("watcher closed unexpectedly")
			}
			logger.Warn("Watcher error.", "error", err)
		case <-pending:
			pending = nil
			a.rerender(ctx)
		}
	}
}

func (a *App) rerender(ctx context.Context) {
	if err := a.show(ctx); err != nil {
		ctxlog.FromContext(ctx).Error("Failed to render schedule.", "error", err)
	}
}

// relevant reports whether ev touches the schedule.
func (a *App) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(ev.Name)
	if filepath.Ext(a.config.File) == hcl.Extension {
		return name == filepath.Clean(a.config.File)
	}
	return strings.HasSuffix(name, hcl.Extension)
}

// watchDirs returns the directories to watch for path: the parent of a
// file, or a directory tree without hidden directories.
func watchDirs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{filepath.Dir(path)}, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return []string{filepath.Dir(path)}, nil
	}

	return fsutil.FindDirs(path)
}
