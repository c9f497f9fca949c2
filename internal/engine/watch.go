package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch runs once and then re-runs whenever the input or mapping file is
// written or replaced, until ctx is cancelled. onRun receives the outcome of
// every run. Runs never overlap: they execute on the watch loop itself.
func (e *Engine) Watch(ctx context.Context, onRun func(*RunResult, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	targets := make(map[string]bool, 2)
	dirs := make(map[string]bool, 2)
	for _, p := range []string{e.cfg.InputPath, e.cfg.MappingPath} {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	// Editors often save by renaming a new file over the old one, which drops
	// a watch placed on the file itself; watch the parent directories instead.
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	e.logger.Info("watching for changes", "input", e.cfg.InputPath, "mapping", e.cfg.MappingPath)
	onRun(e.Run(ctx))

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

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !targets[abs] {
				continue
			}

			e.logger.Debug("input changed", "file", event.Name, "op", event.Op.String())
			if debounce == nil {
				debounce = time.NewTimer(e.cfg.WatchDebounce)
			} else {
				debounce.Reset(e.cfg.WatchDebounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			onRun(e.Run(ctx))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("watcher error", "error", err)
		}
	}
}
