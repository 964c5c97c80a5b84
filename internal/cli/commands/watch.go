package commands

import (
	"context"
	"io/fs"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// Watch transforms files once and again whenever one of them or a macro
// module changes, until ctx is cancelled or the process is interrupted.
// Each rebuild runs against a fresh macro host so edited macros are reloaded.
func (c *CommandContext) Watch(ctx context.Context, files []string, opts *transformFlags) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Watch parent directories: editors often replace files by renaming
	inputs := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		inputs[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}

	macrosDir, err := filepath.Abs(c.Cfg.MacrosDir)
	if err != nil {
		return err
	}
	if err := watchDirRecursive(watcher, macrosDir); err != nil {
		c.Logger.Warn("failed to watch macros directory", "dir", macrosDir, "error", err)
	}

	// Initial build
	c.rebuild(ctx, files, opts)
	c.Renderer.Muted("watching for changes (ctrl-c to stop)")

	// trigger holds at most one pending rebuild
	trigger := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
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
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 && isUnder(macrosDir, event.Name) {
				// New macro subdirectories need their own watch.
				_ = watchDirRecursive(watcher, event.Name)
			}
			// Only inputs and .star modules matter
			if !inputs[event.Name] && !(isUnder(macrosDir, event.Name) && filepath.Ext(event.Name) == ".star") {
				continue
			}

			c.Logger.Debug("file changed", "file", event.Name, "op", event.Op.String())
			// Debounce: a save often fires several events
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			c.rebuild(ctx, files, opts)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.Logger.Error("watcher error", "error", err)
		}
	}
}

// rebuild runs one transform pass. Failures are already reported per file,
// so they do not end the watch.
func (c *CommandContext) rebuild(ctx context.Context, files []string, opts *transformFlags) {
	start := time.Now()
	if _, err := c.runTransform(ctx, files, opts); err != nil && ctx.Err() == nil {
		c.Renderer.Error(err.Error())
	}
	c.Logger.Debug("rebuild finished", "duration", time.Since(start))
}

func isUnder(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && filepath.IsLocal(rel)
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
