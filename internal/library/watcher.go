package library

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reconciler is called after files disappear from the library so the
// catalog can drop artifact paths that no longer exist on disk. exists
// reports whether a library-relative path is still present.
type Reconciler func(exists func(rel string) bool)

// Watch starts an fsnotify watcher on the library root and processes file
// change events until ctx is cancelled. Removals and renames are
// debounced into a single reconciliation pass, since users move whole
// category folders around in their file browser.
//
// New directories created at runtime (fresh category or tier folders) are
// automatically added to the watch list.
func Watch(ctx context.Context, lib Provider, logger *slog.Logger, reconcile Reconciler) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := lib.Root()
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	// reconcileTimer debounces removal reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			if reconcile != nil {
				reconcile(lib.Exists)
				logger.Debug("watcher: reconciled")
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
					continue
				}
			}

			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				rel, relErr := filepath.Rel(root, ev.Name)
				if relErr != nil {
					continue
				}
				logger.Debug("watcher: artifact gone", slog.String("path", rel))
				scheduleReconcile()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: error", slog.String("error", err.Error()))
		}
	}
}

// addDirsRecursive adds dir and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}
