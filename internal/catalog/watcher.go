package catalog

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/folio/internal/storage"
)

// reindexDelay debounces bursts of sidecar changes into one index pass.
const reindexDelay = 300 * time.Millisecond

// IndexCallback is called after each watcher-driven index pass.
type IndexCallback func(IndexReport, error)

// Watch runs an index pass, then watches the catalog root and re-runs the
// pass whenever a sidecar is created, changed, removed or renamed. It
// returns when ctx is cancelled.
//
// New directories created at runtime are automatically added to the watch
// list. A failed pass is logged and does not stop the watcher.
func (s *Service) Watch(ctx context.Context, root string, cb IndexCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	s.reindex(ctx, cb)
	s.logger.Info("watcher: started", slog.String("root", root))

	timer := time.NewTimer(reindexDelay)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("watcher: stopped")
			return nil

		case <-timer.C:
			s.reindex(ctx, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if hidden(filepath.Base(ev.Name)) {
						continue
					}
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						s.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						s.logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
					if ev.Name != filepath.Join(root, OutputDir) {
						timer.Reset(reindexDelay)
					}
					continue
				}
			}

			base := filepath.Base(ev.Name)
			if hidden(base) || !strings.HasSuffix(base, storage.MetaExt) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			s.logger.Debug("watcher: metadata changed", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			timer.Reset(reindexDelay)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (s *Service) reindex(ctx context.Context, cb IndexCallback) {
	rep, err := s.Index(ctx)
	if err != nil {
		s.logger.Warn("watcher: index failed", slog.String("error", err.Error()))
	}
	if cb != nil {
		cb(rep, err)
	}
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
