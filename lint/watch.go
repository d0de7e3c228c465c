package lint

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	tt "github.com/gnoverse/glint/pkg/types"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher re-lints paths whenever the files under them change. Bursts of
// filesystem events collapse into a single run.
type Watcher struct {
	runner   *Runner
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration
}

// NewWatcher wraps a runner with filesystem watching.
func NewWatcher(runner *Runner) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{
		runner:   runner,
		watcher:  fsw,
		logger:   runner.logger,
		debounce: defaultDebounce,
	}, nil
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Watch registers the paths, runs once, then blocks until ctx is done.
// Every completed run is handed to onReport.
func (w *Watcher) Watch(ctx context.Context, paths []string, onReport func(*tt.Report)) error {
	for _, path := range paths {
		if err := w.register(path); err != nil {
			return err
		}
	}

	if err := w.rerun(ctx, paths, onReport); err != nil {
		return err
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	dirty := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event) {
				continue
			}
			w.logger.Debug("file changed",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()))
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			dirty = true

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", zap.Error(err))

		case <-timer.C:
			if !dirty {
				continue
			}
			dirty = false
			if err := w.rerun(ctx, paths, onReport); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) rerun(ctx context.Context, paths []string, onReport func(*tt.Report)) error {
	report, err := w.runner.Run(ctx, paths)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.logger.Error("run failed", zap.Error(err))
		return nil
	}
	onReport(report)
	return nil
}

// register adds path to the watch set. Directories are watched recursively;
// fsnotify only reports events for directories it was told about, so every
// subdirectory is added.
func (w *Watcher) register(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return configErrorf("cannot watch %s: %w", path, err)
	}
	if !info.IsDir() {
		return w.watcher.Add(path)
	}
	return filepath.WalkDir(path, func(sub string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(sub)
		}
		return nil
	})
}

// relevantEvent keeps writes, creations and renames of lintable files.
func relevantEvent(event fsnotify.Event) bool {
	if !hasDesiredExtension(event.Name) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}
