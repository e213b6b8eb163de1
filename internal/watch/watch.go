package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tandem-cli/internal/logs"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports debounced changes below a set of roots.
type Watcher struct {
	fs     *fsnotify.Watcher
	notify *Debounced
	log    *slog.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// Start watches roots (files or directories, recursively) and calls onChange
// after changes settle for delay.
func Start(roots []string, delay time.Duration, onChange func(), logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		fs:     fw,
		notify: NewDebounced(delay, onChange),
		log:    logs.Discard(logger),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	for _, root := range roots {
		if err := w.add(root); err != nil {
			cancel()
			_ = fw.Close()
			return nil, err
		}
	}
	go w.loop(ctx)
	return w, nil
}

func (w *Watcher) add(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return w.fs.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			w.log.Debug("watch: cannot watch", "path", path, "err", err)
		}
		return nil
	})
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules"
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !skipDir(info.Name()) {
					_ = w.add(ev.Name)
				}
			}
			w.log.Debug("watch: change", "path", ev.Name, "op", ev.Op.String())
			w.notify.Notify()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch: error", "err", err)
		}
	}
}

func (w *Watcher) Close() error {
	w.notify.Stop()
	w.cancel()
	err := w.fs.Close()
	<-w.done
	return err
}
