package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads configuration when the config file changes on disk.
// Used by `agora serve` for live log-level adjustments.
type Watcher struct {
	loader   *Loader
	path     string
	onChange func(*Config)
	debounce time.Duration
}

// NewWatcher creates a watcher for the given config file. The callback runs
// with the freshly loaded config after every successful reload; reloads that
// fail to parse or validate are dropped silently.
func NewWatcher(loader *Loader, path string, onChange func(*Config)) *Watcher {
	return &Watcher{
		loader:   loader,
		path:     path,
		onChange: onChange,
		debounce: 250 * time.Millisecond,
	}
}

// Watch blocks until ctx is cancelled, invoking the callback on changes.
// Editors often replace the file via rename, so the parent directory is
// watched rather than the file itself.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return err
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			w.reload()
		case _, ok := <-fw.Errors:
			if !ok {
				return nil
			}
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := w.loader.Load()
	if err != nil {
		return
	}
	if err := ValidateConfig(cfg); err != nil {
		return
	}
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
