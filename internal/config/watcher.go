// Package config provides configuration management for the Kinship backend.
// This file implements hot reloading of the scoring weights.
package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches the configuration directory and reloads the scoring
// weights when a yaml file changes. Suggestion and trust weights are
// operational tuning knobs; picking them up without a restart lets the
// community team iterate on ranking quality in place. Everything else
// (server, storage) still requires a restart.
type Watcher struct {
	mu        sync.RWMutex
	config    *Config
	loader    *Loader
	callbacks []func(*Config)
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
}

// NewWatcher creates a watcher over the loader's config directory.
func NewWatcher(initial *Config, loader *Loader, logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(loader.basePath); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", loader.basePath, err)
	}

	w := &Watcher{
		config:  initial,
		loader:  loader,
		logger:  logger,
		watcher: fsWatcher,
		stopCh:  make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Current returns the latest valid configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// OnReload registers a callback invoked after every successful reload.
func (w *Watcher) OnReload(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != ".yaml" {
				continue
			}
			w.reload(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

// reload re-runs the full loader so the file hierarchy and env overrides
// keep their precedence. An invalid file keeps the previous configuration.
func (w *Watcher) reload(trigger string) {
	fresh, err := w.loader.Load()
	if err != nil {
		w.logger.Warn("config reload rejected, keeping previous config",
			zap.String("trigger", trigger),
			zap.Error(err))
		return
	}

	w.mu.Lock()
	w.config = fresh
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.logger.Info("configuration reloaded",
		zap.String("trigger", trigger),
		zap.Strings("sources", fresh.LoadedFrom))

	for _, fn := range callbacks {
		fn(fresh)
	}
}
