package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"pomodoro/timerd/internal/model"
)

const defaultDebounce = 250 * time.Millisecond

// DefaultsWatcher reloads the defaults file whenever it changes on disk and
// hands the result to a callback. Bursts of events are coalesced.
type DefaultsWatcher struct {
	path     string
	onChange func(model.TimerSettings)
	debounce time.Duration
	logger   logrus.FieldLogger

	mu    sync.Mutex
	timer *time.Timer
}

func NewDefaultsWatcher(path string, onChange func(model.TimerSettings), logger logrus.FieldLogger) *DefaultsWatcher {
	return &DefaultsWatcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		debounce: defaultDebounce,
		logger:   logger.WithFields(logrus.Fields{"component": "defaults_watcher", "path": path}),
	}
}

// SetDebounce sets how long the watcher waits for events to settle.
func (w *DefaultsWatcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// Run watches until ctx is cancelled. The parent directory is watched rather
// than the file so that editors replacing the file are noticed.
func (w *DefaultsWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Debug("watching defaults file")

	defer w.stopTimer()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("watch defaults file")
		}
	}
}

func (w *DefaultsWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *DefaultsWatcher) reload() {
	settings, err := LoadDefaults(w.path)
	if err != nil {
		w.logger.WithError(err).Warn("reload defaults, keeping previous values")
		return
	}
	w.logger.Info("defaults file reloaded")
	w.onChange(settings)
}

func (w *DefaultsWatcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
