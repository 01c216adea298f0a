package config

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RELOAD_DEBOUNCE is the quiet time after the last write before a reload
const RELOAD_DEBOUNCE = 100 * time.Millisecond

// Watcher reloads a settings file when it changes on disk. The parent
// directory is watched so editors replacing the file are picked up.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func(*Settings)
	logger   *slog.Logger
	Errors   chan error
	closeCh  chan struct{}
	done     chan struct{}
	once     sync.Once
}

// Watch calls onChange from the watcher goroutine with every valid reload of
// path. Invalid files are logged and reported on Errors, the previous
// settings stay in use.
func Watch(path string, logger *slog.Logger, onChange func(*Settings)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher := &Watcher{
		watcher:  w,
		path:     abs,
		onChange: onChange,
		logger:   logger,
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)

	timer := time.NewTimer(RELOAD_DEBOUNCE)
	timer.Stop()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			timer.Reset(RELOAD_DEBOUNCE)
		case <-timer.C:
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		case <-w.closeCh:
			timer.Stop()
			return
		}
	}
}

func (w *Watcher) reload() {
	settings, err := Load(w.path)
	if err != nil {
		w.logger.Warn("settings reload failed", "path", w.path, "error", err)
		w.report(err)
		return
	}
	w.logger.Debug("settings reloaded", "path", w.path)
	w.onChange(settings)
}

// report drops the error when the previous one was not read yet
func (w *Watcher) report(err error) {
	select {
	case w.Errors <- err:
	default:
	}
}
