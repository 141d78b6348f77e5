package toggle

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

// watcher is the implementation of the Watcher interface.
type watcher struct {
	mu *sync.Mutex

	set     Set
	path    string
	fs      *fsnotify.Watcher
	reloads int
	started bool
	done    chan struct{}
	onLoad  func(err error)
}

// Watcher reloads a toggle file into a Set whenever the file is written.
//
// The directory holding the file is watched rather than the file itself, so editors that replace
// the file by rename are picked up. Reloaded values are queued; they take effect at the next Apply.
type Watcher interface {
	// Start loads the file once and then watches it until the context is cancelled or Close is called.
	//
	// Parameters:
	//   - ctx: cancels the watch loop
	//
	// Returns:
	//   - error: the error of the initial load
	Start(ctx context.Context) error

	// Reloads returns how many times the file was loaded.
	Reloads() int

	// Close stops watching and waits for the watch loop to exit.
	//
	// Returns:
	//   - error: the error closing the underlying watcher
	Close() error
}

var _ Watcher = &watcher{}

// NewWatcher creates a Watcher for a toggle file.
//
// Parameters:
//   - s: the toggle set reloaded values are queued on
//   - path: the toggle file
//   - options: functional options
//
// Returns:
//   - Watcher: the watcher
//   - error: path expansion or fsnotify errors
func NewWatcher(s Set, path string, options ...WatcherBuilderOption) (Watcher, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("toggle watcher: %w", err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("toggle watcher: %w", err)
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("toggle watcher: %w", err)
	}
	w := &watcher{
		mu:   &sync.Mutex{},
		set:  s,
		path: abs,
		fs:   fs,
		done: make(chan struct{}),
	}
	for _, opt := range options {
		opt(w)
	}
	return w, nil
}

func (w *watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()

	loadErr := w.load()
	if err := w.fs.Add(filepath.Dir(w.path)); err != nil {
		close(w.done)
		return fmt.Errorf("toggle watcher: %w", err)
	}
	go w.loop(ctx)
	return loadErr
}

func (w *watcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.load()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			common.Logger().Warn("toggle watcher error", zap.String("path", w.path), zap.Error(err))
		}
	}
}

func (w *watcher) load() error {
	err := LoadFile(w.set, w.path)
	w.mu.Lock()
	w.reloads++
	onLoad := w.onLoad
	w.mu.Unlock()
	if err != nil {
		common.Logger().Warn("toggle file not applied", zap.String("path", w.path), zap.Error(err))
	} else {
		common.Logger().Debug("toggle file loaded", zap.String("path", w.path))
	}
	if onLoad != nil {
		onLoad(err)
	}
	return err
}

func (w *watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

func (w *watcher) Close() error {
	err := w.fs.Close()
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()
	if started {
		<-w.done
	}
	return err
}
