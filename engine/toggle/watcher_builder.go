package toggle

// WatcherBuilderOption is a functional option applied to a Watcher during construction via NewWatcher.
type WatcherBuilderOption func(*watcher)

// WithOnLoad sets a callback run after every load attempt with its error.
//
// Parameters:
//   - fn: the callback
//
// Returns:
//   - WatcherBuilderOption: a function that sets the callback
func WithOnLoad(fn func(err error)) WatcherBuilderOption {
	return func(w *watcher) {
		w.onLoad = fn
	}
}
