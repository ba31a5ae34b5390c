package definition

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchOption adjusts a Watcher.
type WatchOption func(*Watcher)

// WithWatchLogger sets the logger the watcher reports through. The default
// logger discards everything.
func WithWatchLogger(logger *slog.Logger) WatchOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce sets how long file events must settle before a reload runs.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher reloads a definition directory when its files change. Rapid saves
// are debounced into a single reload; the whole directory is reparsed so
// cross-file duplicate checks stay accurate.
type Watcher struct {
	dir      string
	onReload func(*Registry, error)
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	pending map[string]time.Time
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher builds a watcher over dir. onReload receives the freshly loaded
// registry after every settled change, or the load error when the directory
// no longer parses.
func NewWatcher(dir string, onReload func(*Registry, error), opts ...WatchOption) (*Watcher, error) {
	w := &Watcher{
		dir:      dir,
		onReload: onReload,
		debounce: 250 * time.Millisecond,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Start begins watching. It is non-blocking; the event loop runs on its own
// goroutine until Stop is called or ctx is cancelled. A watcher runs once;
// create a new one after Stop.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return err
	}
	w.watcher = watcher
	w.running = true
	w.logger.Info("definition watcher: watching", "dir", w.dir)

	go w.run(ctx)
	return nil
}

// Stop halts the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("definition watcher: close", "error", err)
	}
}

// Watching reports whether the event loop is running.
func (w *Watcher) Watching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounce / 2
	if tick < 50*time.Millisecond {
		tick = 50 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("definition watcher: context cancelled")
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("definition watcher: fsnotify", "error", err)
		case <-ticker.C:
			w.flushSettled()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !isDefinitionFile(event.Name) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.logger.Debug("definition watcher: event", "op", event.Op.String(), "path", event.Name)

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// flushSettled reloads once everything pending has been quiet for the
// debounce window, so a burst of saves produces a single reload.
func (w *Watcher) flushSettled() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	now := time.Now()
	for _, at := range w.pending {
		if now.Sub(at) < w.debounce {
			w.mu.Unlock()
			return
		}
	}
	changed := len(w.pending)
	w.pending = make(map[string]time.Time)
	w.mu.Unlock()

	reg, err := LoadDir(w.dir)
	if err != nil {
		w.logger.Error("definition watcher: reload failed", "error", err)
	} else {
		w.logger.Info("definition watcher: reloaded", "files", changed, "forms", len(reg.Names()))
	}
	if w.onReload != nil {
		w.onReload(reg, err)
	}
}
