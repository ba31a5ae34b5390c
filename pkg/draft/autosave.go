package draft

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/goliatone/go-formstate/pkg/form"
)

// AutosaveOption adjusts an autosaver.
type AutosaveOption func(*autosaver)

// WithAutosaveDebounce sets how long edits must settle before a save runs.
// A zero duration saves synchronously on every change.
func WithAutosaveDebounce(d time.Duration) AutosaveOption {
	return func(a *autosaver) {
		if d >= 0 {
			a.debounce = d
		}
	}
}

// WithAutosaveLogger sets the logger save failures are reported through. The
// default logger discards everything.
func WithAutosaveLogger(logger *slog.Logger) AutosaveOption {
	return func(a *autosaver) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithAutosaveContext sets the context passed to the store on background
// saves. The default is context.Background.
func WithAutosaveContext(ctx context.Context) AutosaveOption {
	return func(a *autosaver) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

type autosaver struct {
	form     *form.Form
	store    Store
	formID   string
	debounce time.Duration
	logger   *slog.Logger
	ctx      context.Context

	mu       sync.Mutex
	dirty    bool
	lastEdit time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// Autosave persists the engine's state to the store whenever values or
// touched flags change. Edits are debounced so a typing burst produces one
// write. The returned stop function detaches from the engine, flushes any
// pending save, and is safe to call more than once.
func Autosave(f *form.Form, store Store, formID string, opts ...AutosaveOption) (stop func()) {
	a := &autosaver{
		form:     f,
		store:    store,
		formID:   formID,
		debounce: 500 * time.Millisecond,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	cancel := f.Subscribe(editSelector, a.onEdit)

	if a.debounce > 0 {
		a.stopCh = make(chan struct{})
		a.doneCh = make(chan struct{})
		go a.run()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			if a.stopCh != nil {
				close(a.stopCh)
				<-a.doneCh
			}
			a.flushPending()
		})
	}
}

// editSelector narrows the subscription to the trees a draft captures, so
// error churn and submit bookkeeping do not trigger writes.
func editSelector(s form.State) any {
	return []any{s.Values, s.Touched}
}

func (a *autosaver) onEdit(form.State) {
	if a.debounce <= 0 {
		a.save()
		return
	}
	a.mu.Lock()
	a.dirty = true
	a.lastEdit = time.Now()
	a.mu.Unlock()
}

func (a *autosaver) run() {
	defer close(a.doneCh)

	tick := a.debounce / 2
	if tick < 50*time.Millisecond {
		tick = 50 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			a.mu.Lock()
			settled := a.dirty && time.Since(a.lastEdit) >= a.debounce
			if settled {
				a.dirty = false
			}
			a.mu.Unlock()
			if settled {
				a.save()
			}
		}
	}
}

// flushPending writes the draft one last time when edits were still waiting
// out the debounce window.
func (a *autosaver) flushPending() {
	a.mu.Lock()
	dirty := a.dirty
	a.dirty = false
	a.mu.Unlock()
	if dirty {
		a.save()
	}
}

func (a *autosaver) save() {
	if err := a.store.Save(a.ctx, Capture(a.formID, a.form)); err != nil {
		a.logger.Error("draft: autosave failed", "form", a.formID, "error", err)
		return
	}
	a.logger.Debug("draft: autosaved", "form", a.formID)
}
