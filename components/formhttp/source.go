package formhttp

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-formstate/pkg/definition"
)

// Source resolves form definitions by name. *definition.Registry satisfies it
// directly for static sets.
type Source interface {
	Form(name string) (definition.Form, bool)
	Names() []string
}

// DirSource serves definitions from a directory and keeps them current: a
// watcher reloads the whole set when files settle, and the last good registry
// keeps serving while a broken edit is being fixed.
type DirSource struct {
	mu      sync.RWMutex
	reg     *definition.Registry
	watcher *definition.Watcher
}

// NewDirSource loads dir and starts watching it. Close stops the watcher.
func NewDirSource(dir string, opts ...definition.WatchOption) (*DirSource, error) {
	reg, err := definition.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("formhttp: load definitions: %w", err)
	}
	s := &DirSource{reg: reg}

	watcher, err := definition.NewWatcher(dir, s.onReload, opts...)
	if err != nil {
		return nil, fmt.Errorf("formhttp: watch definitions: %w", err)
	}
	if err := watcher.Start(context.Background()); err != nil {
		return nil, fmt.Errorf("formhttp: watch definitions: %w", err)
	}
	s.watcher = watcher
	return s, nil
}

func (s *DirSource) onReload(reg *definition.Registry, err error) {
	if err != nil || reg == nil {
		return
	}
	s.mu.Lock()
	s.reg = reg
	s.mu.Unlock()
}

// Form returns the definition registered under name.
func (s *DirSource) Form(name string) (definition.Form, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg.Form(name)
}

// Names lists the served form names, sorted.
func (s *DirSource) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg.Names()
}

// Close stops the directory watcher.
func (s *DirSource) Close() error {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	return nil
}
