package draft

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// MemoryStore keeps drafts in process memory. Payloads are deep-copied on the
// way in and out, so a caller mutating a draft after Save or Load never
// reaches the stored copy.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string]Draft
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string]Draft)}
}

// Save stores a deep copy of the draft under its FormID.
func (s *MemoryStore) Save(ctx context.Context, d Draft) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.FormID == "" {
		return errors.New("draft: missing form id")
	}
	s.mu.Lock()
	s.drafts[d.FormID] = d.Clone()
	s.mu.Unlock()
	return nil
}

// Load returns a deep copy of the draft for formID.
func (s *MemoryStore) Load(ctx context.Context, formID string) (Draft, error) {
	if err := ctx.Err(); err != nil {
		return Draft{}, err
	}
	s.mu.RLock()
	d, ok := s.drafts[formID]
	s.mu.RUnlock()
	if !ok {
		return Draft{}, ErrNotFound
	}
	return d.Clone(), nil
}

// Delete removes the draft for formID.
func (s *MemoryStore) Delete(ctx context.Context, formID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.drafts, formID)
	s.mu.Unlock()
	return nil
}

// List returns the stored form ids, sorted.
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	ids := make([]string, 0, len(s.drafts))
	for id := range s.drafts {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids, nil
}

// Close drops every stored draft.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.drafts = make(map[string]Draft)
	s.mu.Unlock()
	return nil
}
