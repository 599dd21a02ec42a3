package store

import (
	"strings"
	"sync"

	paymentdomain "github.com/smallbiznis/payrelay/internal/payment/domain"
)

// MemoryStore keeps processed references for the lifetime of the process.
// It is unbounded: every settled reference stays until restart.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]struct{}
}

var _ paymentdomain.ReferenceStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]struct{})}
}

// Provide exposes the store as the domain interface for fx.
func Provide() paymentdomain.ReferenceStore {
	return NewMemoryStore()
}

func (s *MemoryStore) Contains(reference string) bool {
	reference = strings.TrimSpace(reference)
	if s == nil || reference == "" {
		return false
	}
	s.mu.RLock()
	_, ok := s.items[reference]
	s.mu.RUnlock()
	return ok
}

// MarkProcessed inserts the reference if absent. Only the caller that actually
// inserted gets true, so concurrent marks resolve to a single winner.
func (s *MemoryStore) MarkProcessed(reference string) bool {
	reference = strings.TrimSpace(reference)
	if s == nil || reference == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[reference]; ok {
		return false
	}
	s.items[reference] = struct{}{}
	return true
}

func (s *MemoryStore) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
