// Package history keeps recent comparisons in memory so they can be fetched again by run ID.
package history

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/knoguchi/rankeval/internal/service"
)

type entry struct {
	cmp      *service.Comparison
	storedAt time.Time
}

// Store provides in-memory storage of recent comparisons, bounded by count and age.
type Store struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*entry
	order   []uuid.UUID // oldest first
	maxRuns int
	ttl     time.Duration
	now     func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewStore creates a store holding at most maxRuns comparisons, each for at most ttl.
// A non-positive ttl disables expiry.
func NewStore(maxRuns int, ttl time.Duration) *Store {
	if maxRuns < 1 {
		maxRuns = 1
	}
	s := &Store{
		entries: make(map[uuid.UUID]*entry),
		maxRuns: maxRuns,
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	if ttl > 0 {
		go s.cleanupLoop(cleanupInterval(ttl))
	}

	return s
}

// Record stores a comparison, evicting the oldest when full.
func (s *Store) Record(cmp *service.Comparison) {
	if cmp == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[cmp.RunID]; !exists {
		s.order = append(s.order, cmp.RunID)
	}
	s.entries[cmp.RunID] = &entry{cmp: cmp, storedAt: s.now()}

	for len(s.order) > s.maxRuns {
		delete(s.entries, s.order[0])
		s.order = s.order[1:]
	}
}

// Get returns the comparison with the given run ID.
func (s *Store) Get(id uuid.UUID) (*service.Comparison, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok || s.expired(e) {
		return nil, false
	}
	return e.cmp, true
}

// Recent returns up to n comparisons, newest first.
func (s *Store) Recent(n int) []*service.Comparison {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*service.Comparison, 0, min(n, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(out) < n; i-- {
		e := s.entries[s.order[i]]
		if s.expired(e) {
			continue
		}
		out = append(out, e.cmp)
	}
	return out
}

// Len returns the number of stored comparisons, including expired ones not yet cleaned up.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Close stops the cleanup goroutine.
func (s *Store) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *Store) expired(e *entry) bool {
	return s.ttl > 0 && s.now().Sub(e.storedAt) > s.ttl
}

func cleanupInterval(ttl time.Duration) time.Duration {
	return min(max(ttl/4, time.Second), 5*time.Minute)
}

// cleanupLoop periodically removes expired comparisons.
func (s *Store) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stop:
			return
		}
	}
}

func (s *Store) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.order[:0]
	for _, id := range s.order {
		if s.expired(s.entries[id]) {
			delete(s.entries, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}
