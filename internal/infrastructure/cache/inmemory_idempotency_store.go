// Package cache holds the request idempotency stores used to keep retried
// checkouts and refunds from being applied twice.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/posledger/internal/domain/shared"
)

type reservation struct {
	expiresAt time.Time
}

// InMemoryIdempotencyStore implements IdempotencyStore using an in-memory map.
// Reservations are not shared between processes.
type InMemoryIdempotencyStore struct {
	mu        sync.Mutex
	entries   map[string]reservation
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates a store and starts its sweeper
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		entries:  make(map[string]reservation),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	store.wg.Add(1)
	go store.sweepLoop(5 * time.Minute)
	return store
}

// MarkProcessed reserves key for ttl. Returns false if an unexpired
// reservation already exists.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if r, ok := s.entries[key]; ok && now.Before(r.expiresAt) {
		return false, nil
	}
	s.entries[key] = reservation{expiresAt: now.Add(ttl)}
	return true, nil
}

// IsProcessed reports whether key holds an unexpired reservation
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.entries[key]
	return ok && s.now().Before(r.expiresAt), nil
}

// Release drops the reservation for key
func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Close stops the sweeper. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, r := range s.entries {
		if !now.Before(r.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Size returns the number of reservations held
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
