package audiostore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds synthesized audio blobs until a client retrieves them exactly
// once. Entries are deleted on first retrieval; a janitor sweeps entries
// that were never retrieved so the map cannot grow without bound.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	onEvict func(count int)
}

type entry struct {
	data      []byte
	createdAt time.Time
}

func New(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
}

// SetEvictHook registers a callback invoked with the number of swept
// entries after each janitor pass.
func (s *Store) SetEvictHook(hook func(count int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = hook
}

// Put stores a blob and returns its opaque identifier.
func (s *Store) Put(data []byte) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = entry{data: data, createdAt: time.Now().UTC()}
	return id
}

// Take returns the blob for id and deletes it. A second Take for the same
// id reports not found.
func (s *Store) Take(id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	delete(s.entries, id)
	return e.data, true
}

// Len reports the number of pending blobs.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartJanitor sweeps expired entries until ctx is cancelled.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *Store) sweep() {
	now := time.Now().UTC()

	s.mu.Lock()
	swept := 0
	for id, e := range s.entries {
		if now.Sub(e.createdAt) >= s.ttl {
			delete(s.entries, id)
			swept++
		}
	}
	hook := s.onEvict
	s.mu.Unlock()

	if hook != nil && swept > 0 {
		hook(swept)
	}
}
