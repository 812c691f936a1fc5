package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Constants for in-memory cache configuration
const (
	defaultCleanupInterval = 30 * time.Second
)

// MemoryStore is the L1 rate cache: a process-local TTL'd byte store with
// a background cleanup goroutine. It is safe for concurrent use.
type MemoryStore struct {
	entries sync.Map // map[string]*memoryEntry
	stopCh  chan struct{}
	stopped int32

	// Stats for monitoring
	hits   int64
	misses int64
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e *memoryEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// NewMemoryStore creates a new in-memory store and starts its cleanup
// goroutine. Call Stop when the store is no longer needed.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}
	s := &MemoryStore{stopCh: make(chan struct{})}
	go s.cleanupExpired(cleanupInterval)
	return s
}

// Get returns the cached value for the key, reporting a miss for expired
// entries
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.entries.Load(key)
	if !ok {
		atomic.AddInt64(&s.misses, 1)
		return nil, false, nil
	}
	entry := v.(*memoryEntry)
	if entry.isExpired() {
		s.entries.Delete(key)
		atomic.AddInt64(&s.misses, 1)
		return nil, false, nil
	}
	atomic.AddInt64(&s.hits, 1)
	return entry.value, true, nil
}

// Set stores the value under the key for the TTL
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.entries.Store(key, &memoryEntry{value: value, expiresAt: time.Now().Add(ttl)})
	return nil
}

// Delete removes the keys
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.entries.Delete(key)
	}
	return nil
}

// DeletePrefix removes every key starting with the prefix
func (s *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	s.entries.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			s.entries.Delete(key)
		}
		return true
	})
	return nil
}

// Stats returns hit and miss counters
func (s *MemoryStore) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&s.hits), atomic.LoadInt64(&s.misses)
}

// Stop terminates the cleanup goroutine. The store remains usable; expired
// entries are then only evicted lazily on read.
func (s *MemoryStore) Stop() {
	if atomic.CompareAndSwapInt32(&s.stopped, 0, 1) {
		close(s.stopCh)
	}
}

func (s *MemoryStore) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.entries.Range(func(key, value any) bool {
				if value.(*memoryEntry).isExpired() {
					s.entries.Delete(key)
				}
				return true
			})
		}
	}
}
