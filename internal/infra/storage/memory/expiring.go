package memory

import (
	"context"
	"sync"
	"time"
)

type expiringEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// Expiring is a keyed store whose entries vanish after their TTL. Reads ignore expired entries
// and Sweep or Run evict them.
type Expiring[K comparable, V any] struct {
	mu    sync.Mutex
	items map[K]expiringEntry[V]
	now   func() time.Time
}

func NewExpiring[K comparable, V any](now func() time.Time) *Expiring[K, V] {
	if now == nil {
		now = time.Now
	}
	return &Expiring[K, V]{items: make(map[K]expiringEntry[V]), now: now}
}

func (e *Expiring[K, V]) Set(key K, value V, ttl time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items[key] = expiringEntry[V]{value: value, expiresAt: e.now().Add(ttl)}
}

// SetIfAbsent stores value unless a live entry exists and reports whether it stored.
func (e *Expiring[K, V]) SetIfAbsent(key K, value V, ttl time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if entry, ok := e.items[key]; ok && e.now().Before(entry.expiresAt) {
		return false
	}
	e.items[key] = expiringEntry[V]{value: value, expiresAt: e.now().Add(ttl)}
	return true
}

func (e *Expiring[K, V]) Get(key K) (V, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.items[key]
	if !ok || !e.now().Before(entry.expiresAt) {
		var zero V
		return zero, false
	}
	return entry.value, true
}

func (e *Expiring[K, V]) Delete(key K) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.items, key)
}

// Sweep evicts expired entries and returns how many were removed.
func (e *Expiring[K, V]) Sweep() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.now()
	removed := 0
	for k, entry := range e.items {
		if !now.Before(entry.expiresAt) {
			delete(e.items, k)
			removed++
		}
	}
	return removed
}

func (e *Expiring[K, V]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.items)
}

// Run sweeps on every tick until ctx is done.
func (e *Expiring[K, V]) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Sweep()
		}
	}
}
