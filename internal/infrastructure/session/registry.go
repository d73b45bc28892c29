package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pokefinder/backend/internal/domain"
	"github.com/pokefinder/backend/internal/infrastructure/metrics"
)

// DefaultCleanupInterval is how often expired sessions are swept
const DefaultCleanupInterval = time.Minute

// EvictFunc is called once for every session leaving the registry, outside the registry lock
type EvictFunc[T any] func(id string, value T)

// entry represents a single session with a sliding expiration
type entry[T any] struct {
	value      T
	expiration time.Time
}

// Registry is a thread-safe in-memory session store with sliding TTL
type Registry[T any] struct {
	data    map[string]entry[T]
	mutex   sync.RWMutex
	ttl     time.Duration
	onEvict EvictFunc[T]
	now     func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// NewRegistry creates a registry whose sessions expire after ttl of inactivity
func NewRegistry[T any](ttl, cleanupInterval time.Duration, onEvict EvictFunc[T]) *Registry[T] {
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	r := &Registry[T]{
		data:    make(map[string]entry[T]),
		ttl:     ttl,
		onEvict: onEvict,
		now:     time.Now,
		done:    make(chan struct{}),
	}

	go r.cleanupExpired(cleanupInterval)

	return r
}

// Create stores value under a fresh id and returns the id
func (r *Registry[T]) Create(value T) string {
	id := uuid.NewString()

	r.mutex.Lock()
	r.data[id] = entry[T]{value: value, expiration: r.now().Add(r.ttl)}
	r.mutex.Unlock()

	metrics.ActiveSessions.Inc()
	return id
}

// Get returns the session for id and extends its expiration
func (r *Registry[T]) Get(id string) (T, error) {
	var zero T

	r.mutex.Lock()
	item, exists := r.data[id]
	if !exists {
		r.mutex.Unlock()
		return zero, domain.ErrSessionNotFound
	}

	now := r.now()
	if now.After(item.expiration) {
		delete(r.data, id)
		r.mutex.Unlock()
		r.evict(id, item.value)
		return zero, domain.ErrSessionNotFound
	}

	item.expiration = now.Add(r.ttl)
	r.data[id] = item
	r.mutex.Unlock()

	return item.value, nil
}

// Delete removes the session for id
func (r *Registry[T]) Delete(id string) error {
	r.mutex.Lock()
	item, exists := r.data[id]
	if exists {
		delete(r.data, id)
	}
	r.mutex.Unlock()

	if !exists {
		return domain.ErrSessionNotFound
	}
	r.evict(id, item.value)
	return nil
}

// Size returns the current number of sessions, expired ones included until swept
func (r *Registry[T]) Size() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.data)
}

// Close stops the sweeper and evicts every session
func (r *Registry[T]) Close() {
	r.closeOnce.Do(func() {
		close(r.done)

		r.mutex.Lock()
		items := r.data
		r.data = make(map[string]entry[T])
		r.mutex.Unlock()

		for id, item := range items {
			r.evict(id, item.value)
		}
	})
}

// sweep removes expired sessions
func (r *Registry[T]) sweep() {
	r.mutex.Lock()
	now := r.now()
	expired := make(map[string]T)
	for id, item := range r.data {
		if now.After(item.expiration) {
			expired[id] = item.value
			delete(r.data, id)
		}
	}
	r.mutex.Unlock()

	for id, value := range expired {
		r.evict(id, value)
	}
}

// cleanupExpired sweeps expired sessions periodically until Close
func (r *Registry[T]) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.done:
			return
		}
	}
}

func (r *Registry[T]) evict(id string, value T) {
	metrics.ActiveSessions.Dec()
	if r.onEvict != nil {
		r.onEvict(id, value)
	}
}
