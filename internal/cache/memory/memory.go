package memory

import (
	"context"
	"sync"

	"github.com/DMarby/filterlab/internal/cache"
)

// Provider implements a simple in-memory cache
type Provider[V any] struct {
	cache map[string]V
	mutex sync.RWMutex
}

// New returns a new Provider instance
func New[V any]() *Provider[V] {
	return &Provider[V]{
		cache: make(map[string]V),
	}
}

// Get returns an object from the cache if it exists
func (p *Provider[V]) Get(ctx context.Context, key string) (value V, err error) {
	p.mutex.RLock()
	value, exists := p.cache[key]
	p.mutex.RUnlock()

	if !exists {
		return value, cache.ErrNotFound
	}

	return value, nil
}

// Set adds an object to the cache
func (p *Provider[V]) Set(ctx context.Context, key string, value V) (err error) {
	p.mutex.Lock()
	p.cache[key] = value
	p.mutex.Unlock()

	return nil
}

// Len returns the amount of cached objects
func (p *Provider[V]) Len() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return len(p.cache)
}

// Shutdown drops every cached object
func (p *Provider[V]) Shutdown() {
	p.mutex.Lock()
	p.cache = make(map[string]V)
	p.mutex.Unlock()
}
