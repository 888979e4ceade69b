package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/DMarby/filterlab/internal/cache"
)

// Keys with scripted behavior
const (
	KeyNotFound  = "notfound"    // Get reports cache.ErrNotFound
	KeyLoadError = "notfounderr" // Get reports cache.ErrNotFound, for pairing with a failing loader
	KeySetError  = "seterror"    // Get reports cache.ErrNotFound and Set fails
	KeyError     = "error"       // Get fails
)

// Errors returned for the scripted keys
var (
	ErrGet = errors.New("error")
	ErrSet = errors.New("seterror")
)

// Provider is a cache of byte slices that echoes other keys back as their value and records every Set
type Provider struct {
	mutex  sync.Mutex
	stored map[string][]byte
}

// Get returns an object from the cache if it exists
func (p *Provider) Get(ctx context.Context, key string) (data []byte, err error) {
	p.mutex.Lock()
	data, ok := p.stored[key]
	p.mutex.Unlock()
	if ok {
		return data, nil
	}

	switch key {
	case KeyNotFound, KeyLoadError, KeySetError:
		return nil, cache.ErrNotFound
	case KeyError:
		return nil, ErrGet
	}

	return []byte(key), nil
}

// Set adds an object to the cache
func (p *Provider) Set(ctx context.Context, key string, data []byte) (err error) {
	if key == KeySetError {
		return ErrSet
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.stored == nil {
		p.stored = make(map[string][]byte)
	}
	p.stored[key] = data

	return nil
}

// Stored returns what was set for key
func (p *Provider) Stored(key string) ([]byte, bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	data, ok := p.stored[key]
	return data, ok
}

// Shutdown shuts down the cache
func (p *Provider) Shutdown() {}
