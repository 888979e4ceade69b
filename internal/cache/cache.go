package cache

import (
	"context"
	"errors"

	"github.com/DMarby/filterlab/internal/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

// Provider is an interface for getting and setting cached objects
type Provider[V any] interface {
	Get(ctx context.Context, key string) (value V, err error)
	Set(ctx context.Context, key string, value V) (err error)
	Shutdown()
}

// LoaderFunc is a function for loading data into a cache
type LoaderFunc[V any] func(ctx context.Context, key string) (value V, err error)

var lookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "filterlab_cache_lookups_total",
	Help: "Cache lookups by cache name and result (hit, miss, shared).",
}, []string{"cache", "result"})

// Auto is a cache that automatically attempts to load objects if they don't exist
// Concurrent lookups of a missing key share a single load
type Auto[V any] struct {
	Name        string
	Tracer      *tracing.Tracer
	Provider    Provider[V]
	Loader      LoaderFunc[V]
	lookupGroup singleflight.Group
}

// Get returns an object from the cache if it exists, otherwise it loads it with the Loader into the cache and returns it
func (a *Auto[V]) Get(ctx context.Context, key string) (value V, err error) {
	return a.Load(ctx, key, a.Loader)
}

// Load returns an object from the cache if it exists, otherwise it loads it with loader into the cache and returns it
func (a *Auto[V]) Load(ctx context.Context, key string, loader LoaderFunc[V]) (value V, err error) {
	ctx, span := a.Tracer.Start(ctx, "cache.Auto.Load")
	defer span.End()

	// Attempt to get the data from the cache
	value, err = a.Provider.Get(ctx, key)
	// Exit early if the error is nil as we got data from the cache
	// Or if there's an error indicating that something went wrong
	if !errors.Is(err, ErrNotFound) {
		if err == nil {
			lookups.WithLabelValues(a.Name, "hit").Inc()
		}
		return
	}

	// Use singleflight to avoid concurrent loads
	v, err, shared := a.lookupGroup.Do(key, func() (interface{}, error) {
		// A flight that finished after our lookup above has already stored the value
		if value, err := a.Provider.Get(ctx, key); !errors.Is(err, ErrNotFound) {
			return value, err
		}

		lookups.WithLabelValues(a.Name, "miss").Inc()

		// Get the data
		value, err := loader(ctx, key)
		if err != nil {
			return nil, err
		}

		// Store the data in the cache
		err = a.Provider.Set(ctx, key, value)
		if err != nil {
			return nil, err
		}

		return value, nil
	})

	if shared {
		lookups.WithLabelValues(a.Name, "shared").Inc()
	}

	if err != nil {
		var zero V
		return zero, err
	}

	value, _ = v.(V)
	return value, nil
}

// Errors
var (
	ErrNotFound = errors.New("not found in cache")
)
