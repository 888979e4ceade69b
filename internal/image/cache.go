package image

import (
	"context"
	"strings"

	"github.com/DMarby/filterlab/internal/cache"
	"github.com/DMarby/filterlab/internal/storage"
	"github.com/DMarby/filterlab/internal/tracing"
)

// sourcePrefix keeps source entries apart from rendered variants when both share a cache provider
const sourcePrefix = "source/"

// SourceKey returns the cache key the encoded source image id is stored under
func SourceKey(id string) string {
	return sourcePrefix + id
}

// Cache is a read-through cache of encoded source images
type Cache struct {
	auto *cache.Auto[[]byte]
}

// NewCache instantiates a new cache
func NewCache(tracer *tracing.Tracer, cacheProvider cache.Provider[[]byte], storageProvider storage.Provider) *Cache {
	return &Cache{
		auto: &cache.Auto[[]byte]{
			Name:     "source",
			Tracer:   tracer,
			Provider: cacheProvider,
			Loader: func(ctx context.Context, key string) (data []byte, err error) {
				ctx, span := tracer.Start(ctx, "image.Cache.Loader")
				defer span.End()

				return storageProvider.Get(ctx, strings.TrimPrefix(key, sourcePrefix))
			},
		},
	}
}

// Get returns the encoded source image, reading it from storage on a miss
func (c *Cache) Get(ctx context.Context, id string) ([]byte, error) {
	if !storage.ValidID(id) {
		return nil, storage.ErrInvalidID
	}

	return c.auto.Get(ctx, SourceKey(id))
}
