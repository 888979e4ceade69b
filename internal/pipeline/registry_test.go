package pipeline_test

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DMarby/filterlab/internal/params"
	"github.com/DMarby/filterlab/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	registry := pipeline.NewRegistry(2)
	defer registry.Shutdown()

	a, err := registry.Put("a", gradient(10, 10))
	require.NoError(t, err)
	_, err = registry.Put("b", gradient(10, 10))
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())

	_, err = a.Resolve(ctx, pipeline.Gray, params.Defaults())
	require.NoError(t, err)

	// The oldest pipeline is evicted
	_, err = registry.Put("c", gradient(10, 10))
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Len())

	_, ok := registry.Get("a")
	assert.False(t, ok)

	_, err = a.Resolve(ctx, pipeline.Gray, params.Defaults())
	require.ErrorIs(t, err, pipeline.ErrReleased)

	t.Run("replacing a source releases the previous pipeline", func(t *testing.T) {
		previous, ok := registry.Get("b")
		require.True(t, ok)

		replaced, err := registry.Put("b", gradient(12, 12))
		require.NoError(t, err)
		assert.NotSame(t, previous, replaced)
		assert.Equal(t, 2, registry.Len())

		_, err = previous.Resolve(ctx, pipeline.Gray, params.Defaults())
		require.ErrorIs(t, err, pipeline.ErrReleased)

		current, ok := registry.Get("b")
		require.True(t, ok)
		assert.Same(t, replaced, current)
	})

	t.Run("remove", func(t *testing.T) {
		c, ok := registry.Get("c")
		require.True(t, ok)

		registry.Remove("c")
		_, ok = registry.Get("c")
		assert.False(t, ok)

		_, err := c.Resolve(ctx, pipeline.Gray, params.Defaults())
		require.ErrorIs(t, err, pipeline.ErrReleased)
	})
}

func TestRegistryLoad(t *testing.T) {
	ctx := context.Background()
	registry := pipeline.NewRegistry(4)
	defer registry.Shutdown()

	var loads atomic.Int32
	loader := func(ctx context.Context, id string) (image.Image, error) {
		loads.Add(1)
		if id == "missing" {
			return nil, fmt.Errorf("no such image %s", id)
		}
		return gradient(8, 8), nil
	}

	var wg sync.WaitGroup
	loaded := make([]*pipeline.Pipeline, 8)
	for i := range loaded {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			p, err := registry.Load(ctx, "a", loader)
			assert.NoError(t, err)
			loaded[i] = p
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), loads.Load())
	for _, p := range loaded {
		assert.Same(t, loaded[0], p)
	}

	_, err := registry.Load(ctx, "missing", loader)
	require.Error(t, err)

	_, ok := registry.Get("missing")
	assert.False(t, ok)
}

func TestRegistryShutdown(t *testing.T) {
	registry := pipeline.NewRegistry(4)

	p, err := registry.Put("a", gradient(8, 8))
	require.NoError(t, err)

	registry.Shutdown()
	assert.Equal(t, 0, registry.Len())

	_, err = p.Resolve(context.Background(), pipeline.Original, params.Defaults())
	require.ErrorIs(t, err, pipeline.ErrReleased)
}
