package filter_test

import (
	"context"
	stdimage "image"
	"image/color"
	"testing"

	"github.com/DMarby/filterlab/internal/cache/memory"
	"github.com/DMarby/filterlab/internal/codec"
	"github.com/DMarby/filterlab/internal/image"
	"github.com/DMarby/filterlab/internal/image/filter"
	"github.com/DMarby/filterlab/internal/logger"
	"github.com/DMarby/filterlab/internal/params"
	"github.com/DMarby/filterlab/internal/pipeline"
	"github.com/DMarby/filterlab/internal/storage"
	"github.com/DMarby/filterlab/internal/storage/mock"
	"github.com/DMarby/filterlab/internal/tracing/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func source(t *testing.T) []byte {
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, 100, 50))
	for y := 0; y < 50; y++ {
		for x := 0; x < 100; x++ {
			c := color.RGBA{0x20, 0x40, 0x60, 0xff}
			if x >= 50 {
				c = color.RGBA{0xe0, 0xc0, 0xa0, 0xff}
			}
			img.SetRGBA(x, y, c)
		}
	}

	data, err := codec.Encode(img, codec.PNG)
	require.NoError(t, err)
	return data
}

func setup(t *testing.T) (*filter.Processor, *memory.Provider[[]byte], *pipeline.Registry, context.CancelFunc) {
	log := logger.New(zap.ErrorLevel)
	tracer := test.Tracer(log)

	ctx, cancel := context.WithCancel(context.Background())

	storageProvider := &mock.Provider{Images: map[string][]byte{"1": source(t)}}
	sources := image.NewCache(tracer, memory.New[[]byte](), storageProvider)
	results := memory.New[[]byte]()
	registry := pipeline.NewRegistry(4, pipeline.WithTracer(tracer), pipeline.WithLogger(log))

	processor := filter.New(ctx, log, tracer, 2, sources, results, registry)
	t.Cleanup(func() {
		cancel()
		processor.Shutdown()
	})

	return processor, results, registry, cancel
}

func TestProcessImage(t *testing.T) {
	processor, results, registry, _ := setup(t)
	ctx := context.Background()

	t.Run("renders a variant", func(t *testing.T) {
		data, err := processor.ProcessImage(ctx, image.NewTask("1", pipeline.Red, params.Defaults(), codec.PNG))
		require.NoError(t, err)

		img, err := codec.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, stdimage.Rect(0, 0, 100, 50), img.Bounds())
		assert.Equal(t, color.RGBA{0x20, 0x20, 0x20, 0xff}, img.RGBAAt(10, 10))
		assert.Equal(t, color.RGBA{0xe0, 0xe0, 0xe0, 0xff}, img.RGBAAt(90, 10))
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("memoizes encoded results", func(t *testing.T) {
		task := image.NewTask("1", pipeline.Canny, params.Defaults(), codec.JPEG)

		first, err := processor.ProcessImage(ctx, task)
		require.NoError(t, err)
		entries := results.Len()

		second, err := processor.ProcessImage(ctx, task)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, entries, results.Len())
	})

	t.Run("renders thumbnails", func(t *testing.T) {
		data, err := processor.ProcessImage(ctx, image.NewTask("1", pipeline.Gray, params.Defaults(), codec.PNG).Thumbnail(20))
		require.NoError(t, err)

		img, err := codec.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, stdimage.Rect(0, 0, 20, 10), img.Bounds())
	})

	t.Run("keeps small images at full size", func(t *testing.T) {
		data, err := processor.ProcessImage(ctx, image.NewTask("1", pipeline.Gray, params.Defaults(), codec.PNG).Thumbnail(500))
		require.NoError(t, err)

		img, err := codec.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, stdimage.Rect(0, 0, 100, 50), img.Bounds())
	})

	t.Run("unknown images", func(t *testing.T) {
		_, err := processor.ProcessImage(ctx, image.NewTask("nonexistant", pipeline.Gray, params.Defaults(), codec.PNG))
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("reloads evicted sources", func(t *testing.T) {
		registry.Remove("1")

		_, err := processor.ProcessImage(ctx, image.NewTask("1", pipeline.Blue, params.Defaults(), codec.PNG))
		require.NoError(t, err)
		assert.Equal(t, 1, registry.Len())
	})
}

func TestProcessImageShutdown(t *testing.T) {
	processor, _, _, cancel := setup(t)
	cancel()

	_, err := processor.ProcessImage(context.Background(), image.NewTask("1", pipeline.Gray, params.Defaults(), codec.PNG))
	require.Error(t, err)
	assert.Equal(t, "queue has been shutdown", err.Error())
}
