package filter

import (
	"context"
	"errors"
	"expvar"
	stdimage "image"

	"github.com/DMarby/filterlab/internal/cache"
	"github.com/DMarby/filterlab/internal/codec"
	"github.com/DMarby/filterlab/internal/image"
	"github.com/DMarby/filterlab/internal/logger"
	"github.com/DMarby/filterlab/internal/pipeline"
	"github.com/DMarby/filterlab/internal/queue"
	"github.com/DMarby/filterlab/internal/tracing"
	"github.com/disintegration/imaging"
	"go.opentelemetry.io/otel/trace"
)

// Processor is an image processor that renders variants through per-source pipelines
type Processor struct {
	queue    *queue.Queue[*image.Task, []byte]
	registry *pipeline.Registry
	results  *cache.Auto[[]byte]
	tracer   *tracing.Tracer
}

var (
	queueSize       = expvar.NewInt("gauge_filter_processor_queue_size")
	processedImages = expvar.NewMap("counter_labelmap_tag_filter_processor_processed_images")
)

// New initializes a new processor instance
// Encoded results are memoized in results, sources are read through sources and decoded into registry
func New(ctx context.Context, log *logger.Logger, tracer *tracing.Tracer, workers int, sources *image.Cache, results cache.Provider[[]byte], registry *pipeline.Registry) *Processor {
	workerQueue := queue.New(ctx, workers, taskProcessor(tracer, sources, registry))
	instance := &Processor{
		queue:    workerQueue,
		registry: registry,
		results: &cache.Auto[[]byte]{
			Name:     "result",
			Tracer:   tracer,
			Provider: results,
		},
		tracer: tracer,
	}

	go workerQueue.Run()
	log.Infof("starting filter worker queue with %d workers", workerQueue.Workers())

	return instance
}

// ProcessImage renders the variant described by task and returns it encoded
func (p *Processor) ProcessImage(ctx context.Context, task *image.Task) (processedImage []byte, err error) {
	ctx, span := p.tracer.Start(ctx, "filter.ProcessImage", trace.WithAttributes(tracing.ImageID(task.ImageID), tracing.Tag(task.Tag.String())))
	defer span.End()

	key, err := task.Key()
	if err != nil {
		return nil, err
	}

	return p.results.Load(ctx, key, func(ctx context.Context, key string) ([]byte, error) {
		queueSize.Add(1)
		defer queueSize.Add(-1)

		defer processedImages.Add(task.Tag.String(), 1)

		return p.queue.Process(ctx, task)
	})
}

// Shutdown releases every pipeline
func (p *Processor) Shutdown() {
	p.registry.Shutdown()
}

func taskProcessor(tracer *tracing.Tracer, sources *image.Cache, registry *pipeline.Registry) queue.Handler[*image.Task, []byte] {
	loader := func(ctx context.Context, id string) (stdimage.Image, error) {
		ctx, span := tracer.Start(ctx, "filter.decode")
		defer span.End()

		buffer, err := sources.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		return codec.Decode(buffer)
	}

	return func(ctx context.Context, task *image.Task) ([]byte, error) {
		variant, err := resolve(ctx, registry, loader, task)
		if err != nil {
			return nil, err
		}

		if task.Size > 0 {
			bounds := variant.Bounds()
			if bounds.Dx() > task.Size || bounds.Dy() > task.Size {
				variant = imaging.Fit(variant, task.Size, task.Size, imaging.Lanczos)
			}
		}

		return codec.Encode(variant, task.Format)
	}
}

// resolve renders the task's variant, reloading the source once if its pipeline was evicted meanwhile
func resolve(ctx context.Context, registry *pipeline.Registry, loader pipeline.SourceLoader, task *image.Task) (stdimage.Image, error) {
	for attempt := 0; ; attempt++ {
		p, err := registry.Load(ctx, task.ImageID, loader)
		if err != nil {
			return nil, err
		}

		variant, err := p.Resolve(ctx, task.Tag, task.Params)
		if errors.Is(err, pipeline.ErrReleased) && attempt == 0 {
			continue
		}

		return variant, err
	}
}
