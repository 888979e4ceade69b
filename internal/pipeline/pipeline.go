package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/DMarby/filterlab/internal/cache"
	"github.com/DMarby/filterlab/internal/cache/memory"
	"github.com/DMarby/filterlab/internal/logger"
	"github.com/DMarby/filterlab/internal/params"
	"github.com/DMarby/filterlab/internal/tracing"
	"github.com/DMarby/filterlab/internal/transform"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ErrReleased is returned when resolving against a released pipeline
var ErrReleased = errors.New("pipeline has been released")

// Pipeline resolves the variants of a single source image, computing each at most once
type Pipeline struct {
	name   string
	source *image.RGBA
	lib    transform.Library
	tracer *tracing.Tracer
	log    *logger.Logger

	entries *memory.Provider[image.Image]
	cache   *cache.Auto[image.Image]

	released atomic.Bool
	hits     atomic.Int64
	misses   atomic.Int64
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLibrary sets the transforms the pipeline is evaluated with, transform.Native by default
func WithLibrary(lib transform.Library) Option {
	return func(p *Pipeline) {
		p.lib = lib
	}
}

// WithTracer sets the tracer spans are recorded with
func WithTracer(tracer *tracing.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = tracer
	}
}

// WithLogger sets the logger
func WithLogger(log *logger.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

// WithName names the pipeline in logs, usually after the source image id
func WithName(name string) Option {
	return func(p *Pipeline) {
		p.name = name
	}
}

// Stats contains the cache counters of a pipeline
type Stats struct {
	// Hits is the amount of lookups served without computing
	Hits int64
	// Misses is the amount of transform applications
	Misses int64
	// Entries is the amount of cached variants
	Entries int
}

// New creates a pipeline for a source image
// A *image.RGBA anchored at the origin is used as is and must not be modified afterwards, anything else is converted
func New(source image.Image, opts ...Option) (*Pipeline, error) {
	rgba, ok := source.(*image.RGBA)
	if ok && rgba == nil {
		return nil, fmt.Errorf("%w: empty image", transform.ErrInvalidInput)
	}

	if !ok || rgba.Bounds().Min != (image.Point{}) || rgba.Bounds().Empty() {
		var err error
		rgba, err = transform.RGBA(source)
		if err != nil {
			return nil, err
		}
	}

	p := &Pipeline{
		name:    "pipeline",
		source:  rgba,
		lib:     transform.Native{},
		log:     logger.Nop(),
		entries: memory.New[image.Image](),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.cache = &cache.Auto[image.Image]{
		Name:     "pipeline",
		Tracer:   p.tracer,
		Provider: p.entries,
	}

	return p, nil
}

// Source returns the source image
func (p *Pipeline) Source() *image.RGBA {
	return p.source
}

// Resolve returns the variant for tag computed with the given parameters
// Unknown tags resolve to the source image
func (p *Pipeline) Resolve(ctx context.Context, tag Tag, parameters params.Params) (image.Image, error) {
	if p.released.Load() {
		return nil, ErrReleased
	}

	resolves.WithLabelValues(tag.Label()).Inc()

	n, err := plan(tag, parameters)
	if err != nil {
		return nil, err
	}

	return p.resolve(ctx, n)
}

func (p *Pipeline) resolve(ctx context.Context, n node) (image.Image, error) {
	if _, ok := n.(sourceNode); ok {
		return p.source, nil
	}

	key := cacheKey(n)

	computed := false
	img, err := p.cache.Load(ctx, key, func(ctx context.Context, key string) (image.Image, error) {
		computed = true
		inputs := n.inputs()
		resolved := make([]image.Image, len(inputs))
		for i, in := range inputs {
			img, err := p.resolve(ctx, in)
			if err != nil {
				return nil, err
			}
			resolved[i] = img
		}

		return p.apply(ctx, n, key, resolved)
	})

	// Waiters of a shared computation count as hits, failed lookups count as neither
	if err == nil && !computed {
		p.hits.Add(1)
	}

	return img, err
}

func (p *Pipeline) apply(ctx context.Context, n node, key string, inputs []image.Image) (image.Image, error) {
	tag := n.tag().String()

	_, span := p.tracer.Start(ctx, "pipeline.apply", trace.WithAttributes(tracing.Tag(tag), tracing.Fingerprint(key)))
	defer span.End()

	p.misses.Add(1)
	computations.WithLabelValues(tag).Inc()

	start := time.Now()
	result, err := n.apply(p.lib, inputs)
	transformDuration.WithLabelValues(tag).Observe(time.Since(start).Seconds())

	if err != nil {
		failures.WithLabelValues(tag).Inc()
		span.RecordError(err)
		p.log.Debugw("transform failed", "pipeline", p.name, "tag", tag, "error", err)
		return nil, err
	}

	if p.released.Load() {
		return nil, ErrReleased
	}

	return result, nil
}

// Prefetch resolves several tags concurrently, returning the first error
func (p *Pipeline) Prefetch(ctx context.Context, parameters params.Params, tags ...Tag) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, tag := range tags {
		tag := tag
		group.Go(func() error {
			_, err := p.Resolve(ctx, tag, parameters)
			return err
		})
	}

	return group.Wait()
}

// Stats returns the pipeline's cache counters
func (p *Pipeline) Stats() Stats {
	return Stats{
		Hits:    p.hits.Load(),
		Misses:  p.misses.Load(),
		Entries: p.entries.Len(),
	}
}

// Release drops every cached variant, later resolves fail with ErrReleased
func (p *Pipeline) Release() {
	if p.released.Swap(true) {
		return
	}

	p.entries.Shutdown()
	p.log.Debugw("released pipeline", "pipeline", p.name)
}
