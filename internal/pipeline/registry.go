package pipeline

import (
	"context"
	"image"
	"sync"

	"golang.org/x/sync/singleflight"
)

// SourceLoader loads the source image for an id
type SourceLoader func(ctx context.Context, id string) (image.Image, error)

// Registry holds the pipelines of a bounded amount of source images
// When full, the oldest pipeline is released to make room
type Registry struct {
	capacity int
	opts     []Option

	mutex     sync.Mutex
	order     []string
	pipelines map[string]*Pipeline

	loadGroup singleflight.Group
}

// NewRegistry creates a Registry holding up to capacity pipelines, each created with opts
func NewRegistry(capacity int, opts ...Option) *Registry {
	if capacity < 1 {
		capacity = 1
	}

	return &Registry{
		capacity:  capacity,
		opts:      opts,
		pipelines: make(map[string]*Pipeline),
	}
}

// Get returns the pipeline for id if it exists
func (r *Registry) Get(id string) (*Pipeline, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p, ok := r.pipelines[id]
	return p, ok
}

// Load returns the pipeline for id, creating it from the image returned by loader if it doesn't exist
// Concurrent loads of the same id share a single call to loader
func (r *Registry) Load(ctx context.Context, id string, loader SourceLoader) (*Pipeline, error) {
	if p, ok := r.Get(id); ok {
		return p, nil
	}

	v, err, _ := r.loadGroup.Do(id, func() (interface{}, error) {
		if p, ok := r.Get(id); ok {
			return p, nil
		}

		source, err := loader(ctx, id)
		if err != nil {
			return nil, err
		}

		return r.Put(id, source)
	})

	if err != nil {
		return nil, err
	}

	return v.(*Pipeline), nil
}

// Put creates a pipeline for a new source image, replacing and releasing any previous pipeline for id
func (r *Registry) Put(id string, source image.Image) (*Pipeline, error) {
	opts := append([]Option{WithName(id)}, r.opts...)
	p, err := New(source, opts...)
	if err != nil {
		return nil, err
	}

	var evicted []*Pipeline

	r.mutex.Lock()
	if previous, ok := r.pipelines[id]; ok {
		evicted = append(evicted, previous)
		r.removeLocked(id)
	}

	for len(r.order) >= r.capacity {
		oldest := r.order[0]
		evicted = append(evicted, r.pipelines[oldest])
		r.removeLocked(oldest)
	}

	r.pipelines[id] = p
	r.order = append(r.order, id)
	r.mutex.Unlock()

	pipelines.Inc()
	for _, e := range evicted {
		e.Release()
	}

	return p, nil
}

// Remove releases and forgets the pipeline for id
func (r *Registry) Remove(id string) {
	r.mutex.Lock()
	p, ok := r.pipelines[id]
	if ok {
		r.removeLocked(id)
	}
	r.mutex.Unlock()

	if ok {
		p.Release()
	}
}

// Len returns the amount of pipelines held
func (r *Registry) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return len(r.pipelines)
}

// Shutdown releases every pipeline
func (r *Registry) Shutdown() {
	r.mutex.Lock()
	released := make([]*Pipeline, 0, len(r.pipelines))
	for _, p := range r.pipelines {
		released = append(released, p)
	}
	r.pipelines = make(map[string]*Pipeline)
	r.order = nil
	r.mutex.Unlock()

	pipelines.Sub(float64(len(released)))
	for _, p := range released {
		p.Release()
	}
}

func (r *Registry) removeLocked(id string) {
	delete(r.pipelines, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	pipelines.Dec()
}
