package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/DMarby/filterlab/internal/cache"
	"github.com/DMarby/filterlab/internal/tracing"
	"github.com/mediocregopher/radix/v4"
)

// DefaultPrefix namespaces every key the provider writes
const DefaultPrefix = "filterlab:"

// Provider implements a redis cache of encoded images
type Provider struct {
	client radix.Client
	tracer *tracing.Tracer
	prefix string
	ttl    time.Duration
}

// Option configures a Provider
type Option func(*Provider)

// WithTTL expires entries after ttl, zero keeps them until redis evicts them
func WithTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		p.ttl = ttl
	}
}

// WithPrefix replaces DefaultPrefix
func WithPrefix(prefix string) Option {
	return func(p *Provider) {
		p.prefix = prefix
	}
}

// New returns a new Provider instance
func New(ctx context.Context, tracer *tracing.Tracer, address string, poolSize int, opts ...Option) (*Provider, error) {
	cfg := radix.PoolConfig{
		Size: poolSize,
	}

	client, err := cfg.New(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		client: client,
		tracer: tracer,
		prefix: DefaultPrefix,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Get returns an object from the cache if it exists
func (p *Provider) Get(ctx context.Context, key string) (data []byte, err error) {
	ctx, span := p.tracer.Start(ctx, "redis.Get")
	defer span.End()

	mn := radix.Maybe{Rcv: &data}
	err = p.client.Do(ctx, radix.Cmd(&mn, "GET", p.prefix+key))
	if err != nil {
		return nil, err
	}

	if mn.Null {
		return nil, cache.ErrNotFound
	}

	return
}

// Set adds an object to the cache
func (p *Provider) Set(ctx context.Context, key string, data []byte) (err error) {
	ctx, span := p.tracer.Start(ctx, "redis.Set")
	defer span.End()

	if p.ttl > 0 {
		return p.client.Do(ctx, radix.FlatCmd(nil, "SET", p.prefix+key, data, "PX", strconv.FormatInt(p.ttl.Milliseconds(), 10)))
	}

	return p.client.Do(ctx, radix.FlatCmd(nil, "SET", p.prefix+key, data))
}

// Shutdown shuts down the cache
func (p *Provider) Shutdown() {
	p.client.Close()
}
