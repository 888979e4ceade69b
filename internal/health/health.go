package health

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/DMarby/filterlab/internal/cache"
	"github.com/DMarby/filterlab/internal/logger"
	"github.com/DMarby/filterlab/internal/params"
	"github.com/DMarby/filterlab/internal/pipeline"
	"github.com/DMarby/filterlab/internal/storage"
	"github.com/DMarby/filterlab/internal/transform"
)

const checkInterval = 10 * time.Second
const checkTimeout = 8 * time.Second

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusUnknown   = "unknown"
)

// Checker is a periodic health checker
type Checker struct {
	Ctx        context.Context
	Storage    storage.Provider
	ImageID    string // Image ID to fetch from storage, the storage is listed instead if empty
	Cache      cache.Provider[[]byte]
	Transforms transform.Library     // Renders every variant of a small synthetic image when set
	Params     pipeline.ParamsSource // Parameters the variants are rendered with, the defaults if nil
	status     Status
	mutex      sync.RWMutex
	Log        *logger.Logger
}

// Status contains the healtcheck status
type Status struct {
	Healthy    bool   `json:"healthy"`
	Cache      string `json:"cache,omitempty"`
	Storage    string `json:"storage,omitempty"`
	Transforms string `json:"transforms,omitempty"`
}

// Run starts the health checker
func (c *Checker) Run() {
	ticker := time.NewTicker(checkInterval)
	go func() {
		for {
			select {
			case <-ticker.C:
				c.runCheck()
			case <-c.Ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()

	c.runCheck()
}

// Status returns the status of the health checks
func (c *Checker) Status() Status {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.status
}

func (c *Checker) runCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	channel := make(chan Status, 1)
	go func() {
		c.check(ctx, channel)
	}()

	select {
	case <-ctx.Done():
		c.setStatus(c.unknownStatus())
		c.Log.Errorw("healthcheck timed out")
	case status, ok := <-channel:
		if !ok {
			return
		}

		c.setStatus(status)
		if !status.Healthy {
			c.Log.Errorw("healthcheck error",
				"status", status,
			)
		}
	}
}

func (c *Checker) setStatus(status Status) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.status = status
}

// unknownStatus is an unhealthy status with every configured check marked unknown
func (c *Checker) unknownStatus() Status {
	status := Status{}
	if c.Cache != nil {
		status.Cache = statusUnknown
	}
	if c.Storage != nil {
		status.Storage = statusUnknown
	}
	if c.Transforms != nil {
		status.Transforms = statusUnknown
	}
	return status
}

func (c *Checker) check(ctx context.Context, channel chan Status) {
	defer close(channel)

	status := c.unknownStatus()
	status.Healthy = true

	checks := []struct {
		enabled bool
		result  *string
		check   func(ctx context.Context) error
	}{
		{c.Cache != nil, &status.Cache, c.checkCache},
		{c.Storage != nil, &status.Storage, c.checkStorage},
		{c.Transforms != nil, &status.Transforms, c.checkTransforms},
	}

	for _, check := range checks {
		if ctx.Err() != nil {
			return
		}

		if !check.enabled {
			continue
		}

		if err := check.check(ctx); err != nil {
			status.Healthy = false
			*check.result = statusUnhealthy
		} else {
			*check.result = statusHealthy
		}
	}

	channel <- status
}

func (c *Checker) checkCache(ctx context.Context) error {
	_, err := c.Cache.Get(ctx, "healthcheck")
	if errors.Is(err, cache.ErrNotFound) {
		return nil
	}
	if err == nil {
		return errors.New("unexpected healthcheck entry")
	}
	return err
}

func (c *Checker) checkStorage(ctx context.Context) error {
	if c.ImageID == "" {
		_, err := c.Storage.List(ctx)
		return err
	}

	_, err := c.Storage.Get(ctx, c.ImageID)
	return err
}

// checkTransforms renders every tag of a fresh pipeline with the live parameters, so nothing is served from a cache
func (c *Checker) checkTransforms(ctx context.Context) error {
	p, err := pipeline.New(probeImage(), pipeline.WithLibrary(c.Transforms), pipeline.WithName("healthcheck"))
	if err != nil {
		return err
	}
	defer p.Release()

	var source pipeline.ParamsSource = params.NewStore(params.Defaults())
	if c.Params != nil {
		source = c.Params
	}

	evaluator := pipeline.NewEvaluator(source)
	return evaluator.Prefetch(ctx, p, evaluator.AvailableTags()...)
}

func probeImage() *image.RGBA {
	const size, side = 32, 8

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.RGBA{0x20, 0x40, 0x80, 0xff}
			if (x/side+y/side)%2 == 1 {
				c = color.RGBA{0xf0, 0xe0, 0xc0, 0xff}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
