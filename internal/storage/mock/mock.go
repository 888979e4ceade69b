package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/DMarby/filterlab/internal/storage"
)

// Provider implements a mock image storage
// Sources are served from Images, ids "error" and "notfound" fail
type Provider struct {
	Images map[string][]byte

	mutex sync.Mutex
	saved map[string][]byte
}

// Get returns the image data for an image id
func (p *Provider) Get(ctx context.Context, id string) ([]byte, error) {
	switch id {
	case "error":
		return nil, fmt.Errorf("error")
	case "notfound":
		return nil, storage.ErrNotFound
	}

	if data, ok := p.Images[id]; ok {
		return data, nil
	}

	return nil, storage.ErrNotFound
}

// Put records a saved variant
func (p *Provider) Put(ctx context.Context, name string, data []byte) error {
	if name == storage.VariantName("error", "original", ".jpg") {
		return fmt.Errorf("error")
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.saved == nil {
		p.saved = make(map[string][]byte)
	}
	p.saved[name] = data

	return nil
}

// Saved returns the data stored under name by Put
func (p *Provider) Saved(name string) ([]byte, bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	data, ok := p.saved[name]
	return data, ok
}

// List returns the ids of Images
func (p *Provider) List(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(p.Images))
	for id := range p.Images {
		ids = append(ids, id)
	}

	sort.Strings(ids)
	return ids, nil
}
