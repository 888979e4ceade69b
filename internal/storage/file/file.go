package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/DMarby/filterlab/internal/storage"
)

// Provider implements a file-based image storage
type Provider struct {
	path string
}

// New returns a new Provider instance
func New(path string) (*Provider, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", path)
	}

	return &Provider{
		path,
	}, nil
}

// Get returns the image data for an image id
func (p *Provider) Get(ctx context.Context, id string) ([]byte, error) {
	if !storage.ValidID(id) {
		return nil, storage.ErrInvalidID
	}

	imageData, err := os.ReadFile(filepath.Join(p.path, storage.SourceName(id)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}

		return nil, err
	}

	return imageData, nil
}

// Put writes a rendered variant, replacing any existing file with the same name
func (p *Provider) Put(ctx context.Context, name string, data []byte) error {
	if !storage.ValidID(name) {
		return storage.ErrInvalidID
	}

	// Write to a temporary file first so readers never see a partial image
	tmp, err := os.CreateTemp(p.path, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), filepath.Join(p.path, name))
}

// List returns the ids of the source images in the directory
func (p *Provider) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(p.path)
	if err != nil {
		return nil, err
	}

	ids := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if id, ok := storage.SourceID(entry.Name()); ok {
			ids = append(ids, id)
		}
	}

	sort.Strings(ids)
	return ids, nil
}
