package image

import (
	"context"
	"fmt"

	"github.com/DMarby/filterlab/internal/codec"
	"github.com/DMarby/filterlab/internal/params"
	"github.com/DMarby/filterlab/internal/pipeline"
	"github.com/twmb/murmur3"
)

// Processor renders image variants
type Processor interface {
	ProcessImage(ctx context.Context, task *Task) (processedImage []byte, err error)
}

// Task is an image processing task
type Task struct {
	ImageID string
	Tag     pipeline.Tag
	Params  params.Params
	Format  codec.Format
	// Size is the bounding box of a thumbnail, zero keeps the full size
	Size int
}

// NewTask creates a new image processing task
func NewTask(imageID string, tag pipeline.Tag, p params.Params, format codec.Format) *Task {
	return &Task{
		ImageID: imageID,
		Tag:     tag,
		Params:  p,
		Format:  format,
	}
}

// Thumbnail scales the result down to fit within size×size
func (t *Task) Thumbnail(size int) *Task {
	t.Size = size
	return t
}

// Key returns the cache key of the task's encoded result
func (t *Task) Key() (string, error) {
	variant, err := pipeline.Key(t.Tag, t.Params)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s/%d/%s", t.ImageID, variant, t.Size, t.Format), nil
}

// ETag returns a strong http entity tag derived from the task's cache key
func (t *Task) ETag() (string, error) {
	key, err := t.Key()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("\"%016x\"", murmur3.Sum64([]byte(key))), nil
}
