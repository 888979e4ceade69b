package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/DMarby/filterlab/internal/image"
)

// ErrProcessing is returned when no data has been configured
var ErrProcessing = errors.New("processing error")

// Processor is an image processor that returns canned data and records the tasks it was given
type Processor struct {
	// Data is returned for every task, a nil Data fails with Err or ErrProcessing
	Data []byte
	Err  error

	mutex sync.Mutex
	tasks []*image.Task
}

// ProcessImage records the task and returns the configured result
func (p *Processor) ProcessImage(ctx context.Context, task *image.Task) (processedImage []byte, err error) {
	p.mutex.Lock()
	p.tasks = append(p.tasks, task)
	p.mutex.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}

	if p.Data == nil {
		return nil, ErrProcessing
	}

	return p.Data, nil
}

// Tasks returns the tasks processed so far
func (p *Processor) Tasks() []*image.Task {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return append([]*image.Task(nil), p.tasks...)
}
