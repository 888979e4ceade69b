package queue

import (
	"context"
	"errors"
)

// ErrShutdown is returned when a job is submitted after the queue's context is done
var ErrShutdown = errors.New("queue has been shutdown")

// Handler processes a single job
type Handler[T, R any] func(ctx context.Context, data T) (R, error)

// Queue is a worker queue with a fixed amount of workers
type Queue[T, R any] struct {
	ctx     context.Context
	workers int
	queue   chan job[T, R]
	handler Handler[T, R]
}

type job[T, R any] struct {
	ctx    context.Context
	data   T
	result chan jobResult[R]
}

type jobResult[R any] struct {
	result R
	err    error
}

// New creates a new Queue with the specified amount of workers
// The queue stops accepting jobs once ctx is done
func New[T, R any](ctx context.Context, workers int, handler Handler[T, R]) *Queue[T, R] {
	if workers < 1 {
		workers = 1
	}

	return &Queue[T, R]{
		ctx:     ctx,
		workers: workers,
		queue:   make(chan job[T, R]),
		handler: handler,
	}
}

// Workers returns the amount of workers
func (q *Queue[T, R]) Workers() int {
	return q.workers
}

// Run starts the workers and blocks until the queue's context is done
func (q *Queue[T, R]) Run() {
	done := make(chan struct{})
	for i := 0; i < q.workers; i++ {
		go func() {
			q.worker()
			done <- struct{}{}
		}()
	}

	for i := 0; i < q.workers; i++ {
		<-done
	}
}

func (q *Queue[T, R]) worker() {
	for {
		select {
		case <-q.ctx.Done():
			return
		case j := <-q.queue:
			if err := j.ctx.Err(); err != nil {
				j.result <- jobResult[R]{err: err}
				continue
			}

			result, err := q.handler(j.ctx, j.data)
			j.result <- jobResult[R]{
				result: result,
				err:    err,
			}
		}
	}
}

// Process adds a job to the queue, waits for it to process, and returns the result
func (q *Queue[T, R]) Process(ctx context.Context, data T) (result R, err error) {
	if q.ctx.Err() != nil {
		return result, ErrShutdown
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	// Buffered so that a worker never blocks on an abandoned job
	resultChan := make(chan jobResult[R], 1)

	select {
	case <-q.ctx.Done():
		return result, ErrShutdown
	case <-ctx.Done():
		return result, ctx.Err()
	case q.queue <- job[T, R]{ctx: ctx, data: data, result: resultChan}:
	}

	select {
	case <-ctx.Done():
		return result, ctx.Err()
	case r := <-resultChan:
		return r.result, r.err
	}
}
