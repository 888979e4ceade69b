package queue_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/DMarby/filterlab/internal/queue"
)

func setupQueue(f queue.Handler[string, string]) (*queue.Queue[string, string], context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	workerQueue := queue.New[string, string](ctx, 5, f)
	go workerQueue.Run()
	return workerQueue, cancel
}

func TestProcess(t *testing.T) {
	workerQueue, cancel := setupQueue(func(ctx context.Context, data string) (string, error) {
		return data, nil
	})

	defer cancel()

	data, err := workerQueue.Process(context.Background(), "test")
	if err != nil {
		t.Fatal(err)
	}

	if data != "test" {
		t.Fatal(err)
	}
}

func TestShutdown(t *testing.T) {
	workerQueue, cancel := setupQueue(func(ctx context.Context, data string) (string, error) {
		return "", nil
	})

	cancel()

	_, err := workerQueue.Process(context.Background(), "test")
	if err == nil || err.Error() != "queue has been shutdown" {
		t.FailNow()
	}
}

func TestTaskWithError(t *testing.T) {
	errorQueue, cancel := setupQueue(func(ctx context.Context, data string) (string, error) {
		return "", fmt.Errorf("custom error")
	})

	defer cancel()
	_, err := errorQueue.Process(context.Background(), "test")

	if err == nil || err.Error() != "custom error" {
		t.Fatal("Invalid error")
	}
}

func TestTaskWithCancelledContext(t *testing.T) {
	errorQueue, cancel := setupQueue(func(ctx context.Context, data string) (string, error) {
		return "", fmt.Errorf("custom error")
	})

	defer cancel()

	ctx, ctxCancel := context.WithCancel(context.Background())
	ctxCancel()

	_, err := errorQueue.Process(ctx, "test")

	if err == nil || err.Error() != "context canceled" {
		t.Fatal("Invalid error")
	}
}

func TestParallelWorkers(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})

	workerQueue, cancel := setupQueue(func(ctx context.Context, data string) (string, error) {
		started <- struct{}{}
		<-release
		return data, nil
	})

	defer cancel()

	results := make(chan string, 2)
	for _, v := range []string{"a", "b"} {
		go func(v string) {
			data, _ := workerQueue.Process(context.Background(), v)
			results <- data
		}(v)
	}

	// Both jobs must be running at the same time
	<-started
	<-started
	close(release)

	seen := map[string]bool{}
	seen[<-results] = true
	seen[<-results] = true

	if !seen["a"] || !seen["b"] {
		t.Fatalf("wrong results %v", seen)
	}
}

func TestWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerQueue := queue.New[int, int](ctx, 0, func(ctx context.Context, data int) (int, error) {
		return data * 2, nil
	})
	go workerQueue.Run()

	if workerQueue.Workers() != 1 {
		t.Errorf("wrong amount of workers %d", workerQueue.Workers())
	}

	result, err := workerQueue.Process(context.Background(), 21)
	if err != nil {
		t.Fatal(err)
	}

	if result != 42 {
		t.Errorf("wrong result %d", result)
	}
}
