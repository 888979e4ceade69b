package cache_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DMarby/filterlab/internal/cache"
	"github.com/DMarby/filterlab/internal/cache/memory"
	"github.com/DMarby/filterlab/internal/cache/mock"
	"github.com/DMarby/filterlab/internal/logger"
	"github.com/DMarby/filterlab/internal/tracing/test"
	"go.uber.org/zap"
)

var mockLoaderFunc cache.LoaderFunc[[]byte] = func(ctx context.Context, key string) (data []byte, err error) {
	if key == mock.KeyLoadError {
		return nil, fmt.Errorf("notfounderr")
	}

	return []byte("notfound"), nil
}

func TestAuto(t *testing.T) {
	log := logger.New(zap.ErrorLevel)
	defer log.Sync()

	tracer := test.Tracer(log)

	provider := &mock.Provider{}
	auto := &cache.Auto[[]byte]{
		Name:     "test",
		Tracer:   tracer,
		Provider: provider,
		Loader:   mockLoaderFunc,
	}

	tests := []struct {
		Key           string
		ExpectedError error
	}{
		{"foo", nil},
		{mock.KeyNotFound, nil},
		{mock.KeyLoadError, fmt.Errorf("notfounderr")},
		{mock.KeySetError, mock.ErrSet},
		{mock.KeyError, mock.ErrGet},
	}

	for _, test := range tests {
		data, err := auto.Get(context.Background(), test.Key)
		if err != nil {
			if test.ExpectedError == nil {
				t.Errorf("%s: %s", test.Key, err)
				continue
			}

			if test.ExpectedError.Error() != err.Error() {
				t.Errorf("%s: wrong error: %s", test.Key, err)
				continue
			}

			continue
		}

		if test.ExpectedError != nil {
			t.Errorf("%s: no error", test.Key)
			continue
		}

		if string(data) != test.Key {
			t.Errorf("%s: wrong data", test.Key)
		}
	}

	// Only loaded values are stored, hits are not written back
	if _, ok := provider.Stored(mock.KeyNotFound); !ok {
		t.Error("loaded value was not stored")
	}
	if _, ok := provider.Stored("foo"); ok {
		t.Error("cache hit was stored")
	}
	if _, ok := provider.Stored(mock.KeyLoadError); ok {
		t.Error("failed load was stored")
	}
}

func TestAutoLoadsOnce(t *testing.T) {
	log := logger.New(zap.ErrorLevel)
	defer log.Sync()

	var loads atomic.Int32
	release := make(chan struct{})

	auto := &cache.Auto[string]{
		Name:     "test",
		Tracer:   test.Tracer(log),
		Provider: memory.New[string](),
		Loader: func(ctx context.Context, key string) (string, error) {
			loads.Add(1)
			<-release
			return "value-" + key, nil
		},
	}

	var wg sync.WaitGroup
	results := make([]string, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = auto.Get(context.Background(), "key")
		}(i)
	}

	// Give the goroutines time to join the flight before it completes
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, result := range results {
		if result != "value-key" {
			t.Errorf("%d: wrong result %s", i, result)
		}
	}

	if _, err := auto.Get(context.Background(), "key"); err != nil {
		t.Fatal(err)
	}

	if n := loads.Load(); n != 1 {
		t.Errorf("loaded %d times", n)
	}
}

func TestAutoDoesNotCacheErrors(t *testing.T) {
	log := logger.New(zap.ErrorLevel)
	defer log.Sync()

	fail := true
	provider := memory.New[int]()
	auto := &cache.Auto[int]{
		Tracer:   test.Tracer(log),
		Provider: provider,
	}

	loader := func(ctx context.Context, key string) (int, error) {
		if fail {
			return 0, fmt.Errorf("failed")
		}
		return 42, nil
	}

	if _, err := auto.Load(context.Background(), "key", loader); err == nil {
		t.Fatal("no error")
	}

	if provider.Len() != 0 {
		t.Fatal("error was cached")
	}

	fail = false
	value, err := auto.Load(context.Background(), "key", loader)
	if err != nil {
		t.Fatal(err)
	}

	if value != 42 {
		t.Errorf("wrong value %d", value)
	}
}
