//go:build integration
// +build integration

package spaces_test

import (
	"context"
	"os"
	"testing"

	"github.com/DMarby/filterlab/internal/storage"
	"github.com/DMarby/filterlab/internal/storage/spaces"
)

// Runs against an S3 compatible server such as minio, configured through the environment
func TestSpaces(t *testing.T) {
	space := os.Getenv("FILTERLAB_TEST_SPACE")
	if space == "" {
		t.Skip("FILTERLAB_TEST_SPACE is not set")
	}

	provider, err := spaces.New(
		nil,
		space,
		os.Getenv("FILTERLAB_TEST_SPACES_ENDPOINT"),
		os.Getenv("FILTERLAB_TEST_SPACES_ACCESS_KEY"),
		os.Getenv("FILTERLAB_TEST_SPACES_SECRET_KEY"),
		true,
	)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	if err := provider.Put(ctx, storage.SourceName("integration"), []byte("source")); err != nil {
		t.Fatal(err)
	}

	if err := provider.Put(ctx, storage.VariantName("integration", "gray", ".jpg"), []byte("gray")); err != nil {
		t.Fatal(err)
	}

	data, err := provider.Get(ctx, "integration")
	if err != nil {
		t.Fatal(err)
	}

	if string(data) != "source" {
		t.Error("image data doesn't match")
	}

	if _, err := provider.Get(ctx, "nonexistant"); err != storage.ErrNotFound {
		t.Errorf("wrong error %s", err)
	}

	ids, err := provider.List(ctx)
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, id := range ids {
		if id == "integration" {
			found = true
		}
		if id == "IMG_integration_TAG_gray" {
			t.Error("variant listed as a source")
		}
	}

	if !found {
		t.Errorf("source missing from %v", ids)
	}
}
