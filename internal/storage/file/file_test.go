package file_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"

	"github.com/DMarby/filterlab/internal/storage"
	"github.com/DMarby/filterlab/internal/storage/file"

	"testing"
)

func setup(t *testing.T) (*file.Provider, string) {
	dir := t.TempDir()

	for name, data := range map[string]string{
		"1.jpg":              "one",
		"2.jpg":              "two",
		"IMG_1_TAG_gray.jpg": "gray",
		"notes.txt":          "notes",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	provider, err := file.New(dir)
	if err != nil {
		t.Fatal(err)
	}

	return provider, dir
}

func TestFile(t *testing.T) {
	provider, dir := setup(t)
	ctx := context.Background()

	t.Run("Get an image by id", func(t *testing.T) {
		buf, err := provider.Get(ctx, "1")
		if err != nil {
			t.Fatal(err)
		}

		if string(buf) != "one" {
			t.Error("image data doesn't match")
		}
	})

	t.Run("Returns error on a nonexistant path", func(t *testing.T) {
		_, err := file.New("")
		if err == nil {
			t.FailNow()
		}
	})

	t.Run("Returns error on a nonexistant image", func(t *testing.T) {
		_, err := provider.Get(ctx, "nonexistant")
		if err != storage.ErrNotFound {
			t.Fatalf("wrong error %s", err)
		}
	})

	t.Run("Rejects ids outside the directory", func(t *testing.T) {
		_, err := provider.Get(ctx, "../1")
		if err != storage.ErrInvalidID {
			t.Fatalf("wrong error %s", err)
		}
	})

	t.Run("List source images", func(t *testing.T) {
		ids, err := provider.List(ctx)
		if err != nil {
			t.Fatal(err)
		}

		if !reflect.DeepEqual(ids, []string{"1", "2"}) {
			t.Errorf("wrong ids %v", ids)
		}
	})

	t.Run("Put a variant", func(t *testing.T) {
		name := storage.VariantName("2", "canny", ".png")
		if err := provider.Put(ctx, name, []byte("edges")); err != nil {
			t.Fatal(err)
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}

		if string(data) != "edges" {
			t.Error("variant data doesn't match")
		}

		ids, _ := provider.List(ctx)
		if !reflect.DeepEqual(ids, []string{"1", "2"}) {
			t.Errorf("variants must not be listed as sources: %v", ids)
		}
	})
}
