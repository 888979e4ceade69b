package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider is an interface for retrieving source images and persisting rendered variants
type Provider interface {
	// Get returns the source image data for an image id
	Get(ctx context.Context, id string) ([]byte, error)
	// Put stores a rendered variant under name
	Put(ctx context.Context, name string, data []byte) error
	// List returns the ids of every stored source image, sorted
	List(ctx context.Context) ([]string, error)
}

// SourceExtension is the extension source images are stored with
const SourceExtension = ".jpg"

const (
	variantPrefix    = "IMG_"
	variantSeparator = "_TAG_"
)

// SourceName returns the object name of a source image
func SourceName(id string) string {
	return id + SourceExtension
}

// VariantName returns the object name a rendered variant is saved under, IMG_<id>_TAG_<tag><extension>
func VariantName(id, tag, extension string) string {
	return fmt.Sprintf("%s%s%s%s%s", variantPrefix, id, variantSeparator, tag, extension)
}

// ParseVariantName splits an object name created by VariantName
func ParseVariantName(name string) (id, tag, extension string, ok bool) {
	rest, found := strings.CutPrefix(name, variantPrefix)
	if !found {
		return "", "", "", false
	}

	id, rest, found = strings.Cut(rest, variantSeparator)
	if !found || id == "" {
		return "", "", "", false
	}

	if dot := strings.LastIndex(rest, "."); dot > 0 {
		return id, rest[:dot], rest[dot:], true
	}

	return "", "", "", false
}

// SourceID returns the image id of a source object name
func SourceID(name string) (string, bool) {
	if strings.HasPrefix(name, variantPrefix) {
		return "", false
	}

	id, found := strings.CutSuffix(name, SourceExtension)
	if !found || id == "" {
		return "", false
	}

	return id, true
}

// ValidID reports whether id can safely be used as an object name
func ValidID(id string) bool {
	return id != "" && !strings.ContainsAny(id, "/\\") && id != "." && id != ".."
}

// Errors
var (
	ErrNotFound  = errors.New("Image does not exist")
	ErrInvalidID = errors.New("Invalid image id")
)
