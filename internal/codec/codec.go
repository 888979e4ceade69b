package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	// Decoders for every format a source image may be stored in
	_ "image/gif"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/DMarby/filterlab/internal/transform"
)

// Format is an encoded image format
type Format int

const (
	// JPEG represents the JPEG format
	JPEG Format = iota
	// PNG represents the PNG format
	PNG
)

// JPEGQuality is the quality JPEG output is encoded with
const JPEGQuality = 90

// Errors
var (
	ErrUnknownFormat = errors.New("unknown image format")
)

// ParseFormat returns the format for a file extension, with or without the leading dot
func ParseFormat(extension string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(extension, ".")) {
	case "jpg", "jpeg":
		return JPEG, nil
	case "png":
		return PNG, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, extension)
}

// Extension returns the file extension for the format, including the leading dot
func (f Format) Extension() string {
	if f == PNG {
		return ".png"
	}
	return ".jpg"
}

// ContentType returns the MIME type for the format
func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/jpeg"
}

func (f Format) String() string {
	return strings.TrimPrefix(f.Extension(), ".")
}

// Decode decodes an image in any registered format into a 4 channel image
func Decode(data []byte) (*image.RGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", transform.ErrInvalidInput, err)
	}

	return transform.RGBA(img)
}

// Encode encodes an image in the given format
func Encode(img image.Image, format Format) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", transform.ErrInvalidInput)
	}

	var buf bytes.Buffer
	var err error

	switch format {
	case JPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality})
	case PNG:
		err = png.Encode(&buf, img)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, int(format))
	}

	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
