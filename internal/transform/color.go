package transform

import (
	"fmt"
	"image"
)

// Channel indexes for Channel
const (
	Red   = 0
	Green = 1
	Blue  = 2
)

// Grayscale converts a 4 channel image to a single intensity channel using the BT.601 luma weights
func Grayscale(src *image.RGBA) (*image.Gray, error) {
	if err := checkRGBA(src); err != nil {
		return nil, err
	}

	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		in := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < b.Dx(); x++ {
			r, g, bl := uint32(in[x*4]), uint32(in[x*4+1]), uint32(in[x*4+2])
			out[x] = uint8((299*r + 587*g + 114*bl + 500) / 1000)
		}
	}

	return dst, nil
}

// ToColor expands a single channel image into an opaque 4 channel image for display
func ToColor(src *image.Gray) (*image.RGBA, error) {
	if err := checkGray(src); err != nil {
		return nil, err
	}

	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		in := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < b.Dx(); x++ {
			v := in[x]
			out[x*4], out[x*4+1], out[x*4+2], out[x*4+3] = v, v, v, 0xff
		}
	}

	return dst, nil
}

// Channel extracts the red, green or blue plane of src.
// Any other channel index, or a single channel input, falls back to the grayscale intensity.
func Channel(src image.Image, c int) (*image.Gray, error) {
	switch img := src.(type) {
	case *image.Gray:
		if err := checkGray(img); err != nil {
			return nil, err
		}
		return cloneGray(img), nil
	case *image.RGBA:
		if err := checkRGBA(img); err != nil {
			return nil, err
		}
		if c < Red || c > Blue {
			return Grayscale(img)
		}

		b := img.Bounds()
		dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			in := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
			out := dst.Pix[y*dst.Stride:]
			for x := 0; x < b.Dx(); x++ {
				out[x] = in[x*4+c]
			}
		}
		return dst, nil
	case nil:
		return nil, fmt.Errorf("%w: empty image", ErrInvalidInput)
	default:
		return nil, fmt.Errorf("%w: unsupported image type %T", ErrInvalidInput, src)
	}
}
