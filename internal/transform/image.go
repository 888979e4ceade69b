package transform

import (
	"fmt"
	"image"
	"image/draw"
)

// RGBA converts any image into a 4 channel image anchored at the origin.
// Images that already are *image.RGBA at the origin are copied, never shared.
func RGBA(src image.Image) (*image.RGBA, error) {
	if empty(src) {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidInput)
	}

	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst, nil
}

// empty reports whether src is nil, a typed nil of a standard image type, or has no pixels
func empty(src image.Image) bool {
	switch img := src.(type) {
	case nil:
		return true
	case *image.RGBA:
		return img == nil || img.Bounds().Empty()
	case *image.Gray:
		return img == nil || img.Bounds().Empty()
	case *image.NRGBA:
		return img == nil || img.Bounds().Empty()
	case *image.YCbCr:
		return img == nil || img.Bounds().Empty()
	case *image.Paletted:
		return img == nil || img.Bounds().Empty()
	default:
		return img.Bounds().Empty()
	}
}

func checkGray(src *image.Gray) error {
	if src == nil || src.Bounds().Empty() {
		return fmt.Errorf("%w: empty image", ErrInvalidInput)
	}

	return nil
}

func checkRGBA(src *image.RGBA) error {
	if src == nil || src.Bounds().Empty() {
		return fmt.Errorf("%w: empty image", ErrInvalidInput)
	}

	return nil
}

// plane copies a gray image into a dense float buffer of w*h values
func plane(src *image.Gray) (values []float64, w, h int) {
	b := src.Bounds()
	w, h = b.Dx(), b.Dy()
	values = make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			values[y*w+x] = float64(row[x])
		}
	}

	return values, w, h
}

// cloneGray returns a copy of src anchored at the origin
func cloneGray(src *image.Gray) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
	}

	return dst
}

// saturate writes absolute values clipped to 0..255 into a new gray image
func saturate(values []float64, w, h int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for i, v := range values {
		if v < 0 {
			v = -v
		}
		dst.Pix[i] = clamp(v)
	}

	return dst
}

func clamp(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}

// reflect101 maps an out of range index back into [0, n) mirroring around the edge pixel (gfedcb|abcdefgh|gfedcba)
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}

	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		} else {
			i = 2*n - 2 - i
		}
	}

	return i
}

// separable correlates values with kx along rows, then ky along columns
func separable(values []float64, w, h int, kx, ky []float64) []float64 {
	tmp := make([]float64, w*h)
	rx := len(kx) / 2
	for y := 0; y < h; y++ {
		row := values[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			var sum float64
			for i, k := range kx {
				sum += k * row[reflect101(x+i-rx, w)]
			}
			tmp[y*w+x] = sum
		}
	}

	out := make([]float64, w*h)
	ry := len(ky) / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for i, k := range ky {
				sum += k * tmp[reflect101(y+i-ry, h)*w+x]
			}
			out[y*w+x] = sum
		}
	}

	return out
}
