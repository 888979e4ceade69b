package transform

import (
	"fmt"
	"image"
	"math"
)

const (
	tan22 = 0.4142135623730951
	tan67 = 2.414213562373095
)

// Canny detects edges with a 3×3 Sobel gradient, non-maximum suppression and hysteresis thresholding.
// Pixels with a gradient magnitude above hi start an edge, pixels above lo continue one.
// The result is a binary image with edges set to 255.
func Canny(src *image.Gray, lo, hi float64) (*image.Gray, error) {
	if err := checkGray(src); err != nil {
		return nil, err
	}

	if lo < 0 || hi < 0 || math.IsNaN(lo) || math.IsNaN(hi) {
		return nil, fmt.Errorf("%w: canny thresholds must be non-negative, got %v and %v", ErrInvalidParameter, lo, hi)
	}

	if lo > hi {
		return nil, fmt.Errorf("%w: canny lower threshold %v is greater than upper threshold %v", ErrInvalidParameter, lo, hi)
	}

	low, high := math.Floor(lo), math.Floor(hi)

	values, w, h := plane(src)
	gx := separable(values, w, h, sobelKernel(1, 3), sobelKernel(0, 3))
	gy := separable(values, w, h, sobelKernel(0, 3), sobelKernel(1, 3))

	mag := make([]float64, w*h)
	for i := range mag {
		mag[i] = math.Abs(gx[i]) + math.Abs(gy[i])
	}

	// Magnitude lookups outside the image read as zero
	at := func(x, y int) float64 {
		if x < 0 || x >= w || y < 0 || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	const (
		none = iota
		weak
		strong
	)

	state := make([]uint8, w*h)
	stack := make([]int, 0, w)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if m <= low {
				continue
			}

			xs, ys := math.Abs(gx[i]), math.Abs(gy[i])

			var maximum bool
			switch {
			case ys < xs*tan22:
				maximum = m > at(x-1, y) && m >= at(x+1, y)
			case ys > xs*tan67:
				maximum = m > at(x, y-1) && m >= at(x, y+1)
			default:
				s := 1
				if (gx[i] < 0) != (gy[i] < 0) {
					s = -1
				}
				maximum = m > at(x-s, y-1) && m > at(x+s, y+1)
			}

			if !maximum {
				continue
			}

			if m > high {
				state[i] = strong
				stack = append(stack, i)
			} else {
				state[i] = weak
			}
		}
	}

	// Hysteresis: grow strong edges through 8-connected weak pixels
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		x, y := i%w, i/w
		for ny := y - 1; ny <= y+1; ny++ {
			for nx := x - 1; nx <= x+1; nx++ {
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}

				n := ny*w + nx
				if state[n] == weak {
					state[n] = strong
					stack = append(stack, n)
				}
			}
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for i, s := range state {
		if s == strong {
			dst.Pix[i] = 0xff
		}
	}

	return dst, nil
}
