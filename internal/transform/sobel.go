package transform

import (
	"fmt"
	"image"
)

// MaxLaplacianKsize is the largest aperture the laplacian accepts
const MaxLaplacianKsize = 31

// Sobel computes the image derivative of order dx in x and dy in y with a k×k Sobel operator.
// The absolute response is saturated to the 8 bit range.
func Sobel(src *image.Gray, dx, dy, k int) (*image.Gray, error) {
	if err := checkGray(src); err != nil {
		return nil, err
	}

	if k != 1 && k != 3 && k != 5 && k != 7 {
		return nil, fmt.Errorf("%w: sobel kernel size must be 1, 3, 5 or 7, got %d", ErrInvalidParameter, k)
	}

	if dx < 0 || dx > 1 || dy < 0 || dy > 1 || dx+dy == 0 {
		return nil, fmt.Errorf("%w: sobel derivative orders must be 0 or 1 and not both 0, got dx=%d dy=%d", ErrInvalidParameter, dx, dy)
	}

	values, w, h := plane(src)
	return saturate(separable(values, w, h, sobelKernel(dx, k), sobelKernel(dy, k)), w, h), nil
}

// Laplacian computes the sum of the second derivatives in x and y.
// k=1 uses the 4-neighbour kernel, larger sizes use second order Sobel kernels.
func Laplacian(src *image.Gray, k int) (*image.Gray, error) {
	if err := checkGray(src); err != nil {
		return nil, err
	}

	if k < 1 || k%2 == 0 || k > MaxLaplacianKsize {
		return nil, fmt.Errorf("%w: laplacian kernel size must be positive, odd and at most %d, got %d", ErrInvalidParameter, MaxLaplacianKsize, k)
	}

	values, w, h := plane(src)

	if k == 1 {
		out := make([]float64, w*h)
		for y := 0; y < h; y++ {
			up, down := reflect101(y-1, h), reflect101(y+1, h)
			for x := 0; x < w; x++ {
				left, right := reflect101(x-1, w), reflect101(x+1, w)
				out[y*w+x] = values[up*w+x] + values[down*w+x] + values[y*w+left] + values[y*w+right] - 4*values[y*w+x]
			}
		}
		return saturate(out, w, h), nil
	}

	second, smooth := sobelKernel(2, k), sobelKernel(0, k)
	d2x := separable(values, w, h, second, smooth)
	d2y := separable(values, w, h, smooth, second)
	for i := range d2x {
		d2x[i] += d2y[i]
	}

	return saturate(d2x, w, h), nil
}

// sobelKernel builds the 1D Sobel kernel of the given derivative order.
// It is the binomial smoothing kernel convolved order times with [-1, 1].
func sobelKernel(order, k int) []float64 {
	if k == 1 {
		switch order {
		case 0:
			return []float64{1}
		case 1:
			return []float64{-1, 0, 1}
		default:
			return []float64{1, -2, 1}
		}
	}

	kernel := []float64{1}
	for i := 0; i < k-order-1; i++ {
		kernel = convolve(kernel, []float64{1, 1})
	}

	for i := 0; i < order; i++ {
		kernel = convolve(kernel, []float64{-1, 1})
	}

	return kernel
}

func convolve(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, av := range a {
		for j, bv := range b {
			out[i+j] += av * bv
		}
	}

	return out
}
