package transform

import (
	"fmt"
	"image"
	"math"
)

// Small kernels used for the default sigma, matching the ones OpenCV hardcodes
var smallGaussianKernels = map[int][]float64{
	1: {1},
	3: {0.25, 0.5, 0.25},
	5: {0.0625, 0.25, 0.375, 0.25, 0.0625},
	7: {0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

// GaussianBlur smooths src with a k×k gaussian kernel. The sigma is derived from the kernel size.
func GaussianBlur(src *image.Gray, k int) (*image.Gray, error) {
	if err := checkGray(src); err != nil {
		return nil, err
	}

	if k < 1 || k%2 == 0 {
		return nil, fmt.Errorf("%w: gaussian kernel size must be positive and odd, got %d", ErrInvalidParameter, k)
	}

	if k == 1 {
		return cloneGray(src), nil
	}

	kernel := gaussianKernel(k)
	values, w, h := plane(src)
	return saturate(separable(values, w, h, kernel, kernel), w, h), nil
}

func gaussianKernel(k int) []float64 {
	if kernel, ok := smallGaussianKernels[k]; ok {
		return kernel
	}

	sigma := 0.3*(float64(k-1)*0.5-1) + 0.8
	scale := -0.5 / (sigma * sigma)

	kernel := make([]float64, k)
	var sum float64
	for i := range kernel {
		x := float64(i) - float64(k-1)*0.5
		kernel[i] = math.Exp(scale * x * x)
		sum += kernel[i]
	}

	for i := range kernel {
		kernel[i] /= sum
	}

	return kernel
}
