package transform

import "image"

// Library is a set of image transforms the pipeline evaluates variants with
type Library interface {
	Grayscale(src *image.RGBA) (*image.Gray, error)
	ToColor(src *image.Gray) (*image.RGBA, error)
	Channel(src image.Image, c int) (*image.Gray, error)
	GaussianBlur(src *image.Gray, k int) (*image.Gray, error)
	Sobel(src *image.Gray, dx, dy, k int) (*image.Gray, error)
	Laplacian(src *image.Gray, k int) (*image.Gray, error)
	Canny(src *image.Gray, lo, hi float64) (*image.Gray, error)
	HoughLines(src *image.Gray, threshold, minLen, maxGap int) ([]Segment, error)
	DrawLines(src image.Image, lines []Segment) (*image.RGBA, error)
}

// Native implements Library with the pure Go transforms of this package
type Native struct{}

var _ Library = Native{}

func (Native) Grayscale(src *image.RGBA) (*image.Gray, error) { return Grayscale(src) }

func (Native) ToColor(src *image.Gray) (*image.RGBA, error) { return ToColor(src) }

func (Native) Channel(src image.Image, c int) (*image.Gray, error) { return Channel(src, c) }

func (Native) GaussianBlur(src *image.Gray, k int) (*image.Gray, error) {
	return GaussianBlur(src, k)
}

func (Native) Sobel(src *image.Gray, dx, dy, k int) (*image.Gray, error) {
	return Sobel(src, dx, dy, k)
}

func (Native) Laplacian(src *image.Gray, k int) (*image.Gray, error) { return Laplacian(src, k) }

func (Native) Canny(src *image.Gray, lo, hi float64) (*image.Gray, error) {
	return Canny(src, lo, hi)
}

func (Native) HoughLines(src *image.Gray, threshold, minLen, maxGap int) ([]Segment, error) {
	return HoughLines(src, threshold, minLen, maxGap)
}

func (Native) DrawLines(src image.Image, lines []Segment) (*image.RGBA, error) {
	return DrawLines(src, lines)
}
