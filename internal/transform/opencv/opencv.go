//go:build gocv

// Package opencv implements transform.Library on top of OpenCV.
// It is only built with the gocv build tag, since it needs the OpenCV libraries at link time.
package opencv

import (
	"fmt"
	"image"
	"math"

	"github.com/DMarby/filterlab/internal/transform"
	"gocv.io/x/gocv"
)

// Library evaluates the transforms with OpenCV, pixel copies are left to the native implementation
type Library struct {
	transform.Native
}

var _ transform.Library = Library{}

// Grayscale converts src with the luma weights OpenCV uses
func (Library) Grayscale(src *image.RGBA) (*image.Gray, error) {
	if err := checkImage(src); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", transform.ErrInvalidInput, err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	return toGray(gray)
}

// GaussianBlur blurs src with a k x k kernel, sigma derived from k
func (Library) GaussianBlur(src *image.Gray, k int) (*image.Gray, error) {
	if k <= 0 || k%2 == 0 {
		return nil, fmt.Errorf("%w: gaussian kernel size must be positive and odd, got %d", transform.ErrInvalidParameter, k)
	}

	return apply(src, func(mat gocv.Mat, dst *gocv.Mat) {
		gocv.GaussianBlur(mat, dst, image.Pt(k, k), 0, 0, gocv.BorderDefault)
	})
}

// Sobel computes the derivative of the given orders, scaled back to 8 bits by absolute value
func (Library) Sobel(src *image.Gray, dx, dy, k int) (*image.Gray, error) {
	if dx < 0 || dx > 1 || dy < 0 || dy > 1 || dx+dy == 0 {
		return nil, fmt.Errorf("%w: sobel derivative orders must be 0 or 1 and not both 0, got %d and %d", transform.ErrInvalidParameter, dx, dy)
	}

	if k != 1 && k != 3 && k != 5 && k != 7 {
		return nil, fmt.Errorf("%w: sobel kernel size must be 1, 3, 5 or 7, got %d", transform.ErrInvalidParameter, k)
	}

	return apply(src, func(mat gocv.Mat, dst *gocv.Mat) {
		derivative := gocv.NewMat()
		defer derivative.Close()
		gocv.Sobel(mat, &derivative, gocv.MatTypeCV16S, dx, dy, k, 1, 0, gocv.BorderDefault)
		gocv.ConvertScaleAbs(derivative, dst, 1, 0)
	})
}

// Laplacian computes the second derivative, scaled back to 8 bits by absolute value
func (Library) Laplacian(src *image.Gray, k int) (*image.Gray, error) {
	if k <= 0 || k%2 == 0 || k > 31 {
		return nil, fmt.Errorf("%w: laplacian kernel size must be positive, odd and at most 31, got %d", transform.ErrInvalidParameter, k)
	}

	return apply(src, func(mat gocv.Mat, dst *gocv.Mat) {
		derivative := gocv.NewMat()
		defer derivative.Close()
		gocv.Laplacian(mat, &derivative, gocv.MatTypeCV16S, k, 1, 0, gocv.BorderDefault)
		gocv.ConvertScaleAbs(derivative, dst, 1, 0)
	})
}

// Canny detects edges with hysteresis thresholds lo and hi
func (Library) Canny(src *image.Gray, lo, hi float64) (*image.Gray, error) {
	if lo < 0 || hi < lo {
		return nil, fmt.Errorf("%w: canny thresholds must satisfy 0 <= lower <= upper, got %v and %v", transform.ErrInvalidParameter, lo, hi)
	}

	return apply(src, func(mat gocv.Mat, dst *gocv.Mat) {
		gocv.Canny(mat, dst, float32(lo), float32(hi))
	})
}

// HoughLines runs the probabilistic Hough transform with a 1 pixel, 1 degree resolution
func (Library) HoughLines(src *image.Gray, threshold, minLen, maxGap int) ([]transform.Segment, error) {
	if err := checkImage(src); err != nil {
		return nil, err
	}

	if threshold <= 0 || minLen < 0 || maxGap < 0 {
		return nil, fmt.Errorf("%w: hough threshold must be positive and lengths non-negative, got %d, %d and %d", transform.ErrInvalidParameter, threshold, minLen, maxGap)
	}

	mat, err := gocv.ImageGrayToMatGray(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", transform.ErrInvalidInput, err)
	}
	defer mat.Close()

	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(mat, &lines, 1, math.Pi/180, threshold, float32(minLen), float32(maxGap))

	segments := make([]transform.Segment, 0, lines.Rows())
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		segments = append(segments, transform.Segment{
			X1: int(v[0]),
			Y1: int(v[1]),
			X2: int(v[2]),
			Y2: int(v[3]),
		})
	}

	return segments, nil
}

func apply(src *image.Gray, fn func(mat gocv.Mat, dst *gocv.Mat)) (*image.Gray, error) {
	if err := checkImage(src); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageGrayToMatGray(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", transform.ErrInvalidInput, err)
	}
	defer mat.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	fn(mat, &dst)

	return toGray(dst)
}

func toGray(mat gocv.Mat) (*image.Gray, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}

	gray, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("opencv returned a %T instead of a grayscale image", img)
	}

	return gray, nil
}

func checkImage(src image.Image) error {
	switch img := src.(type) {
	case *image.Gray:
		if img == nil || img.Bounds().Empty() {
			return fmt.Errorf("%w: empty image", transform.ErrInvalidInput)
		}
	case *image.RGBA:
		if img == nil || img.Bounds().Empty() {
			return fmt.Errorf("%w: empty image", transform.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unsupported image type %T", transform.ErrInvalidInput, src)
	}

	return nil
}
