package params

import (
	"fmt"
	"strings"

	"github.com/DMarby/filterlab/internal/transform"
)

// HoughMode selects the edge detector the hough line search runs on
type HoughMode int

const (
	// HoughCanny runs the line search on the canny edges
	HoughCanny HoughMode = iota
	// HoughSobel runs the line search on the sobel gradient
	HoughSobel
	// HoughLaplacian runs the line search on the laplacian
	HoughLaplacian
)

var houghModeNames = map[HoughMode]string{
	HoughCanny:     "canny",
	HoughSobel:     "sobel",
	HoughLaplacian: "laplacian",
}

func (m HoughMode) String() string {
	if name, ok := houghModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("HoughMode(%d)", int(m))
}

// ParseHoughMode parses the name of a hough mode, case insensitively
func ParseHoughMode(name string) (HoughMode, error) {
	for mode, modeName := range houghModeNames {
		if strings.EqualFold(name, modeName) {
			return mode, nil
		}
	}

	return 0, fmt.Errorf("%w: unknown hough mode %q", transform.ErrInvalidParameter, name)
}

// MarshalText implements encoding.TextMarshaler
func (m HoughMode) MarshalText() ([]byte, error) {
	if _, ok := houghModeNames[m]; !ok {
		return nil, fmt.Errorf("%w: unknown hough mode %d", transform.ErrInvalidParameter, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *HoughMode) UnmarshalText(text []byte) error {
	mode, err := ParseHoughMode(string(text))
	if err != nil {
		return err
	}

	*m = mode
	return nil
}

const (
	// MaxGaussianKsize bounds the blur kernel, the blur cost grows linearly with it
	MaxGaussianKsize = 31
	// MaxLaplacianKsize is the largest laplacian aperture
	MaxLaplacianKsize = transform.MaxLaplacianKsize
)

// Params contains the tunable options of every filter
type Params struct {
	Channel        int       `toml:"channel" json:"channel"`
	GaussianKsize  int       `toml:"gaussian_ksize" json:"gaussian_ksize"`
	SobelKsize     int       `toml:"sobel_ksize" json:"sobel_ksize"`
	SobelDx        int       `toml:"sobel_dx" json:"sobel_dx"`
	SobelDy        int       `toml:"sobel_dy" json:"sobel_dy"`
	LaplacianKsize int       `toml:"laplacian_ksize" json:"laplacian_ksize"`
	CannyLower     float64   `toml:"canny_lower" json:"canny_lower"`
	CannyUpper     float64   `toml:"canny_upper" json:"canny_upper"`
	HoughMode      HoughMode `toml:"hough_mode" json:"hough_mode"`
	HoughThreshold int       `toml:"hough_threshold" json:"hough_threshold"`
	HoughMinLength int       `toml:"hough_min_len" json:"hough_min_len"`
	HoughMaxGap    int       `toml:"hough_max_gap" json:"hough_max_gap"`
}

// Defaults returns the parameters used when nothing has been configured
func Defaults() Params {
	return Params{
		Channel:        transform.Red,
		GaussianKsize:  5,
		SobelKsize:     5,
		SobelDx:        1,
		SobelDy:        1,
		LaplacianKsize: 5,
		CannyLower:     100,
		CannyUpper:     200,
		HoughMode:      HoughCanny,
		HoughThreshold: 80,
		HoughMinLength: 10,
		HoughMaxGap:    30,
	}
}

// SobelDirection sets the sobel derivative orders from the combined direction setting (1=x, 2=y, 3=both)
func (p *Params) SobelDirection(dir int) error {
	if dir < 1 || dir > 3 {
		return fmt.Errorf("%w: sobel direction must be 1, 2 or 3, got %d", transform.ErrInvalidParameter, dir)
	}

	p.SobelDx = dir % 2
	p.SobelDy = dir / 2
	return nil
}

// Validate checks every parameter against the constraints of its filter.
// The channel selector is never invalid, unknown channels fall back to grayscale.
func (p Params) Validate() error {
	if p.GaussianKsize < 1 || p.GaussianKsize%2 == 0 || p.GaussianKsize > MaxGaussianKsize {
		return fmt.Errorf("%w: gaussian kernel size must be positive, odd and at most %d, got %d", transform.ErrInvalidParameter, MaxGaussianKsize, p.GaussianKsize)
	}

	switch p.SobelKsize {
	case 1, 3, 5, 7:
	default:
		return fmt.Errorf("%w: sobel kernel size must be 1, 3, 5 or 7, got %d", transform.ErrInvalidParameter, p.SobelKsize)
	}

	if p.SobelDx < 0 || p.SobelDx > 1 || p.SobelDy < 0 || p.SobelDy > 1 || p.SobelDx+p.SobelDy == 0 {
		return fmt.Errorf("%w: sobel derivative orders must be 0 or 1 and not both 0, got dx=%d dy=%d", transform.ErrInvalidParameter, p.SobelDx, p.SobelDy)
	}

	if p.LaplacianKsize < 1 || p.LaplacianKsize%2 == 0 || p.LaplacianKsize > MaxLaplacianKsize {
		return fmt.Errorf("%w: laplacian kernel size must be positive, odd and at most %d, got %d", transform.ErrInvalidParameter, MaxLaplacianKsize, p.LaplacianKsize)
	}

	if p.CannyLower < 0 || p.CannyUpper < 0 || p.CannyLower > p.CannyUpper {
		return fmt.Errorf("%w: canny thresholds must satisfy 0 <= lower <= upper, got %v and %v", transform.ErrInvalidParameter, p.CannyLower, p.CannyUpper)
	}

	if _, ok := houghModeNames[p.HoughMode]; !ok {
		return fmt.Errorf("%w: unknown hough mode %d", transform.ErrInvalidParameter, int(p.HoughMode))
	}

	if p.HoughThreshold <= 0 || p.HoughMinLength < 0 || p.HoughMaxGap < 0 {
		return fmt.Errorf("%w: hough threshold must be positive and lengths non-negative", transform.ErrInvalidParameter)
	}

	return nil
}
