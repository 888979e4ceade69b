package transform

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
)

// Highlight is the color detected lines are drawn in
var Highlight = color.RGBA{R: 0xff, A: 0xff}

// LineWidth is the stroke width of drawn lines in pixels
const LineWidth = 2

// DrawLines returns a color copy of src with every segment stroked in the highlight color.
// Single channel inputs are converted to color first, src is never modified.
func DrawLines(src image.Image, lines []Segment) (*image.RGBA, error) {
	var (
		dst *image.RGBA
		err error
	)

	switch img := src.(type) {
	case *image.Gray:
		dst, err = ToColor(img)
	case nil:
		err = fmt.Errorf("%w: empty image", ErrInvalidInput)
	default:
		dst, err = RGBA(img)
	}

	if err != nil {
		return nil, err
	}

	bounds := dst.Bounds()
	for _, line := range lines {
		if !image.Pt(line.X1, line.Y1).In(bounds) || !image.Pt(line.X2, line.Y2).In(bounds) {
			return nil, fmt.Errorf("%w: line %v is outside of the %dx%d image", ErrInvalidInput, line, bounds.Dx(), bounds.Dy())
		}
	}

	if len(lines) == 0 {
		return dst, nil
	}

	dc := gg.NewContextForRGBA(dst)
	dc.SetColor(Highlight)
	dc.SetLineWidth(LineWidth)
	dc.SetLineCap(gg.LineCapSquare)
	for _, line := range lines {
		// Offset to the pixel centers
		dc.DrawLine(float64(line.X1)+0.5, float64(line.Y1)+0.5, float64(line.X2)+0.5, float64(line.Y2)+0.5)
		dc.Stroke()
	}

	return dst, nil
}
