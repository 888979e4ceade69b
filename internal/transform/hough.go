package transform

import (
	"fmt"
	"image"
	"math"
	"math/rand/v2"
)

// Hough accumulator resolution
const (
	HoughRho   = 1.0
	HoughTheta = math.Pi / 180
)

// The line walk uses fixed point coordinates with this many fractional bits
const houghShift = 16

// Seed for the point sampling order, fixed so the detected lines are reproducible
const houghSeed = 0xffffffff

// Segment is a detected line segment from (X1, Y1) to (X2, Y2)
type Segment struct {
	X1, Y1, X2, Y2 int
}

// Length returns the euclidean length of the segment
func (s Segment) Length() float64 {
	return math.Hypot(float64(s.X2-s.X1), float64(s.Y2-s.Y1))
}

// HoughLines finds line segments in a binary edge image with the progressive probabilistic Hough transform.
// A line needs threshold votes, a segment must be at least minLen long, and points further than maxGap apart are split.
// The order of the returned segments is deterministic for identical input and parameters.
func HoughLines(src *image.Gray, threshold, minLen, maxGap int) ([]Segment, error) {
	if err := checkGray(src); err != nil {
		return nil, err
	}

	if threshold <= 0 {
		return nil, fmt.Errorf("%w: hough threshold must be positive, got %d", ErrInvalidParameter, threshold)
	}

	if minLen < 0 || maxGap < 0 {
		return nil, fmt.Errorf("%w: hough minimum length and maximum gap must be non-negative, got %d and %d", ErrInvalidParameter, minLen, maxGap)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	numAngle := int(math.Round(math.Pi / HoughTheta))
	numRho := int(math.Round(float64((w+h)*2+1) / HoughRho))
	rhoOffset := (numRho - 1) / 2

	cosTable := make([]float64, numAngle)
	sinTable := make([]float64, numAngle)
	for n := 0; n < numAngle; n++ {
		cosTable[n] = math.Cos(float64(n)*HoughTheta) / HoughRho
		sinTable[n] = math.Sin(float64(n)*HoughTheta) / HoughRho
	}

	accum := make([]int, numAngle*numRho)
	vote := func(x, y, delta int) {
		for n := 0; n < numAngle; n++ {
			r := int(math.RoundToEven(float64(x)*cosTable[n]+float64(y)*sinTable[n])) + rhoOffset
			accum[n*numRho+r] += delta
		}
	}

	// Collect the edge points, the mask tracks which ones are still unassigned
	mask := make([]bool, w*h)
	points := make([]image.Point, 0, w+h)
	for y := 0; y < h; y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			if row[x] != 0 {
				mask[y*w+x] = true
				points = append(points, image.Pt(x, y))
			}
		}
	}

	rng := rand.New(rand.NewPCG(houghSeed, houghSeed))
	var lines []Segment

	for count := len(points); count > 0; count-- {
		idx := rng.IntN(count)
		pt := points[idx]
		points[idx] = points[count-1]

		if !mask[pt.Y*w+pt.X] {
			continue
		}

		maxVal, maxN := threshold-1, 0
		for n := 0; n < numAngle; n++ {
			r := int(math.RoundToEven(float64(pt.X)*cosTable[n]+float64(pt.Y)*sinTable[n])) + rhoOffset
			accum[n*numRho+r]++
			if v := accum[n*numRho+r]; v > maxVal {
				maxVal, maxN = v, n
			}
		}

		if maxVal < threshold {
			continue
		}

		// Walk along the line direction in both directions from the point
		a, c := -sinTable[maxN], cosTable[maxN]
		x0, y0 := pt.X, pt.Y
		var dx0, dy0 int
		xflag := math.Abs(a) > math.Abs(c)
		if xflag {
			dx0 = 1
			if a <= 0 {
				dx0 = -1
			}
			dy0 = int(math.RoundToEven(c * (1 << houghShift) / math.Abs(a)))
			y0 = (y0 << houghShift) + (1 << (houghShift - 1))
		} else {
			dy0 = 1
			if c <= 0 {
				dy0 = -1
			}
			dx0 = int(math.RoundToEven(a * (1 << houghShift) / math.Abs(c)))
			x0 = (x0 << houghShift) + (1 << (houghShift - 1))
		}

		pixel := func(x, y int) (int, int) {
			if xflag {
				return x, y >> houghShift
			}
			return x >> houghShift, y
		}

		var ends [2]image.Point
		for k := 0; k < 2; k++ {
			gap := 0
			x, y, dx, dy := x0, y0, dx0, dy0
			if k > 0 {
				dx, dy = -dx, -dy
			}

			for ; ; x, y = x+dx, y+dy {
				j, i := pixel(x, y)
				if j < 0 || j >= w || i < 0 || i >= h {
					break
				}

				if mask[i*w+j] {
					gap = 0
					ends[k] = image.Pt(j, i)
				} else if gap++; gap > maxGap {
					break
				}
			}
		}

		good := abs(ends[1].X-ends[0].X) >= minLen || abs(ends[1].Y-ends[0].Y) >= minLen

		// Remove the points of the line from the mask, and their votes if the line is kept
		for k := 0; k < 2; k++ {
			x, y, dx, dy := x0, y0, dx0, dy0
			if k > 0 {
				dx, dy = -dx, -dy
			}

			for ; ; x, y = x+dx, y+dy {
				j, i := pixel(x, y)
				if mask[i*w+j] {
					if good {
						vote(j, i, -1)
					}
					mask[i*w+j] = false
				}

				if i == ends[k].Y && j == ends[k].X {
					break
				}
			}
		}

		if good {
			lines = append(lines, Segment{ends[0].X, ends[0].Y, ends[1].X, ends[1].Y})
		}
	}

	return lines, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
