package pipeline_test

import (
	"image"
	"sync"

	"github.com/DMarby/filterlab/internal/transform"
)

// countingLibrary records every transform invocation
type countingLibrary struct {
	transform.Native

	mutex sync.Mutex
	calls map[string]int
	lines []transform.Segment
	// gate, when set, blocks every GaussianBlur call until it is closed
	gate chan struct{}
}

func newCountingLibrary() *countingLibrary {
	return &countingLibrary{
		calls: make(map[string]int),
	}
}

func (c *countingLibrary) count(name string) {
	c.mutex.Lock()
	c.calls[name]++
	c.mutex.Unlock()
}

func (c *countingLibrary) Calls(name string) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.calls[name]
}

func (c *countingLibrary) Total() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	total := 0
	for _, n := range c.calls {
		total += n
	}
	return total
}

func (c *countingLibrary) Lines() []transform.Segment {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.lines
}

func (c *countingLibrary) Grayscale(src *image.RGBA) (*image.Gray, error) {
	c.count("Grayscale")
	return c.Native.Grayscale(src)
}

func (c *countingLibrary) ToColor(src *image.Gray) (*image.RGBA, error) {
	c.count("ToColor")
	return c.Native.ToColor(src)
}

func (c *countingLibrary) Channel(src image.Image, ch int) (*image.Gray, error) {
	c.count("Channel")
	return c.Native.Channel(src, ch)
}

func (c *countingLibrary) GaussianBlur(src *image.Gray, k int) (*image.Gray, error) {
	c.count("GaussianBlur")
	if c.gate != nil {
		<-c.gate
	}
	return c.Native.GaussianBlur(src, k)
}

func (c *countingLibrary) Sobel(src *image.Gray, dx, dy, k int) (*image.Gray, error) {
	c.count("Sobel")
	return c.Native.Sobel(src, dx, dy, k)
}

func (c *countingLibrary) Laplacian(src *image.Gray, k int) (*image.Gray, error) {
	c.count("Laplacian")
	return c.Native.Laplacian(src, k)
}

func (c *countingLibrary) Canny(src *image.Gray, lo, hi float64) (*image.Gray, error) {
	c.count("Canny")
	return c.Native.Canny(src, lo, hi)
}

func (c *countingLibrary) HoughLines(src *image.Gray, threshold, minLen, maxGap int) ([]transform.Segment, error) {
	c.count("HoughLines")
	lines, err := c.Native.HoughLines(src, threshold, minLen, maxGap)

	c.mutex.Lock()
	c.lines = lines
	c.mutex.Unlock()

	return lines, err
}

func (c *countingLibrary) DrawLines(src image.Image, lines []transform.Segment) (*image.RGBA, error) {
	c.count("DrawLines")
	return c.Native.DrawLines(src, lines)
}
