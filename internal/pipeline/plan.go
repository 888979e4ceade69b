package pipeline

import (
	"fmt"
	"image"

	"github.com/DMarby/filterlab/internal/params"
	"github.com/DMarby/filterlab/internal/transform"
	"github.com/twmb/murmur3"
)

// node is one step of the dependency graph, carrying the parameters it is computed with
// The set of implementations is closed, every tag plans to exactly one of them
type node interface {
	// tag is the tag the node's result is cached under
	tag() Tag
	// inputs are the upstream nodes, resolved before apply
	inputs() []node
	// payload is every parameter apply depends on
	payload() []interface{}
	apply(lib transform.Library, in []image.Image) (image.Image, error)
}

type sourceNode struct{}

type grayNode struct {
	src node
}

type channelNode struct {
	t       Tag
	src     node
	channel int
}

type blurNode struct {
	src   node
	ksize int
}

type sobelNode struct {
	t      Tag
	src    node
	dx, dy int
	ksize  int
}

type laplacianNode struct {
	src   node
	ksize int
}

type cannyNode struct {
	src          node
	lower, upper float64
}

type houghNode struct {
	edges     node
	mode      params.HoughMode
	threshold int
	minLength int
	maxGap    int
}

// plan maps a tag to its node for the given parameters
// Unknown tags plan to the source node
func plan(t Tag, p params.Params) (node, error) {
	source := sourceNode{}
	gray := grayNode{src: source}
	blur := blurNode{src: gray, ksize: p.GaussianKsize}

	switch t {
	case Gray:
		return gray, nil
	case Red:
		return channelNode{t: Red, src: source, channel: transform.Red}, nil
	case Green:
		return channelNode{t: Green, src: source, channel: transform.Green}, nil
	case Blue:
		return channelNode{t: Blue, src: source, channel: transform.Blue}, nil
	case Channel:
		return channelNode{t: Channel, src: source, channel: p.Channel}, nil
	case GaussianBlur:
		return blur, nil
	case Sobel:
		return sobelNode{t: Sobel, src: blur, dx: p.SobelDx, dy: p.SobelDy, ksize: p.SobelKsize}, nil
	case SobelX:
		return sobelNode{t: SobelX, src: blur, dx: 1, dy: 0, ksize: p.SobelKsize}, nil
	case SobelY:
		return sobelNode{t: SobelY, src: blur, dx: 0, dy: 1, ksize: p.SobelKsize}, nil
	case Laplacian:
		return laplacianNode{src: blur, ksize: p.LaplacianKsize}, nil
	case Canny:
		return cannyNode{src: blur, lower: p.CannyLower, upper: p.CannyUpper}, nil
	case Hough:
		var edges Tag
		switch p.HoughMode {
		case params.HoughCanny:
			edges = Canny
		case params.HoughSobel:
			edges = Sobel
		case params.HoughLaplacian:
			edges = Laplacian
		default:
			return nil, fmt.Errorf("%w: unknown hough mode %d", transform.ErrInvalidParameter, int(p.HoughMode))
		}

		edgeNode, err := plan(edges, p)
		if err != nil {
			return nil, err
		}

		return houghNode{
			edges:     edgeNode,
			mode:      p.HoughMode,
			threshold: p.HoughThreshold,
			minLength: p.HoughMinLength,
			maxGap:    p.HoughMaxGap,
		}, nil
	}

	return source, nil
}

// cacheKey is the tag plus a fingerprint of every parameter the node transitively depends on
func cacheKey(n node) string {
	h := murmur3.New64()
	fmt.Fprintf(h, "%s%v", n.tag(), n.payload())
	for _, in := range n.inputs() {
		fmt.Fprintf(h, "|%s", cacheKey(in))
	}

	return fmt.Sprintf("%s:%016x", n.tag(), h.Sum64())
}

func (sourceNode) tag() Tag               { return Original }
func (sourceNode) inputs() []node         { return nil }
func (sourceNode) payload() []interface{} { return nil }

func (sourceNode) apply(lib transform.Library, in []image.Image) (image.Image, error) {
	return nil, fmt.Errorf("%w: the source image is not computed", transform.ErrInvalidInput)
}

func (grayNode) tag() Tag               { return Gray }
func (n grayNode) inputs() []node       { return []node{n.src} }
func (grayNode) payload() []interface{} { return nil }

func (grayNode) apply(lib transform.Library, in []image.Image) (image.Image, error) {
	src, err := asRGBA(in[0])
	if err != nil {
		return nil, err
	}
	return lib.Grayscale(src)
}

func (n channelNode) tag() Tag               { return n.t }
func (n channelNode) inputs() []node         { return []node{n.src} }
func (n channelNode) payload() []interface{} { return []interface{}{n.channel} }

func (n channelNode) apply(lib transform.Library, in []image.Image) (image.Image, error) {
	return lib.Channel(in[0], n.channel)
}

func (blurNode) tag() Tag                 { return GaussianBlur }
func (n blurNode) inputs() []node         { return []node{n.src} }
func (n blurNode) payload() []interface{} { return []interface{}{n.ksize} }

func (n blurNode) apply(lib transform.Library, in []image.Image) (image.Image, error) {
	src, err := asGray(in[0])
	if err != nil {
		return nil, err
	}
	return lib.GaussianBlur(src, n.ksize)
}

func (n sobelNode) tag() Tag               { return n.t }
func (n sobelNode) inputs() []node         { return []node{n.src} }
func (n sobelNode) payload() []interface{} { return []interface{}{n.dx, n.dy, n.ksize} }

func (n sobelNode) apply(lib transform.Library, in []image.Image) (image.Image, error) {
	src, err := asGray(in[0])
	if err != nil {
		return nil, err
	}
	return lib.Sobel(src, n.dx, n.dy, n.ksize)
}

func (laplacianNode) tag() Tag                 { return Laplacian }
func (n laplacianNode) inputs() []node         { return []node{n.src} }
func (n laplacianNode) payload() []interface{} { return []interface{}{n.ksize} }

func (n laplacianNode) apply(lib transform.Library, in []image.Image) (image.Image, error) {
	src, err := asGray(in[0])
	if err != nil {
		return nil, err
	}
	return lib.Laplacian(src, n.ksize)
}

func (cannyNode) tag() Tag                 { return Canny }
func (n cannyNode) inputs() []node         { return []node{n.src} }
func (n cannyNode) payload() []interface{} { return []interface{}{n.lower, n.upper} }

func (n cannyNode) apply(lib transform.Library, in []image.Image) (image.Image, error) {
	src, err := asGray(in[0])
	if err != nil {
		return nil, err
	}
	return lib.Canny(src, n.lower, n.upper)
}

func (houghNode) tag() Tag         { return Hough }
func (n houghNode) inputs() []node { return []node{n.edges} }

func (n houghNode) payload() []interface{} {
	return []interface{}{n.mode.String(), n.threshold, n.minLength, n.maxGap}
}

func (n houghNode) apply(lib transform.Library, in []image.Image) (image.Image, error) {
	edges, err := asGray(in[0])
	if err != nil {
		return nil, err
	}

	lines, err := lib.HoughLines(edges, n.threshold, n.minLength, n.maxGap)
	if err != nil {
		return nil, err
	}

	background, err := lib.ToColor(edges)
	if err != nil {
		return nil, err
	}

	return lib.DrawLines(background, lines)
}

func asGray(img image.Image) (*image.Gray, error) {
	gray, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("%w: expected a single channel image, got %T", transform.ErrInvalidInput, img)
	}
	return gray, nil
}

func asRGBA(img image.Image) (*image.RGBA, error) {
	rgba, ok := img.(*image.RGBA)
	if !ok {
		return nil, fmt.Errorf("%w: expected a 4 channel image, got %T", transform.ErrInvalidInput, img)
	}
	return rgba, nil
}

// Key returns the cache key of a tag's variant computed with the given parameters
// Two parameter sets yield the same key exactly when the variant doesn't depend on their differences
func Key(t Tag, p params.Params) (string, error) {
	n, err := plan(t, p)
	if err != nil {
		return "", err
	}
	return cacheKey(n), nil
}
