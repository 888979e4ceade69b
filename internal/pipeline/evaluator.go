package pipeline

import (
	"context"
	"image"

	"github.com/DMarby/filterlab/internal/params"
)

// ParamsSource provides the current filter parameters
type ParamsSource interface {
	CurrentParameters() params.Params
}

// Evaluator resolves variants with the parameters of a ParamsSource
// The parameters are read once per call, so a change while resolving never mixes two snapshots
type Evaluator struct {
	source ParamsSource
}

// NewEvaluator creates an Evaluator reading parameters from source
func NewEvaluator(source ParamsSource) *Evaluator {
	return &Evaluator{
		source: source,
	}
}

// Resolve returns the variant for tag of the pipeline's source image
func (e *Evaluator) Resolve(ctx context.Context, p *Pipeline, tag Tag) (image.Image, error) {
	return p.Resolve(ctx, tag, e.source.CurrentParameters())
}

// Prefetch resolves tags concurrently in the background of a display
func (e *Evaluator) Prefetch(ctx context.Context, p *Pipeline, tags ...Tag) error {
	return p.Prefetch(ctx, e.source.CurrentParameters(), tags...)
}

// AvailableTags returns every tag in presentation order
func (e *Evaluator) AvailableTags() []Tag {
	return Tags()
}
