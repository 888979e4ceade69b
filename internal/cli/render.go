package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/DMarby/filterlab/internal/codec"
	"github.com/DMarby/filterlab/internal/params"
	"github.com/DMarby/filterlab/internal/pipeline"
	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
)

// renderOpts holds the flags of the render command
type renderOpts struct {
	*globalOpts
	in        string
	out       string
	tag       string
	size      int
	overrides []string
}

func newRenderCmd(global *globalOpts) *cobra.Command {
	opts := renderOpts{globalOpts: global}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one variant of an image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), cmd, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.in, "in", "i", "", "source image")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file, the extension selects the format (jpg, png)")
	cmd.Flags().StringVarP(&opts.tag, "tag", "t", "original", "variant tag, see the tags command")
	cmd.Flags().IntVar(&opts.size, "size", 0, "fit the output within size x size pixels")
	cmd.Flags().StringArrayVarP(&opts.overrides, "param", "p", nil, "filter parameter override as key=value, may be repeated")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runRender(ctx context.Context, cmd *cobra.Command, opts *renderOpts) error {
	log := loggerFromContext(ctx)

	tag, ok := pipeline.ParseTag(opts.tag)
	if !ok {
		return fmt.Errorf("unknown tag %q", opts.tag)
	}

	format, err := codec.ParseFormat(filepath.Ext(opts.out))
	if err != nil {
		return err
	}

	p, err := opts.parameters(opts.overrides)
	if err != nil {
		return err
	}

	pl, err := openPipeline(opts.in, log)
	if err != nil {
		return err
	}
	defer pl.Release()

	evaluator := pipeline.NewEvaluator(params.NewStore(p))
	img, err := evaluator.Resolve(ctx, pl, tag)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", tag, err)
	}

	if opts.size > 0 {
		img = imaging.Fit(img, opts.size, opts.size, imaging.Lanczos)
	}

	buf, err := codec.Encode(img, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(opts.out, buf, 0o644); err != nil {
		return err
	}

	log.Infow("rendered variant", "tag", tag.String(), "out", opts.out)
	fmt.Fprintln(cmd.OutOrStdout(), opts.out)
	return nil
}

// parseOverrides turns key=value pairs into query values understood by params.FromQuery
func parseOverrides(overrides []string) (url.Values, error) {
	query := url.Values{}
	for _, override := range overrides {
		key, value, found := strings.Cut(override, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", override)
		}
		query.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return query, nil
}

// currentParams returns the parameters applied to every tag, used to label log output
func currentParams(p params.Params) string {
	return params.BuildQuery(p.Query(params.Defaults()))
}
