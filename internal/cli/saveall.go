package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DMarby/filterlab/internal/codec"
	"github.com/DMarby/filterlab/internal/logger"
	"github.com/DMarby/filterlab/internal/params"
	"github.com/DMarby/filterlab/internal/pipeline"
	"github.com/DMarby/filterlab/internal/storage"
	fileStorage "github.com/DMarby/filterlab/internal/storage/file"
	"github.com/spf13/cobra"
)

// saveAllOpts holds the flags of the save-all command
type saveAllOpts struct {
	*globalOpts
	in        string
	dir       string
	format    string
	overrides []string
}

func newSaveAllCmd(global *globalOpts) *cobra.Command {
	opts := saveAllOpts{globalOpts: global}

	cmd := &cobra.Command{
		Use:   "save-all",
		Short: "Render every variant of an image into a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSaveAll(cmd.Context(), cmd, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.in, "in", "i", "", "source image")
	cmd.Flags().StringVarP(&opts.dir, "dir", "d", ".", "output directory, created if missing")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "jpg", "output format (jpg, png)")
	cmd.Flags().StringArrayVarP(&opts.overrides, "param", "p", nil, "filter parameter override as key=value, may be repeated")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func runSaveAll(ctx context.Context, cmd *cobra.Command, opts *saveAllOpts) error {
	log := loggerFromContext(ctx)

	format, err := codec.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	p, err := opts.parameters(opts.overrides)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.dir, 0o755); err != nil {
		return err
	}

	out, err := fileStorage.New(opts.dir)
	if err != nil {
		return err
	}

	pl, err := openPipeline(opts.in, log)
	if err != nil {
		return err
	}
	defer pl.Release()

	evaluator := pipeline.NewEvaluator(params.NewStore(p))
	tags := evaluator.AvailableTags()
	if err := evaluator.Prefetch(ctx, pl, tags...); err != nil {
		return err
	}

	id := strings.TrimSuffix(filepath.Base(opts.in), filepath.Ext(opts.in))
	for _, tag := range tags {
		img, err := evaluator.Resolve(ctx, pl, tag)
		if err != nil {
			return fmt.Errorf("rendering %s: %w", tag, err)
		}

		buf, err := codec.Encode(img, format)
		if err != nil {
			return err
		}

		name := storage.VariantName(id, tag.String(), format.Extension())
		if err := out.Put(ctx, name, buf); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(opts.dir, name))
	}

	stats := pl.Stats()
	log.Infow("saved variants", "count", len(tags), "params", currentParams(p), "hits", stats.Hits, "misses", stats.Misses)
	return nil
}

// openPipeline decodes the image at path into a new pipeline
func openPipeline(path string, log *logger.Logger) (*pipeline.Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	img, err := codec.Decode(data)
	if err != nil {
		return nil, err
	}

	return pipeline.New(img, pipeline.WithLogger(log), pipeline.WithName(filepath.Base(path)))
}
