package cli

import (
	"context"
	"io"
	"os"

	"github.com/DMarby/filterlab/internal/logger"
	"github.com/DMarby/filterlab/internal/params"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

type loggerKey struct{}

// globalOpts holds the flags shared by every command
type globalOpts struct {
	logLevel string
	preset   string
}

// New creates the filterctl root command, writing command output to out
func New(out io.Writer) *cobra.Command {
	opts := &globalOpts{}

	root := &cobra.Command{
		Use:          "filterctl",
		Short:        "Render image filter variants from the command line",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zapcore.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}

			log := logger.New(level, logger.WithConsoleEncoding(), logger.WithOutput(zapcore.AddSync(cmd.ErrOrStderr()), zapcore.AddSync(cmd.ErrOrStderr())))
			ctx := context.WithValue(cmd.Context(), loggerKey{}, log)
			cmd.SetContext(ctx)
			return nil
		},
	}

	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.preset, "preset", "", "TOML file overriding the default filter parameters")

	root.AddCommand(newTagsCmd())
	root.AddCommand(newRenderCmd(opts))
	root.AddCommand(newSaveAllCmd(opts))
	root.AddCommand(newSignCmd())

	return root
}

// Execute runs the filterctl command tree
func Execute(ctx context.Context) error {
	return New(os.Stdout).ExecuteContext(ctx)
}

func loggerFromContext(ctx context.Context) *logger.Logger {
	if log, ok := ctx.Value(loggerKey{}).(*logger.Logger); ok {
		return log
	}
	return logger.Nop()
}

// parameters loads the preset, if any, and applies the key=value overrides on top
func (o *globalOpts) parameters(overrides []string) (params.Params, error) {
	p := params.Defaults()
	if o.preset != "" {
		var err error
		p, err = params.LoadFile(o.preset, p)
		if err != nil {
			return p, err
		}
	}

	query, err := parseOverrides(overrides)
	if err != nil {
		return p, err
	}

	return params.FromQuery(p, query)
}
