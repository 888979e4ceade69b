package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/DMarby/filterlab/internal/hmac"
	"github.com/spf13/cobra"
)

func newSignCmd() *cobra.Command {
	var key string
	var overrides []string

	cmd := &cobra.Command{
		Use:   "sign [path]",
		Short: "Sign a save request path for a service configured with an hmac key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				key = os.Getenv("FILTERLAB_HMAC_KEY")
			}
			if key == "" {
				return errors.New("no hmac key, use --key or FILTERLAB_HMAC_KEY")
			}

			query, err := parseOverrides(overrides)
			if err != nil {
				return err
			}

			signed, err := (&hmac.HMAC{Key: []byte(key)}).Sign(args[0], query)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "hmac key, defaults to FILTERLAB_HMAC_KEY")
	cmd.Flags().StringArrayVarP(&overrides, "param", "p", nil, "query parameter as key=value, may be repeated")

	return cmd
}
