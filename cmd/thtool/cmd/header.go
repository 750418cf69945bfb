package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newHeaderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "header <file> [key]",
		Short: "Print the header of a recording",
		Long: `Print the header JSON of a recording, or a single value.

Example:
  thtool header game.teehistorian
  thtool header game.teehistorian map_name`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := a.open(args[0])
			if err != nil {
				return err
			}

			if len(args) == 1 {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", r.RawHeader())
				return err
			}

			v, ok := r.Header().Get(args[1])
			if !ok {
				return errors.Errorf("header key %q not found", args[1])
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), v)
			return err
		},
	}
}
