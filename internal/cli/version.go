package cli

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			banner := figure.NewFigure("storyclient", "cybermedium", true)
			fmt.Fprintln(cmd.OutOrStdout(), banner.String())
			fmt.Fprintf(cmd.OutOrStdout(), "storyclient %s\n", Version)
			return nil
		},
	}
}
