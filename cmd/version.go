package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kdeps/intake/pkg/version"
)

// NewVersionCommand creates the 'version' command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the intake version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "intake %s\n", version.String())
		},
	}
}
