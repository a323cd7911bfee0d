package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/kdeps/intake/pkg/environment"
	"github.com/kdeps/intake/pkg/logging"
)

// Define styles using lipgloss.
var (
	idStyle         = lipgloss.NewStyle().Bold(true)
	sizeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	incompleteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// NewListCommand creates the 'list' command.
func NewListCommand(ctx context.Context, fs afero.Fs, env *environment.Environment, logger *logging.Logger) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored datasets",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(fs, env, logger)
			if err != nil {
				return err
			}

			res, err := store.ResolveAllPairs(ctx)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render(err.Error()))
				return err
			}

			out := cmd.OutOrStdout()
			for _, p := range res.Pairs {
				fmt.Fprintf(out, "%s  %s\n", idStyle.Render(p.ID), sizeStyle.Render(humanize.Bytes(uint64(p.Size))))
			}
			for _, inc := range res.Incomplete {
				fmt.Fprintf(out, "%s  %s\n", idStyle.Render(inc.ID), incompleteStyle.Render(inc.Reason))
			}
			if len(res.Pairs) == 0 && len(res.Incomplete) == 0 {
				fmt.Fprintln(out, "no datasets")
			}
			return nil
		},
	}
}
