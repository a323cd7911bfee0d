package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/kdeps/intake/pkg/environment"
	"github.com/kdeps/intake/pkg/logging"
	"github.com/kdeps/intake/pkg/messages"
)

// NewPurgeCommand creates the 'purge' command.
func NewPurgeCommand(ctx context.Context, fs afero.Fs, env *environment.Environment, logger *logging.Logger) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every stored dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			nonInteractive, answer := env.NonInteractiveMode()
			if !yes && answer == "n" {
				return errors.New(messages.ErrAbortedByUser)
			}
			if !yes && !nonInteractive {
				confirm, err := ConfirmFn(messages.MsgPurgeConfirmTitle, messages.MsgPurgeConfirmDesc)
				if err != nil {
					return fmt.Errorf("could not read confirmation: %w", err)
				}
				if !confirm {
					return errors.New(messages.ErrAbortedByUser)
				}
			}

			store, err := openStore(fs, env, logger)
			if err != nil {
				return err
			}

			count, err := store.DeleteAll(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d)\n", messages.MsgAllDatasetsDeleted, count)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
