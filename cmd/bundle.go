package cmd

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/kdeps/intake/pkg/archiver"
	"github.com/kdeps/intake/pkg/environment"
	"github.com/kdeps/intake/pkg/logging"
	"github.com/kdeps/intake/pkg/messages"
)

// NewBundleCommand creates the 'bundle' command. Without an ID every complete
// dataset is bundled in per-dataset folders.
func NewBundleCommand(ctx context.Context, fs afero.Fs, env *environment.Environment, logger *logging.Logger) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "bundle [id]",
		Aliases: []string{"b"},
		Example: "$ intake bundle 2024-01-01_10-00-00 -o clip.zip",
		Short:   "Write datasets into a zip file",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(fs, env, logger)
			if err != nil {
				return err
			}

			var entries []archiver.Entry
			target := output
			if len(args) == 1 {
				pair, err := store.ResolvePair(ctx, args[0])
				if err != nil {
					return err
				}
				entries = archiver.DatasetEntries(*pair, archiver.LayoutFlat)
				if target == "" {
					target = fmt.Sprintf("%s_dataset.zip", pair.ID)
				}
			} else {
				res, err := store.ResolveAllPairs(ctx)
				if err != nil {
					return err
				}
				for _, inc := range res.Incomplete {
					logger.Warn(messages.MsgIncompleteDataset, "id", inc.ID, "reason", inc.Reason)
				}
				entries = archiver.EntriesForPairs(res.Pairs, archiver.LayoutFolder)
				if target == "" {
					target = "all_datasets.zip"
				}
			}

			content, err := archiver.BuildArchive(ctx, fs, entries)
			if err != nil {
				return err
			}
			if err := afero.WriteFile(fs, target, content, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", target, err)
			}

			logger.Info(messages.MsgBundleWritten, "path", target, "entries", len(entries), "size", humanize.Bytes(uint64(len(content))))
			fmt.Fprintln(cmd.OutOrStdout(), target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Zip file to write")
	return cmd
}
