package cmd

import (
	"context"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/kdeps/intake/pkg/dataset"
	"github.com/kdeps/intake/pkg/environment"
	"github.com/kdeps/intake/pkg/logging"
)

// NewRootCommand returns the root command with all subcommands attached
func NewRootCommand(ctx context.Context, fs afero.Fs, env *environment.Environment, logger *logging.Logger) *cobra.Command {
	cobra.EnableCommandSorting = false
	rootCmd := &cobra.Command{
		Use:   "intake",
		Short: "Paired video and sensor-data intake service.",
		Long: `Intake receives a video together with its JSON sensor recording, stores both
under one timestamp key, and serves them back individually or as zip bundles.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&env.UploadDir, "upload-dir", "d", env.UploadDir,
		"Directory holding videos/, json_data/ and meta/ (overrides UPLOAD_DIR)")

	rootCmd.AddCommand(NewServeCommand(ctx, fs, env, logger))
	rootCmd.AddCommand(NewListCommand(ctx, fs, env, logger))
	rootCmd.AddCommand(NewBundleCommand(ctx, fs, env, logger))
	rootCmd.AddCommand(NewPurgeCommand(ctx, fs, env, logger))
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// openStore creates the dataset store rooted at the configured upload dir.
func openStore(fs afero.Fs, env *environment.Environment, logger *logging.Logger) (*dataset.Store, error) {
	return NewStoreFn(fs, dataset.StoreConfig{Root: env.UploadDir}, logger)
}
