package cmd

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/kdeps/intake/pkg/apiserver"
	"github.com/kdeps/intake/pkg/environment"
	"github.com/kdeps/intake/pkg/logging"
)

// NewServeCommand creates the 'serve' command.
func NewServeCommand(ctx context.Context, fs afero.Fs, env *environment.Environment, logger *logging.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Example: "$ intake serve --port 8080",
		Short:   "Start the HTTP API",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if env.IsDebug() {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}

			cfg, err := apiserver.ConfigFromEnvironment(env)
			if err != nil {
				return err
			}

			store, err := openStore(fs, env, logger)
			if err != nil {
				return err
			}

			server, err := NewServerFn(store, cfg, logger)
			if err != nil {
				return err
			}
			return StartServerFn(server, ctx)
		},
	}

	cmd.Flags().StringVar(&env.Host, "host", env.Host, "Address to bind (overrides HOST)")
	cmd.Flags().IntVarP(&env.Port, "port", "p", env.Port, "Port to listen on (overrides PORT)")
	return cmd
}
