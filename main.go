package main

import (
	"context"
	"syscall"

	"github.com/kdeps/intake/pkg/logging"
)

func main() {
	OsExitFn(run())
}

// run wires the filesystem, environment and signal handling, executes the
// CLI and returns the process exit code.
func run() int {
	fs := NewOsFsFn()
	ctx, cancel := ContextWithCancelFn(context.Background())
	defer cancel()

	logger := GetLoggerFn()

	env, err := NewEnvironmentFn(fs, nil)
	if err != nil {
		logger.Error("Failed to set up environment", "error", err)
		return 1
	}
	if env.DotEnvFile != "" {
		logger.Debug("loaded environment file", "path", env.DotEnvFile)
	}

	SetupSignalHandler(cancel, logger)

	rootCmd := NewRootCommandFn(ctx, fs, env, logger)
	rootCmd.SetArgs(ArgsFn())
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		return 1
	}
	return 0
}

// SetupSignalHandler cancels the context on SIGINT or SIGTERM so a running
// server can drain and exit.
func SetupSignalHandler(cancelFunc context.CancelFunc, logger *logging.Logger) {
	sigs := MakeSignalChanFn()
	SignalNotifyFn(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig, ok := <-sigs
		if !ok {
			return
		}
		logger.Debug("received signal, initiating shutdown", "signal", sig)
		cancelFunc()
	}()
}
