package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/afero"

	"github.com/kdeps/intake/cmd"
	"github.com/kdeps/intake/pkg/environment"
	"github.com/kdeps/intake/pkg/logging"
)

// Injectable functions for testability
var (
	// OS operations
	OsExitFn       = os.Exit
	SignalNotifyFn = signal.Notify

	// Environment functions
	NewEnvironmentFn = environment.NewEnvironment

	// Command functions
	NewRootCommandFn = cmd.NewRootCommand

	// Logging functions
	GetLoggerFn = logging.GetLogger

	// Signal channel creation
	MakeSignalChanFn = func() chan os.Signal {
		return make(chan os.Signal, 1)
	}

	// Context creation
	ContextWithCancelFn = context.WithCancel

	// Afero filesystem
	NewOsFsFn = afero.NewOsFs

	// Args passed to the root command
	ArgsFn = func() []string { return os.Args[1:] }
)
