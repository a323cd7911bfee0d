package cmd

import (
	"github.com/charmbracelet/huh"

	"github.com/kdeps/intake/pkg/apiserver"
	"github.com/kdeps/intake/pkg/dataset"
)

// Injectable functions for testability (shared across cmd package)
var (
	NewStoreFn  = dataset.NewStore
	NewServerFn = apiserver.NewServer

	// StartServerFn runs the server until the command context is canceled.
	StartServerFn = (*apiserver.Server).Start

	// ConfirmFn asks a yes/no question on the terminal.
	ConfirmFn = func(title, description string) (bool, error) {
		var confirm bool
		err := huh.Run(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Value(&confirm),
		)
		return confirm, err
	}
)
