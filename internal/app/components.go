package app

import (
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/kiln/internal/core/ports"
)

// Components holds everything the command line needs.
type Components struct {
	App    *App
	Logger ports.Logger
	// Console is the concrete logger, reconfigured from command-line flags.
	Console *logger.Logger
}
