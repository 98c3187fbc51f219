package toolchain

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Factory builds toolchains from configuration.
type Factory struct {
	runner ports.CommandRunner
	logger ports.Logger
}

var _ ports.ToolchainFactory = (*Factory)(nil)

// NewFactory creates a Factory.
func NewFactory(runner ports.CommandRunner, logger ports.Logger) *Factory {
	return &Factory{runner: runner, logger: logger}
}

// New returns the toolchain for cfg.Toolchain with its libraries added and its
// optimization level applied.
func (f *Factory) New(ctx context.Context, cfg *domain.Config) (ports.Toolchain, error) {
	tc := cfg.Toolchain
	for _, lib := range cfg.Libraries {
		tc = tc.WithLibrary(lib.Feature, lib.IncludeDirs, lib.LibraryDirs, lib.Libraries)
	}

	switch tc.Kind {
	case domain.KindGCC, "":
		gcc := NewGCC(tc, f.runner, f.logger)
		if cfg.Optimization == nil {
			return gcc, nil
		}
		return gcc.WithOptimization(ctx, *cfg.Optimization)
	case domain.KindNVCC:
		nvcc := NewNVCC(tc, f.runner, f.logger)
		if cfg.Optimization == nil {
			return nvcc, nil
		}
		return nvcc.WithOptimization(ctx, *cfg.Optimization)
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedToolchain, "cannot build toolchain"), "kind", string(tc.Kind))
	}
}
