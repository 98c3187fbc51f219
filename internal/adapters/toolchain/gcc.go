package toolchain

import (
	"context"
	"runtime"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// GCC drives gcc, g++, clang and other compilers that accept gcc's command line.
type GCC struct {
	cfg     domain.ToolchainConfig
	runner  ports.CommandRunner
	logger  ports.Logger
	version *versionCache
}

var _ ports.Toolchain = (*GCC)(nil)

// NewGCC creates a GCC toolchain for cfg.
func NewGCC(cfg domain.ToolchainConfig, runner ports.CommandRunner, logger ports.Logger) *GCC {
	return &GCC{
		cfg:     cfg.Clone(),
		runner:  runner,
		logger:  logger,
		version: &versionCache{},
	}
}

// Config returns a copy of the toolchain configuration.
func (g *GCC) Config() domain.ToolchainConfig {
	return g.cfg.Clone()
}

// Version returns the compiler's --version output.
func (g *GCC) Version(ctx context.Context) (string, error) {
	return g.version.get(ctx, g.runner, g.cfg.CC)
}

// Identity combines the compiler version, the Go runtime and the bare command line.
func (g *GCC) Identity(ctx context.Context) (domain.ToolchainIdentity, error) {
	v, err := g.Version(ctx)
	if err != nil {
		return "", err
	}
	return domain.NewToolchainIdentity(v, runtime.Version(), g.cfg.CommandLine(nil, false)), nil
}

// Dependencies lists the headers read when compiling paths.
func (g *GCC) Dependencies(ctx context.Context, paths []string) ([]string, error) {
	return listDependencies(ctx, g.runner, g.logger, g.cfg, paths)
}

// BuildObject compiles sources into out with -c.
func (g *GCC) BuildObject(ctx context.Context, out string, sources []string, debug bool) error {
	_, err := invoke(ctx, g.runner, g.logger, withOutput(g.cfg.CommandLine(sources, true), out), debug, exitStatus)
	return err
}

// BuildExtension compiles and links sources into the shared library out.
func (g *GCC) BuildExtension(ctx context.Context, out string, sources []string, debug bool) error {
	_, err := invoke(ctx, g.runner, g.logger, withOutput(g.cfg.CommandLine(sources, false), out), debug, exitStatus)
	return err
}

// LinkExtension links objects into the shared library out.
func (g *GCC) LinkExtension(ctx context.Context, out string, objects []string, debug bool) error {
	_, err := invoke(ctx, g.runner, g.logger, withOutput(g.cfg.CommandLine(objects, false), out), debug, exitStatus)
	return err
}

// Suffix returns the object or shared library extension.
func (g *GCC) Suffix(object bool) string {
	return g.cfg.Suffix(object)
}

// WithOptimization returns a toolchain built with level. Levels of 2 and
// above also tune for the host CPU when the compiler is gcc 4.3 or newer.
func (g *GCC) WithOptimization(ctx context.Context, level domain.OptimizationLevel) (*GCC, error) {
	native := false
	if !level.Debug && level.Level >= 2 {
		v, err := g.Version(ctx)
		if err != nil {
			return nil, err
		}
		native = atLeast(parseGCCVersion(v), 4, 3)
	}
	return NewGCC(g.cfg.WithOptimization(level, native), g.runner, g.logger), nil
}
