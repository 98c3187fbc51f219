package toolchain

import (
	"context"
	"runtime"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// NVCC drives the CUDA compiler driver.
type NVCC struct {
	cfg     domain.ToolchainConfig
	runner  ports.CommandRunner
	logger  ports.Logger
	version *versionCache
}

var _ ports.Toolchain = (*NVCC)(nil)

// NewNVCC creates an NVCC toolchain for cfg.
func NewNVCC(cfg domain.ToolchainConfig, runner ports.CommandRunner, logger ports.Logger) *NVCC {
	return &NVCC{
		cfg:     cfg.Clone(),
		runner:  runner,
		logger:  logger,
		version: &versionCache{},
	}
}

// Config returns a copy of the toolchain configuration.
func (n *NVCC) Config() domain.ToolchainConfig {
	return n.cfg.Clone()
}

// Version returns nvcc's --version output.
func (n *NVCC) Version(ctx context.Context) (string, error) {
	return n.version.get(ctx, n.runner, n.cfg.CC)
}

// ReleaseVersion returns the numeric CUDA release, if it can be parsed.
func (n *NVCC) ReleaseVersion(ctx context.Context) ([]int, error) {
	v, err := n.Version(ctx)
	if err != nil {
		return nil, err
	}
	return parseNVCCVersion(v), nil
}

// Identity combines the compiler version, the Go runtime and the bare command line.
func (n *NVCC) Identity(ctx context.Context) (domain.ToolchainIdentity, error) {
	v, err := n.Version(ctx)
	if err != nil {
		return "", err
	}
	return domain.NewToolchainIdentity(v, runtime.Version(), n.cfg.CommandLine(nil, false)), nil
}

// Dependencies lists the headers read when compiling paths.
func (n *NVCC) Dependencies(ctx context.Context, paths []string) ([]string, error) {
	return listDependencies(ctx, n.runner, n.logger, n.cfg, paths)
}

// BuildObject compiles sources into out with -c. nvcc can exit 0 after
// reporting an error, so any "error" on stderr fails the build as well.
func (n *NVCC) BuildObject(ctx context.Context, out string, sources []string, debug bool) error {
	res, err := invoke(ctx, n.runner, n.logger, withOutput(n.cfg.CommandLine(sources, true), out), debug,
		func(res *ports.CommandResult) bool {
			return res.ExitCode != 0 || strings.Contains(res.Stderr, "error")
		})
	if res != nil && err == nil {
		if msg := strings.TrimSpace(res.Stderr); msg != "" {
			n.logger.Info(msg)
		}
	}
	return err
}

// BuildExtension compiles and links sources into the shared library out.
func (n *NVCC) BuildExtension(ctx context.Context, out string, sources []string, debug bool) error {
	_, err := invoke(ctx, n.runner, n.logger, withOutput(n.cfg.CommandLine(sources, false), out), debug, exitStatus)
	return err
}

// LinkExtension links objects into the shared library out.
func (n *NVCC) LinkExtension(ctx context.Context, out string, objects []string, debug bool) error {
	_, err := invoke(ctx, n.runner, n.logger, withOutput(n.cfg.CommandLine(objects, false), out), debug, exitStatus)
	return err
}

// Suffix returns the object or shared library extension.
func (n *NVCC) Suffix(object bool) string {
	return n.cfg.Suffix(object)
}

// WithOptimization is not supported for nvcc.
func (n *NVCC) WithOptimization(_ context.Context, level domain.OptimizationLevel) (*NVCC, error) {
	return nil, zerr.With(zerr.Wrap(domain.ErrInvalidOptimization, "nvcc does not support optimization levels"),
		"level", level.String())
}
