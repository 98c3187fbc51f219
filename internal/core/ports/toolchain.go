package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// Toolchain compiles and links native code.
//
//go:generate mockgen -source=toolchain.go -destination=mocks/mock_toolchain.go -package=mocks
type Toolchain interface {
	// Version returns the compiler's self-reported version text.
	Version(ctx context.Context) (string, error)

	// Identity returns everything about the toolchain that can change its output.
	Identity(ctx context.Context) (domain.ToolchainIdentity, error)

	// Dependencies lists the files, other than paths, read when compiling paths.
	Dependencies(ctx context.Context, paths []string) ([]string, error)

	// BuildObject compiles sources into the object file out.
	BuildObject(ctx context.Context, out string, sources []string, debug bool) error

	// BuildExtension compiles and links sources into the loadable module out.
	BuildExtension(ctx context.Context, out string, sources []string, debug bool) error

	// LinkExtension links objects into the loadable module out.
	LinkExtension(ctx context.Context, out string, objects []string, debug bool) error

	// Suffix returns the file extension of object files or loadable modules.
	Suffix(object bool) string
}

// ToolchainFactory builds the toolchain described by a configuration.
type ToolchainFactory interface {
	// New returns the toolchain for cfg with its libraries and optimization level applied.
	New(ctx context.Context, cfg *domain.Config) (Toolchain, error)
}
