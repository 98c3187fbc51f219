// Package toolchain drives gcc-compatible and CUDA compiler drivers.
package toolchain

import (
	"context"
	"errors"
	"strings"

	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// failCheck reports whether a finished invocation failed despite its exit status.
type failCheck func(res *ports.CommandResult) bool

func exitStatus(res *ports.CommandResult) bool {
	return res.ExitCode != 0
}

// invoke runs one compiler or linker command line. With debug set the command
// line is logged before it runs. Failures wrap domain.ErrToolFailed.
func invoke(
	ctx context.Context,
	runner ports.CommandRunner,
	logger ports.Logger,
	args []string,
	debug bool,
	failed failCheck,
) (*ports.CommandResult, error) {
	line := shell.CommandLine(args)
	if debug {
		logger.Info(line)
	}

	res, err := runner.Run(ctx, ports.Command{Args: args})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Join(
			zerr.With(zerr.Wrap(domain.ErrToolFailed, "compiler could not be started"), "command", line),
			err,
		)
	}

	if failed(res) {
		logger.Debug("FAILED compiler invocation: " + line)
		toolErr := zerr.With(zerr.Wrap(domain.ErrToolFailed, "compiler invocation failed"), "command", line)
		toolErr = zerr.With(toolErr, "exit_code", res.ExitCode)
		if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
			toolErr = zerr.With(toolErr, "stderr", stderr)
		}
		return res, toolErr
	}

	return res, nil
}

// withOutput appends the -o argument naming the artifact.
func withOutput(args []string, out string) []string {
	return append(args, "-o", out)
}
