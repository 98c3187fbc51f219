package ports

import "context"

// Command is an external program invocation.
type Command struct {
	// Args holds the program followed by its arguments.
	Args []string
	// Dir is the working directory. Empty uses the current one.
	Dir string
	// Env adds KEY=VALUE pairs on top of the inherited environment.
	Env []string
}

// CommandResult is the outcome of a finished command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// CommandRunner runs external programs to completion.
//
//go:generate mockgen -source=runner.go -destination=mocks/mock_runner.go -package=mocks
type CommandRunner interface {
	// Run executes cmd and captures its output.
	// A nonzero exit status is reported in the result, not as an error.
	// An error is returned only when the program could not be started or ctx ended.
	Run(ctx context.Context, cmd Command) (*CommandResult, error)
}
