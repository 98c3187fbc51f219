// Package commands implements the CLI commands for kiln.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
	"go.trai.ch/kiln/internal/core/domain"
)

// CLI represents the command line interface for kiln.
type CLI struct {
	app     Application
	console Console
	rootCmd *cobra.Command

	debug     bool
	logFormat string
	noCache   bool
	cacheDir  string
}

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context, sources []string, opts app.BuildOptions) (*domain.BuildResult, error)
	Link(ctx context.Context, name string, objects []string, opts app.LinkOptions) (string, error)
	Run(ctx context.Context, sources []string, opts app.RunOptions) (*app.RunResult, error)
	CachePath(opts app.CacheOptions) (string, error)
	CacheList(opts app.CacheOptions) (string, []domain.EntryInfo, error)
	CacheClean(ctx context.Context, opts app.CacheOptions) error
}

// Console is the log sink reconfigured by the global flags.
type Console interface {
	SetDebug(enable bool)
	SetFormat(f logger.Format)
}

// Option configures the CLI.
type Option func(*CLI)

// WithConsole lets --debug and --log-format reconfigure c.
func WithConsole(c Console) Option {
	return func(cli *CLI) {
		cli.console = c
	}
}

// New creates a new CLI instance with the given app.
func New(a Application, opts ...Option) *CLI {
	rootCmd := &cobra.Command{
		Use:           "kiln",
		Short:         "Compile C, C++ and CUDA sources into cached native modules",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	for _, opt := range opts {
		opt(c)
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&c.debug, "debug", false, "Echo toolchain command lines and log cache decisions")
	flags.StringVar(&c.logFormat, "log-format", string(logger.FormatAuto), "Log format: auto, pretty or json")
	flags.BoolVarP(&c.noCache, "no-cache", "n", false, "Bypass the compiler cache and force a rebuild")
	flags.StringVar(&c.cacheDir, "cache-dir", "", "Use this cache directory instead of the configured one")
	rootCmd.PersistentPreRunE = c.configureConsole

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newLinkCmd())
	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newCacheCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func (c *CLI) configureConsole(_ *cobra.Command, _ []string) error {
	format, err := logger.ParseFormat(c.logFormat)
	if err != nil {
		return err
	}
	if c.console != nil {
		c.console.SetFormat(format)
		c.console.SetDebug(c.debug)
	}
	return nil
}

func (c *CLI) cacheOptions() app.CacheOptions {
	return app.CacheOptions{Dir: c.cacheDir, NoCache: c.noCache}
}
