// Package app implements the application layer for kiln.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/kiln/internal/adapters/dl"
	"go.trai.ch/kiln/internal/adapters/lock"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/jit"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	toolchains   ports.ToolchainFactory
	builder      *jit.Builder
	modules      ports.ModuleLoader
	store        ports.CacheStore
	locker       *lock.Locker
	logger       ports.Logger
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	toolchains ports.ToolchainFactory,
	builder *jit.Builder,
	modules ports.ModuleLoader,
	store ports.CacheStore,
	locker *lock.Locker,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		toolchains:   toolchains,
		builder:      builder,
		modules:      modules,
		store:        store,
		locker:       locker,
		logger:       log,
	}
}

// CacheOptions selects the cache a command works on.
type CacheOptions struct {
	// Dir overrides the configured cache root.
	Dir string
	// NoCache disables the cache for this invocation.
	NoCache bool
}

// BuildOptions configuration for the Build method.
type BuildOptions struct {
	Cache CacheOptions
	// Name is the module name. Empty derives it from the first source file.
	Name string
	// Object builds an object file instead of a loadable module.
	Object bool
	// Optimization overrides the configured optimization level.
	Optimization string
	Debug        bool
}

// Build compiles the given source files as one unit.
func (a *App) Build(ctx context.Context, sources []string, opts BuildOptions) (*domain.BuildResult, error) {
	cfg, err := a.loadConfig(opts.Cache)
	if err != nil {
		return nil, err
	}
	if opts.Optimization != "" {
		level, err := domain.ParseOptimization(opts.Optimization)
		if err != nil {
			return nil, err
		}
		cfg.Optimization = &level
	}

	unit, err := readUnit(opts.Name, sources)
	if err != nil {
		return nil, err
	}

	tc, err := a.toolchains.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	res, err := a.builder.Build(ctx, tc, unit, domain.BuildOptions{
		CacheRoot: cfg.Cache.Root,
		NoCache:   cfg.Cache.Disabled,
		Object:    opts.Object,
		Debug:     opts.Debug,
	})
	if err != nil {
		return nil, err
	}

	if res.Rebuilt {
		a.logger.Info(fmt.Sprintf("built %s (%s)", unit.Name(), res.Fingerprint.Short()))
	} else {
		a.logger.Info(fmt.Sprintf("%s is up to date (%s)", unit.Name(), res.Fingerprint.Short()))
	}
	return res, nil
}

// LinkOptions configuration for the Link method.
type LinkOptions struct {
	// OutDir places the module in this directory instead of beside the first object.
	OutDir string
	Debug  bool
}

// Link links object files into the loadable module name.
func (a *App) Link(ctx context.Context, name string, objects []string, opts LinkOptions) (string, error) {
	cfg, err := a.loadConfig(CacheOptions{})
	if err != nil {
		return "", err
	}

	tc, err := a.toolchains.New(ctx, cfg)
	if err != nil {
		return "", err
	}

	abs := make([]string, len(objects))
	for i, obj := range objects {
		if abs[i], err = filepath.Abs(obj); err != nil {
			return "", zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", obj)
		}
	}

	dest, err := a.builder.Link(ctx, tc, abs, name, domain.LinkOptions{CacheRoot: opts.OutDir, Debug: opts.Debug})
	if err != nil {
		return "", err
	}
	a.logger.Info("linked " + dest)
	return dest, nil
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	BuildOptions
	// Symbol is the function to call. It must take no arguments and return int.
	Symbol string
}

// RunResult is the outcome of calling a built function.
type RunResult struct {
	Build  *domain.BuildResult
	Return int32
}

// Run builds the sources into a loadable module, loads it and calls Symbol.
func (a *App) Run(ctx context.Context, sources []string, opts RunOptions) (*RunResult, error) {
	opts.Object = false
	res, err := a.Build(ctx, sources, opts.BuildOptions)
	if err != nil {
		return nil, err
	}

	mod, err := a.modules.Load(res.ModuleName, res.ArtifactPath)
	if err != nil {
		return nil, err
	}

	ret, err := dl.CallInt(mod, opts.Symbol)
	if err != nil {
		return nil, err
	}
	return &RunResult{Build: res, Return: ret}, nil
}

// CachePath returns the cache root in effect.
func (a *App) CachePath(opts CacheOptions) (string, error) {
	cfg, err := a.loadConfig(opts)
	if err != nil {
		return "", err
	}
	return cfg.Cache.Root, nil
}

// CacheList summarizes the entries in the cache, newest first.
func (a *App) CacheList(opts CacheOptions) (string, []domain.EntryInfo, error) {
	cfg, err := a.loadConfig(opts)
	if err != nil {
		return "", nil, err
	}
	entries, err := a.store.List(cfg.Cache.Root)
	if err != nil {
		return "", nil, err
	}
	return cfg.Cache.Root, entries, nil
}

// CacheClean removes the cache root while holding its lock.
func (a *App) CacheClean(ctx context.Context, opts CacheOptions) (err error) {
	cfg, err := a.loadConfig(opts)
	if err != nil {
		return err
	}
	root := cfg.Cache.Root

	if _, statErr := os.Stat(root); os.IsNotExist(statErr) {
		a.logger.Info("cache is already empty")
		return nil
	}

	held, err := a.locker.Acquire(ctx, root)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := held.Release(); releaseErr != nil && err == nil {
			err = releaseErr
		}
	}()

	a.logger.Info("removing " + root)
	return a.store.Clean(root)
}

func (a *App) loadConfig(opts CacheOptions) (*domain.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	cfg, err := a.configLoader.Load(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	if opts.Dir != "" {
		cfg.Cache.Root = opts.Dir
	}
	if opts.NoCache {
		cfg.Cache.Disabled = true
	}
	a.locker.Configure(cfg.Cache.LockDelay, cfg.Cache.LockAttempts)
	return cfg, nil
}

// readUnit reads the source files in order. Sources keep their base names.
func readUnit(name string, paths []string) (domain.Unit, error) {
	if name == "" && len(paths) > 0 {
		base := filepath.Base(paths[0])
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	sources := make([]domain.Source, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path) //nolint:gosec // source files named on the command line
		if err != nil {
			return domain.Unit{}, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
		}
		sources = append(sources, domain.Source{Name: filepath.Base(path), Data: data})
	}
	return domain.NewUnit(name, sources...)
}
