package domain

import "time"

const (
	// DefaultLockDelay is the wait between attempts to create the cache lock.
	DefaultLockDelay = time.Second

	// DefaultLockAttempts is the number of failed lock attempts before kiln proceeds without the lock.
	DefaultLockAttempts = 10
)

// Library is a named set of include directories, library directories and libraries.
type Library struct {
	Feature     string
	IncludeDirs []string
	LibraryDirs []string
	Libraries   []string
}

// CacheSettings controls where and whether artifacts are cached.
type CacheSettings struct {
	// Root is the cache directory. Empty selects DefaultCacheRoot.
	Root         string
	Disabled     bool
	LockDelay    time.Duration
	LockAttempts int
}

// Config is the resolved project configuration.
type Config struct {
	// Path is the configuration file that was read, or empty when host defaults are in effect.
	Path      string
	Toolchain ToolchainConfig
	// Optimization is applied to the toolchain when set.
	Optimization *OptimizationLevel
	Libraries    []Library
	Cache        CacheSettings
}
