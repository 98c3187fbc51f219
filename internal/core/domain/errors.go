package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidUnit is returned when a compilation unit cannot be constructed from the given sources.
	ErrInvalidUnit = zerr.New("invalid compilation unit")

	// ErrToolFailed is returned when the compiler or linker exits with a nonzero status,
	// including the dependency listing invocation.
	ErrToolFailed = zerr.New("toolchain invocation failed")

	// ErrCompileFailed is returned by the build orchestrator when the toolchain could not build a unit.
	ErrCompileFailed = zerr.New("module compilation failed")

	// ErrCommandFailed is returned when an external command exits with a nonzero status.
	ErrCommandFailed = zerr.New("command failed")

	// ErrCommandStartFailed is returned when an external command cannot be started.
	ErrCommandStartFailed = zerr.New("failed to start command")

	// ErrVersionQueryFailed is returned when the compiler version cannot be determined.
	ErrVersionQueryFailed = zerr.New("compiler version query failed")

	// ErrUnsupportedToolchain is returned when a toolchain kind is not known.
	ErrUnsupportedToolchain = zerr.New("unsupported toolchain kind")

	// ErrInvalidOptimization is returned when an optimization level cannot be interpreted.
	ErrInvalidOptimization = zerr.New("unsupported optimization level")

	// ErrManifestCorrupt is returned when a cache entry manifest is missing, truncated or undecodable.
	ErrManifestCorrupt = zerr.New("cache manifest is corrupt")

	// ErrCacheCollision is reported when a cache entry holds different sources than the unit it was looked up for.
	ErrCacheCollision = zerr.New("hash collision in compiler cache")

	// ErrLockTimeout is reported when the cache lock could not be obtained within the retry budget.
	ErrLockTimeout = zerr.New("could not obtain cache lock")

	// ErrLockFailed is returned when the lock file cannot be created for a reason other than contention.
	ErrLockFailed = zerr.New("failed to create cache lock")

	// ErrEntryCreateFailed is returned when a cache entry directory cannot be created.
	ErrEntryCreateFailed = zerr.New("failed to create cache entry")

	// ErrEntryEraseFailed is returned when a cache entry cannot be erased.
	ErrEntryEraseFailed = zerr.New("failed to erase cache entry")

	// ErrSourceWriteFailed is returned when a source file cannot be written for compilation.
	ErrSourceWriteFailed = zerr.New("failed to write source file")

	// ErrManifestWriteFailed is returned when a manifest cannot be persisted.
	ErrManifestWriteFailed = zerr.New("failed to write cache manifest")

	// ErrSnapshotFailed is returned when dependency snapshots cannot be computed.
	ErrSnapshotFailed = zerr.New("failed to snapshot dependencies")

	// ErrCacheRootFailed is returned when the cache root cannot be resolved or created.
	ErrCacheRootFailed = zerr.New("failed to prepare cache root")

	// ErrTempDirFailed is returned when a private build directory cannot be created.
	ErrTempDirFailed = zerr.New("failed to create temporary build directory")

	// ErrNoObjects is returned when link is requested without any object files.
	ErrNoObjects = zerr.New("no object files to link")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when a config value is out of range.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrLoadFailed is returned when a built artifact cannot be loaded into the process.
	ErrLoadFailed = zerr.New("failed to load module")

	// ErrSymbolNotFound is returned when a loaded module does not export a symbol.
	ErrSymbolNotFound = zerr.New("symbol not found")

	// ErrLoadUnsupported is returned on platforms without dynamic loading support.
	ErrLoadUnsupported = zerr.New("dynamic loading is not supported on this platform")
)
