package domain

import (
	"os"
	"path/filepath"
	"strconv"
)

const (
	// ToolName namespaces the per-user cache directory.
	ToolName = "kiln"

	// CacheFormatVersion is bumped whenever the entry layout or manifest format changes.
	// Entries written under an older version live under a different root and are never looked up.
	CacheFormatVersion = 1

	// LockFileName is the name of the process lock inside a cache root.
	LockFileName = "lock"

	// ManifestFileName is the name of the manifest inside a cache entry.
	ManifestFileName = "manifest.json"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "kiln.yaml"

	// ModuleNamePrefix prefixes every fingerprinted module name.
	ModuleNamePrefix = "kiln.temp"

	// DefaultSourceName is used when a caller gives source text without a file name.
	DefaultSourceName = "module.cpp"

	// EnvCacheDir overrides the cache root.
	EnvCacheDir = "KILN_CACHE_DIR"

	// EnvNoCache disables caching when set to anything but "", "0" or "false".
	EnvNoCache = "KILN_NO_CACHE"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// CacheDirName returns the versioned directory name used beneath the per-user cache base.
func CacheDirName() string {
	return ToolName + "-compiler-cache-v" + strconv.Itoa(CacheFormatVersion)
}

// DefaultCacheRoot returns the per-user cache root.
// Precedence:
//  1. KILN_CACHE_DIR, if set and non-empty
//  2. os.UserCacheDir()/kiln/kiln-compiler-cache-v<N>
func DefaultCacheRoot() (string, error) {
	if dir, ok := os.LookupEnv(EnvCacheDir); ok && dir != "" {
		return dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, ToolName, CacheDirName()), nil
}

// CacheDisabledByEnv reports whether KILN_NO_CACHE asks for caching to be turned off.
func CacheDisabledByEnv() bool {
	v, _ := os.LookupEnv(EnvNoCache)
	return v != "" && v != "0" && v != "false"
}
