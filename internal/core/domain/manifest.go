package domain

import (
	"path/filepath"
	"time"
)

// ManifestFormat tags the manifest encoding. Manifests with any other tag are corrupt.
const ManifestFormat = "kiln-manifest/1"

// Dependency is the recorded state of one file the build read besides its sources.
type Dependency struct {
	Path    string `json:"path"`
	ModTime int64  `json:"mtime"`  // UnixNano
	Digest  string `json:"digest"` // xxhash64, hex
}

// Manifest is written last into a cache entry. Its presence marks the entry as complete.
type Manifest struct {
	Format       string       `json:"format"`
	Dependencies []Dependency `json:"dependencies"`
	Sources      []string     `json:"sources"`
}

// NewManifest returns a manifest tagged with the current format.
func NewManifest(deps []Dependency, sources []string) *Manifest {
	if deps == nil {
		deps = []Dependency{}
	}
	return &Manifest{
		Format:       ManifestFormat,
		Dependencies: deps,
		Sources:      sources,
	}
}

// Entry is a claimed cache entry directory.
type Entry struct {
	Fingerprint Fingerprint
	Dir         string
	// Existed is true when the directory was already present when claimed.
	Existed bool
}

// ManifestPath returns the path of the entry's manifest.
func (e *Entry) ManifestPath() string {
	return filepath.Join(e.Dir, ManifestFileName)
}

// EntryInfo summarizes an on-disk entry for maintenance listings.
type EntryInfo struct {
	Fingerprint Fingerprint
	Dir         string
	Size        int64
	ModTime     time.Time
	Sources     []string
	Complete    bool
}
