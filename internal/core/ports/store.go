package ports

import "go.trai.ch/kiln/internal/core/domain"

// CacheStore manages cache entry directories and their manifests.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type CacheStore interface {
	// Claim creates root/fp, or reports that it already existed.
	Claim(root string, fp domain.Fingerprint) (*domain.Entry, error)

	// LoadManifest reads and strictly decodes the entry manifest.
	// Any failure is reported as domain.ErrManifestCorrupt.
	LoadManifest(entry *domain.Entry) (*domain.Manifest, error)

	// Validate reports whether the entry may be reused for unit and still holds artifact,
	// the file name of the artifact inside the entry directory.
	Validate(entry *domain.Entry, manifest *domain.Manifest, unit domain.Unit, artifact string) (bool, error)

	// WriteSources writes verbatim copies of the unit's sources into dir and returns their paths in order.
	WriteSources(dir string, unit domain.Unit) ([]string, error)

	// WriteManifest atomically persists the manifest, completing the entry.
	WriteManifest(entry *domain.Entry, manifest *domain.Manifest) error

	// Invalidate removes only the manifest, marking the entry incomplete.
	Invalidate(entry *domain.Entry) error

	// Reset erases the entry contents and recreates the empty directory.
	Reset(entry *domain.Entry) error

	// Erase removes the entry directory entirely.
	Erase(entry *domain.Entry) error

	// List summarizes every entry under root.
	List(root string) ([]domain.EntryInfo, error)

	// Clean removes root and everything in it.
	Clean(root string) error
}
