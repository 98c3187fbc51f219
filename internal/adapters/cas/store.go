// Package cas implements the content-addressed compiler cache.
// Each entry is a directory named after the unit fingerprint holding the
// built artifacts, verbatim source copies and a manifest written last.
package cas

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Store implements ports.CacheStore on the local file system.
type Store struct {
	snapshotter ports.Snapshotter
	verifier    *fs.Verifier
	walker      *fs.Walker
	logger      ports.Logger
}

var _ ports.CacheStore = (*Store)(nil)

// NewStore creates a Store.
func NewStore(snapshotter ports.Snapshotter, verifier *fs.Verifier, walker *fs.Walker, logger ports.Logger) *Store {
	return &Store{
		snapshotter: snapshotter,
		verifier:    verifier,
		walker:      walker,
		logger:      logger,
	}
}

// Claim creates the entry directory for fp under root. The atomic directory
// creation decides which caller owns a fresh entry.
func (s *Store) Claim(root string, fp domain.Fingerprint) (*domain.Entry, error) {
	if err := os.MkdirAll(root, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheRootFailed.Error()), "root", root)
	}

	dir := filepath.Join(root, fp.String())
	err := os.Mkdir(dir, domain.DirPerm)
	if err == nil {
		return &domain.Entry{Fingerprint: fp, Dir: dir}, nil
	}
	if !errors.Is(err, iofs.ErrExist) {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrEntryCreateFailed.Error()), "path", dir)
	}

	info, statErr := os.Stat(dir)
	if statErr != nil || !info.IsDir() {
		return nil, zerr.With(zerr.Wrap(domain.ErrEntryCreateFailed, "entry path is not a directory"), "path", dir)
	}
	return &domain.Entry{Fingerprint: fp, Dir: dir, Existed: true}, nil
}

// LoadManifest reads and strictly decodes the entry manifest.
func (s *Store) LoadManifest(entry *domain.Entry) (*domain.Manifest, error) {
	path := entry.ManifestPath()

	data, err := os.ReadFile(path) //nolint:gosec // path is inside the cache root
	if err != nil {
		return nil, corrupt(path, err.Error())
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var m domain.Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, corrupt(path, err.Error())
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, corrupt(path, "trailing data after manifest")
	}
	if m.Format != domain.ManifestFormat {
		return nil, zerr.With(corrupt(path, "unknown manifest format"), "format", m.Format)
	}
	if len(m.Sources) == 0 {
		return nil, corrupt(path, "manifest lists no sources")
	}

	return &m, nil
}

func corrupt(path, reason string) error {
	return zerr.With(zerr.Wrap(domain.ErrManifestCorrupt, reason), "path", path)
}

// Validate reports whether the entry may be reused for unit and holds artifact.
// Differing source bytes under an equal fingerprint are logged as a collision
// and treated as a miss.
func (s *Store) Validate(
	entry *domain.Entry,
	manifest *domain.Manifest,
	unit domain.Unit,
	artifact string,
) (bool, error) {
	if stale, ok := s.snapshotter.Check(manifest.Dependencies); !ok {
		s.logger.Debug("dependency changed: " + stale)
		return false, nil
	}

	if !slices.Equal(manifest.Sources, unit.SourceNames()) {
		return false, nil
	}

	for _, src := range unit.Sources() {
		stored, err := os.ReadFile(filepath.Join(entry.Dir, src.Name)) //nolint:gosec // path is inside the cache entry
		if err != nil {
			return false, nil
		}
		if !bytes.Equal(stored, src.Data) {
			s.logger.Warn(domain.ErrCacheCollision.Error() + ": " + entry.Dir)
			return false, nil
		}
	}

	ok, err := s.verifier.Exists(filepath.Join(entry.Dir, artifact))
	if err != nil {
		return false, err
	}
	return ok, nil
}

// WriteSources writes a verbatim copy of each source into dir.
func (s *Store) WriteSources(dir string, unit domain.Unit) ([]string, error) {
	sources := unit.Sources()
	paths := make([]string, 0, len(sources))

	for _, src := range sources {
		path := filepath.Join(dir, src.Name)
		if err := os.WriteFile(path, src.Data, domain.FilePerm); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrSourceWriteFailed.Error()), "path", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteManifest persists the manifest through a temporary file and a rename,
// so readers never observe a partial manifest.
func (s *Store) WriteManifest(entry *domain.Entry, manifest *domain.Manifest) error {
	path := entry.ManifestPath()

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrManifestWriteFailed.Error())
	}

	tmpFile, err := os.CreateTemp(entry.Dir, ".manifest-*.json")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestWriteFailed.Error()), "path", path)
	}
	tmpName := tmpFile.Name()

	// Clean up temp file on error
	defer func() {
		if _, err := os.Stat(tmpName); err == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return zerr.With(zerr.Wrap(err, domain.ErrManifestWriteFailed.Error()), "path", path)
	}
	if err := tmpFile.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestWriteFailed.Error()), "path", path)
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestWriteFailed.Error()), "path", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestWriteFailed.Error()), "path", path)
	}
	return nil
}

// Invalidate removes the manifest so the entry reads as incomplete until it is rewritten.
func (s *Store) Invalidate(entry *domain.Entry) error {
	err := os.Remove(entry.ManifestPath())
	if err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, domain.ErrEntryEraseFailed.Error()), "path", entry.ManifestPath())
	}
	return nil
}

// Reset erases the entry contents and recreates the empty directory.
func (s *Store) Reset(entry *domain.Entry) error {
	if err := os.RemoveAll(entry.Dir); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrEntryEraseFailed.Error()), "path", entry.Dir)
	}
	if err := os.Mkdir(entry.Dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrEntryCreateFailed.Error()), "path", entry.Dir)
	}
	return nil
}

// Erase removes the entry directory entirely.
func (s *Store) Erase(entry *domain.Entry) error {
	if err := os.RemoveAll(entry.Dir); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrEntryEraseFailed.Error()), "path", entry.Dir)
	}
	return nil
}

// List summarizes every entry under root, most recently modified first.
// A missing root has no entries.
func (s *Store) List(root string) ([]domain.EntryInfo, error) {
	dirents, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheRootFailed.Error()), "root", root)
	}

	var infos []domain.EntryInfo
	for _, d := range dirents {
		if !d.IsDir() || !isFingerprint(d.Name()) {
			continue
		}

		entry := &domain.Entry{
			Fingerprint: domain.Fingerprint(d.Name()),
			Dir:         filepath.Join(root, d.Name()),
			Existed:     true,
		}
		size, newest := s.walker.Usage(entry.Dir)
		info := domain.EntryInfo{
			Fingerprint: entry.Fingerprint,
			Dir:         entry.Dir,
			Size:        size,
			ModTime:     time.Unix(0, newest),
		}
		if m, err := s.LoadManifest(entry); err == nil {
			info.Complete = true
			info.Sources = m.Sources
		}
		infos = append(infos, info)
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].ModTime.After(infos[j].ModTime)
	})
	return infos, nil
}

// Clean removes root and everything in it.
func (s *Store) Clean(root string) error {
	if err := os.RemoveAll(root); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrEntryEraseFailed.Error()), "root", root)
	}
	return nil
}

func isFingerprint(name string) bool {
	if len(name) != 64 {
		return false
	}
	_, err := hex.DecodeString(name)
	return err == nil
}
