package fs

import (
	"context"
	"os"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentDigests bounds the number of files hashed at once.
const maxConcurrentDigests = 8

// Snapshotter implements ports.Snapshotter with modification times and xxhash digests.
type Snapshotter struct {
	hasher *Hasher
}

var _ ports.Snapshotter = (*Snapshotter)(nil)

// NewSnapshotter creates a Snapshotter.
func NewSnapshotter(hasher *Hasher) *Snapshotter {
	return &Snapshotter{hasher: hasher}
}

// Snapshot records the modification time and digest of every path, in order.
func (s *Snapshotter) Snapshot(ctx context.Context, paths []string) ([]domain.Dependency, error) {
	deps := make([]domain.Dependency, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDigests)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			info, err := os.Stat(path)
			if err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrSnapshotFailed.Error()), "path", path)
			}
			digest, err := s.hasher.Digest(path)
			if err != nil {
				return zerr.Wrap(err, domain.ErrSnapshotFailed.Error())
			}

			deps[i] = domain.Dependency{
				Path:    path,
				ModTime: info.ModTime().UnixNano(),
				Digest:  digest,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return deps, nil
}

// Check reports the first dependency that changed. A dependency whose modification time
// moved but whose content is unchanged is still fresh. A missing or unreadable file is stale.
func (s *Snapshotter) Check(deps []domain.Dependency) (string, bool) {
	for _, dep := range deps {
		info, err := os.Stat(dep.Path)
		if err != nil {
			return dep.Path, false
		}
		if info.ModTime().UnixNano() == dep.ModTime {
			continue
		}

		digest, err := s.hasher.Digest(dep.Path)
		if err != nil || digest != dep.Digest {
			return dep.Path, false
		}
	}
	return "", true
}
