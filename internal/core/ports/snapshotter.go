package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// Snapshotter records and checks the state of build dependencies.
//
//go:generate mockgen -source=snapshotter.go -destination=mocks/mock_snapshotter.go -package=mocks
type Snapshotter interface {
	// Snapshot records the modification time and content digest of every path.
	Snapshot(ctx context.Context, paths []string) ([]domain.Dependency, error)

	// Check returns the first stale dependency, if any. ok is true when all are fresh.
	Check(deps []domain.Dependency) (stale string, ok bool)
}
