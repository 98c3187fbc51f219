package ports

import "context"

// Lock is a held, or knowingly skipped, cache lock.
type Lock interface {
	// Owned reports whether this process created the lock file.
	Owned() bool
	// Release gives up the lock. It is safe to call more than once.
	Release() error
}

// Locker serializes cache access across processes.
//
//go:generate mockgen -source=locker.go -destination=mocks/mock_locker.go -package=mocks
type Locker interface {
	// Acquire waits for the lock on root. When the retry budget runs out it warns
	// and returns an unowned lock so the caller can proceed.
	Acquire(ctx context.Context, root string) (Lock, error)
}
