package jit

import (
	"errors"
	"os"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// guard owns one resource acquired during a build. abort undoes the
// resource's effects after a failure; release frees it in every case.
type guard interface {
	release() error
	abort() error
}

// cleanup tears guards down in reverse order of acquisition.
type cleanup struct {
	guards []guard
}

func (c *cleanup) push(g guard) {
	c.guards = append([]guard{g}, c.guards...)
}

// finish runs every abort when failed is set, then every release.
func (c *cleanup) finish(failed bool) error {
	var errs []error
	if failed {
		for _, g := range c.guards {
			errs = append(errs, g.abort())
		}
	}
	for _, g := range c.guards {
		errs = append(errs, g.release())
	}
	c.guards = nil
	return errors.Join(errs...)
}

type lockGuard struct {
	lock ports.Lock
}

func (g lockGuard) release() error { return g.lock.Release() }
func (g lockGuard) abort() error   { return nil }

// entryGuard erases an entry this build created if the build fails.
// Entries that existed before are left for the next build to reset.
type entryGuard struct {
	store ports.CacheStore
	entry *domain.Entry
}

func (g entryGuard) release() error { return nil }

func (g entryGuard) abort() error {
	if g.entry.Existed {
		return nil
	}
	return g.store.Erase(g.entry)
}

// tempGuard removes a private build directory on failure. On success the
// directory holds the artifact and belongs to the caller.
type tempGuard struct {
	dir string
}

func (g tempGuard) release() error { return nil }
func (g tempGuard) abort() error   { return os.RemoveAll(g.dir) }
