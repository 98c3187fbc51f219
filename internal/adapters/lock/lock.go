// Package lock serializes access to a cache root across processes with an
// exclusively created lock file.
package lock

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Locker implements ports.Locker.
type Locker struct {
	logger ports.Logger
	// Delay is the wait between attempts.
	Delay time.Duration
	// Attempts is how many failed attempts are tolerated before proceeding without the lock.
	Attempts int
}

var _ ports.Locker = (*Locker)(nil)

// NewLocker creates a Locker with the default retry budget.
func NewLocker(logger ports.Logger) *Locker {
	return &Locker{
		logger:   logger,
		Delay:    domain.DefaultLockDelay,
		Attempts: domain.DefaultLockAttempts,
	}
}

// Configure sets the retry budget. A negative delay or non-positive attempts
// keep the current setting. It must not be called while Acquire is running.
func (l *Locker) Configure(delay time.Duration, attempts int) {
	if delay >= 0 {
		l.Delay = delay
	}
	if attempts > 0 {
		l.Attempts = attempts
	}
}

// Handle is an acquired lock. An unowned handle represents a lock that could not be obtained.
type Handle struct {
	path  string
	file  *os.File
	owned bool

	once sync.Once
	err  error
}

var _ ports.Lock = (*Handle)(nil)

// Path returns the lock file path.
func (h *Handle) Path() string {
	return h.path
}

// Owned reports whether this handle created the lock file.
func (h *Handle) Owned() bool {
	return h.owned
}

// Release closes and deletes the lock file if this handle created it.
func (h *Handle) Release() error {
	h.once.Do(func() {
		if !h.owned {
			return
		}
		closeErr := h.file.Close()
		removeErr := os.Remove(h.path)
		if removeErr != nil && !errors.Is(removeErr, iofs.ErrNotExist) {
			h.err = zerr.With(zerr.Wrap(removeErr, "failed to remove cache lock"), "path", h.path)
			return
		}
		if closeErr != nil {
			h.err = zerr.With(zerr.Wrap(closeErr, "failed to close cache lock"), "path", h.path)
		}
	})
	return h.err
}

// Acquire creates root/lock, waiting Delay between attempts while another process holds it.
// After more than Attempts failed attempts it warns and returns an unowned handle.
func (l *Locker) Acquire(ctx context.Context, root string) (ports.Lock, error) {
	if err := os.MkdirAll(root, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheRootFailed.Error()), "root", root)
	}

	path := filepath.Join(root, domain.LockFileName)

	for failed := 0; ; failed++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, domain.PrivateFilePerm) //nolint:gosec // path is inside the cache root
		if err == nil {
			if err := recordHolder(f); err != nil {
				l.logger.Debug(fmt.Sprintf("could not record holder pid in %s: %v", path, err))
			}
			return &Handle{path: path, file: f, owned: true}, nil
		}
		if !errors.Is(err, iofs.ErrExist) {
			return nil, errors.Join(domain.ErrLockFailed, zerr.With(zerr.Wrap(err, "open lock file"), "path", path))
		}

		if failed >= l.Attempts {
			l.logger.Warn(fmt.Sprintf("%s -- delete '%s' if necessary", domain.ErrLockTimeout.Error(), path))
			return &Handle{path: path}, nil
		}

		timer := time.NewTimer(l.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// recordHolder writes this process's PID, read back by Holder.
func recordHolder(w io.Writer) error {
	_, err := io.WriteString(w, strconv.Itoa(os.Getpid())+"\n")
	return err
}

// Holder returns the PID recorded in the lock file under root, if any.
func Holder(root string) (int, bool) {
	data, err := os.ReadFile(filepath.Join(root, domain.LockFileName)) //nolint:gosec // path is inside the cache root
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	return pid, true
}
