// Package jit builds compilation units into cached native artifacts.
package jit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Builder decides whether a cached artifact can be reused and rebuilds it when not.
type Builder struct {
	store       ports.CacheStore
	locker      ports.Locker
	snapshotter ports.Snapshotter
	logger      ports.Logger
	tracer      ports.Tracer

	flight  singleflight.Group
	mu      sync.Mutex
	waiters map[string]*waiters
	gen     uint64
}

// waiters tracks the callers of one in-flight build. The build's context is
// cancelled only when every caller has given up on it.
type waiters struct {
	// flight is the singleflight key, unique per generation of callers.
	flight string
	ctx    context.Context
	cancel context.CancelFunc
	count  int
}

// NewBuilder creates a new Builder with the given dependencies.
func NewBuilder(
	store ports.CacheStore,
	locker ports.Locker,
	snapshotter ports.Snapshotter,
	logger ports.Logger,
	tracer ports.Tracer,
) *Builder {
	return &Builder{
		store:       store,
		locker:      locker,
		snapshotter: snapshotter,
		logger:      logger,
		tracer:      tracer,
	}
}

// Build returns the artifact for unit, compiling it with tc unless a valid
// cache entry already holds it. Concurrent calls in one process for the same
// cache entry and artifact kind share a single build.
func (b *Builder) Build(
	ctx context.Context,
	tc ports.Toolchain,
	unit domain.Unit,
	opts domain.BuildOptions,
) (res *domain.BuildResult, err error) {
	ctx, span := b.tracer.Start(ctx, "kiln.build")
	defer func() {
		if res != nil {
			span.SetAttribute("rebuilt", res.Rebuilt)
		}
		span.RecordError(err)
		span.End()
	}()
	span.SetAttribute("module", unit.Name())
	span.SetAttribute("object", opts.Object)

	id, err := tc.Identity(ctx)
	if err != nil {
		return nil, err
	}
	fp := domain.ComputeFingerprint(unit.SourceData(), id)
	span.SetAttribute("fingerprint", fp.String())

	if opts.NoCache {
		return b.buildUncached(ctx, tc, unit, fp, opts)
	}

	root := opts.CacheRoot
	if root == "" {
		if root, err = domain.DefaultCacheRoot(); err != nil {
			return nil, zerr.Wrap(err, domain.ErrCacheRootFailed.Error())
		}
	}

	key := root + "\x00" + fp.String() + "\x00" + strconv.FormatBool(opts.Object)
	w := b.join(ctx, key)
	ch := b.flight.DoChan(w.flight, func() (any, error) {
		defer b.finishFlight(key, w)
		return b.buildCached(w.ctx, tc, unit, fp, root, opts)
	})

	select {
	case <-ctx.Done():
		b.leave(w)
		return nil, ctx.Err()
	case r := <-ch:
		b.leave(w)
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared {
			b.logger.Debug("shared in-flight build of " + unit.Name())
		}
		result := *r.Val.(*domain.BuildResult)
		return &result, nil
	}
}

// join registers a caller of the build keyed by key. The build runs on a
// context detached from any single caller's cancellation. A build abandoned
// by all of its callers is not joined; the next caller starts a new one.
func (b *Builder) join(ctx context.Context, key string) *waiters {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.waiters == nil {
		b.waiters = make(map[string]*waiters)
	}
	w, ok := b.waiters[key]
	if !ok || w.ctx.Err() != nil {
		b.gen++
		flightCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		w = &waiters{flight: key + "\x00" + strconv.FormatUint(b.gen, 10), ctx: flightCtx, cancel: cancel}
		b.waiters[key] = w
	}
	w.count++
	return w
}

// leave drops a caller and cancels the build once nobody waits for it.
func (b *Builder) leave(w *waiters) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w.count--
	if w.count <= 0 {
		w.cancel()
	}
}

func (b *Builder) finishFlight(key string, w *waiters) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.waiters[key] == w {
		delete(b.waiters, key)
	}
}

func (b *Builder) buildCached(
	ctx context.Context,
	tc ports.Toolchain,
	unit domain.Unit,
	fp domain.Fingerprint,
	root string,
	opts domain.BuildOptions,
) (res *domain.BuildResult, err error) {
	guards := &cleanup{}
	defer func() {
		if teardownErr := guards.finish(err != nil); teardownErr != nil {
			if err != nil {
				b.logger.Warn("cache cleanup failed: " + teardownErr.Error())
			} else {
				err = teardownErr
			}
		}
	}()

	lock, err := b.acquire(ctx, root)
	if err != nil {
		return nil, err
	}
	guards.push(lockGuard{lock: lock})

	entry, err := b.store.Claim(root, fp)
	if err != nil {
		return nil, err
	}
	guards.push(entryGuard{store: b.store, entry: entry})

	artifact := unit.Name() + tc.Suffix(opts.Object)
	result := &domain.BuildResult{
		Fingerprint:  fp,
		ModuleName:   domain.ModuleName(fp, unit.Name()),
		ArtifactPath: filepath.Join(entry.Dir, artifact),
	}

	if entry.Existed {
		hit, err := b.lookup(ctx, entry, unit, artifact)
		if err != nil {
			return nil, err
		}
		if hit {
			b.logger.Debug("cache hit for " + result.ModuleName)
			return result, nil
		}
	}

	sourcePaths, err := b.compile(ctx, tc, entry.Dir, unit, result.ArtifactPath, opts)
	if err != nil {
		return nil, err
	}

	if err := b.persist(ctx, tc, entry, unit, sourcePaths); err != nil {
		return nil, err
	}

	result.Rebuilt = true
	return result, nil
}

func (b *Builder) acquire(ctx context.Context, root string) (ports.Lock, error) {
	ctx, span := b.tracer.Start(ctx, "kiln.lock")
	defer span.End()

	lock, err := b.locker.Acquire(ctx, root)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("owned", lock.Owned())
	return lock, nil
}

// lookup reports whether entry can be reused. A corrupt or incomplete entry is
// reset; a stale one has its manifest removed so that it reads as incomplete
// until the rebuild lands.
func (b *Builder) lookup(ctx context.Context, entry *domain.Entry, unit domain.Unit, artifact string) (bool, error) {
	_, span := b.tracer.Start(ctx, "kiln.lookup")
	defer span.End()

	manifest, err := b.store.LoadManifest(entry)
	if err != nil {
		if !errors.Is(err, domain.ErrManifestCorrupt) {
			span.RecordError(err)
			return false, err
		}
		b.logger.Warn("resetting corrupt cache entry " + entry.Dir)
		span.SetAttribute("corrupt", true)
		return false, b.store.Reset(entry)
	}

	valid, err := b.store.Validate(entry, manifest, unit, artifact)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	span.SetAttribute("hit", valid)
	if valid {
		return true, nil
	}
	return false, b.store.Invalidate(entry)
}

func (b *Builder) compile(
	ctx context.Context,
	tc ports.Toolchain,
	dir string,
	unit domain.Unit,
	artifact string,
	opts domain.BuildOptions,
) (paths []string, err error) {
	ctx, span := b.tracer.Start(ctx, "kiln.compile")
	defer func() {
		span.RecordError(err)
		span.End()
	}()

	paths, err = b.store.WriteSources(dir, unit)
	if err != nil {
		return nil, err
	}

	if opts.Object {
		err = tc.BuildObject(ctx, artifact, paths, opts.Debug)
	} else {
		err = tc.BuildExtension(ctx, artifact, paths, opts.Debug)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Join(zerr.With(zerr.Wrap(domain.ErrCompileFailed, "toolchain could not build module"), "module", unit.Name()), err)
	}
	return paths, nil
}

func (b *Builder) persist(
	ctx context.Context,
	tc ports.Toolchain,
	entry *domain.Entry,
	unit domain.Unit,
	sourcePaths []string,
) (err error) {
	ctx, span := b.tracer.Start(ctx, "kiln.persist")
	defer func() {
		span.RecordError(err)
		span.End()
	}()

	depPaths, err := tc.Dependencies(ctx, sourcePaths)
	if err != nil {
		return err
	}
	deps, err := b.snapshotter.Snapshot(ctx, depPaths)
	if err != nil {
		return err
	}
	span.SetAttribute("dependencies", len(deps))

	return b.store.WriteManifest(entry, domain.NewManifest(deps, unit.SourceNames()))
}

// buildUncached compiles into a private temporary directory. Nothing is
// looked up or persisted and no lock is taken.
func (b *Builder) buildUncached(
	ctx context.Context,
	tc ports.Toolchain,
	unit domain.Unit,
	fp domain.Fingerprint,
	opts domain.BuildOptions,
) (res *domain.BuildResult, err error) {
	guards := &cleanup{}
	defer func() {
		if teardownErr := guards.finish(err != nil); teardownErr != nil && err != nil {
			b.logger.Warn("temporary directory cleanup failed: " + teardownErr.Error())
		}
	}()

	dir, err := os.MkdirTemp("", domain.ToolName+"-"+unit.Name()+"-")
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrTempDirFailed.Error())
	}
	guards.push(tempGuard{dir: dir})

	artifact := filepath.Join(dir, unit.Name()+tc.Suffix(opts.Object))
	if _, err := b.compile(ctx, tc, dir, unit, artifact, opts); err != nil {
		return nil, err
	}

	return &domain.BuildResult{
		Fingerprint:  fp,
		ModuleName:   domain.ModuleName(fp, unit.Name()),
		ArtifactPath: artifact,
		Rebuilt:      true,
	}, nil
}

// Link links objects into a loadable module named moduleName. The module is
// written under opts.CacheRoot when set, otherwise beside the first object.
// Linking always runs; its output is never cached.
func (b *Builder) Link(
	ctx context.Context,
	tc ports.Toolchain,
	objects []string,
	moduleName string,
	opts domain.LinkOptions,
) (dest string, err error) {
	ctx, span := b.tracer.Start(ctx, "kiln.link")
	defer func() {
		span.RecordError(err)
		span.End()
	}()
	span.SetAttribute("module", moduleName)
	span.SetAttribute("objects", len(objects))

	if len(objects) == 0 {
		return "", zerr.With(zerr.Wrap(domain.ErrNoObjects, "link requested without objects"), "module", moduleName)
	}

	dir := filepath.Dir(objects[0])
	if opts.CacheRoot != "" {
		dir = opts.CacheRoot
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			return "", zerr.With(zerr.Wrap(err, domain.ErrCacheRootFailed.Error()), "path", dir)
		}
	}
	dest = filepath.Join(dir, moduleName+tc.Suffix(false))

	if err := tc.LinkExtension(ctx, dest, objects, opts.Debug); err != nil {
		return "", err
	}
	return dest, nil
}

// BuildFile compiles one source text into the loadable module out. The source
// is written to a throwaway directory; nothing is cached.
func (b *Builder) BuildFile(
	ctx context.Context,
	tc ports.Toolchain,
	out string,
	source []byte,
	sourceName string,
	debug bool,
) (err error) {
	unit, err := domain.NewSingleSourceUnit(filepath.Base(out), sourceName, source)
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", domain.ToolName+"-")
	if err != nil {
		return zerr.Wrap(err, domain.ErrTempDirFailed.Error())
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			b.logger.Warn("could not remove " + dir + ": " + rmErr.Error())
		}
	}()

	paths, err := b.store.WriteSources(dir, unit)
	if err != nil {
		return err
	}
	return tc.BuildExtension(ctx, out, paths, debug)
}
