package jit_test

import (
	"bytes"
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.trai.ch/kiln/internal/adapters/cas"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/adapters/lock"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/jit"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

// fakeToolchain "compiles" by concatenating its inputs into the output file.
type fakeToolchain struct {
	identity string

	mu   sync.Mutex
	deps []string
	fail bool

	compiles atomic.Int32
	links    atomic.Int32
	delay    time.Duration
}

var _ ports.Toolchain = (*fakeToolchain)(nil)

func newFakeToolchain() *fakeToolchain {
	return &fakeToolchain{identity: "fake 1.0"}
}

func (f *fakeToolchain) setDeps(deps ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deps = deps
}

func (f *fakeToolchain) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *fakeToolchain) Version(context.Context) (string, error) { return f.identity, nil }

func (f *fakeToolchain) Identity(context.Context) (domain.ToolchainIdentity, error) {
	return domain.NewToolchainIdentity(f.identity, "go", []string{"fakecc"}), nil
}

func (f *fakeToolchain) Dependencies(context.Context, []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deps...), nil
}

func (f *fakeToolchain) BuildObject(ctx context.Context, out string, sources []string, _ bool) error {
	return f.produce(ctx, out, sources)
}

func (f *fakeToolchain) BuildExtension(ctx context.Context, out string, sources []string, _ bool) error {
	return f.produce(ctx, out, sources)
}

func (f *fakeToolchain) LinkExtension(_ context.Context, out string, objects []string, _ bool) error {
	f.links.Add(1)
	return concat(out, objects)
}

func (f *fakeToolchain) Suffix(object bool) string {
	if object {
		return ".o"
	}
	return ".so"
}

func (f *fakeToolchain) produce(ctx context.Context, out string, sources []string) error {
	f.compiles.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return zerr.With(zerr.Wrap(domain.ErrToolFailed, "compiler invocation failed"), "exit_code", 1)
	}
	return concat(out, sources)
}

func concat(out string, inputs []string) error {
	var buf bytes.Buffer
	for _, in := range inputs {
		data, err := os.ReadFile(in) //nolint:gosec // test input
		if err != nil {
			return err
		}
		buf.Write(data)
	}
	return os.WriteFile(out, buf.Bytes(), domain.FilePerm)
}

type harness struct {
	builder *jit.Builder
	store   *cas.Store
	root    string
}

func newHarness(t *testing.T, root string, tracer ports.Tracer) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()

	if tracer == nil {
		tracer = telemetry.NewNoOpTracer()
	}

	snapshotter := fs.NewSnapshotter(fs.NewHasher())
	store := cas.NewStore(snapshotter, fs.NewVerifier(), fs.NewWalker(), log)
	locker := lock.NewLocker(log)
	locker.Configure(2*time.Millisecond, 5000)

	return &harness{
		builder: jit.NewBuilder(store, locker, snapshotter, log, tracer),
		store:   store,
		root:    root,
	}
}

func (h *harness) opts() domain.BuildOptions {
	return domain.BuildOptions{CacheRoot: h.root}
}

func mustUnit(t *testing.T, name string, sources ...domain.Source) domain.Unit {
	t.Helper()
	u, err := domain.NewUnit(name, sources...)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func answerUnit(t *testing.T) domain.Unit {
	t.Helper()
	return mustUnit(t, "answer", domain.Source{Name: "answer.c", Data: []byte("int f(void) { return 42; }\n")})
}
