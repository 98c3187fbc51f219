package jit_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestBuilder_Build_HitIsIdempotent(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)
	tc := newFakeToolchain()
	unit := answerUnit(t)
	ctx := context.Background()

	first, err := h.builder.Build(ctx, tc, unit, h.opts())
	require.NoError(t, err)
	assert.True(t, first.Rebuilt)
	assert.Equal(t, filepath.Join(h.root, first.Fingerprint.String(), "answer.so"), first.ArtifactPath)
	assert.Equal(t, "kiln.temp."+first.Fingerprint.String()+".answer", first.ModuleName)
	assert.FileExists(t, filepath.Join(h.root, first.Fingerprint.String(), domain.ManifestFileName))

	second, err := h.builder.Build(ctx, tc, unit, h.opts())
	require.NoError(t, err)
	assert.False(t, second.Rebuilt)
	assert.Equal(t, first.ArtifactPath, second.ArtifactPath)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.EqualValues(t, 1, tc.compiles.Load())

	assert.NoFileExists(t, filepath.Join(h.root, domain.LockFileName), "lock is released")
}

func TestBuilder_Build_HitAcrossBuilders(t *testing.T) {
	root := t.TempDir()
	tc := newFakeToolchain()
	unit := answerUnit(t)

	first, err := newHarness(t, root, nil).builder.Build(context.Background(), tc, unit, domain.BuildOptions{CacheRoot: root})
	require.NoError(t, err)
	require.True(t, first.Rebuilt)

	second, err := newHarness(t, root, nil).builder.Build(context.Background(), tc, unit, domain.BuildOptions{CacheRoot: root})
	require.NoError(t, err)
	assert.False(t, second.Rebuilt, "a fresh builder finds the persisted entry")
	assert.Equal(t, first.ArtifactPath, second.ArtifactPath)
	assert.FileExists(t, second.ArtifactPath)
	assert.FileExists(t, filepath.Join(root, first.Fingerprint.String(), domain.ManifestFileName),
		"a hit leaves the manifest in place")
	assert.EqualValues(t, 1, tc.compiles.Load())
}

func TestBuilder_Build_Deterministic(t *testing.T) {
	tc := newFakeToolchain()
	a, err := newHarness(t, t.TempDir(), nil).builder.Build(context.Background(), tc, answerUnit(t), domain.BuildOptions{CacheRoot: t.TempDir()})
	require.NoError(t, err)
	b, err := newHarness(t, t.TempDir(), nil).builder.Build(context.Background(), tc, answerUnit(t), domain.BuildOptions{CacheRoot: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)

	other := newFakeToolchain()
	other.identity = "fake 2.0"
	c, err := newHarness(t, t.TempDir(), nil).builder.Build(context.Background(), other, answerUnit(t), domain.BuildOptions{CacheRoot: t.TempDir()})
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}

func TestBuilder_Build_DependencyChangeRebuilds(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)
	header := filepath.Join(t.TempDir(), "answer.h")
	require.NoError(t, os.WriteFile(header, []byte("#define ANSWER 42\n"), domain.FilePerm))

	tc := newFakeToolchain()
	tc.setDeps(header)
	unit := answerUnit(t)
	ctx := context.Background()

	_, err := h.builder.Build(ctx, tc, unit, h.opts())
	require.NoError(t, err)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(header, later, later))
	res, err := h.builder.Build(ctx, tc, unit, h.opts())
	require.NoError(t, err)
	assert.False(t, res.Rebuilt, "mtime change with identical content is still a hit")

	require.NoError(t, os.WriteFile(header, []byte("#define ANSWER 43\n"), domain.FilePerm))
	evenLater := later.Add(time.Hour)
	require.NoError(t, os.Chtimes(header, evenLater, evenLater))
	res, err = h.builder.Build(ctx, tc, unit, h.opts())
	require.NoError(t, err)
	assert.True(t, res.Rebuilt)
	assert.EqualValues(t, 2, tc.compiles.Load())

	res, err = h.builder.Build(ctx, tc, unit, h.opts())
	require.NoError(t, err)
	assert.False(t, res.Rebuilt, "the rebuild recorded the new header state")
}

func TestBuilder_Build_MissingDependencyRebuilds(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)
	header := filepath.Join(t.TempDir(), "gone.h")
	require.NoError(t, os.WriteFile(header, []byte("x"), domain.FilePerm))

	tc := newFakeToolchain()
	tc.setDeps(header)
	_, err := h.builder.Build(context.Background(), tc, answerUnit(t), h.opts())
	require.NoError(t, err)

	require.NoError(t, os.Remove(header))
	tc.setDeps()
	res, err := h.builder.Build(context.Background(), tc, answerUnit(t), h.opts())
	require.NoError(t, err)
	assert.True(t, res.Rebuilt)
}

func TestBuilder_Build_CorruptManifestRecovers(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)
	tc := newFakeToolchain()
	unit := answerUnit(t)
	ctx := context.Background()

	first, err := h.builder.Build(ctx, tc, unit, h.opts())
	require.NoError(t, err)

	entryDir := filepath.Join(h.root, first.Fingerprint.String())
	manifest := filepath.Join(entryDir, domain.ManifestFileName)
	require.NoError(t, os.WriteFile(manifest, []byte("{not json"), domain.FilePerm))
	require.NoError(t, os.WriteFile(filepath.Join(entryDir, "stray.tmp"), []byte("junk"), domain.FilePerm))

	second, err := h.builder.Build(ctx, tc, unit, h.opts())
	require.NoError(t, err)
	assert.True(t, second.Rebuilt)
	assert.NoFileExists(t, filepath.Join(entryDir, "stray.tmp"), "corrupt entry was reset")

	third, err := h.builder.Build(ctx, tc, unit, h.opts())
	require.NoError(t, err)
	assert.False(t, third.Rebuilt)
}

func TestBuilder_Build_IncompleteEntryIsRebuilt(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)
	tc := newFakeToolchain()
	unit := answerUnit(t)

	first, err := h.builder.Build(context.Background(), tc, unit, h.opts())
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(h.root, first.Fingerprint.String(), domain.ManifestFileName)))

	second, err := h.builder.Build(context.Background(), tc, unit, h.opts())
	require.NoError(t, err)
	assert.True(t, second.Rebuilt)
}

func TestBuilder_Build_FailureLeavesNoEntry(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)
	tc := newFakeToolchain()
	tc.setFail(true)

	_, err := h.builder.Build(context.Background(), tc, answerUnit(t), h.opts())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCompileFailed)
	assert.ErrorIs(t, err, domain.ErrToolFailed)

	entries, readErr := os.ReadDir(h.root)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "no entry and no lock remain")

	tc.setFail(false)
	res, err := h.builder.Build(context.Background(), tc, answerUnit(t), h.opts())
	require.NoError(t, err)
	assert.True(t, res.Rebuilt)
}

func TestBuilder_Build_ObjectAndExtensionCoexist(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)
	tc := newFakeToolchain()
	unit := answerUnit(t)
	ctx := context.Background()

	ext, err := h.builder.Build(ctx, tc, unit, h.opts())
	require.NoError(t, err)

	objOpts := h.opts()
	objOpts.Object = true
	obj, err := h.builder.Build(ctx, tc, unit, objOpts)
	require.NoError(t, err)
	assert.True(t, obj.Rebuilt)
	assert.Equal(t, ext.Fingerprint, obj.Fingerprint)
	assert.True(t, strings.HasSuffix(obj.ArtifactPath, "answer.o"))

	obj, err = h.builder.Build(ctx, tc, unit, objOpts)
	require.NoError(t, err)
	assert.False(t, obj.Rebuilt)
	assert.FileExists(t, ext.ArtifactPath)
}

func TestBuilder_Build_BinarySources(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)
	tc := newFakeToolchain()
	blob := []byte{0x7f, 'E', 'L', 'F', 0x00, 0xff, 0x10}
	unit := mustUnit(t, "blob", domain.Source{Name: "prebuilt.o", Data: blob})

	res, err := h.builder.Build(context.Background(), tc, unit, h.opts())
	require.NoError(t, err)
	data, err := os.ReadFile(res.ArtifactPath)
	require.NoError(t, err)
	assert.Equal(t, blob, data)

	res, err = h.builder.Build(context.Background(), tc, unit, h.opts())
	require.NoError(t, err)
	assert.False(t, res.Rebuilt)
}

func TestBuilder_Build_ConcurrentBuildersCompileOnce(t *testing.T) {
	root := t.TempDir()
	tc := newFakeToolchain()
	tc.delay = 20 * time.Millisecond

	const workers = 6
	var wg sync.WaitGroup
	results := make([]bool, workers)
	errs := make([]error, workers)
	for i := range workers {
		h := newHarness(t, root, nil)
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.builder.Build(context.Background(), tc, answerUnit(t), h.opts())
			errs[i] = err
			if err == nil {
				results[i] = res.Rebuilt
			}
		}()
	}
	wg.Wait()

	rebuilt := 0
	for i := range workers {
		require.NoError(t, errs[i])
		if results[i] {
			rebuilt++
		}
	}
	assert.Equal(t, 1, rebuilt)
	assert.EqualValues(t, 1, tc.compiles.Load())
}

func TestBuilder_Build_SingleflightInProcess(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)
	tc := newFakeToolchain()
	tc.delay = 30 * time.Millisecond

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.builder.Build(context.Background(), tc, answerUnit(t), h.opts())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, tc.compiles.Load())
}

func TestBuilder_Build_CancelledCallerDoesNotFailPeers(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)
	tc := newFakeToolchain()
	tc.delay = 200 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	leader := make(chan error, 1)
	go func() {
		_, err := h.builder.Build(ctx, tc, answerUnit(t), h.opts())
		leader <- err
	}()
	require.Eventually(t, func() bool { return tc.compiles.Load() == 1 }, 5*time.Second, time.Millisecond)

	peer := make(chan *domain.BuildResult, 1)
	go func() {
		res, err := h.builder.Build(context.Background(), tc, answerUnit(t), h.opts())
		assert.NoError(t, err)
		peer <- res
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	require.ErrorIs(t, <-leader, context.Canceled)
	res := <-peer
	require.NotNil(t, res)
	assert.True(t, res.Rebuilt)
	assert.FileExists(t, res.ArtifactPath)
	assert.EqualValues(t, 1, tc.compiles.Load())
}

func TestBuilder_Build_AbandonedBuildIsCancelled(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)
	slow := newFakeToolchain()
	slow.delay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := h.builder.Build(ctx, slow, answerUnit(t), h.opts())
		done <- err
	}()
	require.Eventually(t, func() bool { return slow.compiles.Load() == 1 }, 5*time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	fast := newFakeToolchain()
	res, err := h.builder.Build(context.Background(), fast, answerUnit(t), h.opts())
	require.NoError(t, err)
	assert.True(t, res.Rebuilt, "the abandoned build is not joined")
	assert.EqualValues(t, 1, fast.compiles.Load())
}

func TestBuilder_Build_NoCache(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)
	tc := newFakeToolchain()
	opts := h.opts()
	opts.NoCache = true

	first, err := h.builder.Build(context.Background(), tc, answerUnit(t), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(filepath.Dir(first.ArtifactPath)) })
	second, err := h.builder.Build(context.Background(), tc, answerUnit(t), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(filepath.Dir(second.ArtifactPath)) })

	assert.True(t, first.Rebuilt)
	assert.True(t, second.Rebuilt)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.NotEqual(t, first.ArtifactPath, second.ArtifactPath)
	assert.FileExists(t, first.ArtifactPath)
	assert.EqualValues(t, 2, tc.compiles.Load())

	entries, err := os.ReadDir(h.root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuilder_Build_NoCacheFailureRemovesTempDir(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	h := newHarness(t, t.TempDir(), nil)
	tc := newFakeToolchain()
	tc.setFail(true)
	opts := h.opts()
	opts.NoCache = true

	_, err := h.builder.Build(context.Background(), tc, answerUnit(t), opts)
	require.ErrorIs(t, err, domain.ErrCompileFailed)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuilder_Build_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	h := newHarness(t, t.TempDir(), telemetry.NewOTelTracerWithProvider(provider, "test"))
	tc := newFakeToolchain()

	_, err := h.builder.Build(context.Background(), tc, answerUnit(t), h.opts())
	require.NoError(t, err)
	assert.Equal(t, []string{"kiln.lock", "kiln.compile", "kiln.persist", "kiln.build"}, spanNames(recorder))

	recorder.Reset()
	_, err = h.builder.Build(context.Background(), tc, answerUnit(t), h.opts())
	require.NoError(t, err)
	assert.Equal(t, []string{"kiln.lock", "kiln.lookup", "kiln.build"}, spanNames(recorder))
}

func spanNames(recorder *tracetest.SpanRecorder) []string {
	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	return names
}

func TestBuilder_Link(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)
	tc := newFakeToolchain()
	ctx := context.Background()
	objOpts := h.opts()
	objOpts.Object = true

	a, err := h.builder.Build(ctx, tc, mustUnit(t, "a", domain.Source{Name: "a.c", Data: []byte("A")}), objOpts)
	require.NoError(t, err)
	b, err := h.builder.Build(ctx, tc, mustUnit(t, "b", domain.Source{Name: "b.c", Data: []byte("B")}), objOpts)
	require.NoError(t, err)
	objects := []string{a.ArtifactPath, b.ArtifactPath}

	dest, err := h.builder.Link(ctx, tc, objects, "linked", domain.LinkOptions{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(a.ArtifactPath), "linked.so"), dest)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "AB", string(data))

	out := filepath.Join(t.TempDir(), "modules")
	dest, err = h.builder.Link(ctx, tc, objects, "linked", domain.LinkOptions{CacheRoot: out})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "linked.so"), dest)

	_, err = h.builder.Link(ctx, tc, objects, "linked", domain.LinkOptions{CacheRoot: out})
	require.NoError(t, err)
	assert.EqualValues(t, 3, tc.links.Load(), "links are never cached")

	_, err = h.builder.Link(ctx, tc, nil, "linked", domain.LinkOptions{})
	assert.ErrorIs(t, err, domain.ErrNoObjects)
}

func TestBuilder_BuildFile(t *testing.T) {
	h := newHarness(t, t.TempDir(), nil)
	tc := newFakeToolchain()
	out := filepath.Join(t.TempDir(), "ext.so")

	require.NoError(t, h.builder.BuildFile(context.Background(), tc, out, []byte("int g(void);"), "", false))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "int g(void);", string(data))

	require.NoError(t, h.builder.BuildFile(context.Background(), tc, out, []byte("x"), "", false))
	assert.EqualValues(t, 2, tc.compiles.Load(), "never cached")

	entries, err := os.ReadDir(h.root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
