//go:build darwin || freebsd || linux || netbsd

package jit_test

import (
	"context"
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/dl"
	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/adapters/toolchain"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func hostCompiler(t *testing.T) *toolchain.GCC {
	t.Helper()
	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("no C compiler available")
	}

	cfg := domain.ToolchainConfig{
		Kind:    domain.KindGCC,
		CC:      cc,
		CFlags:  []string{"-fPIC"},
		LDFlags: []string{"-shared"},
		SoExt:   ".so",
		OExt:    ".o",
	}
	if runtime.GOOS == "darwin" {
		cfg.LDFlags = []string{"-bundle", "-undefined", "dynamic_lookup"}
	}

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	return toolchain.NewGCC(cfg, shell.NewRunner(log), log)
}

func TestBuilder_NativeBuildLoadCall(t *testing.T) {
	tc := hostCompiler(t)
	h := newHarness(t, t.TempDir(), nil)
	ctx := context.Background()

	first, err := h.builder.Build(ctx, tc, answerUnit(t), h.opts())
	require.NoError(t, err)
	assert.True(t, first.Rebuilt)

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	loader := dl.NewLoader(log)

	mod, err := loader.Load(first.ModuleName, first.ArtifactPath)
	require.NoError(t, err)
	got, err := dl.CallInt(mod, "f")
	require.NoError(t, err)
	assert.Equal(t, int32(42), got)

	second, err := h.builder.Build(ctx, tc, answerUnit(t), h.opts())
	require.NoError(t, err)
	assert.False(t, second.Rebuilt)
	assert.Equal(t, first.ArtifactPath, second.ArtifactPath)
}

func TestBuilder_NativeObjectsLinkTogether(t *testing.T) {
	tc := hostCompiler(t)
	h := newHarness(t, t.TempDir(), nil)
	ctx := context.Background()
	opts := h.opts()
	opts.Object = true

	half := mustUnit(t, "half", domain.Source{Name: "half.c", Data: []byte("int half(void) { return 21; }\n")})
	twice := mustUnit(t, "twice", domain.Source{Name: "twice.c", Data: []byte("int half(void);\nint twice(void) { return 2 * half(); }\n")})

	a, err := h.builder.Build(ctx, tc, half, opts)
	require.NoError(t, err)
	b, err := h.builder.Build(ctx, tc, twice, opts)
	require.NoError(t, err)

	dest, err := h.builder.Link(ctx, tc, []string{a.ArtifactPath, b.ArtifactPath}, "linked", domain.LinkOptions{CacheRoot: t.TempDir()})
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	mod, err := dl.NewLoader(log).Load("linked", dest)
	require.NoError(t, err)
	got, err := dl.CallInt(mod, "twice")
	require.NoError(t, err)
	assert.Equal(t, int32(42), got)
}

func TestBuilder_NativeCompileError(t *testing.T) {
	tc := hostCompiler(t)
	h := newHarness(t, t.TempDir(), nil)
	broken := mustUnit(t, "broken", domain.Source{Name: "broken.c", Data: []byte("int f(void) { return }\n")})

	_, err := h.builder.Build(context.Background(), tc, broken, h.opts())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCompileFailed)
	assert.ErrorIs(t, err, domain.ErrToolFailed)
}
