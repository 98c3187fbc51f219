package config_test

import (
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/config"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newLoader(t *testing.T, root string, files fstest.MapFS) *config.Loader {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()

	loader := config.NewLoader(log)
	loader.FS = config.NewMapFSAdapter(root, files)
	return loader
}

func hostEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CXX", "")
	t.Setenv("CC", "")
	t.Setenv("CXXFLAGS", "")
	t.Setenv("LDFLAGS", "")
	t.Setenv(domain.EnvCacheDir, "/tmp/kiln-cache")
	t.Setenv(domain.EnvNoCache, "")
}

func TestLoader_Load_HostDefaults(t *testing.T) {
	hostEnv(t)
	t.Setenv("CXX", "clang++")

	cfg, err := newLoader(t, "/work", fstest.MapFS{}).Load("/work/src")
	require.NoError(t, err)

	assert.Empty(t, cfg.Path)
	assert.Equal(t, domain.KindGCC, cfg.Toolchain.Kind)
	assert.Equal(t, "clang++", cfg.Toolchain.CC)
	assert.Equal(t, []string{"-fPIC"}, cfg.Toolchain.CFlags)
	assert.Nil(t, cfg.Optimization)
	assert.Equal(t, "/tmp/kiln-cache", cfg.Cache.Root)
	assert.Equal(t, domain.DefaultLockDelay, cfg.Cache.LockDelay)
	assert.Equal(t, domain.DefaultLockAttempts, cfg.Cache.LockAttempts)
	assert.False(t, cfg.Cache.Disabled)
}

func TestLoader_Load_WalksUp(t *testing.T) {
	hostEnv(t)
	files := fstest.MapFS{
		"kiln.yaml": {Data: []byte(`
toolchain:
  cc: g++-13
  cflags: ["-fPIC", "-Wall"]
  defines: [USE_FAST_PATH]
  include_dirs: [include, /usr/local/include]
  optimization: "3"
libraries:
  zlib:
    include_dirs: [/opt/zlib/include]
    libraries: [z]
  blas:
    libraries: [openblas]
cache:
  dir: .kiln-cache
  lock_delay: 250ms
  lock_attempts: 4
`)},
		"pkg/src/module.cpp": {Data: []byte("int f() { return 1; }")},
	}
	t.Setenv(domain.EnvCacheDir, "")

	cfg, err := newLoader(t, "/work", files).Load("/work/pkg/src")
	require.NoError(t, err)

	assert.Equal(t, "/work/kiln.yaml", cfg.Path)
	assert.Equal(t, "g++-13", cfg.Toolchain.CC)
	assert.Equal(t, "g++-13", cfg.Toolchain.LD)
	assert.Equal(t, []string{"-fPIC", "-Wall"}, cfg.Toolchain.CFlags)
	assert.Equal(t, []string{"USE_FAST_PATH"}, cfg.Toolchain.Defines)
	assert.Equal(t, []string{"/work/include", "/usr/local/include"}, cfg.Toolchain.IncludeDirs)
	require.NotNil(t, cfg.Optimization)
	assert.Equal(t, 3, cfg.Optimization.Level)

	require.Len(t, cfg.Libraries, 2)
	assert.Equal(t, "blas", cfg.Libraries[0].Feature)
	assert.Equal(t, "zlib", cfg.Libraries[1].Feature)
	assert.Equal(t, []string{"/opt/zlib/include"}, cfg.Libraries[1].IncludeDirs)

	assert.Equal(t, filepath.Join("/work", ".kiln-cache"), cfg.Cache.Root)
	assert.Equal(t, 250*time.Millisecond, cfg.Cache.LockDelay)
	assert.Equal(t, 4, cfg.Cache.LockAttempts)
}

func TestLoader_Load_EnvironmentOverridesFile(t *testing.T) {
	hostEnv(t)
	t.Setenv(domain.EnvCacheDir, "/env/cache")
	t.Setenv(domain.EnvNoCache, "1")

	files := fstest.MapFS{
		"kiln.yaml": {Data: []byte("cache:\n  dir: /file/cache\n")},
	}
	cfg, err := newLoader(t, "/work", files).Load("/work")
	require.NoError(t, err)
	assert.Equal(t, "/env/cache", cfg.Cache.Root)
	assert.True(t, cfg.Cache.Disabled)
}

func TestLoader_Load_EmptyListClearsDefault(t *testing.T) {
	hostEnv(t)
	files := fstest.MapFS{
		"kiln.yaml": {Data: []byte("toolchain:\n  cflags: []\n")},
	}
	cfg, err := newLoader(t, "/work", files).Load("/work")
	require.NoError(t, err)
	assert.Empty(t, cfg.Toolchain.CFlags)
	assert.NotEmpty(t, cfg.Toolchain.LDFlags)
}

func TestLoader_Load_EmptyFile(t *testing.T) {
	hostEnv(t)
	files := fstest.MapFS{"kiln.yaml": {Data: []byte("")}}
	cfg, err := newLoader(t, "/work", files).Load("/work")
	require.NoError(t, err)
	assert.Equal(t, "/work/kiln.yaml", cfg.Path)
}

func TestLoader_Load_NVCC(t *testing.T) {
	hostEnv(t)
	files := fstest.MapFS{"kiln.yaml": {Data: []byte("toolchain:\n  kind: nvcc\n")}}
	cfg, err := newLoader(t, "/work", files).Load("/work")
	require.NoError(t, err)

	assert.Equal(t, domain.KindNVCC, cfg.Toolchain.Kind)
	assert.Equal(t, "nvcc", cfg.Toolchain.CC)
	assert.Equal(t, []string{"-Xcompiler", "-fPIC"}, cfg.Toolchain.CFlags)
	assert.Empty(t, cfg.Toolchain.LDFlags)
	assert.Contains(t, cfg.Toolchain.Undefines, "__BLOCKS__")
}

func TestLoader_Load_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantIs  error
		wantMsg string
	}{
		{name: "bad yaml", content: "toolchain: [", wantMsg: domain.ErrConfigParseFailed.Error()},
		{name: "unknown field", content: "toolchain:\n  compiler: gcc\n", wantMsg: domain.ErrConfigParseFailed.Error()},
		{name: "unknown kind", content: "toolchain:\n  kind: msvc\n", wantIs: domain.ErrUnsupportedToolchain},
		{name: "bad optimization", content: "toolchain:\n  optimization: fast\n", wantIs: domain.ErrInvalidOptimization},
		{name: "bad lock delay", content: "cache:\n  lock_delay: soon\n", wantIs: domain.ErrInvalidConfig},
		{name: "bad lock attempts", content: "cache:\n  lock_attempts: 0\n", wantIs: domain.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hostEnv(t)
			files := fstest.MapFS{"kiln.yaml": {Data: []byte(tt.content)}}
			_, err := newLoader(t, "/work", files).Load("/work")
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestHostToolchain_Darwin(t *testing.T) {
	hostEnv(t)
	t.Setenv("CC", "cc")
	t.Setenv("LDFLAGS", "-L/opt/homebrew/lib")

	tc := config.HostToolchain("darwin")
	assert.Equal(t, "cc", tc.CC)
	assert.Equal(t, ".dylib", tc.SoExt)
	assert.Equal(t, []string{"-bundle", "-undefined", "dynamic_lookup", "-L/opt/homebrew/lib"}, tc.LDFlags)
}
