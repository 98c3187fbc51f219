package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/cmd/kiln/commands"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
	"go.trai.ch/kiln/internal/core/domain"
)

type mockApp struct {
	buildFunc func(ctx context.Context, sources []string, opts app.BuildOptions) (*domain.BuildResult, error)
	linkFunc  func(ctx context.Context, name string, objects []string, opts app.LinkOptions) (string, error)
	runFunc   func(ctx context.Context, sources []string, opts app.RunOptions) (*app.RunResult, error)
	entries   []domain.EntryInfo
	cleaned   *app.CacheOptions
}

func (m *mockApp) Build(ctx context.Context, sources []string, opts app.BuildOptions) (*domain.BuildResult, error) {
	if m.buildFunc != nil {
		return m.buildFunc(ctx, sources, opts)
	}
	return &domain.BuildResult{}, nil
}

func (m *mockApp) Link(ctx context.Context, name string, objects []string, opts app.LinkOptions) (string, error) {
	if m.linkFunc != nil {
		return m.linkFunc(ctx, name, objects, opts)
	}
	return "", nil
}

func (m *mockApp) Run(ctx context.Context, sources []string, opts app.RunOptions) (*app.RunResult, error) {
	if m.runFunc != nil {
		return m.runFunc(ctx, sources, opts)
	}
	return &app.RunResult{}, nil
}

func (m *mockApp) CachePath(opts app.CacheOptions) (string, error) {
	if opts.Dir != "" {
		return opts.Dir, nil
	}
	return "/cache", nil
}

func (m *mockApp) CacheList(opts app.CacheOptions) (string, []domain.EntryInfo, error) {
	root, _ := m.CachePath(opts)
	return root, m.entries, nil
}

func (m *mockApp) CacheClean(_ context.Context, opts app.CacheOptions) error {
	m.cleaned = &opts
	return nil
}

type recordingConsole struct {
	debug  bool
	format logger.Format
}

func (r *recordingConsole) SetDebug(enable bool)      { r.debug = enable }
func (r *recordingConsole) SetFormat(f logger.Format) { r.format = f }

func execute(t *testing.T, cli *commands.CLI, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Build(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var captured app.BuildOptions
		var sources []string
		mock := &mockApp{
			buildFunc: func(_ context.Context, s []string, opts app.BuildOptions) (*domain.BuildResult, error) {
				captured, sources = opts, s
				return &domain.BuildResult{ArtifactPath: "/cache/abc/answer.so"}, nil
			},
		}

		out, err := execute(t, commands.New(mock),
			"build", "a.c", "b.c", "--name", "answer", "-c", "-O", "3", "--no-cache", "--cache-dir", "/tmp/c", "--debug")
		require.NoError(t, err)
		assert.Equal(t, "/cache/abc/answer.so\n", out)
		assert.Equal(t, []string{"a.c", "b.c"}, sources)
		assert.Equal(t, app.BuildOptions{
			Cache:        app.CacheOptions{Dir: "/tmp/c", NoCache: true},
			Name:         "answer",
			Object:       true,
			Optimization: "3",
			Debug:        true,
		}, captured)
	})

	t.Run("returns error on build failure", func(t *testing.T) {
		mock := &mockApp{
			buildFunc: func(context.Context, []string, app.BuildOptions) (*domain.BuildResult, error) {
				return nil, errors.New("simulated error")
			},
		}
		_, err := execute(t, commands.New(mock), "build", "a.c")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("shows usage when no sources provided", func(t *testing.T) {
		mock := &mockApp{
			buildFunc: func(context.Context, []string, app.BuildOptions) (*domain.BuildResult, error) {
				panic("should not be called")
			},
		}
		out, err := execute(t, commands.New(mock), "build")
		require.NoError(t, err)
		assert.Contains(t, out, "Usage:")
	})
}

func TestCommands_Link(t *testing.T) {
	var captured app.LinkOptions
	var name string
	mock := &mockApp{
		linkFunc: func(_ context.Context, n string, objects []string, opts app.LinkOptions) (string, error) {
			captured, name = opts, n
			return "/out/" + n + ".so", nil
		},
	}

	out, err := execute(t, commands.New(mock), "link", "--name", "both", "--out-dir", "/out", "a.o", "b.o")
	require.NoError(t, err)
	assert.Equal(t, "/out/both.so\n", out)
	assert.Equal(t, "both", name)
	assert.Equal(t, "/out", captured.OutDir)

	_, err = execute(t, commands.New(mock), "link", "a.o")
	require.Error(t, err, "name is required")
}

func TestCommands_Run(t *testing.T) {
	var captured app.RunOptions
	mock := &mockApp{
		runFunc: func(_ context.Context, _ []string, opts app.RunOptions) (*app.RunResult, error) {
			captured = opts
			return &app.RunResult{Return: 42}, nil
		},
	}

	out, err := execute(t, commands.New(mock), "run", "answer.c")
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)
	assert.Equal(t, "f", captured.Symbol)

	_, err = execute(t, commands.New(mock), "run", "answer.c", "--symbol", "answer")
	require.NoError(t, err)
	assert.Equal(t, "answer", captured.Symbol)
}

func TestCommands_Cache(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	t.Run("path honors cache-dir", func(t *testing.T) {
		out, err := execute(t, commands.New(&mockApp{}), "cache", "path", "--cache-dir", "/elsewhere")
		require.NoError(t, err)
		assert.Equal(t, "/elsewhere\n", out)
	})

	t.Run("ls on an empty cache", func(t *testing.T) {
		out, err := execute(t, commands.New(&mockApp{}), "cache", "ls")
		require.NoError(t, err)
		assert.Equal(t, "/cache is empty\n", out)
	})

	t.Run("ls lists entries", func(t *testing.T) {
		mock := &mockApp{entries: []domain.EntryInfo{
			{
				Fingerprint: domain.Fingerprint("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"),
				Size:        2048,
				ModTime:     time.Now().Add(-2 * time.Hour),
				Sources:     []string{"module.cpp"},
				Complete:    true,
			},
			{
				Fingerprint: domain.Fingerprint("fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210"),
				Size:        10,
				ModTime:     time.Now().Add(-3 * time.Hour),
			},
		}}

		out, err := execute(t, commands.New(mock), "cache", "ls")
		require.NoError(t, err)
		assert.Contains(t, out, "2.0 kB")
		assert.Contains(t, out, "2 hours ago")
		assert.Contains(t, out, "module.cpp")
		assert.Contains(t, out, "✓ module.cpp")
		assert.Contains(t, out, "✗ (incomplete)")
		assert.Contains(t, out, "2 entries, 2.1 kB in /cache")
	})

	t.Run("clean", func(t *testing.T) {
		mock := &mockApp{}
		_, err := execute(t, commands.New(mock), "cache", "clean", "--cache-dir", "/c")
		require.NoError(t, err)
		require.NotNil(t, mock.cleaned)
		assert.Equal(t, "/c", mock.cleaned.Dir)
	})
}

func TestCommands_Console(t *testing.T) {
	console := &recordingConsole{}
	_, err := execute(t, commands.New(&mockApp{}, commands.WithConsole(console)),
		"cache", "path", "--debug", "--log-format", "json")
	require.NoError(t, err)
	assert.True(t, console.debug)
	assert.Equal(t, logger.FormatJSON, console.format)

	_, err = execute(t, commands.New(&mockApp{}, commands.WithConsole(console)), "cache", "path", "--log-format", "xml")
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, commands.New(&mockApp{}), "version")
	require.NoError(t, err)
	assert.Contains(t, out, build.Version)
}
