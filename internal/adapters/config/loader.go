// Package config provides the configuration loader for kiln.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using kiln.yaml and the environment.
type Loader struct {
	Logger ports.Logger
	FS     FileSystem
}

var _ ports.ConfigLoader = (*Loader)(nil)

// NewLoader creates a new Loader reading from the host filesystem.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, FS: NewOSFS()}
}

// Load resolves the configuration for cwd. Without a kiln.yaml the host defaults are used.
func (l *Loader) Load(cwd string) (*domain.Config, error) {
	path, found := l.findConfiguration(cwd)

	var file Kilnfile
	if found {
		if err := l.readAndUnmarshalYAML(path, &file); err != nil {
			return nil, zerr.With(err, "file", path)
		}
		l.Logger.Debug("using configuration " + path)
	}

	cfg, err := resolve(&file, filepath.Dir(path))
	if err != nil {
		return nil, zerr.With(err, "file", path)
	}
	if found {
		cfg.Path = path
	}

	if err := applyEnvironment(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) findConfiguration(cwd string) (string, bool) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := l.FS.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", false
		}
		currentDir = parentDir
	}
}

func (l *Loader) readAndUnmarshalYAML(path string, target *Kilnfile) error {
	data, err := l.FS.ReadFile(path)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}
	return nil
}

func resolve(file *Kilnfile, baseDir string) (*domain.Config, error) {
	kind, err := domain.ParseToolchainKind(file.Toolchain.Kind)
	if err != nil {
		return nil, err
	}

	tc := overlayToolchain(defaultToolchain(kind), &file.Toolchain)
	tc.IncludeDirs = resolveDirs(baseDir, tc.IncludeDirs)
	tc.LibraryDirs = resolveDirs(baseDir, tc.LibraryDirs)
	cfg := &domain.Config{Toolchain: tc}

	if opt := file.Toolchain.Optimization; opt != "" {
		level, err := domain.ParseOptimization(opt)
		if err != nil {
			return nil, err
		}
		cfg.Optimization = &level
	}

	features := make([]string, 0, len(file.Libraries))
	for feature := range file.Libraries {
		features = append(features, feature)
	}
	slices.Sort(features)
	for _, feature := range features {
		dto := file.Libraries[feature]
		if dto == nil {
			dto = &LibraryDTO{}
		}
		cfg.Libraries = append(cfg.Libraries, domain.Library{
			Feature:     feature,
			IncludeDirs: resolveDirs(baseDir, dto.IncludeDirs),
			LibraryDirs: resolveDirs(baseDir, dto.LibraryDirs),
			Libraries:   dto.Libraries,
		})
	}

	cache, err := resolveCache(&file.Cache, baseDir)
	if err != nil {
		return nil, err
	}
	cfg.Cache = cache
	return cfg, nil
}

func overlayToolchain(tc domain.ToolchainConfig, dto *ToolchainDTO) domain.ToolchainConfig {
	if dto.CC != "" {
		tc.CC = dto.CC
		tc.LD = dto.CC
	}
	if dto.LD != "" {
		tc.LD = dto.LD
	}
	overlayList(&tc.CFlags, dto.CFlags)
	overlayList(&tc.LDFlags, dto.LDFlags)
	overlayList(&tc.Defines, dto.Defines)
	overlayList(&tc.Undefines, dto.Undefines)
	overlayList(&tc.IncludeDirs, dto.IncludeDirs)
	overlayList(&tc.LibraryDirs, dto.LibraryDirs)
	overlayList(&tc.Libraries, dto.Libraries)
	if dto.SoExt != "" {
		tc.SoExt = dto.SoExt
	}
	if dto.OExt != "" {
		tc.OExt = dto.OExt
	}
	return tc
}

func overlayList(dst *[]string, src []string) {
	if src != nil {
		*dst = slices.Clone(src)
	}
}

// resolveDirs makes relative directories relative to the config file.
func resolveDirs(baseDir string, dirs []string) []string {
	if dirs == nil {
		return nil
	}
	out := make([]string, len(dirs))
	for i, dir := range dirs {
		dir = expandHome(dir)
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(baseDir, dir)
		}
		out[i] = dir
	}
	return out
}

func resolveCache(dto *CacheDTO, baseDir string) (domain.CacheSettings, error) {
	settings := domain.CacheSettings{
		Disabled:     dto.Disabled,
		LockDelay:    domain.DefaultLockDelay,
		LockAttempts: domain.DefaultLockAttempts,
	}

	if dto.Dir != "" {
		settings.Root = expandHome(dto.Dir)
		if !filepath.IsAbs(settings.Root) {
			settings.Root = filepath.Join(baseDir, settings.Root)
		}
	}

	if dto.LockDelay != "" {
		d, err := time.ParseDuration(dto.LockDelay)
		if err != nil || d < 0 {
			return settings, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "cache.lock_delay must be a non-negative duration"),
				"value", dto.LockDelay)
		}
		settings.LockDelay = d
	}

	if dto.LockAttempts != nil {
		if *dto.LockAttempts < 1 {
			return settings, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "cache.lock_attempts must be at least 1"),
				"value", *dto.LockAttempts)
		}
		settings.LockAttempts = *dto.LockAttempts
	}
	return settings, nil
}

// applyEnvironment gives KILN_CACHE_DIR and KILN_NO_CACHE precedence over the file.
func applyEnvironment(cfg *domain.Config) error {
	if dir := os.Getenv(domain.EnvCacheDir); dir != "" {
		cfg.Cache.Root = dir
	}
	if cfg.Cache.Root == "" {
		root, err := domain.DefaultCacheRoot()
		if err != nil {
			return zerr.Wrap(err, domain.ErrCacheRootFailed.Error())
		}
		cfg.Cache.Root = root
	}
	if domain.CacheDisabledByEnv() {
		cfg.Cache.Disabled = true
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
