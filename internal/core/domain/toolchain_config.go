package domain

import (
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// ToolchainKind selects the command-line dialect of a toolchain.
type ToolchainKind string

const (
	// KindGCC is any gcc-compatible compiler driver (gcc, g++, clang, clang++).
	KindGCC ToolchainKind = "gcc"
	// KindNVCC is the CUDA compiler driver.
	KindNVCC ToolchainKind = "nvcc"
)

// ParseToolchainKind validates a configured toolchain kind. Empty selects gcc.
func ParseToolchainKind(s string) (ToolchainKind, error) {
	switch ToolchainKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindGCC:
		return KindGCC, nil
	case KindNVCC:
		return KindNVCC, nil
	default:
		return "", zerr.With(zerr.Wrap(ErrUnsupportedToolchain, "unknown toolchain kind"), "kind", s)
	}
}

// ToolchainConfig is the immutable description of a compiler toolchain.
// Modifiers return a new value and never alter the receiver.
type ToolchainConfig struct {
	Kind        ToolchainKind
	CC          string
	LD          string
	CFlags      []string
	LDFlags     []string
	Defines     []string
	Undefines   []string
	IncludeDirs []string
	LibraryDirs []string
	Libraries   []string
	Features    []string
	SoExt       string
	OExt        string
}

// Clone returns a deep copy.
func (c ToolchainConfig) Clone() ToolchainConfig {
	c.CFlags = slices.Clone(c.CFlags)
	c.LDFlags = slices.Clone(c.LDFlags)
	c.Defines = slices.Clone(c.Defines)
	c.Undefines = slices.Clone(c.Undefines)
	c.IncludeDirs = slices.Clone(c.IncludeDirs)
	c.LibraryDirs = slices.Clone(c.LibraryDirs)
	c.Libraries = slices.Clone(c.Libraries)
	c.Features = slices.Clone(c.Features)
	return c
}

// HasFeature reports whether the named library feature has been added.
func (c ToolchainConfig) HasFeature(feature string) bool {
	return slices.Contains(c.Features, feature)
}

// WithLibrary adds the directories and libraries describing feature.
// Adding a feature twice is a no-op, duplicate directories are skipped and
// the new libraries are placed ahead of the existing ones.
func (c ToolchainConfig) WithLibrary(feature string, includeDirs, libraryDirs, libraries []string) ToolchainConfig {
	if c.HasFeature(feature) {
		return c.Clone()
	}

	out := c.Clone()
	out.Features = append(out.Features, feature)
	for _, dir := range includeDirs {
		if !slices.Contains(out.IncludeDirs, dir) {
			out.IncludeDirs = append(out.IncludeDirs, dir)
		}
	}
	for _, dir := range libraryDirs {
		if !slices.Contains(out.LibraryDirs, dir) {
			out.LibraryDirs = append(out.LibraryDirs, dir)
		}
	}
	out.Libraries = append(slices.Clone(libraries), out.Libraries...)
	return out
}

// WithDebugging drops every -O flag and appends -g.
func (c ToolchainConfig) WithDebugging() ToolchainConfig {
	out := c.Clone()
	out.CFlags = append(withoutPrefixes(out.CFlags, "-O"), "-g")
	return out
}

// OptimizationLevel is either the debug level or a numeric -O level.
type OptimizationLevel struct {
	Debug bool
	Level int
}

// DebugOptimization is the "debug" optimization level.
var DebugOptimization = OptimizationLevel{Debug: true}

// ParseOptimization accepts "debug" or a non-negative integer.
func ParseOptimization(s string) (OptimizationLevel, error) {
	s = strings.TrimSpace(s)
	if s == "debug" {
		return DebugOptimization, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return OptimizationLevel{}, zerr.With(zerr.Wrap(ErrInvalidOptimization, "expected \"debug\" or a non-negative integer"), "level", s)
	}
	return OptimizationLevel{Level: n}, nil
}

// String renders the level the way it is written in configuration.
func (o OptimizationLevel) String() string {
	if o.Debug {
		return "debug"
	}
	return strconv.Itoa(o.Level)
}

// WithOptimization strips existing optimization, debug and tuning flags and applies level.
// native adds -march=native -mtune=native for levels of 2 and above.
func (c ToolchainConfig) WithOptimization(level OptimizationLevel, native bool) ToolchainConfig {
	out := c.Clone()
	out.CFlags = withoutPrefixes(out.CFlags, "-O", "-g", "-march", "-mtune", "-DNDEBUG")

	if level.Debug {
		out.CFlags = append(out.CFlags, "-g")
		return out
	}

	out.CFlags = append(out.CFlags, "-O"+strconv.Itoa(level.Level), "-DNDEBUG")
	if level.Level >= 2 && native {
		out.CFlags = append(out.CFlags, "-march=native", "-mtune=native")
	}
	return out
}

func withoutPrefixes(flags []string, prefixes ...string) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		if !slices.ContainsFunc(prefixes, func(p string) bool { return strings.HasPrefix(f, p) }) {
			out = append(out, f)
		}
	}
	return out
}

// CommandLine assembles the compiler driver invocation for files.
// Objects are compiled with -c and without link flags; everything else gets
// the linker flags and the -L/-l arguments after the inputs.
func (c ToolchainConfig) CommandLine(files []string, object bool) []string {
	args := make([]string, 0, 1+len(c.CFlags)+len(c.LDFlags)+len(c.Defines)+len(c.Undefines)+
		len(c.IncludeDirs)+len(files)+len(c.LibraryDirs)+len(c.Libraries))
	args = append(args, c.CC)
	args = append(args, c.CFlags...)
	if object {
		args = append(args, "-c")
	} else {
		args = append(args, c.LDFlags...)
	}
	for _, d := range c.Defines {
		args = append(args, "-D"+d)
	}
	for _, u := range c.Undefines {
		args = append(args, "-U"+u)
	}
	for _, dir := range c.IncludeDirs {
		args = append(args, "-I"+dir)
	}
	args = append(args, files...)
	if !object {
		for _, dir := range c.LibraryDirs {
			args = append(args, "-L"+dir)
		}
		for _, lib := range c.Libraries {
			args = append(args, "-l"+lib)
		}
	}
	return args
}

// DependencyCommandLine assembles the -M invocation that lists the files a compile reads.
func (c ToolchainConfig) DependencyCommandLine(files []string) []string {
	args := []string{c.CC, "-M"}
	for _, d := range c.Defines {
		args = append(args, "-D"+d)
	}
	for _, u := range c.Undefines {
		args = append(args, "-U"+u)
	}
	for _, dir := range c.IncludeDirs {
		args = append(args, "-I"+dir)
	}
	args = append(args, c.CFlags...)
	return append(args, files...)
}

// Suffix returns the artifact file extension.
func (c ToolchainConfig) Suffix(object bool) string {
	if object {
		return c.OExt
	}
	return c.SoExt
}
