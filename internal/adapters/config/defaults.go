package config

import (
	"os"
	"runtime"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
)

// HostToolchain returns the gcc-compatible toolchain guessed from the environment.
// $CXX, then $CC, selects the compiler; $CXXFLAGS and $LDFLAGS are appended.
func HostToolchain(goos string) domain.ToolchainConfig {
	cc := firstNonEmpty(os.Getenv("CXX"), os.Getenv("CC"), "c++")

	cfg := domain.ToolchainConfig{
		Kind:   domain.KindGCC,
		CC:     cc,
		LD:     cc,
		CFlags: append([]string{"-fPIC"}, strings.Fields(os.Getenv("CXXFLAGS"))...),
		OExt:   ".o",
	}

	switch goos {
	case "darwin":
		cfg.LDFlags = []string{"-bundle", "-undefined", "dynamic_lookup"}
		cfg.SoExt = ".dylib"
	case "windows":
		cfg.LDFlags = []string{"-shared"}
		cfg.SoExt = ".dll"
	default:
		cfg.LDFlags = []string{"-shared"}
		cfg.SoExt = ".so"
	}
	cfg.LDFlags = append(cfg.LDFlags, strings.Fields(os.Getenv("LDFLAGS"))...)
	return cfg
}

// CUDAToolchain derives the nvcc toolchain from the host one. Host compiler
// flags are forwarded through -Xcompiler.
func CUDAToolchain(host domain.ToolchainConfig) domain.ToolchainConfig {
	cfg := host.Clone()
	cfg.Kind = domain.KindNVCC
	cfg.CC = "nvcc"
	cfg.LD = "nvcc"
	cfg.CFlags = nil
	if len(host.CFlags) > 0 {
		cfg.CFlags = []string{"-Xcompiler", strings.Join(host.CFlags, ",")}
	}
	cfg.LDFlags = nil
	cfg.Undefines = append(cfg.Undefines, "__BLOCKS__")
	return cfg
}

func defaultToolchain(kind domain.ToolchainKind) domain.ToolchainConfig {
	host := HostToolchain(runtime.GOOS)
	if kind == domain.KindNVCC {
		return CUDAToolchain(host)
	}
	return host
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
