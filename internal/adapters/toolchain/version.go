package toolchain

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// versionCache memoizes the compiler's --version output for one toolchain value.
// Failed queries are not cached.
type versionCache struct {
	mu      sync.Mutex
	version string
	known   bool
}

func (v *versionCache) get(ctx context.Context, runner ports.CommandRunner, cc string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.known {
		return v.version, nil
	}

	res, err := runner.Run(ctx, ports.Command{Args: []string{cc, "--version"}})
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrVersionQueryFailed.Error()), "compiler", cc)
	}
	if res.ExitCode != 0 {
		return "", zerr.With(zerr.With(zerr.Wrap(domain.ErrVersionQueryFailed, "compiler exited with an error"),
			"compiler", cc), "stderr", strings.TrimSpace(res.Stderr))
	}

	v.version = res.Stdout
	v.known = true
	return v.version, nil
}

// leadingInts converts dot-separated components to ints, stopping at the first that is not a number.
func leadingInts(parts ...string) []int {
	var out []int
	for _, part := range parts {
		for _, n := range strings.Split(part, ".") {
			i, err := strconv.Atoi(n)
			if err != nil {
				return out
			}
			out = append(out, i)
		}
	}
	return out
}

// parseGCCVersion reads the version from the third word of the first line,
// as in "gcc (GCC) 13.2.1 20230801" or "clang version 17.0.6".
func parseGCCVersion(text string) []int {
	first, _, _ := strings.Cut(text, "\n")
	words := strings.Fields(first)
	if len(words) < 3 {
		return nil
	}
	return leadingInts(words[2])
}

// parseNVCCVersion reads "Cuda compilation tools, release 12.2, V12.2.140" from the fourth line.
func parseNVCCVersion(text string) []int {
	lines := strings.Split(text, "\n")
	if len(lines) < 4 {
		return nil
	}
	words := strings.Fields(lines[3])
	if len(words) < 6 {
		return nil
	}
	return leadingInts(words[4], words[5])
}

// atLeast compares version tuples lexicographically.
func atLeast(version []int, want ...int) bool {
	for i, w := range want {
		if i >= len(version) {
			return false
		}
		if version[i] != w {
			return version[i] > w
		}
	}
	return true
}
