package toolchain

import (
	"context"
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// listDependencies runs the compiler in -M mode and returns the files the
// compile of paths reads, excluding paths themselves.
func listDependencies(
	ctx context.Context,
	runner ports.CommandRunner,
	logger ports.Logger,
	cfg domain.ToolchainConfig,
	paths []string,
) ([]string, error) {
	res, err := invoke(ctx, runner, logger, cfg.DependencyCommandLine(paths), false, exitStatus)
	if err != nil {
		return nil, zerr.Wrap(err, "getting dependencies failed")
	}
	return parseDependencies(res.Stdout, paths), nil
}

// parseDependencies reads make-style rules as printed by -M. Backslash
// continuations are joined, comment lines are skipped and every token after
// the "target:" token is a dependency. The result is sorted and unique.
func parseDependencies(output string, exclude []string) []string {
	seen := make(map[string]struct{})
	for _, line := range joinContinuedLines(strings.Split(output, "\n")) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		fields := strings.Fields(trimmed)
		start := slices.IndexFunc(fields, func(f string) bool { return strings.HasSuffix(f, ":") })
		if start < 0 {
			continue
		}
		for _, dep := range fields[start+1:] {
			if slices.Contains(exclude, dep) {
				continue
			}
			seen[dep] = struct{}{}
		}
	}

	deps := make([]string, 0, len(seen))
	for dep := range seen {
		deps = append(deps, dep)
	}
	slices.Sort(deps)
	return deps
}

// joinContinuedLines merges every line ending in a backslash with the next one.
func joinContinuedLines(lines []string) []string {
	var result []string
	appendLine := false
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		appendNext := strings.HasSuffix(line, `\`)
		if appendNext {
			line = strings.TrimSuffix(line, `\`)
		}
		if appendLine && len(result) > 0 {
			result[len(result)-1] += line
		} else {
			result = append(result, line)
		}
		appendLine = appendNext
	}
	return result
}
