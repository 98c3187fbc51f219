//go:build !(darwin || freebsd || linux || netbsd)

package dl

import "go.trai.ch/kiln/internal/core/domain"

func openLibrary(string) (uintptr, error) {
	return 0, domain.ErrLoadUnsupported
}

func lookupSymbol(uintptr, string) (uintptr, error) {
	return 0, domain.ErrLoadUnsupported
}

func callInt(uintptr) (int32, error) {
	return 0, domain.ErrLoadUnsupported
}
