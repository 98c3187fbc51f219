//go:build darwin || freebsd || linux || netbsd

package dl

import "github.com/ebitengine/purego"

func openLibrary(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
}

func lookupSymbol(handle uintptr, symbol string) (uintptr, error) {
	return purego.Dlsym(handle, symbol)
}

func callInt(addr uintptr) (int32, error) {
	r1, _, _ := purego.SyscallN(addr)
	return int32(r1), nil // #nosec G115 -- C int return value
}
