// Package dl loads built artifacts into the running process.
package dl

import (
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Module is a native library opened with dlopen.
type Module struct {
	name   string
	path   string
	handle uintptr
}

var _ ports.Module = (*Module)(nil)

// Name is the name the module was loaded under.
func (m *Module) Name() string { return m.name }

// Path is the file the module was loaded from.
func (m *Module) Path() string { return m.path }

// Lookup resolves an exported symbol.
func (m *Module) Lookup(symbol string) (uintptr, error) {
	addr, err := lookupSymbol(m.handle, symbol)
	if err != nil {
		return 0, zerr.With(zerr.With(zerr.Wrap(domain.ErrSymbolNotFound, err.Error()), "symbol", symbol), "module", m.name)
	}
	if addr == 0 {
		return 0, zerr.With(zerr.With(zerr.Wrap(domain.ErrSymbolNotFound, "symbol resolved to nil"), "symbol", symbol), "module", m.name)
	}
	return addr, nil
}

// Loader opens modules and remembers them by name for the life of the process.
// Libraries are never closed.
type Loader struct {
	logger ports.Logger

	mu      sync.Mutex
	modules map[string]*Module
}

var _ ports.ModuleLoader = (*Loader)(nil)

// NewLoader creates a Loader with an empty registry.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{
		logger:  logger,
		modules: make(map[string]*Module),
	}
}

// Load opens the library at path. A name that was loaded before returns the
// module already in the registry, regardless of path.
func (l *Loader) Load(name, path string) (ports.Module, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if m, ok := l.modules[name]; ok {
		return m, nil
	}

	handle, err := openLibrary(path)
	if err != nil {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrLoadFailed, err.Error()), "module", name), "path", path)
	}

	m := &Module{name: name, path: path, handle: handle}
	l.modules[name] = m
	l.logger.Debug("loaded " + name + " from " + path)
	return m, nil
}

// Loaded reports whether name is in the registry.
func (l *Loader) Loaded(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.modules[name]
	return ok
}

// CallInt calls symbol as a C function taking no arguments and returning int.
func CallInt(m ports.Module, symbol string) (int32, error) {
	addr, err := m.Lookup(symbol)
	if err != nil {
		return 0, err
	}
	return callInt(addr)
}
