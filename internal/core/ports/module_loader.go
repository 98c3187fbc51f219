package ports

// Module is a native library loaded into the process.
type Module interface {
	// Name is the name the module was loaded under.
	Name() string
	// Path is the file the module was loaded from.
	Path() string
	// Lookup resolves an exported symbol to its address.
	Lookup(symbol string) (uintptr, error)
}

// ModuleLoader loads built artifacts into the running process.
//
//go:generate mockgen -source=module_loader.go -destination=mocks/mock_module_loader.go -package=mocks
type ModuleLoader interface {
	// Load opens the library at path. Loading the same name again returns the module already loaded.
	Load(name, path string) (Module, error)
}
