package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Source is one named input of a compilation unit. Data may be text or a previously built object.
type Source struct {
	Name string
	Data []byte
}

// Unit is an immutable compilation unit: a module name and its ordered sources.
type Unit struct {
	name    string
	sources []Source
}

// NewUnit validates and copies the given sources into a Unit.
func NewUnit(name string, sources ...Source) (Unit, error) {
	if name == "" {
		return Unit{}, zerr.Wrap(ErrInvalidUnit, "module name is empty")
	}
	if len(sources) == 0 {
		return Unit{}, zerr.With(zerr.Wrap(ErrInvalidUnit, "no sources given"), "module", name)
	}

	seen := make(map[string]struct{}, len(sources))
	copied := make([]Source, 0, len(sources))
	for _, src := range sources {
		if src.Name == "" {
			return Unit{}, zerr.With(zerr.Wrap(ErrInvalidUnit, "source name is empty"), "module", name)
		}
		if strings.ContainsAny(src.Name, `/\`) || src.Name == "." || src.Name == ".." {
			return Unit{}, zerr.With(zerr.Wrap(ErrInvalidUnit, "source name must be a plain file name"), "source", src.Name)
		}
		if _, dup := seen[src.Name]; dup {
			return Unit{}, zerr.With(zerr.Wrap(ErrInvalidUnit, "duplicate source name"), "source", src.Name)
		}
		seen[src.Name] = struct{}{}

		data := make([]byte, len(src.Data))
		copy(data, src.Data)
		copied = append(copied, Source{Name: src.Name, Data: data})
	}

	return Unit{name: name, sources: copied}, nil
}

// NewSingleSourceUnit builds a unit from one source text. An empty sourceName falls back to DefaultSourceName.
func NewSingleSourceUnit(name, sourceName string, data []byte) (Unit, error) {
	if sourceName == "" {
		sourceName = DefaultSourceName
	}
	return NewUnit(name, Source{Name: sourceName, Data: data})
}

// Name returns the module name.
func (u Unit) Name() string {
	return u.name
}

// Len returns the number of sources.
func (u Unit) Len() int {
	return len(u.sources)
}

// Sources returns a copy of the sources in order.
func (u Unit) Sources() []Source {
	out := make([]Source, len(u.sources))
	for i, src := range u.sources {
		data := make([]byte, len(src.Data))
		copy(data, src.Data)
		out[i] = Source{Name: src.Name, Data: data}
	}
	return out
}

// SourceNames returns the source file names in order.
func (u Unit) SourceNames() []string {
	names := make([]string, len(u.sources))
	for i, src := range u.sources {
		names[i] = src.Name
	}
	return names
}

// SourceData returns the raw contents of every source in order. The slices alias the unit and must not be modified.
func (u Unit) SourceData() [][]byte {
	data := make([][]byte, len(u.sources))
	for i, src := range u.sources {
		data[i] = src.Data
	}
	return data
}

// Data returns the contents of the named source.
func (u Unit) Data(sourceName string) ([]byte, bool) {
	for _, src := range u.sources {
		if src.Name == sourceName {
			return src.Data, true
		}
	}
	return nil, false
}
