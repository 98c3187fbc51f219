package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestComputeFingerprint_Deterministic(t *testing.T) {
	id := domain.NewToolchainIdentity("gcc 13.2.0", "go1.25.3", []string{"g++", "-O2"})
	sources := [][]byte{[]byte("int f(){return 42;}")}

	a := domain.ComputeFingerprint(sources, id)
	b := domain.ComputeFingerprint(sources, id)

	assert.Equal(t, a, b)
	assert.Len(t, a.String(), 64)
	assert.Len(t, a.Short(), 12)
}

func TestComputeFingerprint_Sensitivity(t *testing.T) {
	id := domain.NewToolchainIdentity("gcc 13.2.0", "go1.25.3", []string{"g++"})
	base := domain.ComputeFingerprint([][]byte{[]byte("ab"), []byte("c")}, id)

	tests := []struct {
		name    string
		sources [][]byte
		id      domain.ToolchainIdentity
	}{
		{
			name:    "source boundary moved",
			sources: [][]byte{[]byte("a"), []byte("bc")},
			id:      id,
		},
		{
			name:    "source order swapped",
			sources: [][]byte{[]byte("c"), []byte("ab")},
			id:      id,
		},
		{
			name:    "compiler version differs",
			sources: [][]byte{[]byte("ab"), []byte("c")},
			id:      domain.NewToolchainIdentity("gcc 14.1.0", "go1.25.3", []string{"g++"}),
		},
		{
			name:    "command line differs",
			sources: [][]byte{[]byte("ab"), []byte("c")},
			id:      domain.NewToolchainIdentity("gcc 13.2.0", "go1.25.3", []string{"g++", "-O3"}),
		},
		{
			name:    "runtime differs",
			sources: [][]byte{[]byte("ab"), []byte("c")},
			id:      domain.NewToolchainIdentity("gcc 13.2.0", "go1.26.0", []string{"g++"}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, domain.ComputeFingerprint(tt.sources, tt.id))
		})
	}
}

func TestNewToolchainIdentity_FieldBoundaries(t *testing.T) {
	a := domain.NewToolchainIdentity("gcc", "go", []string{"a b"})
	b := domain.NewToolchainIdentity("gcc", "go", []string{"a", "b"})
	assert.NotEqual(t, a, b)
}

func TestModuleName(t *testing.T) {
	fp := domain.Fingerprint("abc123")
	got := domain.ModuleName(fp, "mymod")
	assert.Equal(t, "kiln.temp.abc123.mymod", got)
	assert.True(t, strings.HasPrefix(got, domain.ModuleNamePrefix))
}
