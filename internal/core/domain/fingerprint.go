package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
)

// ToolchainIdentity identifies everything about a toolchain that can change its output:
// compiler version, effective command line and host runtime.
type ToolchainIdentity string

// NewToolchainIdentity serializes the identity components in a stable, unambiguous form.
func NewToolchainIdentity(compilerVersion, runtimeVersion string, cmdline []string) ToolchainIdentity {
	var b strings.Builder
	writeField(&b, compilerVersion)
	writeField(&b, runtimeVersion)
	for _, arg := range cmdline {
		writeField(&b, arg)
	}
	return ToolchainIdentity(b.String())
}

func writeField(b *strings.Builder, s string) {
	var size [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(size[:], uint64(len(s)))
	b.Write(size[:n])
	b.WriteString(s)
}

// Fingerprint is the hex encoded SHA-256 digest of a compilation unit and toolchain identity.
type Fingerprint string

// String returns the fingerprint in hex.
func (f Fingerprint) String() string {
	return string(f)
}

// Short returns the first 12 hex characters, for display.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}

// ComputeFingerprint hashes the ordered sources followed by the toolchain identity.
// Each source is length-prefixed so that concatenation boundaries are part of the key.
func ComputeFingerprint(sources [][]byte, id ToolchainIdentity) Fingerprint {
	h := sha256.New()
	var size [8]byte

	binary.BigEndian.PutUint64(size[:], uint64(len(sources)))
	_, _ = h.Write(size[:])
	for _, src := range sources {
		binary.BigEndian.PutUint64(size[:], uint64(len(src)))
		_, _ = h.Write(size[:])
		_, _ = h.Write(src)
	}

	binary.BigEndian.PutUint64(size[:], uint64(len(id)))
	_, _ = h.Write(size[:])
	_, _ = h.Write([]byte(id))

	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// ModuleName returns the loadable module name for a fingerprinted unit.
func ModuleName(fp Fingerprint, name string) string {
	return ModuleNamePrefix + "." + string(fp) + "." + name
}
