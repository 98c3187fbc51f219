package domain

// BuildOptions controls one build request.
type BuildOptions struct {
	// CacheRoot is the cache directory. Empty selects DefaultCacheRoot.
	CacheRoot string
	// NoCache forces a rebuild into a private temporary directory without persisting anything.
	NoCache bool
	// Object builds an object file instead of a loadable extension.
	Object bool
	// Debug echoes every toolchain command line.
	Debug bool
}

// BuildResult describes the artifact produced or found by a build.
type BuildResult struct {
	Fingerprint  Fingerprint
	ModuleName   string
	ArtifactPath string
	// Rebuilt is false when the artifact came from the cache.
	Rebuilt bool
}

// LinkOptions controls linking of object files into an extension.
type LinkOptions struct {
	// CacheRoot, when set, places the extension directly under it.
	// Otherwise it is written next to the first object.
	CacheRoot string
	Debug     bool
}
