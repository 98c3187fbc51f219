package config

// Kilnfile is the structure of kiln.yaml.
type Kilnfile struct {
	Toolchain ToolchainDTO           `yaml:"toolchain"`
	Libraries map[string]*LibraryDTO `yaml:"libraries"`
	Cache     CacheDTO               `yaml:"cache"`
}

// ToolchainDTO overrides the host toolchain defaults. Absent fields keep the default;
// an explicitly empty list clears it.
type ToolchainDTO struct {
	Kind         string   `yaml:"kind"`
	CC           string   `yaml:"cc"`
	LD           string   `yaml:"ld"`
	CFlags       []string `yaml:"cflags"`
	LDFlags      []string `yaml:"ldflags"`
	Defines      []string `yaml:"defines"`
	Undefines    []string `yaml:"undefines"`
	IncludeDirs  []string `yaml:"include_dirs"`
	LibraryDirs  []string `yaml:"library_dirs"`
	Libraries    []string `yaml:"libraries"`
	SoExt        string   `yaml:"so_ext"`
	OExt         string   `yaml:"o_ext"`
	Optimization string   `yaml:"optimization"`
}

// LibraryDTO describes one library feature.
type LibraryDTO struct {
	IncludeDirs []string `yaml:"include_dirs"`
	LibraryDirs []string `yaml:"library_dirs"`
	Libraries   []string `yaml:"libraries"`
}

// CacheDTO configures the compiler cache.
type CacheDTO struct {
	Dir          string `yaml:"dir"`
	Disabled     bool   `yaml:"disabled"`
	LockDelay    string `yaml:"lock_delay"`
	LockAttempts *int   `yaml:"lock_attempts"`
}
