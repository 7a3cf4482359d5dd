package config

import (
	"path/filepath"
	"time"
)

type Config struct {
	Version  int      `toml:"version"`
	Paths    Paths    `toml:"paths"`
	Segments Segments `toml:"segments"`
	Resolve  Resolve  `toml:"resolve"`
	Watch    Watch    `toml:"watch"`
	Exclude  Exclude  `toml:"exclude"`
	History  History  `toml:"history"`
	Hook     Hook     `toml:"hook"`
}

// Paths locates the tracked source tree and the engine's own storage.
type Paths struct {
	// SourceRoot is the tracking boundary: resolved imports outside it are
	// dropped. Relative values are resolved against the working directory.
	SourceRoot string `toml:"source_root"`
	// AppDir is where segment discovery walks for entry markers. Empty means
	// the source root itself; relative values are joined to the source root.
	AppDir string `toml:"app_dir"`
	// CacheRoot holds one manifest file per segment.
	CacheRoot string `toml:"cache_root"`
	// StateDir holds engine-private state such as the rebuild history database.
	StateDir string `toml:"state_dir"`
}

// Segments names the files whose presence defines a segment.
type Segments struct {
	EntryMarker string `toml:"entry_marker"`
	PageFile    string `toml:"page_file"`
}

// Resolve controls import-specifier resolution.
type Resolve struct {
	// Aliases maps specifier prefixes to source-root-relative directories,
	// e.g. "@/" -> "src".
	Aliases map[string]string `toml:"aliases"`
	// Extensions is the probe order for extensionless specifiers.
	Extensions []string `toml:"extensions"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Hook configures the consumer-side bounded wait for manifests.
type Hook struct {
	PollInterval time.Duration `toml:"poll_interval"`
	Timeout      time.Duration `toml:"timeout"`
}

// AppDirAbs returns the absolute directory segment discovery walks.
func (p Paths) AppDirAbs() string {
	if p.AppDir == "" {
		return p.SourceRoot
	}
	if filepath.IsAbs(p.AppDir) {
		return filepath.Clean(p.AppDir)
	}
	return filepath.Join(p.SourceRoot, p.AppDir)
}

// HistoryPath returns the absolute sqlite path for the rebuild history store.
func (c *Config) HistoryPath() string {
	if c.History.Path == "" {
		return filepath.Join(c.Paths.StateDir, "history.db")
	}
	if filepath.IsAbs(c.History.Path) {
		return c.History.Path
	}
	return filepath.Join(c.Paths.StateDir, c.History.Path)
}
