package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

func Load(path string) (*Config, error) {
	return LoadWithSourceRoot(path, "")
}

// LoadWithSourceRoot loads the config file and, when sourceRoot is non-empty,
// overrides the configured source root before any path derivation, so the
// cache root, state dir and history path all anchor to the override.
func LoadWithSourceRoot(path, sourceRoot string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}
	if sourceRoot != "" {
		cfg.Paths.SourceRoot = sourceRoot
	}

	applyDefaults(&cfg)
	if err := absolutizePaths(&cfg); err != nil {
		return nil, err
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default builds a runnable configuration for sourceRoot without a config file.
func Default(sourceRoot string) (*Config, error) {
	cfg := &Config{Paths: Paths{SourceRoot: sourceRoot}}
	applyDefaults(cfg)
	if err := absolutizePaths(cfg); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Paths.SourceRoot) == "" {
		cfg.Paths.SourceRoot = "."
	}
	if strings.TrimSpace(cfg.Segments.EntryMarker) == "" {
		cfg.Segments.EntryMarker = "layout"
	}
	if strings.TrimSpace(cfg.Segments.PageFile) == "" {
		cfg.Segments.PageFile = "page"
	}

	if len(cfg.Resolve.Extensions) == 0 {
		cfg.Resolve.Extensions = []string{".tsx", ".ts", ".jsx", ".js", ".css", ".json"}
	}
	if cfg.Resolve.Aliases == nil {
		cfg.Resolve.Aliases = map[string]string{"@/": ""}
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 150 * time.Millisecond
	}

	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{"node_modules", ".git", ".manifold", "dist", "build"}
	}

	if cfg.Hook.PollInterval <= 0 {
		cfg.Hook.PollInterval = 50 * time.Millisecond
	}
	if cfg.Hook.Timeout <= 0 {
		cfg.Hook.Timeout = 5 * time.Second
	}
}

func absolutizePaths(cfg *Config) error {
	abs, err := filepath.Abs(cfg.Paths.SourceRoot)
	if err != nil {
		return fmt.Errorf("resolve source root %q: %w", cfg.Paths.SourceRoot, err)
	}
	cfg.Paths.SourceRoot = filepath.Clean(abs)

	if strings.TrimSpace(cfg.Paths.CacheRoot) == "" {
		cfg.Paths.CacheRoot = filepath.Join(cfg.Paths.SourceRoot, ".manifold", "manifests")
	} else if !filepath.IsAbs(cfg.Paths.CacheRoot) {
		cfg.Paths.CacheRoot = filepath.Join(cfg.Paths.SourceRoot, cfg.Paths.CacheRoot)
	}
	cfg.Paths.CacheRoot = filepath.Clean(cfg.Paths.CacheRoot)

	if strings.TrimSpace(cfg.Paths.StateDir) == "" {
		cfg.Paths.StateDir = filepath.Join(cfg.Paths.SourceRoot, ".manifold", "state")
	} else if !filepath.IsAbs(cfg.Paths.StateDir) {
		cfg.Paths.StateDir = filepath.Join(cfg.Paths.SourceRoot, cfg.Paths.StateDir)
	}
	cfg.Paths.StateDir = filepath.Clean(cfg.Paths.StateDir)

	return nil
}

func validate(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d", cfg.Version)
	}

	for _, ext := range cfg.Resolve.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("resolve extension %q must start with a dot", ext)
		}
	}

	for prefix := range cfg.Resolve.Aliases {
		if strings.TrimSpace(prefix) == "" {
			return fmt.Errorf("alias prefixes must not be empty")
		}
	}

	if strings.ContainsAny(cfg.Segments.EntryMarker, "/\\.") {
		return fmt.Errorf("entry marker %q must be a bare file base name", cfg.Segments.EntryMarker)
	}
	if strings.ContainsAny(cfg.Segments.PageFile, "/\\.") {
		return fmt.Errorf("page file %q must be a bare file base name", cfg.Segments.PageFile)
	}

	if cfg.Hook.PollInterval >= cfg.Hook.Timeout {
		return fmt.Errorf("hook poll interval %s must be shorter than timeout %s", cfg.Hook.PollInterval, cfg.Hook.Timeout)
	}

	return nil
}
