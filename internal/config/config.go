// Package config provides configuration management for pokectl.
// Configuration is loaded from YAML files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is the current config schema version.
const Version = "1"

// Mode constants for catalog backend selection.
const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

// Default file paths.
const (
	GlobalConfigDir   = ".config/pokectl"
	GlobalConfigFile  = "config.yaml"
	ProjectConfigFile = ".pokectl.yaml"
)

// Default values.
const (
	DefaultMode           = ModeRemote
	DefaultRemoteBaseURL  = "https://pokeapi.co/api/v2"
	DefaultLocalBaseURL   = "http://localhost:8080/api/v2"
	DefaultPageSize       = 20
	DefaultSearchDebounce = "300ms"
	DefaultCacheFreshFor  = "5m"
	DefaultCacheEvict     = "10m"
)

// Environment variable names.
const (
	EnvMode          = "POKECTL_MODE"
	EnvBaseURL       = "POKECTL_BASE_URL"
	EnvDataDir       = "POKECTL_DATA_DIR"
	EnvPageSize      = "POKECTL_PAGE_SIZE"
	EnvCacheFreshFor = "POKECTL_CACHE_FRESH_FOR"
	EnvCacheEvict    = "POKECTL_CACHE_EVICT_AFTER"
)

// Config represents the complete pokectl configuration.
type Config struct {
	Version string        `yaml:"version"`
	Mode    string        `yaml:"mode"`
	Catalog CatalogConfig `yaml:"catalog"`
	Data    DataConfig    `yaml:"data"`
	UI      UIConfig      `yaml:"ui"`
	Cache   CacheConfig   `yaml:"cache"`
}

// CatalogConfig holds catalog endpoint settings.
type CatalogConfig struct {
	// BaseURL overrides the mode-derived endpoint when set.
	BaseURL string `yaml:"base_url"`
}

// DataConfig holds local storage settings.
type DataConfig struct {
	// Dir is where the account and favorites database lives.
	// Empty means ~/.local/share/pokectl.
	Dir string `yaml:"dir"`
}

// UIConfig holds browse and search tuning.
type UIConfig struct {
	PageSize       int    `yaml:"page_size"`
	SearchDebounce string `yaml:"search_debounce"`
}

// CacheConfig holds query cache settings.
type CacheConfig struct {
	FreshFor   string `yaml:"fresh_for"`
	EvictAfter string `yaml:"evict_after"`
}

// Errors.
var (
	ErrInvalidMode   = errors.New("invalid mode: must be 'remote' or 'local'")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Version: Version,
		Mode:    DefaultMode,
		UI: UIConfig{
			PageSize:       DefaultPageSize,
			SearchDebounce: DefaultSearchDebounce,
		},
		Cache: CacheConfig{
			FreshFor:   DefaultCacheFreshFor,
			EvictAfter: DefaultCacheEvict,
		},
	}
}

// LoadOptions configures config loading behavior.
type LoadOptions struct {
	// ExplicitPath overrides config discovery (--config flag).
	ExplicitPath string
	// SkipGlobal skips loading global config (~/.config/pokectl/config.yaml).
	SkipGlobal bool
	// SkipProject skips loading project config (.pokectl.yaml).
	SkipProject bool
	// SkipEnv skips environment variable overrides.
	SkipEnv bool
}

// Load loads configuration with the following precedence (highest to lowest):
// 1. Environment variables
// 2. Project config (.pokectl.yaml, discovered walking up from CWD)
// 3. Global config (~/.config/pokectl/config.yaml)
// 4. Built-in defaults
//
// If ExplicitPath is set, it replaces both global and project configs.
func Load(opts LoadOptions) (*Config, error) {
	cfg := New()

	if !opts.SkipGlobal && opts.ExplicitPath == "" {
		globalPath, err := globalConfigPath()
		if err == nil {
			if loadErr := loadFile(cfg, globalPath); loadErr != nil && !os.IsNotExist(loadErr) {
				return nil, fmt.Errorf("load global config: %w", loadErr)
			}
		}
	}

	if !opts.SkipProject && opts.ExplicitPath == "" {
		projectPath, err := discoverProjectConfig()
		if err == nil {
			if loadErr := loadFile(cfg, projectPath); loadErr != nil && !os.IsNotExist(loadErr) {
				return nil, fmt.Errorf("load project config: %w", loadErr)
			}
		}
	}

	if opts.ExplicitPath != "" {
		if err := loadFile(cfg, opts.ExplicitPath); err != nil {
			return nil, fmt.Errorf("load config %s: %w", opts.ExplicitPath, err)
		}
	}

	if !opts.SkipEnv {
		applyEnvOverrides(cfg)
	}

	return cfg, nil
}

// loadFile reads and unmarshals a YAML config file into cfg.
// Fields not present in the file retain their current values (merge behavior).
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // Config path from trusted source
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

// globalConfigPath returns the path to the global config file.
func globalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile), nil
}

// discoverProjectConfig walks up from CWD looking for .pokectl.yaml.
// Stops at git root or filesystem root.
func discoverProjectConfig() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		path := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}

		gitPath := filepath.Join(dir, ".git")
		if _, err := os.Stat(gitPath); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", os.ErrNotExist
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvMode); v != "" {
		cfg.Mode = strings.ToLower(v)
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.Catalog.BaseURL = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv(EnvPageSize); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			cfg.UI.PageSize = n
		}
	}
	if v := os.Getenv(EnvCacheFreshFor); v != "" {
		cfg.Cache.FreshFor = v
	}
	if v := os.Getenv(EnvCacheEvict); v != "" {
		cfg.Cache.EvictAfter = v
	}
}

// CLIOverrides contains values from CLI flags that override config.
type CLIOverrides struct {
	Mode     string
	BaseURL  string
	DataDir  string
	PageSize int
}

// ApplyCLIOverrides applies CLI flag values to config.
// Only non-zero values are applied (highest priority).
func (cfg *Config) ApplyCLIOverrides(o CLIOverrides) {
	if o.Mode != "" {
		cfg.Mode = strings.ToLower(o.Mode)
	}
	if o.BaseURL != "" {
		cfg.Catalog.BaseURL = o.BaseURL
	}
	if o.DataDir != "" {
		cfg.Data.Dir = o.DataDir
	}
	if o.PageSize > 0 {
		cfg.UI.PageSize = o.PageSize
	}
}

// Validate checks the configuration for errors.
func (cfg *Config) Validate() error {
	switch cfg.Mode {
	case ModeRemote, ModeLocal:
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidMode, cfg.Mode)
	}

	if cfg.Catalog.BaseURL != "" {
		if _, err := url.ParseRequestURI(cfg.Catalog.BaseURL); err != nil {
			return fmt.Errorf("%w: invalid catalog.base_url %q: %w", ErrInvalidConfig, cfg.Catalog.BaseURL, err)
		}
	}
	if cfg.UI.PageSize < 0 {
		return fmt.Errorf("%w: ui.page_size must not be negative", ErrInvalidConfig)
	}

	for field, v := range map[string]string{
		"ui.search_debounce": cfg.UI.SearchDebounce,
		"cache.fresh_for":    cfg.Cache.FreshFor,
		"cache.evict_after":  cfg.Cache.EvictAfter,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("%w: invalid %s %q: %w", ErrInvalidConfig, field, v, err)
		}
	}

	return nil
}

// BaseURL resolves the effective catalog endpoint: an explicit
// catalog.base_url wins, otherwise the mode picks a default.
func (cfg *Config) BaseURL() string {
	if cfg.Catalog.BaseURL != "" {
		return cfg.Catalog.BaseURL
	}
	if cfg.Mode == ModeLocal {
		return DefaultLocalBaseURL
	}
	return DefaultRemoteBaseURL
}

// DataDir resolves the effective data directory.
func (cfg *Config) DataDir() (string, error) {
	if cfg.Data.Dir != "" {
		return cfg.Data.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve data dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "pokectl"), nil
}

// PageSize returns the browse page size, falling back to the default.
func (cfg *Config) PageSize() int {
	if cfg.UI.PageSize <= 0 {
		return DefaultPageSize
	}
	return cfg.UI.PageSize
}

func mustParseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic("invalid default duration: " + s)
	}
	return d
}

// Parsed defaults, computed once since the defaults are constants.
var (
	defaultDebounce = mustParseDuration(DefaultSearchDebounce)
	defaultFreshFor = mustParseDuration(DefaultCacheFreshFor)
	defaultEvict    = mustParseDuration(DefaultCacheEvict)
)

// SearchDebounce returns the debounce delay as a time.Duration.
// Falls back to the default when empty or invalid.
func (cfg *Config) SearchDebounce() time.Duration {
	return durationOr(cfg.UI.SearchDebounce, defaultDebounce)
}

// CacheFreshFor returns how long cached queries stay fresh.
func (cfg *Config) CacheFreshFor() time.Duration {
	return durationOr(cfg.Cache.FreshFor, defaultFreshFor)
}

// CacheEvictAfter returns the unused-entry eviction horizon.
func (cfg *Config) CacheEvictAfter() time.Duration {
	return durationOr(cfg.Cache.EvictAfter, defaultEvict)
}

func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// IsLocalMode returns true if the config targets a local catalog mirror.
func (cfg *Config) IsLocalMode() bool {
	return cfg.Mode == ModeLocal
}

// String returns a human-readable YAML rendering of the config.
func (cfg *Config) String() string {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Sprintf("config error: %v", err)
	}
	return string(data)
}

// SaveGlobal writes the config to the global config file.
// Creates the directory if it doesn't exist.
func (cfg *Config) SaveGlobal() error {
	path, err := globalConfigPath()
	if err != nil {
		return fmt.Errorf("get global config path: %w", err)
	}
	return cfg.SaveTo(path)
}

// SaveTo writes the config to the specified path.
// Creates parent directories if needed.
func (cfg *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// DiscoveredPaths returns which config files were found.
// Useful for debugging configuration issues.
// Returns empty strings for paths that don't exist or can't be determined.
func DiscoveredPaths() (global, project string) {
	globalPath, err := globalConfigPath()
	if err == nil {
		if _, statErr := os.Stat(globalPath); statErr == nil {
			global = globalPath
		}
	}
	projectPath, err := discoverProjectConfig()
	if err == nil {
		project = projectPath
	}
	return global, project
}
