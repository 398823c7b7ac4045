// Package config loads hierbundle settings.
//
// Values are merged with the precedence
//
//	defaults < user config < project config < HIERBUNDLE_* environment < overrides
//
// where the user config is ~/.config/hierbundle/config.toml (or
// $XDG_CONFIG_HOME/hierbundle/config.toml), the project config is the nearest
// .hierbundle.toml at or above the working directory, and overrides usually
// come from command-line flags.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/matzehuels/hierbundle/pkg/cache"
	"github.com/matzehuels/hierbundle/pkg/core/bundle"
	apperrors "github.com/matzehuels/hierbundle/pkg/errors"
	"github.com/matzehuels/hierbundle/pkg/pipeline"
)

// Configuration keys.
const (
	KeyDelimiter      = "delimiter"
	KeyTension        = "tension"
	KeySpline         = "spline"
	KeyWidth          = "width"
	KeyHeight         = "height"
	KeyCacheBackend   = "cache.backend"
	KeyCacheDir       = "cache.dir"
	KeyCacheRedisAddr = "cache.redis_addr"
	KeyCachePrefix    = "cache.prefix"
	KeyCacheNamespace = "cache.namespace"
	KeyServerAddr     = "server.addr"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

const (
	appName           = "hierbundle"
	envPrefix         = "HIERBUNDLE"
	projectConfigName = ".hierbundle.toml"

	// DefaultServerAddr is the listen address of the HTTP API.
	DefaultServerAddr = ":8080"

	// DefaultRedisAddr is used when the redis backend names no address.
	DefaultRedisAddr = "localhost:6379"
)

// Config is the resolved configuration.
type Config struct {
	Delimiter string  `mapstructure:"delimiter"`
	Tension   float64 `mapstructure:"tension"`
	Spline    string  `mapstructure:"spline"`
	Width     float64 `mapstructure:"width"`
	Height    float64 `mapstructure:"height"`

	Cache  CacheConfig  `mapstructure:"cache"`
	Server ServerConfig `mapstructure:"server"`

	// Sources lists the config files that were merged, lowest precedence
	// first.
	Sources []string `mapstructure:"-"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend   string `mapstructure:"backend"`
	Dir       string `mapstructure:"dir"`
	RedisAddr string `mapstructure:"redis_addr"`
	Prefix    string `mapstructure:"prefix"`

	// Namespace scopes layout and artifact keys so that several projects
	// can share one cache without seeing each other's entries.
	Namespace string `mapstructure:"namespace"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type loadSettings struct {
	workingDir        string
	userConfigPath    string
	projectConfigPath string
	overrides         map[string]any
}

// Option configures Load. Useful for tests to override paths.
type Option func(*loadSettings)

// WithWorkingDir overrides the directory used for project config discovery.
func WithWorkingDir(dir string) Option {
	return func(s *loadSettings) { s.workingDir = dir }
}

// WithUserConfig overrides the default user config path.
func WithUserConfig(path string) Option {
	return func(s *loadSettings) { s.userConfigPath = path }
}

// WithProjectConfig explicitly sets the project config path instead of
// discovery.
func WithProjectConfig(path string) Option {
	return func(s *loadSettings) { s.projectConfigPath = path }
}

// WithOverrides injects values, typically from command-line flags. They win
// over every other source.
func WithOverrides(overrides map[string]any) Option {
	return func(s *loadSettings) {
		if s.overrides == nil {
			s.overrides = make(map[string]any, len(overrides))
		}
		for k, v := range overrides {
			s.overrides[k] = v
		}
	}
}

// Load resolves the configuration and validates it.
func Load(opts ...Option) (*Config, error) {
	var s loadSettings
	for _, opt := range opts {
		opt(&s)
	}

	workingDir := strings.TrimSpace(s.workingDir)
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determine working directory: %w", err)
		}
		workingDir = wd
	}

	userPath := strings.TrimSpace(s.userConfigPath)
	if userPath == "" {
		path, err := defaultUserConfigPath()
		if err != nil {
			return nil, err
		}
		userPath = path
	}

	projectPath := strings.TrimSpace(s.projectConfigPath)
	if projectPath == "" {
		path, err := findProjectConfig(workingDir)
		if err != nil {
			return nil, err
		}
		projectPath = path
	}

	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var sources []string
	for _, path := range []string{userPath, projectPath} {
		merged, err := mergeConfigFile(v, path)
		if err != nil {
			return nil, err
		}
		if merged {
			sources = append(sources, path)
		}
	}
	for k, val := range s.overrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Sources = sources
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyDelimiter, "")
	v.SetDefault(KeyTension, bundle.DefaultTension)
	v.SetDefault(KeySpline, string(bundle.SplineCatmullRom))
	v.SetDefault(KeyWidth, pipeline.DefaultWidth)
	v.SetDefault(KeyHeight, pipeline.DefaultHeight)
	v.SetDefault(KeyCacheBackend, BackendFile)
	v.SetDefault(KeyCacheDir, "")
	v.SetDefault(KeyCacheRedisAddr, DefaultRedisAddr)
	v.SetDefault(KeyCachePrefix, cache.DefaultRedisPrefix)
	v.SetDefault(KeyCacheNamespace, "")
	v.SetDefault(KeyServerAddr, DefaultServerAddr)
}

// mergeConfigFile merges path into v. Missing and empty files are skipped.
func mergeConfigFile(v *viper.Viper, path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("config path %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

func defaultUserConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// findProjectConfig walks up from startDir looking for .hierbundle.toml.
func findProjectConfig(startDir string) (string, error) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, projectConfigName)
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("config path %s is a directory", candidate)
			}
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Validate checks every value that has a constrained domain.
func (c *Config) Validate() error {
	if c.Delimiter != "" {
		if err := apperrors.ValidateDelimiter(c.Delimiter); err != nil {
			return err
		}
	}
	if err := apperrors.ValidateTension(c.Tension); err != nil {
		return err
	}
	if _, err := apperrors.ValidateSpline(c.Spline); err != nil {
		return err
	}
	if err := apperrors.ValidateDimensions(c.Width, c.Height); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return apperrors.New(apperrors.ErrCodeInvalidInput,
			"invalid cache backend: %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	return nil
}

// LayoutOptions returns pipeline options carrying the configured layout
// settings.
func (c *Config) LayoutOptions() pipeline.Options {
	return pipeline.Options{
		Delimiter: c.Delimiter,
		Tension:   pipeline.Float(c.Tension),
		Spline:    c.Spline,
		Width:     c.Width,
		Height:    c.Height,
	}
}

// Keyer returns the cache keyer for the configured namespace.
func (c *Config) Keyer() cache.Keyer {
	if c.Cache.Namespace == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.Cache.Namespace+":")
}

// OpenCache opens the configured cache backend. fallbackDir is used by the
// file backend when cache.dir is unset.
func (c *Config) OpenCache(ctx context.Context, fallbackDir string) (cache.Cache, error) {
	switch c.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		return cache.NewRedisCache(ctx, c.Cache.RedisAddr, os.Getenv(envPrefix+"_REDIS_PASSWORD"), 0,
			cache.WithRedisPrefix(c.Cache.Prefix))
	}
	dir := c.Cache.Dir
	if dir == "" {
		dir = fallbackDir
	}
	if dir == "" {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}
