// Package config loads the stagehand configuration file: resolution
// defaults, catalog sources, cache backend, and server settings.
//
// Configuration is TOML. Every field is optional; the zero config resolves
// with library defaults, no catalog, and a file cache under the user cache
// directory.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/stagehand-dev/stagehand/pkg/errors"
	"github.com/stagehand-dev/stagehand/pkg/resolve"
)

// Cache backend names accepted in [cache].backend.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// Config is the full stagehand configuration.
type Config struct {
	Resolution ResolutionConfig `toml:"resolution"`
	Catalog    CatalogConfig    `toml:"catalog"`
	Cache      CacheConfig      `toml:"cache"`
	Server     ServerConfig     `toml:"server"`
}

// ResolutionConfig overrides the engine defaults.
type ResolutionConfig struct {
	// GridStep is the snap resolution in meters. Zero means the engine
	// default.
	GridStep float64 `toml:"grid_step"`

	// OverlapPasses caps overlap mitigation iterations. Zero means the
	// engine default.
	OverlapPasses int `toml:"overlap_passes"`

	// SkipFloorFallback disables resting unparented objects on the floor.
	SkipFloorFallback bool `toml:"skip_floor_fallback"`
}

// CatalogConfig selects the spatial metadata source. File and Mongo are
// mutually exclusive; file wins when both are set.
type CatalogConfig struct {
	// Path points at a TOML model catalog.
	Path string `toml:"path"`

	// MongoURI enables the MongoDB catalog backend.
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// CacheConfig selects the resolution cache backend.
type CacheConfig struct {
	// Backend is one of "file", "redis", or "none". Empty means "file".
	Backend string `toml:"backend"`

	// Dir is the file cache directory. Empty means the user cache dir.
	Dir string `toml:"dir"`

	// Redis connection settings, used when Backend is "redis".
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	// Scope prefixes every cache key, isolating environments that share
	// one Redis instance.
	Scope string `toml:"scope"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Addr is the listen address. Empty means ":8080".
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Cache:  CacheConfig{Backend: CacheBackendFile},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads the configuration from path. A missing file is not an error;
// it yields Default.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DefaultPath returns the standard config file location,
// $XDG_CONFIG_HOME/stagehand/config.toml or the platform equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "stagehand", "config.toml")
}

// CacheDir returns the configured file cache directory, falling back to
// the user cache directory.
func (c Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return ".stagehand-cache"
	}
	return filepath.Join(dir, "stagehand")
}

// Validate checks ranges and enum fields.
func (c Config) Validate() error {
	if c.Resolution.GridStep < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "resolution.grid_step must not be negative, got %v", c.Resolution.GridStep)
	}
	if c.Resolution.OverlapPasses < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "resolution.overlap_passes must not be negative, got %d", c.Resolution.OverlapPasses)
	}
	if c.Resolution.OverlapPasses > resolve.MaxOverlapPasses {
		return errors.New(errors.ErrCodeInvalidConfig, "resolution.overlap_passes must not exceed %d, got %d", resolve.MaxOverlapPasses, c.Resolution.OverlapPasses)
	}
	switch c.Cache.Backend {
	case "", CacheBackendFile, CacheBackendRedis, CacheBackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend must be file, redis, or none, got %q", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheBackendRedis && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
	}
	return nil
}

// ResolveOptions converts the resolution section into engine options.
func (c Config) ResolveOptions() resolve.Options {
	return resolve.Options{
		GridStep:          c.Resolution.GridStep,
		OverlapPasses:     c.Resolution.OverlapPasses,
		SkipFloorFallback: c.Resolution.SkipFloorFallback,
	}
}
