// Package config loads the treepack configuration file.
//
// The file is TOML and lives at ~/.config/treepack/config.toml unless a path
// is given. Every field is optional; command-line flags override file values
// and pipeline defaults fill whatever is left.
//
//	[layout]
//	width = 1600
//	height = 1200
//	max_depth = 9
//	color_encoding = "type"
//
//	[source]
//	exclude = ["dist", "**/*.min.js"]
//	respect_gitignore = true
//
//	[session]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "720h"
//
//	[cache]
//	backend = "file"
//
//	[server]
//	addr = ":8080"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/treepack/pkg/core/palette"
	"github.com/matzehuels/treepack/pkg/errors"
)

// Backend names.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// DefaultServerAddr is the listen address of `treepack serve`.
const DefaultServerAddr = ":8080"

// Config is the contents of the configuration file.
type Config struct {
	Layout  Layout  `toml:"layout"`
	Source  Source  `toml:"source"`
	Session Session `toml:"session"`
	Cache   Cache   `toml:"cache"`
	Server  Server  `toml:"server"`
}

// Layout holds layout defaults. Zero values mean "use the built-in default".
type Layout struct {
	Width         float64 `toml:"width"`
	Height        float64 `toml:"height"`
	MaxDepth      int     `toml:"max_depth"`
	MaxNodes      int     `toml:"max_nodes"`
	ColorEncoding string  `toml:"color_encoding"`
}

// Source holds scan defaults.
type Source struct {
	Exclude          []string `toml:"exclude"`
	RespectGitignore bool     `toml:"respect_gitignore"`
	History          bool     `toml:"history"`
}

// Session selects where layout contexts are stored.
type Session struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
	TTL           Duration `toml:"ttl"`
}

// Cache selects where layouts and artifacts are cached.
type Cache struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a Go duration string ("72h").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Session: Session{Backend: BackendFile},
		Cache:   Cache{Backend: BackendFile},
		Server:  Server{Addr: DefaultServerAddr},
	}
}

// DefaultPath returns ~/.config/treepack/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "treepack", "config.toml"), nil
}

// Load reads the configuration at path. An empty path means DefaultPath,
// where a missing file is not an error. A missing file at an explicit path
// is.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML data on top of the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.New(errors.ErrCodeInvalidInput, "unknown config key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks backend names and value ranges.
func (c Config) Validate() error {
	if c.Layout.Width < 0 || c.Layout.Height < 0 {
		return errors.New(errors.ErrCodeInvalidCanvas, "canvas must be positive, got %gx%g", c.Layout.Width, c.Layout.Height)
	}
	if c.Layout.MaxDepth < 0 {
		return errors.New(errors.ErrCodeInvalidDepth, "max depth must be at least 1, got %d", c.Layout.MaxDepth)
	}
	if c.Layout.ColorEncoding != "" {
		if _, err := palette.ParseEncoding(c.Layout.ColorEncoding); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidEncoding, err, "invalid color encoding %q", c.Layout.ColorEncoding)
		}
	}
	for _, p := range c.Source.Exclude {
		if err := errors.ValidateGlob(p); err != nil {
			return err
		}
	}
	switch c.Session.Backend {
	case BackendFile, BackendMemory:
	case BackendRedis:
		if c.Session.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "session backend redis needs redis_addr")
		}
	case BackendMongo:
		if c.Session.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidInput, "session backend mongo needs mongo_uri")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown session backend %q (must be one of: file, redis, mongo, memory)", c.Session.Backend)
	}
	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" && c.Session.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache backend redis needs redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	return nil
}

// CacheRedisAddr returns the cache's Redis address, falling back to the
// session's.
func (c Config) CacheRedisAddr() string {
	if c.Cache.RedisAddr != "" {
		return c.Cache.RedisAddr
	}
	return c.Session.RedisAddr
}
