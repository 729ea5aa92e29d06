package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/treepack/pkg/cache"
	"github.com/matzehuels/treepack/pkg/session"
)

// DefaultCacheDir returns ~/.cache/treepack.
func DefaultCacheDir() (string, error) {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "treepack"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".cache", "treepack"), nil
}

// OpenSessions returns the session store selected by the [session] section.
func (c Config) OpenSessions(ctx context.Context) (session.Store, error) {
	switch c.Session.Backend {
	case BackendMemory:
		return session.NewMemoryStore(), nil
	case BackendRedis:
		s, err := session.NewRedisStore(ctx, session.RedisConfig{Addr: c.Session.RedisAddr})
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMongo:
		s, err := session.NewMongoStore(ctx, session.MongoConfig{
			URI:      c.Session.MongoURI,
			Database: c.Session.MongoDatabase,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendFile, "":
		s, err := session.NewFileStore(c.Session.Dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
}

// OpenCache returns the cache selected by the [cache] section.
func (c Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		rc, err := cache.NewRedisCache(ctx, c.CacheRedisAddr(), "")
		if err != nil {
			return nil, err
		}
		return rc, nil
	case BackendFile, "":
		dir, err := c.CacheDir()
		if err != nil {
			return nil, err
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
}

// CacheDir returns the file cache directory.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return DefaultCacheDir()
}

// SessionTTL returns the configured session lifetime, or the default.
func (c Config) SessionTTL() time.Duration {
	if c.Session.TTL.Duration > 0 {
		return c.Session.TTL.Duration
	}
	return session.DefaultTTL
}
