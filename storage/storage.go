// Package storage persists string values under string keys, one isolated
// namespace per profile. It stands in for a browser's localStorage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// KV is one profile's key/value space.
type KV interface {
	// Get returns the value stored at key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes keys; missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// Keys lists keys starting with prefix in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Backend hands out per-profile key spaces.
type Backend interface {
	Profile(id string) KV
	Close() error
}

// Drivers accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("storage: unknown driver")

// Config selects and configures a backend.
type Config struct {
	Driver      string // sqlite (default), redis or memory
	Path        string // SQLite database file
	RedisAddr   string
	RedisPrefix string // defaults to "folio"
}

// Open creates the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverSQLite:
		return OpenSQLite(cfg.Path)
	case DriverRedis:
		return DialRedis(ctx, cfg.RedisAddr, cfg.RedisPrefix)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownDriver, cfg.Driver)
	}
}
