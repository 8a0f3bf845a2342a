// Package store provides the key-value and vector storage interfaces that
// back persistent reduction strategies (summaries survive across render
// calls) and retrieval-style content.
//
// Supported backends:
//   - Memory: for development and testing (default)
//   - Redis: for distributed deployments
//   - SQLite: for single-node deployments
//
// The fit engine treats a store as an opaque external collaborator: no
// caching or locking is layered on top, and consistency across concurrent
// render calls sharing a key is whatever the backing store provides.
package store

import (
	"context"
	"errors"
	"time"
)

// Common errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrStoreClosed  = errors.New("store is closed")
	ErrInvalidInput = errors.New("invalid input")
)

// Backend represents the type of storage backend.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
	BackendSQLite Backend = "sqlite"
)

// Entry is a stored value with its write timestamps.
type Entry struct {
	Data      []byte            `json:"data"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// KV is the key-value surface the Summarize strategy persists through.
type KV interface {
	// Get returns the entry for key, or ErrNotFound.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set writes data under key, preserving CreatedAt across overwrites.
	Set(ctx context.Context, key string, data []byte, metadata map[string]string) error

	// Delete removes key and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)

	// Close releases the store's resources.
	Close() error
}

// SearchOptions bound a vector search.
type SearchOptions struct {
	Limit     int     `json:"limit,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
}

// SearchResult is one vector search hit.
type SearchResult struct {
	Key   string  `json:"key"`
	Score float64 `json:"score"`
	Entry *Entry  `json:"entry"`
}

// Vector extends KV with similarity search over indexed embeddings. How
// embeddings are computed is the caller's concern; the store only holds
// and compares them.
type Vector interface {
	KV

	// Index stores data under key together with its embedding.
	Index(ctx context.Context, key string, vector []float32, data []byte, metadata map[string]string) error

	// Search returns entries by descending cosine similarity to vector.
	Search(ctx context.Context, vector []float32, opts SearchOptions) ([]SearchResult, error)
}

// Config selects and configures a backend.
type Config struct {
	Backend Backend      `json:"backend" yaml:"backend"`
	Redis   RedisConfig  `json:"redis" yaml:"redis"`
	SQLite  SQLiteConfig `json:"sqlite" yaml:"sqlite"`
}

// RedisConfig contains Redis-specific configuration.
type RedisConfig struct {
	Addr      string        `json:"addr" yaml:"addr"`
	Password  string        `json:"password" yaml:"password"`
	DB        int           `json:"db" yaml:"db"`
	PoolSize  int           `json:"pool_size" yaml:"pool_size"`
	KeyPrefix string        `json:"key_prefix" yaml:"key_prefix"`
	TTL       time.Duration `json:"ttl" yaml:"ttl"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	Path string `json:"path" yaml:"path"`
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			PoolSize:  10,
			KeyPrefix: "promptfit:",
		},
		SQLite: SQLiteConfig{
			Path: "./data/promptfit.db",
		},
	}
}

// Open creates a KV store for the configured backend.
func Open(cfg Config) (KV, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendRedis:
		return NewRedisStore(cfg.Redis)
	case BackendSQLite:
		return NewSQLiteStore(cfg.SQLite)
	default:
		return nil, errors.New("unknown store backend: " + string(cfg.Backend))
	}
}
