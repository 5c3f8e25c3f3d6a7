package storage

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryConfig configures the in-process backend.
type MemoryConfig struct {
	TTL             time.Duration `mapstructure:"ttl" default:"12h" validate:"gte=0"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" default:"10m" validate:"gt=0"`
}

// Memory keeps values in process memory. Entries expire after TTL, which
// mirrors a browser session store that is cleared with its tab.
type Memory struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewMemory creates a memory store from settings.
func NewMemory(settings map[string]any) (*Memory, error) {
	var cfg MemoryConfig
	if err := decodeSettings(settings, &cfg); err != nil {
		return nil, err
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = cache.NoExpiration
	}
	return &Memory{
		cache: cache.New(ttl, cfg.CleanupInterval),
		ttl:   ttl,
	}, nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	b := v.([]byte)
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// Put implements Store.
func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	b := make([]byte, len(value))
	copy(b, value)
	m.cache.Set(key, b, m.ttl)
	return nil
}

// Close implements Store.
func (m *Memory) Close() error {
	m.cache.Flush()
	return nil
}
