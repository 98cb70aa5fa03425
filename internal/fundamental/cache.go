package fundamental

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vnnyx/lumina-capital/internal/logger"
)

// cacheEntry is the persisted form of one cached payload.
type cacheEntry struct {
	Value      json.RawMessage `json:"value"`
	FetchedAt  time.Time       `json:"fetched_at"`
	TTLSeconds int64           `json:"ttl_seconds"`
}

func (e cacheEntry) expired(now time.Time) bool {
	return now.Sub(e.FetchedAt) >= time.Duration(e.TTLSeconds)*time.Second
}

// Cache is a TTL-keyed on-disk cache for expensive or rate-limited
// lookups. The file is a flat JSON mapping key -> {value, fetched_at,
// ttl_seconds}, loaded once at open and rewritten atomically after each
// write. An entry older than its TTL is treated as absent for reads,
// but kept on disk so GetOrFetch can fall back to it when a refresh
// fails.
type Cache struct {
	path string
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// OpenCache loads the cache file at path. A missing file starts empty;
// an unreadable or corrupt file fails open — the cache starts empty and
// the corruption is logged.
func OpenCache(path string) *Cache {
	c := &Cache{
		path:    path,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn(context.Background(), "Could not read fundamental cache, starting empty",
				"path", path, "error", err)
		}
		return c
	}
	if err := json.Unmarshal(b, &c.entries); err != nil {
		logger.Warn(context.Background(), "Fundamental cache corrupt, starting empty",
			"path", path, "error", err)
		c.entries = make(map[string]cacheEntry)
	}
	return c
}

// Get returns the cached value for key if present and unexpired.
func (c *Cache) Get(key string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.expired(c.now()) {
		return nil, false
	}
	return e.Value, true
}

// GetStale returns the cached value regardless of age.
func (c *Cache) GetStale(key string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.Value, true
}

// Put stores value under key with the given TTL and persists the file.
func (c *Cache) Put(key string, value json.RawMessage, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		Value:      value,
		FetchedAt:  c.now(),
		TTLSeconds: int64(ttl / time.Second),
	}
	return c.save()
}

// GetOrFetch returns the cached value when fresh; otherwise it invokes
// fetch, stores the result, and returns it. When fetch fails and an
// expired entry still exists, the stale value is returned with a
// warning; with no entry at all the fetch error propagates.
func (c *Cache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	if v, ok := c.Get(key); ok {
		logger.Debug(ctx, "Cache hit", "key", key)
		return v, nil
	}

	v, err := fetch(ctx)
	if err != nil {
		if stale, ok := c.GetStale(key); ok {
			logger.Warn(ctx, "Fetch failed, serving stale cache entry",
				"key", key, "error", err)
			return stale, nil
		}
		return nil, err
	}

	if perr := c.Put(key, v, ttl); perr != nil {
		logger.Warn(ctx, "Could not persist cache entry", "key", key, "error", perr)
	}
	return v, nil
}

// Clear drops all entries and removes the cache file.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// save writes the whole mapping to a temp file and renames it into
// place, so a crash mid-write never leaves a partial cache.
func (c *Cache) save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".cache-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}
