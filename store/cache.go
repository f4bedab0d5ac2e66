package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
)

// Cache fronts a Store with an index of all available keys and progressively
// loads content on demand. Writes go through Commit, which persists before the
// cache is updated, so the cache never holds a value the store rejected.
// All methods are safe for concurrent use.
type Cache struct {
	store Store
	cache map[string][]byte
	index map[string]bool
	mu    sync.RWMutex
}

// NewCache creates a Cache backed by the given Store.
func NewCache(store Store) *Cache {
	return &Cache{
		store: store,
		cache: make(map[string][]byte),
		index: make(map[string]bool),
	}
}

// Bootstrap indexes every key in the store and loads the content of keys
// under the given prefixes.
func (c *Cache) Bootstrap(ctx context.Context, prefixes ...string) error {
	keys, err := c.store.List(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap index: %w", err)
	}

	c.mu.Lock()
	for _, key := range keys {
		c.index[key] = true
	}
	c.mu.Unlock()

	if len(prefixes) == 0 {
		return nil
	}

	var toLoad []string
	for _, key := range keys {
		for _, prefix := range prefixes {
			if strings.HasPrefix(key, prefix) {
				toLoad = append(toLoad, key)
				break
			}
		}
	}

	if len(toLoad) == 0 {
		return nil
	}

	entries, err := c.store.Load(ctx, toLoad...)
	if err != nil {
		return fmt.Errorf("bootstrap load: %w", err)
	}

	c.mu.Lock()
	for _, e := range entries {
		c.cache[e.Key] = e.Value
	}
	c.mu.Unlock()

	return nil
}

// Resolve loads any of keys not already cached.
func (c *Cache) Resolve(ctx context.Context, keys ...string) error {
	c.mu.RLock()
	var toLoad []string
	for _, key := range keys {
		if _, cached := c.cache[key]; !cached {
			toLoad = append(toLoad, key)
		}
	}
	c.mu.RUnlock()

	if len(toLoad) == 0 {
		return nil
	}

	entries, err := c.store.Load(ctx, toLoad...)
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}

	c.mu.Lock()
	for _, e := range entries {
		c.cache[e.Key] = e.Value
		c.index[e.Key] = true
	}
	c.mu.Unlock()

	return nil
}

// Commit saves entries to the store in order and, once the store accepts
// them, caches them.
func (c *Cache) Commit(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	saved := make([]Entry, len(entries))
	for i, e := range entries {
		saved[i] = Entry{Key: e.Key, Value: slices.Clone(e.Value)}
	}

	if err := c.store.Save(ctx, saved...); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	c.mu.Lock()
	for _, e := range saved {
		c.cache[e.Key] = e.Value
		c.index[e.Key] = true
	}
	c.mu.Unlock()

	return nil
}

func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	val, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(val), true
}

func (c *Cache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index[key]
}

func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.index))
	for key := range c.index {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns the cached entries under prefix, sorted by key. Indexed
// keys that have not been loaded are not included.
func (c *Cache) Entries(prefix string) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var entries []Entry
	for key, val := range c.cache {
		if strings.HasPrefix(key, prefix) {
			entries = append(entries, Entry{Key: key, Value: slices.Clone(val)})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries
}
