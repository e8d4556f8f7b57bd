package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Entry is one cached value with its write time and lifetime. A zero
// TTL never expires.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	TTL       time.Duration   `json:"ttl"`
}

func (e Entry) expired() bool {
	return e.TTL > 0 && time.Since(e.Timestamp) > e.TTL
}

// Cache is a JSON-file backed key/value store used to keep fetched
// search and ad pages across runs. Every mutation is flushed to disk.
type Cache struct {
	path    string
	entries map[string]Entry
	mu      sync.RWMutex
}

// New loads the cache at path, starting empty when the file is missing
// or unreadable as JSON.
func New(path string) (*Cache, error) {
	c := &Cache{
		path:    path,
		entries: make(map[string]Entry),
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read cache: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &c.entries); err != nil {
				// Corrupt cache file, start fresh.
				c.entries = make(map[string]Entry)
			}
		}
	}

	return c, nil
}

// Get unmarshals the entry for key into target and reports whether a
// live entry was found. Expired entries are dropped on access.
func (c *Cache) Get(key string, target interface{}) (bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	if !ok {
		c.mu.RUnlock()
		return false, nil
	}

	if !entry.expired() {
		err := json.Unmarshal(entry.Data, target)
		c.mu.RUnlock()
		if err != nil {
			return false, fmt.Errorf("unmarshal cache entry: %w", err)
		}
		return true, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	// Re-check under the write lock before deleting.
	if e, exists := c.entries[key]; exists && e.expired() {
		delete(c.entries, key)
	}
	c.mu.Unlock()

	return false, nil
}

// Put stores value under key with the given lifetime and writes the
// cache file.
func (c *Cache) Put(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	c.mu.Lock()
	c.entries[key] = Entry{
		Data:      data,
		Timestamp: time.Now(),
		TTL:       ttl,
	}
	c.mu.Unlock()

	return c.flush()
}

// Remove deletes one entry and writes the cache file.
func (c *Cache) Remove(key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return c.flush()
}

// Clear drops every entry and writes the cache file.
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.entries = make(map[string]Entry)
	c.mu.Unlock()
	return c.flush()
}

// Len reports the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) flush() error {
	if dir := filepath.Dir(c.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}

	c.mu.RLock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.RUnlock()

	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	return os.WriteFile(c.path, data, 0644)
}

// BuildKey joins key parts with "|".
func BuildKey(parts ...string) string {
	key := ""
	for i, part := range parts {
		if i > 0 {
			key += "|"
		}
		key += part
	}
	return key
}

// SearchKey identifies one page of search results for a query string.
func SearchKey(query string, page int) string {
	return BuildKey("search", query, strconv.Itoa(page))
}

// AdKey identifies a single ad's detail page by its FINN code.
func AdKey(finnID string) string {
	return BuildKey("ad", finnID)
}
