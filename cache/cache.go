package cache

import (
	"os"
	"path/filepath"
)

// Cache stores the last raw deploy response at a fixed path. Every write
// replaces the whole file; there is exactly one cached response.
type Cache struct {
	path string
}

// New creates a cache writing to path.
func New(path string) *Cache {
	return &Cache{path: path}
}

// Path returns the cache file path.
func (c *Cache) Path() string {
	return c.path
}

// Write replaces the cached response, creating the parent directory as
// needed.
func (c *Cache) Write(raw []byte) error {
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return wrapError("write", c.path, err)
		}
	}
	if err := os.WriteFile(c.path, raw, 0o644); err != nil {
		return wrapError("write", c.path, err)
	}
	return nil
}

// Read returns the cached response. A missing cache classifies as
// ErrNotFound.
func (c *Cache) Read() ([]byte, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, wrapError("read", c.path, err)
	}
	return data, nil
}
