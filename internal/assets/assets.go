// Package assets resolves and loads viewer assets (catalogs, textures, models,
// environment maps) from local search roots or http(s) locations.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/matview/internal/logger"
)

// ErrNotFound is returned when no source holds the requested asset.
var ErrNotFound = errors.New("asset not found")

// Manager loads assets from search roots with an in-memory cache.
type Manager struct {
	roots  []string
	client *http.Client
	cache  *Cache
	mu     sync.RWMutex
}

// NewManager creates a new asset manager. timeout bounds each HTTP request.
func NewManager(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Manager{
		client: &http.Client{Timeout: timeout},
		cache:  NewCache(),
	}
}

// AddRoot adds a local directory or http(s) base URL to the search list.
// Roots are searched in reverse order (last added = highest priority).
func (m *Manager) AddRoot(root string) error {
	if !IsURL(root) {
		info, err := os.Stat(root)
		if err != nil {
			return fmt.Errorf("asset root %s: %w", root, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("asset root %s: not a directory", root)
		}
	}

	m.mu.Lock()
	m.roots = append(m.roots, root)
	m.mu.Unlock()
	return nil
}

// Load returns the bytes of the asset at p. Absolute paths and URLs are read
// directly; relative paths are tried against each root.
func (m *Manager) Load(ctx context.Context, p string) ([]byte, error) {
	if data, ok := m.cache.Get(p); ok {
		return data, nil
	}

	data, err := m.load(ctx, p)
	if err != nil {
		return nil, err
	}
	m.cache.Set(p, data)
	return data, nil
}

func (m *Manager) load(ctx context.Context, p string) ([]byte, error) {
	if IsURL(p) {
		return m.fetch(ctx, p)
	}
	if filepath.IsAbs(p) {
		return readFile(p)
	}

	m.mu.RLock()
	roots := append([]string(nil), m.roots...)
	m.mu.RUnlock()

	if len(roots) == 0 {
		return readFile(p)
	}

	for i := len(roots) - 1; i >= 0; i-- {
		full := Resolve(roots[i], p)
		var (
			data []byte
			err  error
		)
		if IsURL(full) {
			data, err = m.fetch(ctx, full)
		} else {
			data, err = readFile(full)
		}
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
}

func readFile(p string) ([]byte, error) {
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return data, err
}

// fetch issues one GET; there is no retry.
func (m *Manager) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	start := time.Now()
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, u)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: HTTP %d", u, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	logger.Named("assets").Debug("fetched",
		zap.String("url", u),
		zap.Int("bytes", len(data)),
		zap.Duration("took", time.Since(start)),
	)
	return data, nil
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Close drops cached data and roots.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roots = nil
	m.cache.Clear()
}

// IsURL reports whether s is an http or https URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Resolve joins ref onto base. Absolute refs and URLs are returned unchanged.
// base is a directory or base URL, not a file.
func Resolve(base, ref string) string {
	if ref == "" || IsURL(ref) || filepath.IsAbs(ref) || base == "" {
		return ref
	}
	if IsURL(base) {
		u, err := url.Parse(base)
		if err != nil {
			return ref
		}
		u.Path = path.Join(u.Path, ref)
		return u.String()
	}
	return filepath.Join(base, ref)
}

// Dir returns the directory (or URL directory) holding the asset at p.
func Dir(p string) string {
	if IsURL(p) {
		u, err := url.Parse(p)
		if err != nil {
			return ""
		}
		u.Path = path.Dir(u.Path)
		u.RawQuery = ""
		return u.String()
	}
	return filepath.Dir(p)
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.RWMutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
