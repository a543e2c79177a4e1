package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryEntries sizes the in-memory front when none is configured.
const DefaultMemoryEntries = 256

// Entry represents a cached agent response.
type Entry struct {
	Key       string    `json:"key"`
	Agent     string    `json:"agent,omitempty"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"createdAt"`
	TTL       int       `json:"ttl"`
}

// Options configures a Cache.
type Options struct {
	Enabled       bool
	Dir           string
	TTLSeconds    int
	MemoryEntries int
}

// Cache stores raw agent responses on disk with an LRU front in memory.
// A disabled Cache is valid and never hits.
type Cache struct {
	dir        string
	ttlSeconds int
	enabled    bool
	mem        *lru.Cache[string, Entry]
	now        func() time.Time

	mu sync.Mutex
}

// New creates a new Cache. If opts.Dir is empty, the default cache directory
// is used.
func New(opts Options) (*Cache, error) {
	if !opts.Enabled {
		return &Cache{enabled: false, now: time.Now}, nil
	}
	dir := opts.Dir
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	size := opts.MemoryEntries
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	mem, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, fmt.Errorf("creating memory cache: %w", err)
	}
	return &Cache{
		dir:        dir,
		ttlSeconds: opts.TTLSeconds,
		enabled:    true,
		mem:        mem,
		now:        time.Now,
	}, nil
}

// Get retrieves a cached response by key. Returns ("", false) on miss.
func (c *Cache) Get(key string) (string, bool) {
	if !c.enabled {
		return "", false
	}
	h := HashKey(key)
	if e, ok := c.mem.Get(h); ok {
		if !c.expired(e) {
			return e.Response, true
		}
		c.mem.Remove(h)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	path := c.entryPath(h)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", false
	}
	if c.expired(entry) {
		os.Remove(path)
		return "", false
	}
	c.mem.Add(h, entry)
	return entry.Response, true
}

// Put stores a response in the cache.
func (c *Cache) Put(key, agent, response string) error {
	if !c.enabled {
		return nil
	}
	h := HashKey(key)
	entry := Entry{
		Key:       h,
		Agent:     agent,
		Response:  response,
		CreatedAt: c.now(),
		TTL:       c.ttlSeconds,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.WriteFile(c.entryPath(h), data, 0o644); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	c.mem.Add(h, entry)
	return nil
}

// Clear removes all cache entries and returns how many files were deleted.
func (c *Cache) Clear() (int, error) {
	if !c.enabled || c.dir == "" {
		return 0, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem.Purge()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}
	var removed int
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			if err := os.Remove(filepath.Join(c.dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Stats returns cache statistics.
type Stats struct {
	Dir        string `json:"dir"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
	Expired    int    `json:"expired"`
	InMemory   int    `json:"inMemory"`
}

// GetStats returns information about the cache.
func (c *Cache) GetStats() (Stats, error) {
	stats := Stats{Dir: c.dir}
	if !c.enabled || c.dir == "" {
		return stats, nil
	}
	stats.InMemory = c.mem.Len()

	c.mu.Lock()
	defer c.mu.Unlock()
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()

		data, err := os.ReadFile(filepath.Join(c.dir, e.Name()))
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		if c.expired(entry) {
			stats.Expired++
		}
	}
	return stats, nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string {
	return c.dir
}

// Enabled returns whether caching is enabled.
func (c *Cache) Enabled() bool {
	return c.enabled
}

func (c *Cache) expired(e Entry) bool {
	return c.ttlSeconds > 0 && c.now().Sub(e.CreatedAt) > time.Duration(c.ttlSeconds)*time.Second
}

// HashKey creates a SHA-256 hash of the given key material.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

// BuildKey creates a cache key from the agent identity and the prompts it
// was sent.
func BuildKey(agent, model string, prompts ...string) string {
	parts := append([]string{agent, model}, prompts...)
	return HashKey(strings.Join(parts, "\x00"))
}

func (c *Cache) entryPath(hash string) string {
	return filepath.Join(c.dir, hash+".json")
}

// DefaultDir returns the OS-appropriate cache directory.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "triad"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "triad"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "triad", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "triad", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "triad"), nil
	}
}
