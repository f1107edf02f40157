package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Entry is one cached advisory response.
type Entry struct {
	Key       string    `json:"key"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Cache is a TTL file cache. A disabled cache never hits and never stores,
// but Fetch still deduplicates concurrent calls.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
	group   singleflight.Group
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a Cache. An empty dir selects the default cache directory.
func New(enabled bool, dir string, ttlSeconds int) (*Cache, error) {
	c := &Cache{ttl: time.Duration(ttlSeconds) * time.Second}
	if !enabled {
		return c, nil
	}
	if dir == "" {
		d, err := defaultCacheDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	c.dir = dir
	c.enabled = true
	return c, nil
}

// Key builds the cache key for one advisory request.
func Key(provider, model, source string) string {
	h := sha256.Sum256([]byte(provider + "\x00" + model + "\x00" + source))
	return fmt.Sprintf("%x", h)
}

// Get returns the cached entry for key. Expired entries are removed.
func (c *Cache) Get(key string) (Entry, bool) {
	if !c.enabled {
		return Entry{}, false
	}
	path := c.entryPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false
	}
	if c.expired(e) {
		os.Remove(path)
		return Entry{}, false
	}
	return e, true
}

// Put stores e under e.Key. The write goes through a temp file so readers
// never see a partial entry.
func (c *Cache) Put(e Entry) error {
	if !c.enabled {
		return nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	tmp, err := os.CreateTemp(c.dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("creating cache entry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing cache entry: %w", err)
	}
	return os.Rename(tmp.Name(), c.entryPath(e.Key))
}

// Fetch returns the cached text for key, or calls fill once for all
// concurrent callers asking for the same key and stores its result. The
// boolean reports a cache hit. Failed fills are not cached.
func (c *Cache) Fetch(key, provider, model string, fill func() (string, error)) (string, bool, error) {
	if e, ok := c.Get(key); ok {
		c.hits.Add(1)
		return e.Text, true, nil
	}
	c.misses.Add(1)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		text, err := fill()
		if err != nil {
			return "", err
		}
		// a failed write only costs a future miss
		_ = c.Put(Entry{Key: key, Provider: provider, Model: model, Text: text})
		return text, nil
	})
	if err != nil {
		return "", false, err
	}
	return v.(string), false, nil
}

// Clear removes all entries and reports how many were deleted.
func (c *Cache) Clear() (int, error) {
	if !c.enabled {
		return 0, nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}
	removed := 0
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// Prune removes expired entries and reports how many were deleted.
func (c *Cache) Prune() (int, error) {
	if !c.enabled || c.ttl <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}
	removed := 0
	for _, de := range entries {
		if filepath.Ext(de.Name()) != ".json" {
			continue
		}
		path := filepath.Join(c.dir, de.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var e Entry
		if json.Unmarshal(data, &e) != nil || !c.expired(e) {
			continue
		}
		if os.Remove(path) == nil {
			removed++
		}
	}
	return removed, nil
}

// Stats describes cache contents and this process's hit rate.
type Stats struct {
	Dir        string         `json:"dir"`
	Enabled    bool           `json:"enabled"`
	Entries    int            `json:"entries"`
	Expired    int            `json:"expired"`
	TotalBytes int64          `json:"totalBytes"`
	Hits       int64          `json:"hits"`
	Misses     int64          `json:"misses"`
	ByBackend  map[string]int `json:"byBackend,omitempty"` // "provider/model" -> entries
}

// Stats scans the cache directory.
func (c *Cache) Stats() (Stats, error) {
	s := Stats{Dir: c.dir, Enabled: c.enabled, Hits: c.hits.Load(), Misses: c.misses.Load()}
	if !c.enabled {
		return s, nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, de := range entries {
		if filepath.Ext(de.Name()) != ".json" {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		s.Entries++
		s.TotalBytes += info.Size()

		data, err := os.ReadFile(filepath.Join(c.dir, de.Name()))
		if err != nil {
			continue
		}
		var e Entry
		if json.Unmarshal(data, &e) != nil {
			continue
		}
		if c.expired(e) {
			s.Expired++
		}
		if s.ByBackend == nil {
			s.ByBackend = make(map[string]int)
		}
		s.ByBackend[e.Provider+"/"+e.Model]++
	}
	return s, nil
}

// Dir returns the cache directory, empty when disabled.
func (c *Cache) Dir() string { return c.dir }

// Enabled reports whether entries are persisted.
func (c *Cache) Enabled() bool { return c.enabled }

func (c *Cache) expired(e Entry) bool {
	return c.ttl > 0 && time.Since(e.CreatedAt) > c.ttl
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// DefaultDir returns the platform cache directory for critic.
func DefaultDir() (string, error) { return defaultCacheDir() }

func defaultCacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "critic"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "critic"), nil
	case "windows":
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "critic", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "critic", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "critic"), nil
	}
}
