package cache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCache_PutGet(t *testing.T) {
	c, err := New(true, t.TempDir(), 3600)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	key := Key("ollama", "deepseek-r1:1.5b", "print(x)")

	if _, ok := c.Get(key); ok {
		t.Error("expected miss before put")
	}
	if err := c.Put(Entry{Key: key, Provider: "ollama", Text: "fine"}); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	e, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if e.Text != "fine" || e.Provider != "ollama" || e.CreatedAt.IsZero() {
		t.Errorf("entry = %+v", e)
	}
}

func TestCache_TTLExpiration(t *testing.T) {
	dir := t.TempDir()
	c, err := New(true, dir, 1)
	if err != nil {
		t.Fatal(err)
	}
	key := Key("p", "m", "src")
	if err := c.Put(Entry{Key: key, Text: "old", CreatedAt: time.Now().Add(-time.Hour)}); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("expected expired entry to miss")
	}
	if _, err := os.Stat(filepath.Join(dir, key+".json")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestCache_Disabled(t *testing.T) {
	c, err := New(false, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put(Entry{Key: "k", Text: "v"}); err != nil {
		t.Errorf("Put on disabled cache: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("disabled cache should never hit")
	}
	if c.Enabled() || c.Dir() != "" {
		t.Error("disabled cache should report no dir")
	}
}

func TestKey_Distinct(t *testing.T) {
	a := Key("ollama", "m", "x")
	b := Key("ollama", "m2", "x")
	c := Key("ollama", "m", "x ")
	if a == b || a == c {
		t.Error("keys should differ when any input differs")
	}
	if a != Key("ollama", "m", "x") {
		t.Error("keys should be stable")
	}
	if len(a) != 64 || strings.ToLower(a) != a {
		t.Errorf("unexpected key format: %s", a)
	}
}

func TestCache_FetchCachesSuccess(t *testing.T) {
	c, err := New(true, t.TempDir(), 3600)
	if err != nil {
		t.Fatal(err)
	}
	calls := 0
	fill := func() (string, error) {
		calls++
		return "advice", nil
	}
	text, hit, err := c.Fetch("k1", "ollama", "m", fill)
	if err != nil || hit || text != "advice" {
		t.Fatalf("first Fetch = %q, %v, %v", text, hit, err)
	}
	text, hit, err = c.Fetch("k1", "ollama", "m", fill)
	if err != nil || !hit || text != "advice" {
		t.Fatalf("second Fetch = %q, %v, %v", text, hit, err)
	}
	if calls != 1 {
		t.Errorf("fill called %d times, want 1", calls)
	}
	s, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if s.Entries != 1 || s.Hits != 1 || s.Misses != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestCache_FetchDoesNotCacheErrors(t *testing.T) {
	c, err := New(true, t.TempDir(), 3600)
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	if _, _, err := c.Fetch("k", "p", "m", func() (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("failed fill should not be cached")
	}
}

func TestCache_FetchDeduplicates(t *testing.T) {
	c, err := New(false, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	var calls atomic.Int32
	release := make(chan struct{})
	fill := func() (string, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, _ = c.Fetch("same", "p", "m", fill)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("fill called %d times, want 1", calls.Load())
	}
	for i, r := range results {
		if r != "shared" {
			t.Errorf("result %d = %q", i, r)
		}
	}
}

func TestCache_Clear(t *testing.T) {
	c, err := New(true, t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Put(Entry{Key: k, Text: k}); err != nil {
			t.Fatal(err)
		}
	}
	removed, err := c.Clear()
	if err != nil {
		t.Fatal(err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}
	s, _ := c.Stats()
	if s.Entries != 0 {
		t.Errorf("entries after clear = %d", s.Entries)
	}
}

func TestCache_Prune(t *testing.T) {
	c, err := New(true, t.TempDir(), 60)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put(Entry{Key: "stale", Provider: "ollama", Model: "m", CreatedAt: time.Now().Add(-time.Hour)}); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(Entry{Key: "fresh", Provider: "openai", Model: "m"}); err != nil {
		t.Fatal(err)
	}

	s, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if s.Entries != 2 || s.Expired != 1 {
		t.Errorf("stats = %+v", s)
	}
	if s.ByBackend["ollama/m"] != 1 || s.ByBackend["openai/m"] != 1 {
		t.Errorf("ByBackend = %v", s.ByBackend)
	}

	removed, err := c.Prune()
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("fresh entry should survive prune")
	}
}

func TestCache_PruneWithoutTTL(t *testing.T) {
	c, err := New(true, t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put(Entry{Key: "old", CreatedAt: time.Now().Add(-24 * time.Hour)}); err != nil {
		t.Fatal(err)
	}
	if removed, _ := c.Prune(); removed != 0 {
		t.Errorf("removed = %d, want 0 without a ttl", removed)
	}
}

func TestDefaultDir_XDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	dir, err := DefaultDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg-cache", "critic") {
		t.Errorf("DefaultDir = %q", dir)
	}
}
