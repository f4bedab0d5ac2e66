package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tailored-agentic-units/directory/store"
)

// failingStore rejects every Save.
type failingStore struct {
	store.Store
}

func (failingStore) Save(context.Context, ...store.Entry) error {
	return store.ErrSaveFailed
}

func TestCache_Bootstrap_IndexOnly(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "current/uAQI", "pointer")
	writeTestFile(t, root, "versions/uAAAA", "version")

	cache := store.NewCache(store.NewFileStore(root))
	if err := cache.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	if !cache.Has("current/uAQI") {
		t.Error("Has(current/uAQI) = false, want true")
	}
	if !cache.Has("versions/uAAAA") {
		t.Error("Has(versions/uAAAA) = false, want true")
	}
	if _, ok := cache.Get("current/uAQI"); ok {
		t.Error("Get(current/uAQI) should return false before Resolve")
	}
}

func TestCache_Bootstrap_WithPrefixes(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "current/uAQI", "pointer")
	writeTestFile(t, root, "versions/uAAAA", "version")

	cache := store.NewCache(store.NewFileStore(root))
	if err := cache.Bootstrap(context.Background(), "current/"); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	val, ok := cache.Get("current/uAQI")
	if !ok {
		t.Fatal("Get(current/uAQI) = false, want true after Bootstrap with prefix")
	}
	if string(val) != "pointer" {
		t.Errorf("Get(current/uAQI) = %q, want %q", string(val), "pointer")
	}

	if _, ok := cache.Get("versions/uAAAA"); ok {
		t.Error("Get(versions/uAAAA) should return false, not in bootstrap prefix")
	}
	if !cache.Has("versions/uAAAA") {
		t.Error("Has(versions/uAAAA) = false, want true")
	}
}

func TestCache_Bootstrap_EmptyStore(t *testing.T) {
	cache := store.NewCache(store.NewFileStore(t.TempDir()))
	if err := cache.Bootstrap(context.Background(), "current/"); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	if len(cache.Keys()) != 0 {
		t.Errorf("Keys() returned %d keys, want 0", len(cache.Keys()))
	}
}

func TestCache_Resolve(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "versions/uAAAA", "version content")

	cache := store.NewCache(store.NewFileStore(root))
	if err := cache.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	if err := cache.Resolve(context.Background(), "versions/uAAAA"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	val, ok := cache.Get("versions/uAAAA")
	if !ok {
		t.Fatal("Get() should return true after Resolve")
	}
	if string(val) != "version content" {
		t.Errorf("Get() = %q, want %q", string(val), "version content")
	}
}

func TestCache_Resolve_SkipsCached(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "current/uAQI", "original")

	cache := store.NewCache(store.NewFileStore(root))
	if err := cache.Bootstrap(context.Background(), "current/"); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	writeTestFile(t, root, "current/uAQI", "modified")

	if err := cache.Resolve(context.Background(), "current/uAQI"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	val, _ := cache.Get("current/uAQI")
	if string(val) != "original" {
		t.Errorf("Resolve should skip cached, got %q, want %q", string(val), "original")
	}
}

func TestCache_Resolve_Missing(t *testing.T) {
	cache := store.NewCache(store.NewFileStore(t.TempDir()))

	err := cache.Resolve(context.Background(), "versions/missing")
	if !errors.Is(err, store.ErrKeyNotFound) {
		t.Errorf("Resolve() error = %v, want %v", err, store.ErrKeyNotFound)
	}
}

func TestCache_Commit(t *testing.T) {
	backing := store.NewFileStore(t.TempDir())
	cache := store.NewCache(backing)

	err := cache.Commit(context.Background(),
		store.Entry{Key: "versions/uAAAA", Value: []byte("version")},
		store.Entry{Key: "current/uAQI", Value: []byte("pointer")},
	)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	val, ok := cache.Get("current/uAQI")
	if !ok || string(val) != "pointer" {
		t.Errorf("Get() = %q, %v, want %q, true", val, ok, "pointer")
	}

	entries, err := backing.Load(context.Background(), "versions/uAAAA")
	if err != nil {
		t.Fatalf("Store.Load() error = %v", err)
	}
	if string(entries[0].Value) != "version" {
		t.Errorf("persisted value = %q, want %q", string(entries[0].Value), "version")
	}
}

func TestCache_Commit_StoreFailureLeavesCacheUntouched(t *testing.T) {
	cache := store.NewCache(failingStore{})

	err := cache.Commit(context.Background(), store.Entry{Key: "current/uAQI", Value: []byte("pointer")})
	if !errors.Is(err, store.ErrSaveFailed) {
		t.Fatalf("Commit() error = %v, want %v", err, store.ErrSaveFailed)
	}

	if cache.Has("current/uAQI") {
		t.Error("Has() should return false after failed Commit")
	}
	if _, ok := cache.Get("current/uAQI"); ok {
		t.Error("Get() should return false after failed Commit")
	}
}

func TestCache_Commit_DefensiveCopy(t *testing.T) {
	cache := store.NewCache(store.NewFileStore(t.TempDir()))

	input := []byte("original")
	if err := cache.Commit(context.Background(), store.Entry{Key: "key", Value: input}); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	input[0] = 'X'

	val, _ := cache.Get("key")
	if string(val) != "original" {
		t.Errorf("Commit() did not copy input, got %q after mutation", string(val))
	}

	val[0] = 'Y'
	got, _ := cache.Get("key")
	if string(got) != "original" {
		t.Errorf("Get() returned mutable reference, got %q after mutation", string(got))
	}
}

func TestCache_Entries(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "current/b", "b")
	writeTestFile(t, root, "current/a", "a")
	writeTestFile(t, root, "versions/x", "x")

	cache := store.NewCache(store.NewFileStore(root))
	if err := cache.Bootstrap(context.Background(), "current/", "versions/"); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	entries := cache.Entries("current/")
	if len(entries) != 2 {
		t.Fatalf("Entries(current/) returned %d entries, want 2", len(entries))
	}
	if entries[0].Key != "current/a" {
		t.Errorf("entries[0].Key = %q, want %q", entries[0].Key, "current/a")
	}
	if entries[1].Key != "current/b" {
		t.Errorf("entries[1].Key = %q, want %q", entries[1].Key, "current/b")
	}
}

func TestCache_Entries_OnlyCached(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "current/a", "a")

	cache := store.NewCache(store.NewFileStore(root))
	if err := cache.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	if entries := cache.Entries("current/"); len(entries) != 0 {
		t.Errorf("Entries() returned %d entries for unloaded prefix, want 0", len(entries))
	}
}

func TestCache_Keys(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "b", "b")
	writeTestFile(t, root, "a", "a")
	writeTestFile(t, root, "c", "c")

	cache := store.NewCache(store.NewFileStore(root))
	if err := cache.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	keys := cache.Keys()
	want := []string{"a", "b", "c"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() returned %d keys, want %d", len(keys), len(want))
	}
	for i, key := range keys {
		if key != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, key, want[i])
		}
	}
}

func TestCache_Concurrent_CommitGet(t *testing.T) {
	s, err := store.OpenBadger(store.BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	defer s.Close()

	cache := store.NewCache(s)
	const n = 50

	var wg sync.WaitGroup
	wg.Add(3 * n)

	for range n {
		go func() {
			defer wg.Done()
			cache.Commit(context.Background(), store.Entry{Key: "key", Value: []byte("value")})
		}()
		go func() {
			defer wg.Done()
			cache.Get("key")
		}()
		go func() {
			defer wg.Done()
			cache.Keys()
		}()
	}
	wg.Wait()
}
