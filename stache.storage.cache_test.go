package stache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStorage counts Get calls that reach the wrapped storage.
type countingStorage struct {
	TemplateStorage
	gets atomic.Int32
}

func (s *countingStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	s.gets.Add(1)
	return s.TemplateStorage.Get(ctx, name)
}

// pausingStorage holds the first Get after it has read from the wrapped
// storage until release is closed.
type pausingStorage struct {
	TemplateStorage
	paused  atomic.Bool
	read    chan struct{}
	release chan struct{}
}

func newPausingStorage(inner TemplateStorage) *pausingStorage {
	return &pausingStorage{
		TemplateStorage: inner,
		read:            make(chan struct{}),
		release:         make(chan struct{}),
	}
}

func (s *pausingStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	tmpl, err := s.TemplateStorage.Get(ctx, name)
	if s.paused.CompareAndSwap(false, true) {
		close(s.read)
		<-s.release
	}
	return tmpl, err
}

func TestCachedStorage(t *testing.T) {
	runStorageContract(t, func(t *testing.T) TemplateStorage {
		return NewCachedStorage(NewMemoryStorage(), DefaultCacheConfig())
	})
}

func TestCachedStorage_Defaults(t *testing.T) {
	cached := NewCachedStorage(NewMemoryStorage(), CacheConfig{})
	assert.Equal(t, CacheDefaultTTL, cached.config.TTL)
	assert.Equal(t, CacheDefaultMaxEntries, cached.config.MaxEntries)
	assert.Equal(t, time.Duration(0), cached.config.NegativeCacheTTL)
}

func TestCachedStorage_Hits(t *testing.T) {
	ctx := context.Background()
	inner := &countingStorage{TemplateStorage: NewMemoryStorage()}
	require.NoError(t, inner.Save(ctx, &StoredTemplate{Name: "page", Source: "body"}))
	cached := NewCachedStorage(inner, DefaultCacheConfig())

	for i := 0; i < 3; i++ {
		got, err := cached.Get(ctx, "page")
		require.NoError(t, err)
		assert.Equal(t, "body", got.Source)
	}
	assert.Equal(t, int32(1), inner.gets.Load())

	stats := cached.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 1, stats.ValidEntries)
}

func TestCachedStorage_NegativeCaching(t *testing.T) {
	ctx := context.Background()
	inner := &countingStorage{TemplateStorage: NewMemoryStorage()}
	cached := NewCachedStorage(inner, DefaultCacheConfig())

	for i := 0; i < 2; i++ {
		_, err := cached.Get(ctx, "missing")
		assert.True(t, IsTemplateNotFound(err))
	}
	assert.Equal(t, int32(1), inner.gets.Load())
	assert.Equal(t, 1, cached.Stats().NegativeEntries)

	exists, err := cached.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	// Saving through the cache clears the negative entry.
	require.NoError(t, cached.Save(ctx, &StoredTemplate{Name: "missing", Source: "now here"}))
	got, err := cached.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, "now here", got.Source)
}

func TestCachedStorage_Expiry(t *testing.T) {
	ctx := context.Background()
	inner := &countingStorage{TemplateStorage: NewMemoryStorage()}
	require.NoError(t, inner.Save(ctx, &StoredTemplate{Name: "page", Source: "body"}))

	cached := NewCachedStorage(inner, CacheConfig{TTL: time.Minute, MaxEntries: 10})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cached.now = func() time.Time { return now }

	_, err := cached.Get(ctx, "page")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = cached.Get(ctx, "page")
	require.NoError(t, err)

	assert.Equal(t, int32(2), inner.gets.Load())
}

func TestCachedStorage_Eviction(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStorage()
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, inner.Save(ctx, &StoredTemplate{Name: name, Source: name}))
	}

	cached := NewCachedStorage(inner, CacheConfig{TTL: time.Minute, MaxEntries: 2})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cached.now = func() time.Time { return now }

	for _, name := range []string{"a", "b"} {
		_, err := cached.Get(ctx, name)
		require.NoError(t, err)
		now = now.Add(time.Second)
	}

	// Touch "a" so "b" becomes least recently used.
	_, err := cached.Get(ctx, "a")
	require.NoError(t, err)
	now = now.Add(time.Second)

	_, err = cached.Get(ctx, "c")
	require.NoError(t, err)

	cached.mu.Lock()
	_, hasA := cached.cache["a"]
	_, hasB := cached.cache["b"]
	_, hasC := cached.cache["c"]
	cached.mu.Unlock()

	assert.True(t, hasA)
	assert.False(t, hasB)
	assert.True(t, hasC)
}

func TestCachedStorage_Invalidate(t *testing.T) {
	ctx := context.Background()
	inner := &countingStorage{TemplateStorage: NewMemoryStorage()}
	require.NoError(t, inner.Save(ctx, &StoredTemplate{Name: "page", Source: "body"}))
	cached := NewCachedStorage(inner, DefaultCacheConfig())

	_, err := cached.Get(ctx, "page")
	require.NoError(t, err)

	cached.Invalidate("page")
	_, err = cached.Get(ctx, "page")
	require.NoError(t, err)

	cached.InvalidateAll()
	assert.Equal(t, 0, cached.Stats().Entries)

	assert.Equal(t, int32(2), inner.gets.Load())
}

func TestCachedStorage_InvalidateDuringRead(t *testing.T) {
	tests := []struct {
		name       string
		invalidate func(ctx context.Context, cached *CachedStorage) error
	}{
		{
			name: "save",
			invalidate: func(ctx context.Context, cached *CachedStorage) error {
				return cached.Save(ctx, &StoredTemplate{Name: "page", Source: "v2"})
			},
		},
		{
			name: "invalidate all",
			invalidate: func(ctx context.Context, cached *CachedStorage) error {
				inner := cached.storage.(*pausingStorage).TemplateStorage
				if err := inner.Save(ctx, &StoredTemplate{Name: "page", Source: "v2"}); err != nil {
					return err
				}
				cached.InvalidateAll()
				return nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			memory := NewMemoryStorage()
			require.NoError(t, memory.Save(ctx, &StoredTemplate{Name: "page", Source: "v1"}))
			inner := newPausingStorage(memory)
			cached := NewCachedStorage(inner, DefaultCacheConfig())

			done := make(chan *StoredTemplate)
			go func() {
				tmpl, _ := cached.Get(ctx, "page")
				done <- tmpl
			}()

			<-inner.read
			require.NoError(t, tt.invalidate(ctx, cached))
			close(inner.release)

			stale := <-done
			require.NotNil(t, stale)
			assert.Equal(t, "v1", stale.Source)

			got, err := cached.Get(ctx, "page")
			require.NoError(t, err)
			assert.Equal(t, "v2", got.Source)
		})
	}
}
