package stache

import (
	"context"
	"sync"
	"time"
)

// CachedStorage wraps any TemplateStorage with an in-memory cache of Get
// results, bounded by TTL and entry count.
type CachedStorage struct {
	storage TemplateStorage
	config  CacheConfig

	mu     sync.Mutex
	cache  map[string]*cacheEntry
	closed bool
	now    func() time.Time

	// Invalidation counters. A read from storage is only cached when
	// neither changed while it was in flight.
	generations map[string]uint64
	epoch       uint64
}

// CacheConfig configures the caching behavior.
type CacheConfig struct {
	// TTL is how long cached entries remain valid.
	// Default: 5 minutes.
	TTL time.Duration

	// MaxEntries is the maximum number of cached templates.
	// When exceeded, the least recently accessed entry is evicted.
	// Default: 1000.
	MaxEntries int

	// NegativeCacheTTL is how long to cache "not found" results.
	// Set to 0 to disable negative caching.
	// Default: 30 seconds.
	NegativeCacheTTL time.Duration
}

// DefaultCacheConfig returns the default caching configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:              CacheDefaultTTL,
		MaxEntries:       CacheDefaultMaxEntries,
		NegativeCacheTTL: CacheDefaultNegativeCacheTTL,
	}
}

type cacheEntry struct {
	template   *StoredTemplate
	notFound   bool
	cachedAt   time.Time
	accessedAt time.Time
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Entries         int
	ValidEntries    int
	NegativeEntries int
}

// NewCachedStorage wraps a storage with caching.
func NewCachedStorage(storage TemplateStorage, config CacheConfig) *CachedStorage {
	if config.TTL == 0 {
		config.TTL = CacheDefaultTTL
	}
	if config.MaxEntries == 0 {
		config.MaxEntries = CacheDefaultMaxEntries
	}

	return &CachedStorage{
		storage: storage,
		config:  config,
		cache:   make(map[string]*cacheEntry),
		now:     time.Now,

		generations: make(map[string]uint64),
	}
}

// Get retrieves a template, using the cache when available.
func (s *CachedStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, NewStorageClosedError()
	}
	if entry, ok := s.cache[name]; ok && s.isValid(entry) {
		entry.accessedAt = s.now()
		s.mu.Unlock()
		if entry.notFound {
			return nil, NewTemplateNotFoundError(name)
		}
		return copyStoredTemplate(entry.template), nil
	}
	generation, epoch := s.generations[name], s.epoch
	s.mu.Unlock()

	tmpl, err := s.storage.Get(ctx, name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	current := s.generations[name] == generation && s.epoch == epoch

	if err != nil {
		if current && s.config.NegativeCacheTTL > 0 && IsTemplateNotFound(err) {
			s.addEntry(name, nil, true)
		}
		return nil, err
	}

	if current {
		s.addEntry(name, tmpl, false)
	}
	return copyStoredTemplate(tmpl), nil
}

// Save stores a template and invalidates its cache entry.
func (s *CachedStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if err := s.storage.Save(ctx, tmpl); err != nil {
		return err
	}
	s.Invalidate(tmpl.Name)
	return nil
}

// Delete removes a template and invalidates its cache entry.
func (s *CachedStorage) Delete(ctx context.Context, name string) error {
	if err := s.storage.Delete(ctx, name); err != nil {
		return err
	}
	s.Invalidate(name)
	return nil
}

// List returns templates matching the query (bypasses cache).
func (s *CachedStorage) List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error) {
	return s.storage.List(ctx, query)
}

// Exists checks if a template exists, answering from the cache when it can.
func (s *CachedStorage) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, NewStorageClosedError()
	}
	if entry, ok := s.cache[name]; ok && s.isValid(entry) {
		s.mu.Unlock()
		return !entry.notFound, nil
	}
	s.mu.Unlock()

	return s.storage.Exists(ctx, name)
}

// Close clears the cache and closes the underlying storage.
func (s *CachedStorage) Close() error {
	s.mu.Lock()
	s.closed = true
	s.cache = nil
	s.mu.Unlock()

	return s.storage.Close()
}

// Invalidate removes a template from the cache.
func (s *CachedStorage) Invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, name)
	s.generations[name]++
}

// InvalidateAll clears the entire cache.
func (s *CachedStorage) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.cache = make(map[string]*cacheEntry)
	}
	s.epoch++
	s.generations = make(map[string]uint64)
}

// Stats returns cache statistics.
func (s *CachedStorage) Stats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var validCount, negativeCount int
	for _, entry := range s.cache {
		if !s.isValid(entry) {
			continue
		}
		if entry.notFound {
			negativeCount++
		} else {
			validCount++
		}
	}

	return CacheStats{
		Entries:         len(s.cache),
		ValidEntries:    validCount,
		NegativeEntries: negativeCount,
	}
}

// isValid checks if a cache entry is still valid.
// Caller must hold the lock.
func (s *CachedStorage) isValid(entry *cacheEntry) bool {
	ttl := s.config.TTL
	if entry.notFound {
		ttl = s.config.NegativeCacheTTL
	}
	return s.now().Sub(entry.cachedAt) < ttl
}

// addEntry adds an entry, evicting the least recently accessed one when full.
// Caller must hold the lock.
func (s *CachedStorage) addEntry(name string, tmpl *StoredTemplate, notFound bool) {
	if _, exists := s.cache[name]; !exists && len(s.cache) >= s.config.MaxEntries {
		s.evictOldest()
	}

	now := s.now()
	s.cache[name] = &cacheEntry{
		template:   copyStoredTemplate(tmpl),
		notFound:   notFound,
		cachedAt:   now,
		accessedAt: now,
	}
}

// evictOldest removes the least recently accessed entry.
// Caller must hold the lock.
func (s *CachedStorage) evictOldest() {
	var (
		oldestName string
		oldest     *cacheEntry
	)
	for name, entry := range s.cache {
		if oldest == nil || entry.accessedAt.Before(oldest.accessedAt) {
			oldestName, oldest = name, entry
		}
	}
	if oldest != nil {
		delete(s.cache, oldestName)
	}
}
