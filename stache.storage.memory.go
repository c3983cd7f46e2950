package stache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStorage is an in-memory implementation of TemplateStorage.
// All data is lost when the process terminates.
type MemoryStorage struct {
	mu        sync.RWMutex
	templates map[string]*StoredTemplate
	closed    bool
}

// MemoryStorageDriver is the driver for creating MemoryStorage instances.
type MemoryStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameMemory, &MemoryStorageDriver{})
}

// Open creates a new MemoryStorage instance. The connection string is ignored.
func (d *MemoryStorageDriver) Open(connectionString string) (TemplateStorage, error) {
	return NewMemoryStorage(), nil
}

// NewMemoryStorage creates a new in-memory template storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		templates: make(map[string]*StoredTemplate),
	}
}

// Get retrieves a template by name.
func (s *MemoryStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	tmpl, ok := s.templates[name]
	if !ok {
		return nil, NewTemplateNotFoundError(name)
	}
	return copyStoredTemplate(tmpl), nil
}

// Save stores a template, bumping the version of an existing name.
func (s *MemoryStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if tmpl.Name == "" {
		return &StorageError{Message: ErrMsgInvalidStorageName}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	now := time.Now()
	stored, ok := s.templates[tmpl.Name]
	if ok {
		stored.Source = tmpl.Source
		stored.Version++
		stored.UpdatedAt = now
	} else {
		stored = &StoredTemplate{
			ID:        newTemplateID(),
			Name:      tmpl.Name,
			Source:    tmpl.Source,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.templates[tmpl.Name] = stored
	}

	tmpl.ID = stored.ID
	tmpl.Version = stored.Version
	tmpl.CreatedAt = stored.CreatedAt
	tmpl.UpdatedAt = stored.UpdatedAt
	return nil
}

// Delete removes a template by name.
func (s *MemoryStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	if _, ok := s.templates[name]; !ok {
		return NewTemplateNotFoundError(name)
	}
	delete(s.templates, name)
	return nil
}

// List returns templates matching the query.
func (s *MemoryStorage) List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	if query == nil {
		query = &TemplateQuery{}
	}

	results := make([]*StoredTemplate, 0, len(s.templates))
	for name, tmpl := range s.templates {
		if query.NamePrefix != "" && !strings.HasPrefix(name, query.NamePrefix) {
			continue
		}
		results = append(results, copyStoredTemplate(tmpl))
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return pageTemplates(results, query), nil
}

// Exists checks if a template with the given name exists.
func (s *MemoryStorage) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, NewStorageClosedError()
	}

	_, ok := s.templates[name]
	return ok, nil
}

// Close marks the storage as closed.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.templates = nil
	return nil
}
