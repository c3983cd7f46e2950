package stache

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StoredTemplate is a template body persisted in a storage backend.
type StoredTemplate struct {
	// ID identifies the stored row. Assigned on first save and kept across
	// later saves of the same name.
	ID string `json:"id" yaml:"id"`

	// Name is the storage key.
	Name string `json:"name" yaml:"name"`

	// Source is the raw template text.
	Source string `json:"source" yaml:"source"`

	// Version starts at 1 and increases by one on every save.
	Version int `json:"version" yaml:"version"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// TemplateQuery defines filters for listing templates.
type TemplateQuery struct {
	// NamePrefix filters to names starting with this prefix.
	NamePrefix string

	// Limit is the maximum number of results (0 = no limit).
	Limit int

	// Offset is the number of results to skip.
	Offset int
}

// TemplateStorage is the interface for pluggable storage backends.
// Implementations must be safe for concurrent use.
type TemplateStorage interface {
	// Get retrieves a template by name.
	// Returns a TemplateNotFound error if the name is not stored.
	Get(ctx context.Context, name string) (*StoredTemplate, error)

	// Save stores a template. Saving an existing name replaces its source
	// and bumps its version. ID, Version, CreatedAt and UpdatedAt are set
	// on tmpl by the implementation.
	Save(ctx context.Context, tmpl *StoredTemplate) error

	// Delete removes a template by name.
	// Returns a TemplateNotFound error if the name is not stored.
	Delete(ctx context.Context, name string) error

	// List returns templates matching the query ordered by name.
	List(ctx context.Context, query *TemplateQuery) ([]*StoredTemplate, error)

	// Exists reports whether a template with the given name is stored.
	Exists(ctx context.Context, name string) (bool, error)

	// Close releases any resources held by the storage.
	Close() error
}

// StorageDriver is a factory for creating storage instances.
// Drivers register themselves during init().
type StorageDriver interface {
	// Open creates a new storage instance. The connection string format
	// is driver-specific.
	Open(connectionString string) (TemplateStorage, error)
}

// Storage driver registry
var (
	storageDriversMu sync.RWMutex
	storageDrivers   = make(map[string]StorageDriver)
)

// RegisterStorageDriver registers a storage driver by name.
// Panics if driver is nil or the name is taken.
func RegisterStorageDriver(name string, driver StorageDriver) {
	storageDriversMu.Lock()
	defer storageDriversMu.Unlock()

	if driver == nil {
		panic(ErrMsgNilStorageDriver)
	}
	if _, exists := storageDrivers[name]; exists {
		panic(ErrMsgDriverAlreadyRegistered + ": " + name)
	}
	storageDrivers[name] = driver
}

// OpenStorage opens a storage connection using the named driver.
//
//	storage, err := stache.OpenStorage("memory", "")
//	storage, err := stache.OpenStorage("sqlite", "/var/lib/stache/templates.db")
func OpenStorage(driverName, connectionString string) (TemplateStorage, error) {
	storageDriversMu.RLock()
	driver, ok := storageDrivers[driverName]
	storageDriversMu.RUnlock()

	if !ok {
		return nil, NewStorageDriverNotFoundError(driverName)
	}

	return driver.Open(connectionString)
}

// ListStorageDrivers returns the names of all registered storage drivers, sorted.
func ListStorageDrivers() []string {
	storageDriversMu.RLock()
	defer storageDriversMu.RUnlock()

	names := make([]string, 0, len(storageDrivers))
	for name := range storageDrivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Storage error message constants
const (
	ErrMsgNilStorageDriver        = "storage driver is nil"
	ErrMsgDriverAlreadyRegistered = "storage driver already registered"
	ErrMsgStorageDriverNotFound   = "storage driver not found"
	ErrMsgStorageClosed           = "storage is closed"
	ErrMsgStorageAlreadyClosed    = "storage already closed"
	ErrMsgInvalidStorageName      = "stored template name cannot be empty"
	ErrMsgEmptyConnString         = "connection string cannot be empty"
	ErrMsgConnectionFailed        = "failed to connect to database"
	ErrMsgQueryFailed             = "database query failed"
	ErrMsgTransactionFailed       = "database transaction failed"
	ErrMsgMigrationFailed         = "database migration failed"
)

// NewStorageDriverNotFoundError creates an error for a missing storage driver.
func NewStorageDriverNotFoundError(name string) error {
	return &StorageError{
		Message: ErrMsgStorageDriverNotFound,
		Name:    name,
	}
}

// NewStorageClosedError creates an error for operations on closed storage.
func NewStorageClosedError() error {
	return &StorageError{Message: ErrMsgStorageClosed}
}

// StorageError represents a storage-related error.
type StorageError struct {
	Message string
	Name    string
	Version int
	Cause   error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Name != "" {
		b.WriteString(": ")
		b.WriteString(e.Name)
		if e.Version > 0 {
			b.WriteString(" v")
			b.WriteString(strconv.Itoa(e.Version))
		}
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// newTemplateID generates an identifier for a newly stored template.
func newTemplateID() string {
	return uuid.NewString()
}

// copyStoredTemplate returns a copy of tmpl so callers cannot mutate
// storage internals.
func copyStoredTemplate(tmpl *StoredTemplate) *StoredTemplate {
	if tmpl == nil {
		return nil
	}
	c := *tmpl
	return &c
}

// pageTemplates applies offset and limit to an already ordered slice.
func pageTemplates(results []*StoredTemplate, query *TemplateQuery) []*StoredTemplate {
	if query.Offset > 0 {
		if query.Offset >= len(results) {
			return []*StoredTemplate{}
		}
		results = results[query.Offset:]
	}
	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}
	return results
}
