package stache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteConfig configures the SQLite storage driver.
type SQLiteConfig struct {
	// Path is the database file path or any DSN accepted by modernc.org/sqlite.
	// ":memory:" gives a private in-memory database.
	Path string

	// TablePrefix allows customizing the table name prefix.
	// Default: "stache_"
	TablePrefix string

	// QueryTimeout is the default timeout for queries.
	// Default: 10 seconds
	QueryTimeout time.Duration

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns a configuration with sensible defaults.
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		TablePrefix:  SQLiteTablePrefix,
		QueryTimeout: SQLiteDefaultQueryTimeout,
		BusyTimeout:  SQLiteDefaultBusyTimeout,
	}
}

// SQLiteStorage implements TemplateStorage on an embedded SQLite database.
// Migrations run on open.
type SQLiteStorage struct {
	*sqlStore
}

// SQLiteStorageDriver is the driver for creating SQLiteStorage instances.
type SQLiteStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameSQLite, &SQLiteStorageDriver{})
}

// Open creates a new SQLiteStorage. The connection string is the database path.
func (d *SQLiteStorageDriver) Open(connectionString string) (TemplateStorage, error) {
	config := DefaultSQLiteConfig()
	config.Path = connectionString
	return NewSQLiteStorage(config)
}

var sqliteDialect = sqlDialect{
	placeholder: func(int) string { return "?" },
	encodeTime:  func(t time.Time) any { return t.UnixNano() },
	decodeTime: func(v any) (time.Time, error) {
		n, ok := v.(int64)
		if !ok {
			return time.Time{}, fmt.Errorf("unexpected timestamp type %T", v)
		}
		return time.Unix(0, n).UTC(), nil
	},
}

// NewSQLiteStorage opens the database and applies migrations.
func NewSQLiteStorage(config SQLiteConfig) (*SQLiteStorage, error) {
	if config.Path == "" {
		return nil, &StorageError{Message: ErrMsgEmptyConnString}
	}
	if config.TablePrefix == "" {
		config.TablePrefix = SQLiteTablePrefix
	}
	if config.QueryTimeout == 0 {
		config.QueryTimeout = SQLiteDefaultQueryTimeout
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = SQLiteDefaultBusyTimeout
	}

	db, err := sql.Open(SQLiteDriverName, config.Path)
	if err != nil {
		return nil, &StorageError{Message: ErrMsgConnectionFailed, Cause: err}
	}
	// SQLite serializes writers; one connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), config.QueryTimeout)
	defer cancel()

	pragma := fmt.Sprintf("PRAGMA busy_timeout = %d", config.BusyTimeout.Milliseconds())
	if _, err := db.ExecContext(ctx, pragma); err != nil {
		db.Close()
		return nil, &StorageError{Message: ErrMsgConnectionFailed, Cause: err}
	}

	storage := &SQLiteStorage{
		sqlStore: &sqlStore{
			db:           db,
			dialect:      sqliteDialect,
			tablePrefix:  config.TablePrefix,
			queryTimeout: config.QueryTimeout,
		},
	}

	if err := storage.runMigrations(ctx, storage.migrations()); err != nil {
		db.Close()
		return nil, err
	}

	return storage, nil
}

// migrations returns the SQLite schema steps.
func (s *SQLiteStorage) migrations() []sqlMigration {
	return []sqlMigration{
		{
			Version:     1,
			Description: "Initial schema with templates table",
			SQL: []string{
				fmt.Sprintf(`
					CREATE TABLE IF NOT EXISTS %s (
						id         TEXT PRIMARY KEY,
						name       TEXT NOT NULL UNIQUE,
						source     TEXT NOT NULL,
						version    INTEGER NOT NULL DEFAULT 1,
						created_at INTEGER NOT NULL,
						updated_at INTEGER NOT NULL
					)`, s.tableName()),
			},
		},
	}
}
