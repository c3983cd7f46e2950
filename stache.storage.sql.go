package stache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// sqlDialect captures what differs between the SQL backends.
type sqlDialect struct {
	// placeholder returns the bind marker for the n-th argument (1-based).
	placeholder func(n int) string

	// encodeTime and decodeTime convert timestamps to and from the value
	// the driver stores and returns.
	encodeTime func(t time.Time) any
	decodeTime func(v any) (time.Time, error)
}

// sqlMigration is one forward-only schema step.
type sqlMigration struct {
	Version     int
	Description string
	SQL         []string
}

// sqlStore implements TemplateStorage over database/sql. The table holds one
// row per template name.
type sqlStore struct {
	db           *sql.DB
	dialect      sqlDialect
	tablePrefix  string
	queryTimeout time.Duration
	txOptions    *sql.TxOptions

	mu     sync.RWMutex
	closed bool
}

// tableName returns the full template table name.
func (s *sqlStore) tableName() string {
	return s.tablePrefix + "templates"
}

// migrationsTableName returns the migrations table name.
func (s *sqlStore) migrationsTableName() string {
	return s.tablePrefix + "schema_migrations"
}

// ph is shorthand for the dialect placeholder.
func (s *sqlStore) ph(n int) string {
	return s.dialect.placeholder(n)
}

// Get retrieves a template by name.
func (s *sqlStore) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT id, name, source, version, created_at, updated_at
		FROM %s
		WHERE name = %s`, s.tableName(), s.ph(1))

	tmpl, err := s.scanTemplate(s.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewTemplateNotFoundError(name)
		}
		return nil, &StorageError{Message: ErrMsgQueryFailed, Name: name, Cause: err}
	}
	return tmpl, nil
}

// Save inserts a new row or replaces the source of an existing one,
// bumping its version.
func (s *sqlStore) Save(ctx context.Context, tmpl *StoredTemplate) error {
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

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, s.txOptions)
	if err != nil {
		return &StorageError{Message: ErrMsgTransactionFailed, Name: tmpl.Name, Cause: err}
	}
	defer func() { _ = tx.Rollback() }()

	var (
		id         string
		version    int
		createdRaw any
	)
	now := time.Now().UTC()
	selectQuery := fmt.Sprintf("SELECT id, version, created_at FROM %s WHERE name = %s",
		s.tableName(), s.ph(1))

	err = tx.QueryRowContext(ctx, selectQuery, tmpl.Name).Scan(&id, &version, &createdRaw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id, version = newTemplateID(), 1
		insertQuery := fmt.Sprintf(`
			INSERT INTO %s (id, name, source, version, created_at, updated_at)
			VALUES (%s, %s, %s, %s, %s, %s)`,
			s.tableName(), s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5), s.ph(6))
		_, err = tx.ExecContext(ctx, insertQuery,
			id, tmpl.Name, tmpl.Source, version,
			s.dialect.encodeTime(now), s.dialect.encodeTime(now))
		tmpl.CreatedAt = now
	case err == nil:
		version++
		tmpl.CreatedAt, err = s.dialect.decodeTime(createdRaw)
		if err != nil {
			break
		}
		updateQuery := fmt.Sprintf(`
			UPDATE %s SET source = %s, version = %s, updated_at = %s
			WHERE name = %s`,
			s.tableName(), s.ph(1), s.ph(2), s.ph(3), s.ph(4))
		_, err = tx.ExecContext(ctx, updateQuery,
			tmpl.Source, version, s.dialect.encodeTime(now), tmpl.Name)
	}
	if err != nil {
		return &StorageError{Message: ErrMsgQueryFailed, Name: tmpl.Name, Cause: err}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Message: ErrMsgTransactionFailed, Name: tmpl.Name, Cause: err}
	}

	tmpl.ID = id
	tmpl.Version = version
	tmpl.UpdatedAt = now
	return nil
}

// Delete removes a template by name.
func (s *sqlStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE name = %s", s.tableName(), s.ph(1)), name)
	if err != nil {
		return &StorageError{Message: ErrMsgQueryFailed, Name: name, Cause: err}
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return &StorageError{Message: ErrMsgQueryFailed, Name: name, Cause: err}
	}
	if affected == 0 {
		return NewTemplateNotFoundError(name)
	}
	return nil
}

// List returns templates matching the query ordered by name.
func (s *sqlStore) List(ctx context.Context, filter *TemplateQuery) ([]*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	if filter == nil {
		filter = &TemplateQuery{}
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	sqlQuery := fmt.Sprintf(`
		SELECT id, name, source, version, created_at, updated_at
		FROM %s
		ORDER BY name`, s.tableName())

	rows, err := s.db.QueryContext(ctx, sqlQuery)
	if err != nil {
		return nil, &StorageError{Message: ErrMsgQueryFailed, Cause: err}
	}
	defer rows.Close()

	results := []*StoredTemplate{}
	for rows.Next() {
		tmpl, err := s.scanTemplate(rows)
		if err != nil {
			return nil, &StorageError{Message: ErrMsgQueryFailed, Cause: err}
		}
		if filter.NamePrefix != "" && !strings.HasPrefix(tmpl.Name, filter.NamePrefix) {
			continue
		}
		results = append(results, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Message: ErrMsgQueryFailed, Cause: err}
	}

	return pageTemplates(results, filter), nil
}

// Exists checks if a template with the given name exists.
func (s *sqlStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, NewStorageClosedError()
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var count int
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE name = %s", s.tableName(), s.ph(1)),
		name).Scan(&count)
	if err != nil {
		return false, &StorageError{Message: ErrMsgQueryFailed, Name: name, Cause: err}
	}
	return count > 0, nil
}

// Close releases database connections.
func (s *sqlStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &StorageError{Message: ErrMsgStorageAlreadyClosed}
	}

	s.closed = true
	return s.db.Close()
}

// runMigrations applies the migrations not yet recorded in the migrations table.
func (s *sqlStore) runMigrations(ctx context.Context, migrations []sqlMigration) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version     INTEGER PRIMARY KEY,
			description VARCHAR(255)
		)`, s.migrationsTableName()))
	if err != nil {
		return &StorageError{Message: ErrMsgMigrationFailed, Cause: err}
	}

	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return &StorageError{Message: ErrMsgMigrationFailed, Cause: err}
		}

		for _, stmt := range m.SQL {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return &StorageError{
					Message: ErrMsgMigrationFailed,
					Cause:   fmt.Errorf("migration %d failed: %w", m.Version, err),
				}
			}
		}

		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (version, description) VALUES (%s, %s)",
				s.migrationsTableName(), s.ph(1), s.ph(2)),
			m.Version, m.Description); err != nil {
			_ = tx.Rollback()
			return &StorageError{Message: ErrMsgMigrationFailed, Cause: err}
		}

		if err := tx.Commit(); err != nil {
			return &StorageError{Message: ErrMsgMigrationFailed, Cause: err}
		}
	}

	return nil
}

// appliedMigrations returns the set of recorded migration versions.
func (s *sqlStore) appliedMigrations(ctx context.Context) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT version FROM %s", s.migrationsTableName()))
	if err != nil {
		return nil, &StorageError{Message: ErrMsgMigrationFailed, Cause: err}
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, &StorageError{Message: ErrMsgMigrationFailed, Cause: err}
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Message: ErrMsgMigrationFailed, Cause: err}
	}
	return applied, nil
}

// CurrentSchemaVersion returns the highest applied migration, 0 if none.
func (s *sqlStore) CurrentSchemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT MAX(version) FROM %s", s.migrationsTableName())).Scan(&version)
	if err != nil {
		return 0, &StorageError{Message: ErrMsgQueryFailed, Cause: err}
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTemplate scans one row of the template table.
func (s *sqlStore) scanTemplate(row rowScanner) (*StoredTemplate, error) {
	var (
		tmpl       StoredTemplate
		createdRaw any
		updatedRaw any
	)
	if err := row.Scan(&tmpl.ID, &tmpl.Name, &tmpl.Source, &tmpl.Version, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	var err error
	if tmpl.CreatedAt, err = s.dialect.decodeTime(createdRaw); err != nil {
		return nil, err
	}
	if tmpl.UpdatedAt, err = s.dialect.decodeTime(updatedRaw); err != nil {
		return nil, err
	}
	return &tmpl, nil
}
