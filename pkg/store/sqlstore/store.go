// Package sqlstore persists augment records and containers as JSON payloads
// through database/sql. SQLite (modernc.org/sqlite) and Postgres
// (jackc/pgx) are supported.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	augment "github.com/goliatone/go-augment"
)

var ErrRecordRequired = errors.New("sqlstore: record is required")

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used to stamp ModifiedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the identifier assigned to records saved without
// one.
func WithIDGenerator(next func() string) Option {
	return func(s *Store) {
		if next != nil {
			s.newID = next
		}
	}
}

// Store is an augment.Store backed by a SQL database.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
	newID   func() string
}

// Open connects to dsn with dialect's driver and prepares the schema.
func Open(ctx context.Context, dialect Dialect, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", dialect.Driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: ping %s: %w", dialect.Driver, err)
	}
	store, err := New(ctx, db, dialect, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing connection pool and prepares the schema.
func New(ctx context.Context, db *sql.DB, dialect Dialect, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: database is required")
	}
	s := &Store{db: db, dialect: dialect, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	for _, stmt := range dialect.schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("sqlstore: ensure schema: %w", err)
		}
	}
	return s, nil
}

// DB exposes the underlying pool.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the underlying pool.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Load(ctx context.Context, id string) (*augment.Record, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(`SELECT payload FROM augment_records WHERE id = ?`), id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlstore: load record %q: %w", id, err)
	}
	record := &augment.Record{}
	if err := json.Unmarshal(payload, record); err != nil {
		return nil, false, fmt.Errorf("sqlstore: decode record %q: %w", id, err)
	}
	return record, true, nil
}

// Save upserts record. A record without an ID is assigned one, and
// ModifiedAt is stamped with the store clock.
func (s *Store) Save(ctx context.Context, record *augment.Record) error {
	if record == nil {
		return ErrRecordRequired
	}
	if strings.TrimSpace(record.ID) == "" {
		record.ID = s.newID()
	}
	record.ModifiedAt = s.now().UTC()
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("sqlstore: encode record %q: %w", record.ID, err)
	}
	query := s.dialect.Rebind(`INSERT INTO augment_records(id, container, payload) VALUES(?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET container = excluded.container, payload = excluded.payload`)
	if _, err := s.db.ExecContext(ctx, query, record.ID, record.ContainerID, string(payload)); err != nil {
		return fmt.Errorf("sqlstore: upsert record %q: %w", record.ID, err)
	}
	return nil
}

// Delete removes the record with id. Deleting a missing record is not an
// error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM augment_records WHERE id = ?`), id); err != nil {
		return fmt.Errorf("sqlstore: delete record %q: %w", id, err)
	}
	return nil
}

// RecordIDs lists the records of container, or every record when container
// is empty, in ID order.
func (s *Store) RecordIDs(ctx context.Context, container string) (ids []string, retErr error) {
	query := `SELECT id FROM augment_records ORDER BY id`
	args := []any{}
	if container != "" {
		query = `SELECT id FROM augment_records WHERE container = ? ORDER BY id`
		args = append(args, container)
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list records: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil && retErr == nil {
			retErr = err
		}
	}()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlstore: scan record id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterate records: %w", err)
	}
	return ids, nil
}

// PutContainer upserts container.
func (s *Store) PutContainer(ctx context.Context, container *augment.Container) error {
	if container == nil || strings.TrimSpace(container.ID) == "" {
		return fmt.Errorf("sqlstore: container id is required")
	}
	payload, err := json.Marshal(container)
	if err != nil {
		return fmt.Errorf("sqlstore: encode container %q: %w", container.ID, err)
	}
	query := s.dialect.Rebind(`INSERT INTO augment_containers(id, mount, payload) VALUES(?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET mount = excluded.mount, payload = excluded.payload`)
	if _, err := s.db.ExecContext(ctx, query, container.ID, container.MountID, string(payload)); err != nil {
		return fmt.Errorf("sqlstore: upsert container %q: %w", container.ID, err)
	}
	return nil
}

func (s *Store) FindContainer(ctx context.Context, id string) (*augment.Container, bool, error) {
	return s.findContainer(ctx, `SELECT payload FROM augment_containers WHERE id = ?`, id)
}

// FindMountedContainer returns the container mounted on recordID. When
// several are, the lowest container ID wins.
func (s *Store) FindMountedContainer(ctx context.Context, recordID string) (*augment.Container, bool, error) {
	if recordID == "" {
		return nil, false, nil
	}
	return s.findContainer(ctx, `SELECT payload FROM augment_containers WHERE mount = ? ORDER BY id LIMIT 1`, recordID)
}

func (s *Store) findContainer(ctx context.Context, query, arg string) (*augment.Container, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(query), arg).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlstore: load container %q: %w", arg, err)
	}
	container := &augment.Container{}
	if err := json.Unmarshal(payload, container); err != nil {
		return nil, false, fmt.Errorf("sqlstore: decode container %q: %w", arg, err)
	}
	return container, true, nil
}

// PutUser upserts user.
func (s *Store) PutUser(ctx context.Context, user augment.UserRef) error {
	if strings.TrimSpace(user.ID) == "" {
		return fmt.Errorf("sqlstore: user id is required")
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("sqlstore: encode user %q: %w", user.ID, err)
	}
	query := s.dialect.Rebind(`INSERT INTO augment_users(id, payload) VALUES(?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`)
	if _, err := s.db.ExecContext(ctx, query, user.ID, string(payload)); err != nil {
		return fmt.Errorf("sqlstore: upsert user %q: %w", user.ID, err)
	}
	return nil
}

// Find resolves a user stored with PutUser.
func (s *Store) Find(ctx context.Context, id string) (*augment.UserRef, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(`SELECT payload FROM augment_users WHERE id = ?`), id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlstore: load user %q: %w", id, err)
	}
	user := &augment.UserRef{}
	if err := json.Unmarshal(payload, user); err != nil {
		return nil, false, fmt.Errorf("sqlstore: decode user %q: %w", id, err)
	}
	return user, true, nil
}

var (
	_ augment.Store      = (*Store)(nil)
	_ augment.UserLookup = (*Store)(nil)
)
