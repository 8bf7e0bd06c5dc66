package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"wedding-seating/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS dataset (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    version    INTEGER NOT NULL,
    document   BLOB    NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// sqliteMaxAttempts bounds the optimistic retry loop of Update.
const sqliteMaxAttempts = 5

// SQLiteStore keeps the dataset in a single versioned row. Update is an
// optimistic transaction: the row is rewritten only if its version is still
// the one that was read. Writers inside one process are also serialized by
// mu, so the version check only has to arbitrate between processes.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *sql.DB
	layout models.Layout
}

// NewSQLiteStore opens (or creates) the database file at path
func NewSQLiteStore(path string, layout models.Layout) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store needs a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db, layout: layout}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*models.Dataset, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "SQLiteStore.Load")
	defer span.End()

	d, _, err := s.read(ctx)
	if err != nil {
		span.RecordError(err)
	}
	return d, err
}

func (s *SQLiteStore) Save(ctx context.Context, d *models.Dataset) error {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "SQLiteStore.Save")
	defer span.End()

	data, err := encodeDataset(d)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
INSERT INTO dataset (id, version, document, updated_at) VALUES (1, 1, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    version = version + 1,
    document = excluded.document,
    updated_at = excluded.updated_at`,
		data, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save dataset: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, fn func(*models.Dataset) error) error {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "SQLiteStore.Update")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 1; attempt <= sqliteMaxAttempts; attempt++ {
		d, version, err := s.read(ctx)
		if err != nil {
			span.RecordError(err)
			return err
		}
		if err := fn(d); err != nil {
			return err
		}

		ok, err := s.compareAndSwap(ctx, version, d)
		if err != nil {
			span.RecordError(err)
			return err
		}
		if ok {
			span.SetAttributes(attribute.Int("attempts", attempt))
			return nil
		}
		span.AddEvent("version conflict, retrying")
	}
	span.RecordError(ErrConflict)
	return ErrConflict
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// read returns the stored dataset and its version; version 0 means no row yet.
func (s *SQLiteStore) read(ctx context.Context) (*models.Dataset, int64, error) {
	var (
		version int64
		data    []byte
	)
	err := s.db.QueryRowContext(ctx, `SELECT version, document FROM dataset WHERE id = 1`).Scan(&version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewDataset(s.layout), 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read dataset: %w", err)
	}
	d, err := decodeDataset(data, s.layout)
	if err != nil {
		return nil, 0, err
	}
	return d, version, nil
}

func (s *SQLiteStore) compareAndSwap(ctx context.Context, version int64, d *models.Dataset) (bool, error) {
	data, err := encodeDataset(d)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC().UnixMilli()

	var res sql.Result
	if version == 0 {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO dataset (id, version, document, updated_at) VALUES (1, 1, ?, ?) ON CONFLICT(id) DO NOTHING`,
			data, now)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE dataset SET version = version + 1, document = ?, updated_at = ? WHERE id = 1 AND version = ?`,
			data, now, version)
	}
	if err != nil {
		return false, fmt.Errorf("failed to write dataset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to write dataset: %w", err)
	}
	return n == 1, nil
}
