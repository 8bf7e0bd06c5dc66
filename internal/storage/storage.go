package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"

	"wedding-seating/internal/models"
)

var tracer = otel.Tracer("wedding-seating/internal/storage")

var (
	// ErrCorrupt is returned by Load when the persisted dataset cannot be decoded
	// or breaks the seating invariants.
	ErrCorrupt = errors.New("persisted dataset is corrupt")
	// ErrConflict is returned by Update when a concurrent writer kept winning
	// the version check.
	ErrConflict = errors.New("dataset was modified concurrently")
)

// Store persists the Dataset as a single unit.
type Store interface {
	// Load returns the last saved dataset, or a fresh default one.
	Load(ctx context.Context) (*models.Dataset, error)
	// Save overwrites the stored dataset.
	Save(ctx context.Context, d *models.Dataset) error
	// Update runs fn against a private copy of the current dataset and
	// persists the result. Concurrent Updates are isolated from each other;
	// when fn returns an error nothing is written and the error is returned.
	Update(ctx context.Context, fn func(d *models.Dataset) error) error
	Close() error
}

const (
	DriverJSON     = "json"
	DriverSQLite   = "sqlite"
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

// Options selects and configures a backend
type Options struct {
	Driver string
	// Path is the file used by the json, sqlite and bolt drivers.
	Path string
	// DSN is the connection string of the postgres driver.
	DSN    string
	Layout models.Layout
}

// Open creates the store selected by opts.Driver
func Open(opts Options) (Store, error) {
	switch opts.Driver {
	case DriverJSON, "":
		return NewFileStore(opts.Path, opts.Layout)
	case DriverSQLite:
		return NewSQLiteStore(opts.Path, opts.Layout)
	case DriverBolt:
		return NewBoltStore(opts.Path, opts.Layout)
	case DriverPostgres:
		return NewPostgresStore(opts.DSN, opts.Layout)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

func decodeDataset(data []byte, layout models.Layout) (*models.Dataset, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.NewDataset(layout), nil
	}

	var d models.Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	d.Normalize(layout)
	return &d, nil
}

func encodeDataset(d *models.Dataset) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to save dataset: %w", err)
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}
	return data, nil
}
