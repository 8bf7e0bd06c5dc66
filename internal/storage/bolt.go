package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.opentelemetry.io/otel/trace"

	"wedding-seating/internal/models"
)

const (
	bucketSeating = "seating"
	keyDataset    = "dataset"
)

// BoltStore keeps the dataset under one key of a bbolt bucket. bbolt allows
// a single read-write transaction at a time, which gives Update its isolation.
type BoltStore struct {
	db     *bolt.DB
	layout models.Layout
}

// NewBoltStore opens (or creates) the bbolt file at path
func NewBoltStore(path string, layout models.Layout) (*BoltStore, error) {
	if path == "" {
		return nil, fmt.Errorf("bolt store needs a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSeating))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &BoltStore{db: db, layout: layout}, nil
}

func (b *BoltStore) Load(ctx context.Context) (*models.Dataset, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "BoltStore.Load")
	defer span.End()

	var d *models.Dataset
	err := b.db.View(func(tx *bolt.Tx) error {
		var err error
		d, err = decodeDataset(tx.Bucket([]byte(bucketSeating)).Get([]byte(keyDataset)), b.layout)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return d, nil
}

func (b *BoltStore) Save(ctx context.Context, d *models.Dataset) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "BoltStore.Save")
	defer span.End()

	data, err := encodeDataset(d)
	if err != nil {
		return err
	}
	span.AddEvent("Update bucket")
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSeating)).Put([]byte(keyDataset), data)
	})
}

func (b *BoltStore) Update(ctx context.Context, fn func(*models.Dataset) error) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "BoltStore.Update")
	defer span.End()

	span.AddEvent("Update bucket")
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketSeating))
		d, err := decodeDataset(bucket.Get([]byte(keyDataset)), b.layout)
		if err != nil {
			span.RecordError(err)
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
		data, err := encodeDataset(d)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(keyDataset), data)
	})
}

func (b *BoltStore) Close() error {
	return b.db.Close()
}
