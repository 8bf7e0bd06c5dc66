package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"wedding-seating/internal/models"
)

// FileStore keeps the dataset in a single JSON document on disk. Every call
// reads the file again; the mutex serializes writers within the process and
// saves go through a temp file and rename so readers never see a partial
// document.
type FileStore struct {
	mu     sync.RWMutex
	file   string
	layout models.Layout
}

// NewFileStore creates a new file-backed store
func NewFileStore(filePath string, layout models.Layout) (*FileStore, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file store needs a path")
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &FileStore{file: filePath, layout: layout}, nil
}

func (s *FileStore) Load(ctx context.Context) (*models.Dataset, error) {
	var span trace.Span
	_, span = tracer.Start(ctx, "FileStore.Load")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	d, err := s.read()
	if err != nil {
		span.RecordError(err)
	}
	return d, err
}

func (s *FileStore) Save(ctx context.Context, d *models.Dataset) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "FileStore.Save")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(d); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *FileStore) Update(ctx context.Context, fn func(*models.Dataset) error) error {
	var span trace.Span
	_, span = tracer.Start(ctx, "FileStore.Update")
	defer span.End()

	span.AddEvent("Lock")
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.read()
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := fn(d); err != nil {
		return err
	}
	if err := s.write(d); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() (*models.Dataset, error) {
	data, err := os.ReadFile(s.file)
	if os.IsNotExist(err) {
		return models.NewDataset(s.layout), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return decodeDataset(data, s.layout)
}

func (s *FileStore) write(d *models.Dataset) error {
	data, err := encodeDataset(d)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.file), filepath.Base(s.file)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.file); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}
