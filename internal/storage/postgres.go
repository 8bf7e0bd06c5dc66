package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"wedding-seating/internal/models"
)

const datasetRowID = 1

type datasetDocument struct {
	ID        uint      `gorm:"primaryKey"`
	Version   int64     `gorm:"not null"`
	Document  string    `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (datasetDocument) TableName() string {
	return "dataset_documents"
}

// PostgresStore keeps the dataset in one row of dataset_documents. Update
// locks that row with SELECT ... FOR UPDATE for the length of the transaction.
type PostgresStore struct {
	db     *gorm.DB
	layout models.Layout
}

// NewPostgresStore connects with dsn and migrates the schema
func NewPostgresStore(dsn string, layout models.Layout) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres store needs a DSN")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return NewPostgresStoreWithDB(db, layout)
}

// NewPostgresStoreWithDB uses an existing gorm connection
func NewPostgresStoreWithDB(db *gorm.DB, layout models.Layout) (*PostgresStore, error) {
	if err := db.AutoMigrate(&datasetDocument{}); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return &PostgresStore{db: db, layout: layout}, nil
}

func (p *PostgresStore) Load(ctx context.Context) (*models.Dataset, error) {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "PostgresStore.Load")
	defer span.End()

	var doc datasetDocument
	err := p.db.WithContext(ctx).First(&doc, datasetRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewDataset(p.layout), nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return decodeDataset([]byte(doc.Document), p.layout)
}

func (p *PostgresStore) Save(ctx context.Context, d *models.Dataset) error {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "PostgresStore.Save")
	defer span.End()

	data, err := encodeDataset(d)
	if err != nil {
		return err
	}
	doc := datasetDocument{ID: datasetRowID, Version: 1, Document: string(data), UpdatedAt: time.Now().UTC()}
	err = p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"version":    gorm.Expr("dataset_documents.version + 1"),
			"document":   doc.Document,
			"updated_at": doc.UpdatedAt,
		}),
	}).Create(&doc).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save dataset: %w", err)
	}
	return nil
}

func (p *PostgresStore) Update(ctx context.Context, fn func(*models.Dataset) error) error {
	var span trace.Span
	ctx, span = tracer.Start(ctx, "PostgresStore.Update")
	defer span.End()

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed, err := encodeDataset(models.NewDataset(p.layout))
		if err != nil {
			return err
		}
		// Make sure there is a row to lock.
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&datasetDocument{
			ID: datasetRowID, Version: 0, Document: string(seed), UpdatedAt: time.Now().UTC(),
		}).Error; err != nil {
			return fmt.Errorf("failed to seed dataset: %w", err)
		}

		var doc datasetDocument
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&doc, datasetRowID).Error; err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to lock dataset: %w", err)
		}
		d, err := decodeDataset([]byte(doc.Document), p.layout)
		if err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}

		data, err := encodeDataset(d)
		if err != nil {
			return err
		}
		doc.Version++
		doc.Document = string(data)
		doc.UpdatedAt = time.Now().UTC()
		return tx.Save(&doc).Error
	})
}

func (p *PostgresStore) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
