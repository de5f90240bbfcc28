package journal

import (
	"context"

	"gorm.io/gorm"
)

// Store persists journal records.
type Store interface {
	Save(ctx context.Context, records []Record) error
}

// GormStore writes records through gorm.
type GormStore struct {
	db        *gorm.DB
	batchSize int
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, batchSize: 100}
}

// Migrate creates the journal table.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&Record{})
}

func (s *GormStore) Save(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(records, s.batchSize).Error
}
