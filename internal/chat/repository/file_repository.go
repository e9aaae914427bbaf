package repository

import (
	"context"
	"errors"

	"realtime_chat_service/internal/chat/domain"

	"gorm.io/gorm"
)

// FileRepository uploaded file records
type FileRepository interface {
	AutoMigrate() error
	Create(ctx context.Context, f *domain.FileRecord) error
	FindByID(ctx context.Context, id string) (*domain.FileRecord, error)
}

type fileRepository struct {
	db *gorm.DB
}

// NewFileRepository create a FileRepository
func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.FileRecord{})
}

func (r *fileRepository) Create(ctx context.Context, f *domain.FileRecord) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *fileRepository) FindByID(ctx context.Context, id string) (*domain.FileRecord, error) {
	var f domain.FileRecord
	if err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrFileNotFound
		}
		return nil, err
	}
	return &f, nil
}
