package repository

import (
	"context"
	"errors"

	"homestash/internal/models"

	"gorm.io/gorm"
)

// PhotoRepository defines the interface for photo data operations
type PhotoRepository interface {
	Create(ctx context.Context, photo *models.Photo) error
	GetByID(ctx context.Context, id uint) (*models.Photo, error)
	CountByItem(ctx context.Context, itemID uint) (int64, error)
	Update(ctx context.Context, photo *models.Photo) error
	Delete(ctx context.Context, id uint) error
}

type photoRepository struct {
	db *gorm.DB
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &photoRepository{db: db}
}

func (r *photoRepository) Create(ctx context.Context, photo *models.Photo) error {
	return r.db.WithContext(ctx).Create(photo).Error
}

func (r *photoRepository) GetByID(ctx context.Context, id uint) (*models.Photo, error) {
	var photo models.Photo
	err := r.db.WithContext(ctx).First(&photo, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Photo", id)
		}
		return nil, err
	}
	return &photo, nil
}

func (r *photoRepository) CountByItem(ctx context.Context, itemID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Photo{}).
		Where("item_id = ?", itemID).Count(&count).Error
	return count, err
}

func (r *photoRepository) Update(ctx context.Context, photo *models.Photo) error {
	return r.db.WithContext(ctx).Save(photo).Error
}

func (r *photoRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Photo{}, id).Error
}
