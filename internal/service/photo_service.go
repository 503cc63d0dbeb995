package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"homestash/internal/config"
	"homestash/internal/models"
	"homestash/internal/observability"
	"homestash/internal/repository"
	"homestash/internal/storage"

	"gorm.io/gorm"
)

var allowedPhotoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// PhotoUpload is one file in an upload batch.
type PhotoUpload struct {
	Filename    string
	Data        []byte
	Annotations string
}

// UpdatePhotoInput carries a partial photo metadata update.
type UpdatePhotoInput struct {
	Annotations  *string `json:"annotations"`
	DisplayOrder *int    `json:"display_order"`
}

// PhotoService manages item photo files and their metadata rows. Files are
// written to disk before rows are committed, so a failed request can leave
// orphan files but never a row pointing at nothing.
type PhotoService struct {
	db     *gorm.DB
	photos repository.PhotoRepository
	items  repository.ItemRepository
	store  *storage.Store
	cfg    *config.Config
}

// NewPhotoService creates a new photo service.
func NewPhotoService(db *gorm.DB, photos repository.PhotoRepository, items repository.ItemRepository, store *storage.Store, cfg *config.Config) *PhotoService {
	return &PhotoService{db: db, photos: photos, items: items, store: store, cfg: cfg}
}

// Upload attaches a batch of photos to an item. The whole batch is checked
// against the per-item ceiling before anything is written; on any failure
// the already-written files are removed.
func (s *PhotoService) Upload(ctx context.Context, itemID uint, uploads []PhotoUpload) ([]*models.Photo, error) {
	if len(uploads) == 0 {
		return nil, models.NewValidationError("At least one photo is required")
	}
	for _, up := range uploads {
		ext := strings.ToLower(fileExt(up.Filename))
		if !allowedPhotoExtensions[ext] {
			return nil, models.NewValidationError(fmt.Sprintf("Unsupported photo type %q", ext))
		}
		if int64(len(up.Data)) > s.cfg.MaxFileSizeBytes() {
			return nil, models.NewValidationError(fmt.Sprintf("Photo %s exceeds the %dMB size limit", up.Filename, s.cfg.MaxFileSizeMB))
		}
	}

	var written []string
	cleanup := func() {
		for _, rel := range written {
			_ = s.store.Delete(rel)
		}
	}

	var created []*models.Photo
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.Item
		if err := tx.First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Item", itemID)
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.Photo{}).Where("item_id = ?", itemID).Count(&count).Error; err != nil {
			return err
		}
		if count+int64(len(uploads)) > int64(s.cfg.MaxPhotosPerItem) {
			return models.NewLimitExceededError(fmt.Sprintf(
				"Item already has %d of %d photos; %d more would exceed the limit",
				count, s.cfg.MaxPhotosPerItem, len(uploads)))
		}

		for i, up := range uploads {
			rel, size, err := s.store.SaveItemPhoto(itemID, up.Filename, up.Data)
			if err != nil {
				return models.NewInternalError(err)
			}
			written = append(written, rel)

			photo := &models.Photo{
				ItemID:       itemID,
				FilePath:     rel,
				SizeBytes:    size,
				Annotations:  up.Annotations,
				DisplayOrder: int(count) + i,
			}
			if err := tx.Create(photo).Error; err != nil {
				return err
			}
			created = append(created, photo)
		}
		return nil
	})
	if err != nil {
		cleanup()
		observability.PhotoUploadsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	observability.PhotoUploadsTotal.WithLabelValues("success").Inc()
	return created, nil
}

// Update applies a partial metadata update to a photo.
func (s *PhotoService) Update(ctx context.Context, photoID uint, input UpdatePhotoInput) (*models.Photo, error) {
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if input.Annotations != nil {
		photo.Annotations = *input.Annotations
	}
	if input.DisplayOrder != nil {
		if *input.DisplayOrder < 0 {
			return nil, models.NewValidationError("display_order cannot be negative")
		}
		photo.DisplayOrder = *input.DisplayOrder
	}
	if err := s.photos.Update(ctx, photo); err != nil {
		return nil, err
	}
	return photo, nil
}

// Delete removes a photo's file and row, returning the removed photo. A
// file already missing on disk does not block removing the row.
func (s *PhotoService) Delete(ctx context.Context, photoID uint) (*models.Photo, error) {
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, err
	}
	if err := s.store.Delete(photo.FilePath); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.photos.Delete(ctx, photoID); err != nil {
		return nil, err
	}
	return photo, nil
}

// File returns the raw bytes of a photo's stored file.
func (s *PhotoService) File(ctx context.Context, photoID uint) (*models.Photo, []byte, error) {
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.store.ReadFile(photo.FilePath)
	if err != nil {
		return nil, nil, models.NewNotFoundError("Photo file", photoID)
	}
	return photo, data, nil
}

// CleanupItemFiles removes an item's photo directory after the item is
// deleted. Best-effort.
func (s *PhotoService) CleanupItemFiles(itemID uint) {
	_ = s.store.RemoveItemDir(itemID)
}

func fileExt(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return name[idx:]
}
