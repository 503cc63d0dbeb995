package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"homestash/internal/config"
	"homestash/internal/models"
	"homestash/internal/repository"
	"homestash/internal/storage"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const avatarMaxDimension = 512

// AvatarService processes and stores user profile pictures. Uploads are
// decoded, scaled down to fit 512px, and re-encoded as webp regardless of
// the input format.
type AvatarService struct {
	users repository.UserRepository
	store *storage.Store
	cfg   *config.Config
}

// NewAvatarService creates a new avatar service.
func NewAvatarService(users repository.UserRepository, store *storage.Store, cfg *config.Config) *AvatarService {
	return &AvatarService{users: users, store: store, cfg: cfg}
}

// SetAvatar processes an uploaded image and attaches it to the user,
// replacing any previous avatar file.
func (s *AvatarService) SetAvatar(ctx context.Context, userID uint, data []byte) (*models.User, error) {
	if len(data) == 0 {
		return nil, models.NewValidationError("An image is required")
	}
	if int64(len(data)) > s.cfg.MaxFileSizeBytes() {
		return nil, models.NewValidationError(fmt.Sprintf("Image exceeds the %dMB size limit", s.cfg.MaxFileSizeMB))
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, models.NewNotFoundError("User", userID)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, models.NewValidationError("Unsupported or corrupt image")
	}

	encoded, err := encodeAvatar(img)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	rel, err := s.store.SaveAvatar(userID, encoded)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	previous := user.Avatar
	user.Avatar = rel
	if err := s.users.Update(ctx, user); err != nil {
		_ = s.store.Delete(rel)
		return nil, err
	}
	if previous != "" {
		_ = s.store.Delete(previous)
	}
	return user, nil
}

// encodeAvatar scales the image to fit within 512px and encodes it as webp.
func encodeAvatar(img image.Image) ([]byte, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width > avatarMaxDimension || height > avatarMaxDimension {
		scale := float64(avatarMaxDimension) / float64(width)
		if height > width {
			scale = float64(avatarMaxDimension) / float64(height)
		}
		dst := image.NewRGBA(image.Rect(0, 0, int(float64(width)*scale), int(float64(height)*scale)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}
