package service

import (
	"context"
	"fmt"
	"strings"

	"homestash/internal/ai"
	"homestash/internal/config"
	"homestash/internal/models"
	"homestash/internal/observability"
)

var identifyMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// IdentifyService runs photo identification through the AI client.
type IdentifyService struct {
	client *ai.Client
	cfg    *config.Config
}

// NewIdentifyService creates a new identify service. client may be nil
// when no AI endpoint is configured.
func NewIdentifyService(client *ai.Client, cfg *config.Config) *IdentifyService {
	return &IdentifyService{client: client, cfg: cfg}
}

// Identify asks the model to name the item in a photo. Unlike search there
// is no local fallback; without a configured endpoint the feature is
// unavailable.
func (s *IdentifyService) Identify(ctx context.Context, imageData []byte, mimeType string) (*ai.Identification, error) {
	if s.client == nil || !s.cfg.AIConfigured() {
		return nil, models.NewServiceUnavailableError("Photo identification is not configured")
	}
	if len(imageData) == 0 {
		return nil, models.NewValidationError("An image is required")
	}
	if int64(len(imageData)) > s.cfg.MaxFileSizeBytes() {
		return nil, models.NewValidationError(fmt.Sprintf("Image exceeds the %dMB size limit", s.cfg.MaxFileSizeMB))
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if !identifyMimeTypes[mimeType] {
		return nil, models.NewValidationError(fmt.Sprintf("Unsupported image type %q", mimeType))
	}

	ident, err := s.client.IdentifyItem(ctx, imageData, mimeType)
	if err != nil {
		observability.AIRequestsTotal.WithLabelValues("identify", "failure").Inc()
		return nil, models.NewServiceUnavailableError("Photo identification is temporarily unavailable")
	}
	observability.AIRequestsTotal.WithLabelValues("identify", "success").Inc()
	return ident, nil
}
