// Package service contains the application's business logic, sitting
// between the HTTP handlers and the repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"homestash/internal/config"
	"homestash/internal/models"
	"homestash/internal/notifications"
	"homestash/internal/observability"
	"homestash/internal/repository"

	"gorm.io/gorm"
)

// CreateItemInput carries the fields for a new item.
type CreateItemInput struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Location      string   `json:"location"`
	CategoryNames []string `json:"categories"`
}

// UpdateItemInput carries a partial item update. Nil pointers mean
// "leave unchanged"; a pointer to the current value is a no-op and
// produces no history.
type UpdateItemInput struct {
	Name          *string   `json:"name"`
	Description   *string   `json:"description"`
	Location      *string   `json:"location"`
	CategoryNames *[]string `json:"categories"`
}

// ItemService implements the item lifecycle: creation, partial update
// with per-field change history, listing, and deletion.
type ItemService struct {
	db       *gorm.DB
	items    repository.ItemRepository
	cfg      *config.Config
	notifier notifications.Notifier
}

// NewItemService creates a new item service.
func NewItemService(db *gorm.DB, items repository.ItemRepository, cfg *config.Config, notifier notifications.Notifier) *ItemService {
	return &ItemService{db: db, items: items, cfg: cfg, notifier: notifier}
}

// Create inserts an item, resolves its category names to rows, and writes
// the initial history entry, all in one transaction.
func (s *ItemService) Create(ctx context.Context, userID uint, input CreateItemInput) (*models.Item, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Location = strings.TrimSpace(input.Location)
	if input.Name == "" {
		return nil, models.NewValidationError("Item name is required")
	}
	if input.Location == "" {
		return nil, models.NewValidationError("Item location is required")
	}

	var created models.Item
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories, err := resolveCategoryNames(tx, input.CategoryNames, userID)
		if err != nil {
			return err
		}

		created = models.Item{
			Name:        input.Name,
			Description: input.Description,
			Location:    input.Location,
			CreatedBy:   userID,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}
		if len(categories) > 0 {
			if err := tx.Model(&created).Association("Categories").Append(categories); err != nil {
				return err
			}
		}

		entry := models.ItemHistory{
			ItemID:   created.ID,
			UserID:   userID,
			Action:   models.HistoryActionCreated,
			NewValue: fmt.Sprintf("name=%s location=%s", created.Name, created.Location),
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	observability.ItemEventsTotal.WithLabelValues("created").Inc()
	s.notifier.PublishItemEvent(ctx, notifications.ItemEvent{
		Action:   "created",
		ItemID:   created.ID,
		ItemName: created.Name,
		UserID:   userID,
	})

	return s.items.GetByID(ctx, created.ID)
}

// Update applies a partial update and appends one history row per tracked
// field whose value actually changed. Untracked fields update silently.
func (s *ItemService) Update(ctx context.Context, itemID, userID uint, input UpdateItemInput) (*models.Item, error) {
	tracked := s.cfg.TrackedFields()

	var changed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.Item
		if err := tx.First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Item", itemID)
			}
			return err
		}

		updates := make(map[string]interface{})
		var history []models.ItemHistory

		apply := func(field, oldValue string, newValue *string) {
			if newValue == nil {
				return
			}
			value := strings.TrimSpace(*newValue)
			if value == oldValue {
				return
			}
			updates[field] = value
			if tracked[field] {
				history = append(history, models.ItemHistory{
					ItemID:   itemID,
					UserID:   userID,
					Action:   models.HistoryActionUpdated,
					Field:    field,
					OldValue: oldValue,
					NewValue: value,
				})
			}
		}

		if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
			return models.NewValidationError("Item name cannot be empty")
		}
		if input.Location != nil && strings.TrimSpace(*input.Location) == "" {
			return models.NewValidationError("Item location cannot be empty")
		}

		apply("name", item.Name, input.Name)
		apply("location", item.Location, input.Location)
		if input.Description != nil && *input.Description != item.Description {
			updates["description"] = *input.Description
			if tracked["description"] {
				history = append(history, models.ItemHistory{
					ItemID:   itemID,
					UserID:   userID,
					Action:   models.HistoryActionUpdated,
					Field:    "description",
					OldValue: item.Description,
					NewValue: *input.Description,
				})
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(&item).Updates(updates).Error; err != nil {
				return err
			}
			changed = true
		}

		if input.CategoryNames != nil {
			categories, err := resolveCategoryNames(tx, *input.CategoryNames, userID)
			if err != nil {
				return err
			}
			if err := tx.Model(&item).Association("Categories").Replace(categories); err != nil {
				return err
			}
			changed = true
		}

		for i := range history {
			if err := tx.Create(&history[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		observability.ItemEventsTotal.WithLabelValues("updated").Inc()
		item, err := s.items.GetByID(ctx, itemID)
		if err != nil {
			return nil, err
		}
		s.notifier.PublishItemEvent(ctx, notifications.ItemEvent{
			Action:   "updated",
			ItemID:   item.ID,
			ItemName: item.Name,
			UserID:   userID,
		})
		return item, nil
	}
	return s.items.GetByID(ctx, itemID)
}

// Delete removes an item. The database rows go atomically; the photo files
// on disk are cleaned up best-effort afterwards by the caller's photo
// service, since a missed file is recoverable and a dangling row is not.
func (s *ItemService) Delete(ctx context.Context, itemID, userID uint) (*models.Item, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.items.Delete(ctx, itemID); err != nil {
		return nil, err
	}

	observability.ItemEventsTotal.WithLabelValues("deleted").Inc()
	s.notifier.PublishItemEvent(ctx, notifications.ItemEvent{
		Action:   "deleted",
		ItemID:   item.ID,
		ItemName: item.Name,
		UserID:   userID,
	})
	return item, nil
}

// Get returns a single item with associations.
func (s *ItemService) Get(ctx context.Context, itemID uint) (*models.Item, error) {
	return s.items.GetByID(ctx, itemID)
}

// List returns a filtered page of items plus paging metadata. Listed items
// carry at most their first photo; the full set comes with the detail view.
func (s *ItemService) List(ctx context.Context, filters repository.ListFilters) ([]*models.Item, int64, int, error) {
	items, total, err := s.items.List(ctx, filters)
	if err != nil {
		return nil, 0, 0, err
	}
	for _, item := range items {
		if len(item.Photos) > 1 {
			item.Photos = item.Photos[:1]
		}
	}
	limit := filters.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return items, total, totalPages, nil
}

// History returns an item's change log, newest first. The item must exist.
func (s *ItemService) History(ctx context.Context, itemID uint) ([]*models.ItemHistory, error) {
	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		return nil, err
	}
	return s.items.History(ctx, itemID)
}

// resolveCategoryNames maps a list of names to category rows inside the
// caller's transaction, deduplicating repeats and skipping blanks.
func resolveCategoryNames(tx *gorm.DB, names []string, userID uint) ([]models.Category, error) {
	seen := make(map[string]bool)
	var categories []models.Category
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		category, err := repository.ResolveCategory(tx, name, userID)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}
