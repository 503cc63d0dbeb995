package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"homestash/internal/models"
	"homestash/internal/observability"

	"gorm.io/gorm"
)

// ListFilters narrows and pages the item listing. Zero values mean
// "no filter"; Page and Limit are normalized by the repository.
type ListFilters struct {
	Query     string
	Category  string
	CreatedBy uint
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	Limit     int
	SortBy    string
	SortDir   string
}

// ItemRepository defines the interface for item data operations
type ItemRepository interface {
	Create(ctx context.Context, item *models.Item) error
	GetByID(ctx context.Context, id uint) (*models.Item, error)
	List(ctx context.Context, filters ListFilters) ([]*models.Item, int64, error)
	ListAll(ctx context.Context) ([]*models.Item, error)
	ListAllByUser(ctx context.Context, userID uint) ([]*models.Item, error)
	Delete(ctx context.Context, id uint) error
	History(ctx context.Context, itemID uint) ([]*models.ItemHistory, error)
	AppendHistory(ctx context.Context, entry *models.ItemHistory) error
}

type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *models.Item) error {
	done := observability.TrackQuery("create", "items")
	defer done()
	return r.db.WithContext(ctx).Create(item).Error
}

// GetByID loads an item with its creator, categories, and photos ordered
// by display position.
func (r *itemRepository) GetByID(ctx context.Context, id uint) (*models.Item, error) {
	done := observability.TrackQuery("get", "items")
	defer done()

	var item models.Item
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Categories").
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC, id ASC")
		}).
		First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Item", id)
		}
		return nil, err
	}
	return &item, nil
}

var sortColumns = map[string]string{
	"created_at": "items.created_at",
	"updated_at": "items.updated_at",
	"name":       "items.name",
}

// List returns a filtered, paginated page of items plus the total match
// count before paging. Text search is case-insensitive over name,
// description, and location; LOWER/LIKE keeps the query portable across
// postgres and the sqlite test databases.
func (r *itemRepository) List(ctx context.Context, filters ListFilters) ([]*models.Item, int64, error) {
	done := observability.TrackQuery("list", "items")
	defer done()

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.Limit < 1 || filters.Limit > 100 {
		filters.Limit = 20
	}

	// Chained GORM statements are stateful, so the filter set is applied to
	// fresh queries for the count and the page fetch.
	applyFilters := func(query *gorm.DB) *gorm.DB {
		if filters.Query != "" {
			pattern := "%" + filters.Query + "%"
			query = query.Where(
				"LOWER(items.name) LIKE LOWER(?) OR LOWER(items.description) LIKE LOWER(?) OR LOWER(items.location) LIKE LOWER(?)",
				pattern, pattern, pattern)
		}
		if filters.Category != "" {
			query = query.
				Joins("JOIN item_tags ON item_tags.item_id = items.id").
				Joins("JOIN categories ON categories.id = item_tags.category_id").
				Where("categories.name = ?", filters.Category)
		}
		if filters.CreatedBy != 0 {
			query = query.Where("items.created_by = ?", filters.CreatedBy)
		}
		if filters.DateFrom != nil {
			query = query.Where("items.created_at >= ?", *filters.DateFrom)
		}
		if filters.DateTo != nil {
			query = query.Where("items.created_at <= ?", *filters.DateTo)
		}
		return query
	}

	var total int64
	if err := applyFilters(r.db.WithContext(ctx).Model(&models.Item{})).
		Distinct("items.id").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[filters.SortBy]
	if !ok {
		column = "items.created_at"
	}
	direction := "DESC"
	if filters.SortDir == "asc" {
		direction = "ASC"
	}

	var items []*models.Item
	err := applyFilters(r.db.WithContext(ctx).Model(&models.Item{})).
		Distinct("items.*").
		Order(fmt.Sprintf("%s %s", column, direction)).
		Limit(filters.Limit).
		Offset((filters.Page - 1) * filters.Limit).
		Preload("Creator").
		Preload("Categories").
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC, id ASC")
		}).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListAll returns every item with associations, used by the exporters.
func (r *itemRepository) ListAll(ctx context.Context) ([]*models.Item, error) {
	done := observability.TrackQuery("list_all", "items")
	defer done()

	var items []*models.Item
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Categories").
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC, id ASC")
		}).
		Order("items.id ASC").
		Find(&items).Error
	return items, err
}

// ListAllByUser returns a user's items with categories loaded, used as the
// candidate set for semantic search.
func (r *itemRepository) ListAllByUser(ctx context.Context, userID uint) ([]*models.Item, error) {
	var items []*models.Item
	err := r.db.WithContext(ctx).
		Where("created_by = ?", userID).
		Preload("Categories").
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC, id ASC")
		}).
		Order("items.id ASC").
		Find(&items).Error
	return items, err
}

// Delete removes the item row with its tag links and photo rows in one
// transaction. History rows are kept; they outlive the item.
func (r *itemRepository) Delete(ctx context.Context, id uint) error {
	done := observability.TrackQuery("delete", "items")
	defer done()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Item{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Item", id)
		}
		if err := tx.Where("item_id = ?", id).Delete(&models.ItemTag{}).Error; err != nil {
			return err
		}
		return tx.Where("item_id = ?", id).Delete(&models.Photo{}).Error
	})
}

// History returns an item's change log, newest first.
func (r *itemRepository) History(ctx context.Context, itemID uint) ([]*models.ItemHistory, error) {
	var entries []*models.ItemHistory
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Preload("User").
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	return entries, err
}

func (r *itemRepository) AppendHistory(ctx context.Context, entry *models.ItemHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
