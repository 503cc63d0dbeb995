package repository

import (
	"context"
	"errors"
	"strings"

	"homestash/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	Resolve(ctx context.Context, name string, userID uint) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	Delete(ctx context.Context, id uint) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Resolve implements find-or-create-by-name. The category namespace is
// global, not per-user: the second resolver of a name reuses the first row.
func (r *categoryRepository) Resolve(ctx context.Context, name string, userID uint) (*models.Category, error) {
	return ResolveCategory(r.db.WithContext(ctx), name, userID)
}

// ResolveCategory is the transaction-friendly resolver used both directly
// and from inside item write transactions. Concurrent resolutions of a
// brand-new name race on the unique index; ON CONFLICT DO NOTHING plus a
// re-fetch makes the loser reuse the winner's row.
func ResolveCategory(tx *gorm.DB, name string, userID uint) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.NewValidationError("Category name is required")
	}

	var category models.Category
	err := tx.Where("name = ?", name).First(&category).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category = models.Category{
		Name:      name,
		Type:      models.CategoryTypeCustom,
		CreatedBy: &userID,
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&category)
	if res.Error != nil {
		if !isUniqueViolation(res.Error) {
			return nil, res.Error
		}
		// Lost the race on an engine that surfaced the violation anyway.
	}
	if res.Error != nil || res.RowsAffected == 0 {
		var existing models.Category
		if err := tx.Where("name = ?", name).First(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	return &category, nil
}

// isUniqueViolation detects a unique-constraint violation from postgres
// (SQLSTATE 23505) or sqlite (used by the test suite).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	err := r.db.WithContext(ctx).Create(category).Error
	if err != nil && isUniqueViolation(err) {
		return models.NewConflictError("Category already exists")
	}
	return err
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// List returns all categories with their item usage counts, ordered by name.
func (r *categoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	if err != nil {
		return nil, err
	}
	for _, category := range categories {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.ItemTag{}).
			Where("category_id = ?", category.ID).Count(&count).Error; err != nil {
			return nil, err
		}
		category.ItemCount = count
	}
	return categories, nil
}

// Delete removes a custom category and detaches its item links. Predefined
// categories are immutable and undeletable by any user.
func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Category", id)
			}
			return err
		}
		if category.Type == models.CategoryTypePredefined {
			return models.NewForbiddenError("Predefined categories cannot be deleted")
		}
		if err := tx.Where("category_id = ?", id).Delete(&models.ItemTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, id).Error
	})
}
