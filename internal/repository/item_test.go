package repository

import (
	"context"
	"testing"
	"time"

	"homestash/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedItem(t *testing.T, db *gorm.DB, userID uint, name, location string, createdAt time.Time, categories ...models.Category) *models.Item {
	t.Helper()
	item := &models.Item{
		Name:      name,
		Location:  location,
		CreatedBy: userID,
		CreatedAt: createdAt,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create item: %v", err)
	}
	for _, c := range categories {
		if err := db.Create(&models.ItemTag{ItemID: item.ID, CategoryID: c.ID}).Error; err != nil {
			t.Fatalf("tag item: %v", err)
		}
	}
	return item
}

func TestGetByIDLoadsAssociations(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "u@example.com")
	repo := NewItemRepository(db)
	ctx := context.Background()

	tools := models.Category{Name: "Tools", Type: models.CategoryTypeCustom}
	require.NoError(t, db.Create(&tools).Error)
	item := seedItem(t, db, user.ID, "Drill", "Garage", time.Now(), tools)

	// Photos out of display order on purpose
	require.NoError(t, db.Create(&models.Photo{ItemID: item.ID, FilePath: "items/1/b.jpg", DisplayOrder: 1}).Error)
	require.NoError(t, db.Create(&models.Photo{ItemID: item.ID, FilePath: "items/1/a.jpg", DisplayOrder: 0}).Error)

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Drill", got.Name)
	assert.Equal(t, user.ID, got.Creator.ID)
	require.Len(t, got.Categories, 1)
	assert.Equal(t, "Tools", got.Categories[0].Name)
	require.Len(t, got.Photos, 2)
	assert.Equal(t, 0, got.Photos[0].DisplayOrder)
	assert.Equal(t, 1, got.Photos[1].DisplayOrder)
}

func TestGetByIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)

	_, err := repo.GetByID(context.Background(), 404)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestListFilters(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	repo := NewItemRepository(db)
	ctx := context.Background()

	kitchen := models.Category{Name: "Kitchen", Type: models.CategoryTypePredefined}
	require.NoError(t, db.Create(&kitchen).Error)

	now := time.Now()
	seedItem(t, db, alice.ID, "Blender", "Kitchen counter", now.Add(-48*time.Hour), kitchen)
	seedItem(t, db, alice.ID, "Winter Boots", "Hallway closet", now.Add(-24*time.Hour))
	seedItem(t, db, bob.ID, "Blendtec Jar", "Kitchen cabinet", now)

	t.Run("text search is case-insensitive", func(t *testing.T) {
		items, total, err := repo.List(ctx, ListFilters{Query: "blend"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, items, 2)
	})

	t.Run("text search matches location", func(t *testing.T) {
		items, total, err := repo.List(ctx, ListFilters{Query: "hallway"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, "Winter Boots", items[0].Name)
	})

	t.Run("text search matches description", func(t *testing.T) {
		require.NoError(t, db.Model(&models.Item{}).
			Where("name = ?", "Winter Boots").
			Update("description", "Insulated, size 42").Error)

		_, total, err := repo.List(ctx, ListFilters{Query: "insulated"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("category filter", func(t *testing.T) {
		items, total, err := repo.List(ctx, ListFilters{Category: "Kitchen"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Equal(t, "Blender", items[0].Name)
	})

	t.Run("creator filter", func(t *testing.T) {
		_, total, err := repo.List(ctx, ListFilters{CreatedBy: bob.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("date range", func(t *testing.T) {
		from := now.Add(-36 * time.Hour)
		_, total, err := repo.List(ctx, ListFilters{DateFrom: &from})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)

		to := now.Add(-36 * time.Hour)
		_, total, err = repo.List(ctx, ListFilters{DateTo: &to})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("default sort is newest first", func(t *testing.T) {
		items, _, err := repo.List(ctx, ListFilters{})
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "Blendtec Jar", items[0].Name)
		assert.Equal(t, "Blender", items[2].Name)
	})

	t.Run("sort by name ascending", func(t *testing.T) {
		items, _, err := repo.List(ctx, ListFilters{SortBy: "name", SortDir: "asc"})
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "Blender", items[0].Name)
	})

	t.Run("pagination", func(t *testing.T) {
		items, total, err := repo.List(ctx, ListFilters{Page: 2, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, items, 1)
	})

	t.Run("unknown sort column falls back", func(t *testing.T) {
		_, _, err := repo.List(ctx, ListFilters{SortBy: "password; DROP TABLE items"})
		require.NoError(t, err)
	})
}

func TestDeleteCascadesRowsButKeepsHistory(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "u@example.com")
	repo := NewItemRepository(db)
	ctx := context.Background()

	tools := models.Category{Name: "Tools", Type: models.CategoryTypeCustom}
	require.NoError(t, db.Create(&tools).Error)
	item := seedItem(t, db, user.ID, "Drill", "Garage", time.Now(), tools)
	require.NoError(t, db.Create(&models.Photo{ItemID: item.ID, FilePath: "items/1/a.jpg"}).Error)
	require.NoError(t, repo.AppendHistory(ctx, &models.ItemHistory{
		ItemID: item.ID, UserID: user.ID, Action: models.HistoryActionCreated,
	}))

	require.NoError(t, repo.Delete(ctx, item.ID))

	var itemCount, tagCount, photoCount, historyCount int64
	db.Model(&models.Item{}).Where("id = ?", item.ID).Count(&itemCount)
	db.Model(&models.ItemTag{}).Where("item_id = ?", item.ID).Count(&tagCount)
	db.Model(&models.Photo{}).Where("item_id = ?", item.ID).Count(&photoCount)
	db.Model(&models.ItemHistory{}).Where("item_id = ?", item.ID).Count(&historyCount)

	assert.Equal(t, int64(0), itemCount)
	assert.Equal(t, int64(0), tagCount)
	assert.Equal(t, int64(0), photoCount)
	assert.Equal(t, int64(1), historyCount, "history must survive item deletion")

	// The category row is untouched.
	var categoryCount int64
	db.Model(&models.Category{}).Count(&categoryCount)
	assert.Equal(t, int64(1), categoryCount)
}

func TestDeleteMissingItem(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)

	err := repo.Delete(context.Background(), 12345)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestHistoryNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "u@example.com")
	repo := NewItemRepository(db)
	ctx := context.Background()

	item := seedItem(t, db, user.ID, "Drill", "Garage", time.Now())

	base := time.Now().Add(-time.Hour)
	for i, entry := range []models.ItemHistory{
		{ItemID: item.ID, UserID: user.ID, Action: models.HistoryActionCreated},
		{ItemID: item.ID, UserID: user.ID, Action: models.HistoryActionUpdated, Field: "location", OldValue: "Garage", NewValue: "Attic"},
		{ItemID: item.ID, UserID: user.ID, Action: models.HistoryActionUpdated, Field: "name", OldValue: "Drill", NewValue: "Hammer Drill"},
	} {
		entry.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.AppendHistory(ctx, &entry))
	}

	entries, err := repo.History(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "name", entries[0].Field)
	assert.Equal(t, "location", entries[1].Field)
	assert.Equal(t, models.HistoryActionCreated, entries[2].Action)
	assert.Equal(t, user.ID, entries[0].User.ID, "history entries carry the acting user")
}
