package service

import (
	"context"
	"testing"

	"homestash/internal/models"
	"homestash/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newItemService(t *testing.T) (*ItemService, *recordingNotifier, uint) {
	t.Helper()
	db := setupServiceDB(t)
	user := createServiceUser(t, db, "owner@example.com")
	notifier := &recordingNotifier{}
	svc := NewItemService(db, repository.NewItemRepository(db), testConfig(), notifier)
	return svc, notifier, user.ID
}

func strPtr(s string) *string { return &s }

func TestCreateItemWithTagsAndHistory(t *testing.T) {
	svc, notifier, userID := newItemService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, userID, CreateItemInput{
		Name:          "Cordless Drill",
		Description:   "18V with two batteries",
		Location:      "Garage shelf B",
		CategoryNames: []string{"Tools", "tools", "  ", "Electronics"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Cordless Drill", item.Name)
	require.Len(t, item.Categories, 2, "duplicate and blank tag names collapse")

	history, err := svc.History(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.HistoryActionCreated, history[0].Action)
	assert.Equal(t, userID, history[0].UserID)

	events := notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "created", events[0].Action)
	assert.Equal(t, item.ID, events[0].ItemID)
}

func TestCreateItemValidation(t *testing.T) {
	svc, _, userID := newItemService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, userID, CreateItemInput{Name: "", Location: "Garage"})
	assertAppCode(t, err, models.CodeValidation)

	_, err = svc.Create(ctx, userID, CreateItemInput{Name: "Drill", Location: "   "})
	assertAppCode(t, err, models.CodeValidation)
}

func TestUpdateTrackedFieldWritesHistory(t *testing.T) {
	svc, notifier, userID := newItemService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, userID, CreateItemInput{Name: "Drill", Location: "Garage"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, item.ID, userID, UpdateItemInput{
		Location: strPtr("Attic"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Attic", updated.Location)
	assert.Equal(t, "Drill", updated.Name, "absent fields stay unchanged")

	history, err := svc.History(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "location", history[0].Field)
	assert.Equal(t, "Garage", history[0].OldValue)
	assert.Equal(t, "Attic", history[0].NewValue)

	events := notifier.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "updated", events[1].Action)
}

func TestUpdateUntrackedFieldIsSilent(t *testing.T) {
	svc, _, userID := newItemService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, userID, CreateItemInput{Name: "Drill", Location: "Garage"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, item.ID, userID, UpdateItemInput{
		Description: strPtr("Now with a spare chuck key"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Now with a spare chuck key", updated.Description)

	history, err := svc.History(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "description changes produce no history by default")
}

func TestUpdateNoopProducesNoHistory(t *testing.T) {
	svc, notifier, userID := newItemService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, userID, CreateItemInput{Name: "Drill", Location: "Garage"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, item.ID, userID, UpdateItemInput{
		Name:     strPtr("Drill"),
		Location: strPtr("Garage"),
	})
	require.NoError(t, err)

	history, err := svc.History(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "setting a field to its current value is a no-op")
	assert.Len(t, notifier.Events(), 1, "no update event for a no-op")
}

func TestUpdateTrackedFieldsConfigurable(t *testing.T) {
	db := setupServiceDB(t)
	user := createServiceUser(t, db, "owner@example.com")
	cfg := testConfig()
	cfg.HistoryTrackedFields = "name,location,description"
	svc := NewItemService(db, repository.NewItemRepository(db), cfg, &recordingNotifier{})
	ctx := context.Background()

	item, err := svc.Create(ctx, user.ID, CreateItemInput{Name: "Drill", Location: "Garage"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, item.ID, user.ID, UpdateItemInput{Description: strPtr("heavy")})
	require.NoError(t, err)

	history, err := svc.History(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "description", history[0].Field)
}

func TestUpdateReplacesCategories(t *testing.T) {
	svc, _, userID := newItemService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, userID, CreateItemInput{
		Name: "Drill", Location: "Garage", CategoryNames: []string{"Tools"},
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, item.ID, userID, UpdateItemInput{
		CategoryNames: &[]string{"Electronics", "Workshop"},
	})
	require.NoError(t, err)
	require.Len(t, updated.Categories, 2)
	names := []string{updated.Categories[0].Name, updated.Categories[1].Name}
	assert.ElementsMatch(t, []string{"Electronics", "Workshop"}, names)
}

func TestUpdateValidatesEmptyName(t *testing.T) {
	svc, _, userID := newItemService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, userID, CreateItemInput{Name: "Drill", Location: "Garage"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, item.ID, userID, UpdateItemInput{Name: strPtr("  ")})
	assertAppCode(t, err, models.CodeValidation)
}

func TestUpdateMissingItem(t *testing.T) {
	svc, _, userID := newItemService(t)
	_, err := svc.Update(context.Background(), 999, userID, UpdateItemInput{Name: strPtr("X")})
	assertAppCode(t, err, models.CodeNotFound)
}

func TestDeleteItemPublishesEvent(t *testing.T) {
	svc, notifier, userID := newItemService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, userID, CreateItemInput{Name: "Drill", Location: "Garage"})
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, item.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, deleted.ID)

	_, err = svc.Get(ctx, item.ID)
	assertAppCode(t, err, models.CodeNotFound)

	events := notifier.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "deleted", events[1].Action)

	// History outlives the item.
	history, err := svc.items.History(ctx, item.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, history)
}

func TestListTrimsToFirstPhoto(t *testing.T) {
	svc, _, userID := newItemService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, userID, CreateItemInput{Name: "Drill", Location: "Garage"})
	require.NoError(t, err)

	require.NoError(t, svc.db.Create(&models.Photo{ItemID: item.ID, FilePath: "items/1/a.jpg", DisplayOrder: 0}).Error)
	require.NoError(t, svc.db.Create(&models.Photo{ItemID: item.ID, FilePath: "items/1/b.jpg", DisplayOrder: 1}).Error)

	items, total, totalPages, err := svc.List(ctx, repository.ListFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, 1, totalPages)
	require.Len(t, items, 1)
	require.Len(t, items[0].Photos, 1, "listing carries only the first photo")
	assert.Equal(t, "items/1/a.jpg", items[0].Photos[0].FilePath)
}

func assertAppCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}
