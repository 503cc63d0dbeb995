package service

import (
	"context"
	"sync"
	"testing"

	"homestash/internal/config"
	"homestash/internal/models"
	"homestash/internal/notifications"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Item{},
		&models.ItemTag{},
		&models.Photo{},
		&models.ItemHistory{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:            "test-secret",
		Port:                 "8420",
		Env:                  "test",
		MaxFileSizeMB:        10,
		MaxPhotosPerItem:     3,
		HistoryTrackedFields: "name,location",
		AIModel:              "gpt-4o-mini",
	}
}

// recordingNotifier captures published events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notifications.ItemEvent
}

func (r *recordingNotifier) PublishItemEvent(_ context.Context, event notifications.ItemEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) Events() []notifications.ItemEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notifications.ItemEvent, len(r.events))
	copy(out, r.events)
	return out
}

func createServiceUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Password: "hashed", Name: "Service Tester"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}
