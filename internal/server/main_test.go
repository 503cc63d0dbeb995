package server

import (
	"testing"

	"homestash/internal/config"
	"homestash/internal/middleware"
	"homestash/internal/models"
	"homestash/internal/notifications"
	"homestash/internal/repository"
	"homestash/internal/service"
	"homestash/internal/storage"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testServerConfig() *config.Config {
	return &config.Config{
		JWTSecret:            "test-secret",
		Port:                 "8420",
		Env:                  "test",
		UploadDir:            "",
		MaxFileSizeMB:        10,
		MaxPhotosPerItem:     5,
		HistoryTrackedFields: "name,location",
		AIModel:              "test-model",
	}
}

// setupTestServer builds a Server on an in-memory database with storage in
// a temp dir. Prometheus wiring is left nil; handlers do not touch it.
func setupTestServer(t *testing.T) *Server {
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

	cfg := testServerConfig()
	cfg.UploadDir = t.TempDir()
	middleware.InitMiddleware(cfg)

	store, err := storage.NewStore(cfg.UploadDir)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	s := &Server{
		config:       cfg,
		db:           db,
		store:        store,
		userRepo:     repository.NewUserRepository(db),
		itemRepo:     repository.NewItemRepository(db),
		categoryRepo: repository.NewCategoryRepository(db),
		photoRepo:    repository.NewPhotoRepository(db),
		notifier:     notifications.NewRedisNotifier(nil),
		hub:          notifications.NewHub(),
	}
	s.itemService = service.NewItemService(db, s.itemRepo, cfg, s.notifier)
	s.photoService = service.NewPhotoService(db, s.photoRepo, s.itemRepo, store, cfg)
	s.exportService = service.NewExportService(s.itemRepo)
	s.avatarService = service.NewAvatarService(s.userRepo, store, cfg)
	s.searchService = service.NewSearchService(s.itemRepo, nil, cfg)
	s.identifyService = service.NewIdentifyService(nil, cfg)
	return s
}

func createHandlerTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{Email: email, Password: string(hash), Name: "Handler Tester"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}
