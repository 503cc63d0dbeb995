// Package seed provides database seeding utilities for development and
// testing: the predefined category set and fake demo inventories.
package seed

import (
	_ "embed"
	"fmt"
	"log"

	"homestash/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed categories.yml
var categoriesYAML []byte

type categoriesFile struct {
	Categories []string `yaml:"categories"`
}

// PredefinedCategoryNames returns the built-in category names in file order.
func PredefinedCategoryNames() ([]string, error) {
	var parsed categoriesFile
	if err := yaml.Unmarshal(categoriesYAML, &parsed); err != nil {
		return nil, fmt.Errorf("parse predefined categories: %w", err)
	}
	return parsed.Categories, nil
}

// PredefinedCategories upserts the built-in category set. Safe to run on
// every startup; existing rows are left untouched, so a name that was
// already created as custom stays custom.
func PredefinedCategories(db *gorm.DB) error {
	names, err := PredefinedCategoryNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		category := models.Category{
			Name: name,
			Type: models.CategoryTypePredefined,
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&category).Error
		if err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
	}
	return nil
}

// Options configuration for the demo seeder
type Options struct {
	NumUsers    int
	NumItems    int
	ShouldClean bool
}

// Seed populates the database with demo users and inventory items.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding database with %d users and %d items...", opts.NumUsers, opts.NumItems)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway")
		}
	}

	if err := PredefinedCategories(db); err != nil {
		return err
	}

	f := NewFactory(db)
	users, err := f.CreateUsers(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("Created %d demo users", len(users))

	items, err := f.CreateItems(users, opts.NumItems)
	if err != nil {
		return fmt.Errorf("failed to create items: %w", err)
	}
	log.Printf("Created %d demo items", len(items))

	return nil
}

func clearData(db *gorm.DB) error {
	for _, model := range []interface{}{
		&models.ItemHistory{},
		&models.Photo{},
		&models.ItemTag{},
		&models.Item{},
		&models.Category{},
		&models.User{},
	} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
