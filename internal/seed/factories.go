package seed

import (
	"fmt"
	"math/rand"
	"time"

	"homestash/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var demoLocations = []string{
	"Garage shelf A", "Garage shelf B", "Attic", "Basement", "Kitchen cabinet",
	"Living room closet", "Bedroom wardrobe", "Office desk drawer", "Storage unit",
	"Under the stairs", "Shed", "Hallway cupboard",
}

// Factory builds demo entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	rand *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db, rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// CreateUsers persists n demo users sharing the password "password123".
func (f *Factory) CreateUsers(n int) ([]*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user := &models.User{
			Email:    fmt.Sprintf("demo%d@example.com", i+1),
			Password: string(hash),
			Name:     gofakeit.Name(),
		}
		if err := f.db.Create(user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// CreateItems persists n demo items spread across the given users, tagged
// with one or two of the predefined categories each.
func (f *Factory) CreateItems(users []*models.User, n int) ([]*models.Item, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("at least one user is required to create items")
	}

	var categories []models.Category
	if err := f.db.Find(&categories).Error; err != nil {
		return nil, err
	}

	items := make([]*models.Item, 0, n)
	for i := 0; i < n; i++ {
		owner := users[f.rand.Intn(len(users))]
		item := &models.Item{
			Name:        gofakeit.ProductName(),
			Description: gofakeit.ProductDescription(),
			Location:    demoLocations[f.rand.Intn(len(demoLocations))],
			CreatedBy:   owner.ID,
			CreatedAt:   time.Now().Add(-time.Duration(f.rand.Intn(180*24)) * time.Hour),
		}
		if err := f.db.Create(item).Error; err != nil {
			return nil, err
		}

		if len(categories) > 0 {
			picked := categories[f.rand.Intn(len(categories))]
			tags := []models.Category{picked}
			if f.rand.Intn(2) == 0 {
				other := categories[f.rand.Intn(len(categories))]
				if other.ID != picked.ID {
					tags = append(tags, other)
				}
			}
			if err := f.db.Model(item).Association("Categories").Append(tags); err != nil {
				return nil, err
			}
		}

		entry := models.ItemHistory{
			ItemID:    item.ID,
			UserID:    owner.ID,
			Action:    models.HistoryActionCreated,
			NewValue:  fmt.Sprintf("name=%s location=%s", item.Name, item.Location),
			CreatedAt: item.CreatedAt,
		}
		if err := f.db.Create(&entry).Error; err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
