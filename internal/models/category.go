package models

import "time"

// Category types. Predefined categories are seeded at startup and are
// immutable and undeletable; custom categories are created on demand.
const (
	CategoryTypePredefined = "predefined"
	CategoryTypeCustom     = "custom"
)

// Category is a named tag attachable to items. Name uniqueness is global,
// not per-user: two users resolving the same name share one row.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"unique;not null" json:"name"`
	Type      string    `gorm:"not null;default:custom" json:"type"`
	CreatedBy *uint     `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	// ItemCount is not persisted; computed at query time
	ItemCount int64 `gorm:"-" json:"item_count,omitempty"`
}

// ItemTag is the join row between an Item and a Category. The tag set of an
// item is always replaced wholesale on update, never partially patched.
type ItemTag struct {
	ItemID     uint `gorm:"primaryKey" json:"item_id"`
	CategoryID uint `gorm:"primaryKey" json:"category_id"`
}

// TableName keeps the join table name aligned with the many2many mapping on Item.
func (ItemTag) TableName() string {
	return "item_tags"
}
