package models

import "time"

// Item is a tracked physical possession. It owns its photos and tag links,
// both removed when the item is deleted. History rows are independent and
// survive deletion.
type Item struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"not null" json:"name"`
	Description string     `json:"description"`
	Location    string     `gorm:"not null" json:"location"`
	CreatedBy   uint       `gorm:"not null;index" json:"created_by"`
	Creator     User       `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Photos      []Photo    `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE" json:"photos"`
	Categories  []Category `gorm:"many2many:item_tags;constraint:OnDelete:CASCADE" json:"categories"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
