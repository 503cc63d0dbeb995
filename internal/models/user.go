// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered account. Users are never hard-deleted.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"unique;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Name      string    `gorm:"not null" json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Items     []Item    `gorm:"foreignKey:CreatedBy" json:"items,omitempty"`
}
