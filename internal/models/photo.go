package models

import "time"

// Photo is a stored image belonging to exactly one item. DisplayOrder is
// assigned sequentially at upload time but is independently mutable and not
// guaranteed unique or contiguous afterward.
type Photo struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ItemID       uint      `gorm:"not null;index" json:"item_id"`
	FilePath     string    `gorm:"not null" json:"file_path"`
	SizeBytes    int64     `json:"size_bytes"`
	Annotations  string    `gorm:"type:text" json:"annotations,omitempty"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}
