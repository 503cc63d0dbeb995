package models

import "time"

// History actions.
const (
	HistoryActionCreated = "created"
	HistoryActionUpdated = "updated"
)

// ItemHistory is an append-only audit record of one field change on one
// item. Rows are never mutated or deleted, and deliberately carry no foreign
// key constraint on ItemID so the audit trail survives item deletion.
type ItemHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ItemID    uint      `gorm:"not null;index" json:"item_id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action    string    `gorm:"not null" json:"action"`
	Field     string    `json:"field,omitempty"`
	OldValue  string    `json:"old_value,omitempty"`
	NewValue  string    `json:"new_value,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
