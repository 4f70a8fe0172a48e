package models

import "github.com/google/uuid"

// Notification is an in-app message shown to a single user.
type Notification struct {
	BaseModel
	UserID  uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	IsRead  bool      `json:"is_read"`
}
