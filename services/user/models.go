package user

import (
	"time"
)

// User holds the subset of account state the auth boundary cares about.
// DeletedAt marks a soft delete; a soft-deleted user no longer authenticates.
type User struct {
	ID        string     `json:"id" gorm:"primaryKey;size:36"`
	Email     string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Verified  bool       `json:"verified" gorm:"not null;default:false"`
	DeletedAt *time.Time `json:"deleted_at" gorm:"index"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
