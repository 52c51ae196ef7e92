package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds the public, user-editable details attached 1:1 to a User.
type Profile struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;column:user_id"`
	URL       *string   `gorm:"column:url;size:50"`
	Location  *string   `gorm:"column:location;size:50"`
	Job       *string   `gorm:"column:job;size:50"`
	Avatar    string    `gorm:"column:avatar;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Profile) TableName() string { return "profiles" }
