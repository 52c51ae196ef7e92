package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the canonical identity entity. Uniqueness is enforced by
// indexes created in the migrations, not by GORM tags: username through the
// application-folded UsernameNormalized, email through lower(email).
type User struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Username           string     `gorm:"column:username;size:100;not null"`
	UsernameNormalized string     `gorm:"column:username_normalized;size:100;not null"`
	Email              string     `gorm:"column:email;size:254;not null"`
	PasswordHash       string     `gorm:"column:password_hash;not null"`
	IsActive           bool       `gorm:"column:is_active;not null"`
	IsStaff            bool       `gorm:"column:is_staff;not null"`
	IsAdmin            bool       `gorm:"column:is_admin;not null"`
	LastLoginAt        *time.Time `gorm:"column:last_login_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }
