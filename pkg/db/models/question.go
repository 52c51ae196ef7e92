package models

import (
	"time"

	"github.com/google/uuid"
)

type Question struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;column:user_id;not null"`
	Title       string    `gorm:"column:title;size:255;not null"`
	Description string    `gorm:"column:description;size:2000;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Question) TableName() string { return "questions" }
