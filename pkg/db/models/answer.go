package models

import (
	"time"

	"github.com/google/uuid"
)

type Answer struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	QuestionID  uuid.UUID `gorm:"type:uuid;column:question_id;not null"`
	UserID      uuid.UUID `gorm:"type:uuid;column:user_id;not null"`
	Description string    `gorm:"column:description;size:2000;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Answer) TableName() string { return "answers" }
