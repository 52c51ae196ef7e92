package questions

import (
	"time"

	"github.com/google/uuid"
)

const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 2000
)

// Author is the public identity summary attached to questions and answers.
type Author struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// QuestionDTO is the list/search representation of a question.
type QuestionDTO struct {
	ID          uuid.UUID `json:"id"`
	Author      Author    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AnswerCount int64     `json:"answer_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AnswerDTO is a single reply on a question.
type AnswerDTO struct {
	ID          uuid.UUID `json:"id"`
	QuestionID  uuid.UUID `json:"question_id"`
	Author      Author    `json:"author"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// QuestionDetailDTO carries a question with its answers, oldest first.
type QuestionDetailDTO struct {
	QuestionDTO
	Answers []AnswerDTO `json:"answers"`
}

// QuestionListDTO is one page of questions, most recently updated first.
type QuestionListDTO struct {
	Questions []QuestionDTO `json:"questions"`
	Page      int           `json:"page"`
	Limit     int           `json:"limit"`
}

// SearchResultDTO is the response shape for a keyword search.
type SearchResultDTO struct {
	Query   string        `json:"query"`
	Count   int64         `json:"count"`
	Results []QuestionDTO `json:"results"`
}

type CreateQuestionRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"required,max=2000"`
}

type CreateAnswerRequest struct {
	Description string `json:"description" validate:"required,max=2000"`
}

// questionRow is the scan target for question queries joined with their author.
type questionRow struct {
	ID          uuid.UUID `gorm:"column:id"`
	UserID      uuid.UUID `gorm:"column:user_id"`
	Username    string    `gorm:"column:username"`
	Title       string    `gorm:"column:title"`
	Description string    `gorm:"column:description"`
	AnswerCount int64     `gorm:"column:answer_count"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (r questionRow) toDTO() QuestionDTO {
	return QuestionDTO{
		ID:          r.ID,
		Author:      Author{ID: r.UserID, Username: r.Username},
		Title:       r.Title,
		Description: r.Description,
		AnswerCount: r.AnswerCount,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type answerRow struct {
	ID          uuid.UUID `gorm:"column:id"`
	QuestionID  uuid.UUID `gorm:"column:question_id"`
	UserID      uuid.UUID `gorm:"column:user_id"`
	Username    string    `gorm:"column:username"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (r answerRow) toDTO() AnswerDTO {
	return AnswerDTO{
		ID:          r.ID,
		QuestionID:  r.QuestionID,
		Author:      Author{ID: r.UserID, Username: r.Username},
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}
