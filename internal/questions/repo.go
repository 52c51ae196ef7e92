package questions

import (
	"context"
	"strings"

	"github.com/angelmondragon/askbox-backend/internal/repo"
	"github.com/angelmondragon/askbox-backend/pkg/db/models"
	"github.com/angelmondragon/askbox-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const questionColumns = `q.id, q.user_id, u.username, q.title, q.description, q.created_at, q.updated_at,
	(SELECT COUNT(*) FROM answers a WHERE a.question_id = q.id) AS answer_count`

// Repository persists questions and answers.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) CreateQuestion(ctx context.Context, question *models.Question) error {
	if question.ID == uuid.Nil {
		question.ID = uuid.New()
	}
	return r.DB(ctx).Create(question).Error
}

func (r *Repository) CreateAnswer(ctx context.Context, answer *models.Answer) error {
	if answer.ID == uuid.Nil {
		answer.ID = uuid.New()
	}
	return r.DB(ctx).Create(answer).Error
}

func (r *Repository) questionQuery(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Table("questions AS q").
		Select(questionColumns).
		Joins("JOIN users u ON u.id = q.user_id")
}

// List returns one page of questions ordered by last update, newest first.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]QuestionDTO, error) {
	params = params.Normalize()
	var rows []questionRow
	err := r.questionQuery(ctx).
		Order("q.updated_at DESC").
		Order("q.created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toQuestionDTOs(rows), nil
}

// FindByID returns the question with its author and answer count.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*QuestionDTO, error) {
	var rows []questionRow
	if err := r.questionQuery(ctx).Where("q.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	dto := rows[0].toDTO()
	return &dto, nil
}

func (r *Repository) QuestionExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.Exists(ctx, &models.Question{}, "id = ?", id)
}

// ListAnswers returns every answer on questionID in creation order.
func (r *Repository) ListAnswers(ctx context.Context, questionID uuid.UUID) ([]AnswerDTO, error) {
	var rows []answerRow
	err := r.DB(ctx).
		Table("answers AS a").
		Select("a.id, a.question_id, a.user_id, u.username, a.description, a.created_at").
		Joins("JOIN users u ON u.id = a.user_id").
		Where("a.question_id = ?", questionID).
		Order("a.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]AnswerDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDTO())
	}
	return out, nil
}

// Search matches questions whose title or description contains term,
// ignoring case. It returns the total match count and at most limit rows.
func (r *Repository) Search(ctx context.Context, term string, limit int) ([]QuestionDTO, int64, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	match := `lower(q.title) LIKE ? ESCAPE '\' OR lower(q.description) LIKE ? ESCAPE '\'`

	var total int64
	err := r.DB(ctx).
		Table("questions AS q").
		Where(match, pattern, pattern).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var rows []questionRow
	err = r.questionQuery(ctx).
		Where(match, pattern, pattern).
		Order("q.updated_at DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return toQuestionDTOs(rows), total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func toQuestionDTOs(rows []questionRow) []QuestionDTO {
	out := make([]QuestionDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDTO())
	}
	return out
}
