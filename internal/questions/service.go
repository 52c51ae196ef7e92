package questions

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/askbox-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/askbox-backend/pkg/errors"
	"github.com/angelmondragon/askbox-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes the question board: asking, answering, browsing and search.
type Service interface {
	Ask(ctx context.Context, authorID uuid.UUID, req CreateQuestionRequest) (*QuestionDTO, error)
	Answer(ctx context.Context, authorID, questionID uuid.UUID, req CreateAnswerRequest) (*AnswerDTO, error)
	List(ctx context.Context, params pagination.Params) (*QuestionListDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*QuestionDetailDTO, error)
	Search(ctx context.Context, query string, limit int) (*SearchResultDTO, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "questions repo is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Ask(ctx context.Context, authorID uuid.UUID, req CreateQuestionRequest) (*QuestionDTO, error) {
	if authorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "author is required")
	}
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	details := map[string]string{}
	checkText(details, "title", title, MaxTitleLength)
	checkText(details, "description", description, MaxDescriptionLength)
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}

	question := &models.Question{UserID: authorID, Title: title, Description: description}
	if err := s.repo.CreateQuestion(ctx, question); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create question")
	}
	created, err := s.repo.FindByID(ctx, question.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load question")
	}
	return created, nil
}

func (s *service) Answer(ctx context.Context, authorID, questionID uuid.UUID, req CreateAnswerRequest) (*AnswerDTO, error) {
	if authorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "author is required")
	}
	description := strings.TrimSpace(req.Description)
	details := map[string]string{}
	checkText(details, "description", description, MaxDescriptionLength)
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}

	exists, err := s.repo.QuestionExists(ctx, questionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup question")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "question not found")
	}

	answer := &models.Answer{QuestionID: questionID, UserID: authorID, Description: description}
	if err := s.repo.CreateAnswer(ctx, answer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create answer")
	}
	answers, err := s.repo.ListAnswers(ctx, questionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load answer")
	}
	for i := range answers {
		if answers[i].ID == answer.ID {
			return &answers[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "answer not visible after create")
}

func (s *service) List(ctx context.Context, params pagination.Params) (*QuestionListDTO, error) {
	params = params.Normalize()
	items, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list questions")
	}
	return &QuestionListDTO{Questions: items, Page: params.Page, Limit: params.Limit}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*QuestionDetailDTO, error) {
	question, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "question not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load question")
	}
	answers, err := s.repo.ListAnswers(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load answers")
	}
	return &QuestionDetailDTO{QuestionDTO: *question, Answers: answers}, nil
}

// Search trims query and rejects it when nothing is left.
func (s *service) Search(ctx context.Context, query string, limit int) (*SearchResultDTO, error) {
	term := strings.TrimSpace(query)
	if term == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required").
			WithDetails(map[string]string{"q": "is required"})
	}
	results, total, err := s.repo.Search(ctx, term, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search questions")
	}
	return &SearchResultDTO{Query: term, Count: total, Results: results}, nil
}

func checkText(details map[string]string, field, value string, limit int) {
	switch {
	case value == "":
		details[field] = "is required"
	case utf8.RuneCountInString(value) > limit:
		details[field] = "must be at most " + strconv.Itoa(limit)
	}
}
