package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/askbox-backend/pkg/db/models"
	"github.com/angelmondragon/askbox-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/askbox-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Actor is the authenticated caller of a profile operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.SystemRole
}

// Service reads and edits profiles.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	Update(ctx context.Context, actor Actor, userID uuid.UUID, req UpdateProfileRequest) (*ProfileDTO, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type profileStore interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	Update(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) error
}

type service struct {
	users    userFinder
	profiles profileStore
}

func NewService(users userFinder, profiles profileStore) (Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile repository is required")
	}
	return &service{users: users, profiles: profiles}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "lookup user")
	}
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "lookup profile")
	}
	return fromModels(user, profile), nil
}

// Update edits the profile of userID. Only the owner or an admin may do so.
func (s *service) Update(ctx context.Context, actor Actor, userID uuid.UUID, req UpdateProfileRequest) (*ProfileDTO, error) {
	if actor.UserID != userID && actor.Role != enums.SystemRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot edit another user's profile")
	}
	if err := s.profiles.Update(ctx, userID, req); err != nil {
		return nil, notFoundOr(err, "update profile")
	}
	return s.Get(ctx, userID)
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
