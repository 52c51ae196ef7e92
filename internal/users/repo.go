package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/askbox-backend/internal/repo"
	"github.com/angelmondragon/askbox-backend/pkg/db"
	"github.com/angelmondragon/askbox-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateUsername is returned when the username index rejects an insert.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrDuplicateEmail is returned when the email index rejects an insert.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrMissingPasswordHash guards against persisting an identity with no credential.
	ErrMissingPasswordHash = errors.New("password hash is required")
)

// Repository exposes user-related persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts a new user and returns the persisted model. Unique index
// violations are translated into ErrDuplicateUsername or ErrDuplicateEmail.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	if strings.TrimSpace(dto.PasswordHash) == "" {
		return nil, ErrMissingPasswordHash
	}
	user := dto.ToModel()
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, translateUniqueViolation(err)
	}
	return user, nil
}

func translateUniqueViolation(err error) error {
	violation, ok := db.AsUniqueViolation(err)
	if !ok {
		return err
	}
	switch {
	case violation.Mentions("username"):
		return errors.Join(ErrDuplicateUsername, err)
	case violation.Mentions("email"):
		return errors.Join(ErrDuplicateEmail, err)
	default:
		return err
	}
}

// UsernameExists reports whether any identity holds username, ignoring case.
func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username_normalized = ?", NormalizeUsername(username))
}

// EmailExists reports whether any identity holds email, ignoring case.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "lower(email) = lower(?)", email)
}

func (r *Repository) exists(ctx context.Context, clause string, value string) (bool, error) {
	return r.Exists(ctx, &models.User{}, clause, value)
}

// FindByEmail retrieves the user matching the provided email, ignoring case.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("lower(email) = lower(?)", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername retrieves the user matching the provided username, ignoring case.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("username_normalized = ?", NormalizeUsername(username)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByLogin resolves a login identifier. Usernames cannot contain '@', so
// anything with one is treated as an email.
func (r *Repository) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	login = strings.TrimSpace(login)
	if strings.Contains(login, "@") {
		return r.FindByEmail(ctx, login)
	}
	return r.FindByUsername(ctx, login)
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// SetPrivileges overwrites the admin and staff flags.
func (r *Repository) SetPrivileges(ctx context.Context, id uuid.UUID, isAdmin, isStaff bool) error {
	res := r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_admin": isAdmin, "is_staff": isStaff, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetActive toggles whether the identity may authenticate.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
