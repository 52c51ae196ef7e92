package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/askbox-backend/pkg/db/models"
	"github.com/angelmondragon/askbox-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID        `json:"id"`
	Username    string           `json:"username"`
	Email       string           `json:"email"`
	IsActive    bool             `json:"is_active"`
	IsStaff     bool             `json:"is_staff"`
	IsAdmin     bool             `json:"is_admin"`
	Role        enums.SystemRole `json:"role"`
	LastLoginAt *time.Time       `json:"last_login_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Username     string
	Email        string
	PasswordHash string
	IsActive     *bool
	IsStaff      bool
	IsAdmin      bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsAdmin:     u.IsAdmin,
		Role:        enums.RoleForFlags(u.IsAdmin, u.IsStaff),
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// NormalizeUsername is the form usernames are compared and indexed in. The
// display form keeps the case the user chose.
func NormalizeUsername(username string) string {
	return strings.ToLower(username)
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	return &models.User{
		ID:                 uuid.New(),
		Username:           c.Username,
		UsernameNormalized: NormalizeUsername(c.Username),
		Email:              c.Email,
		PasswordHash:       c.PasswordHash,
		IsActive:           isActive,
		IsStaff:            c.IsStaff,
		IsAdmin:            c.IsAdmin,
	}
}
