package auth

import (
	"context"

	"github.com/angelmondragon/askbox-backend/internal/users"
)

// AdminRegisterRequest contains the credentials for an elevated account. There
// is no confirmation field; the password is confirmed against itself.
type AdminRegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminRegisterService creates admin+staff identities through the regular
// registration path.
type AdminRegisterService interface {
	CreatePrivileged(ctx context.Context, req AdminRegisterRequest) (*users.UserDTO, error)
}

type adminRegisterService struct {
	base *registerService
}

// NewAdminRegisterService builds the elevated-account service on the same
// dependencies as the standard registration flow.
func NewAdminRegisterService(params RegisterServiceParams) (AdminRegisterService, error) {
	base, err := newRegisterService(params)
	if err != nil {
		return nil, err
	}
	return &adminRegisterService{base: base}, nil
}

func (s *adminRegisterService) CreatePrivileged(ctx context.Context, req AdminRegisterRequest) (*users.UserDTO, error) {
	return s.base.register(ctx, RegisterRequest{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.Password,
	}, true)
}
