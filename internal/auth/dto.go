package auth

import (
	"github.com/angelmondragon/askbox-backend/internal/users"
)

// LoginRequest captures the credentials sent to the login endpoint. Login is
// either a username or an email address.
type LoginRequest struct {
	Login    string `json:"login" validate:"required,max=75"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the tokens and user produced by a successful login.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}
