package profiles

import (
	"time"

	"github.com/angelmondragon/askbox-backend/pkg/db/models"
	"github.com/google/uuid"
)

// ProfileDTO is the public view of an identity and its profile.
type ProfileDTO struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	URL       *string   `json:"url"`
	Location  *string   `json:"location"`
	Job       *string   `json:"job"`
	Avatar    string    `json:"avatar"`
	JoinedAt  time.Time `json:"joined_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateProfileRequest carries the editable profile fields. A nil field is left
// unchanged; an empty string clears it.
type UpdateProfileRequest struct {
	URL      *string `json:"url" validate:"omitempty,max=50"`
	Location *string `json:"location" validate:"omitempty,max=50"`
	Job      *string `json:"job" validate:"omitempty,max=50"`
}

func fromModels(user *models.User, profile *models.Profile) *ProfileDTO {
	return &ProfileDTO{
		UserID:    user.ID,
		Username:  user.Username,
		URL:       profile.URL,
		Location:  profile.Location,
		Job:       profile.Job,
		Avatar:    profile.Avatar,
		JoinedAt:  user.CreatedAt,
		UpdatedAt: profile.UpdatedAt,
	}
}
