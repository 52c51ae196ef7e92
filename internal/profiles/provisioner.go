package profiles

import (
	"context"
	"fmt"

	"github.com/angelmondragon/askbox-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultAvatar is the placeholder image reference given to new profiles.
const DefaultAvatar = "img/user.png"

// Provisioner creates the profile row that accompanies every identity. It is
// bound to the registration transaction so both rows commit or neither does.
type Provisioner struct {
	db            *gorm.DB
	defaultAvatar string
}

func NewProvisioner(db *gorm.DB, defaultAvatar string) *Provisioner {
	if defaultAvatar == "" {
		defaultAvatar = DefaultAvatar
	}
	return &Provisioner{db: db, defaultAvatar: defaultAvatar}
}

// Provision creates the default profile for userID and returns the stored row.
// Calling it again for the same identity leaves the existing profile untouched.
func (p *Provisioner) Provision(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id is required")
	}

	profile := models.Profile{
		UserID: userID,
		Avatar: p.defaultAvatar,
	}
	err := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}

	var stored models.Profile
	if err := p.db.WithContext(ctx).First(&stored, "user_id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &stored, nil
}
