package profiles

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/askbox-backend/internal/repo"
	"github.com/angelmondragon/askbox-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes profile persistence operations.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByUserID loads the profile owned by userID.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.DB(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// CountByUserID returns how many profiles reference userID.
func (r *Repository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Profile{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// Update applies the non-nil fields of req.
func (r *Repository) Update(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) error {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	setNullable(updates, "url", req.URL)
	setNullable(updates, "location", req.Location)
	setNullable(updates, "job", req.Job)

	res := r.DB(ctx).Model(&models.Profile{}).Where("user_id = ?", userID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func setNullable(updates map[string]any, column string, value *string) {
	if value == nil {
		return
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		updates[column] = nil
		return
	}
	updates[column] = trimmed
}
