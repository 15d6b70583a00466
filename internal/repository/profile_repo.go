package repository

import (
	"context"
	"errors"

	"github.com/aumentovaneza/TapLink-sub001/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type profileRepo struct{ db *gorm.DB }

func NewProfileRepo(db *gorm.DB) ProfileStore { return &profileRepo{db: db} }

func (r *profileRepo) OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, bool, error) {
	var p models.Profile
	err := r.db.WithContext(ctx).Select("id", "user_id").First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return p.UserID, true, nil
}
