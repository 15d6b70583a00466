package repository

import (
	"context"

	"github.com/aumentovaneza/TapLink-sub001/internal/models"
	"gorm.io/gorm"
)

type colorRepo struct{ db *gorm.DB }

func NewColorRepo(db *gorm.DB) ColorStore { return &colorRepo{db: db} }

func (r *colorRepo) EnabledHexes(ctx context.Context) (map[string]struct{}, error) {
	var hexes []string
	err := r.db.WithContext(ctx).
		Model(&models.TagColor{}).
		Where("enabled = ? AND in_stock = ?", true, true).
		Pluck("hex", &hexes).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(hexes))
	for _, h := range hexes {
		set[h] = struct{}{}
	}
	return set, nil
}
