package repository

import (
	"context"
	"errors"

	"github.com/aumentovaneza/TapLink-sub001/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type orderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) OrderStore { return &orderRepo{db: db} }

func (r *orderRepo) Create(ctx context.Context, o *models.HardwareOrder) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.HardwareOrder, error) {
	var ord models.HardwareOrder
	err := r.db.WithContext(ctx).First(&ord, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &ord, err
}

func (r *orderRepo) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.HardwareOrder, error) {
	var ord models.HardwareOrder
	err := r.db.WithContext(ctx).First(&ord, "id = ? AND user_id = ?", id, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &ord, err
}

func (r *orderRepo) ListForUser(ctx context.Context, userID uuid.UUID, f ListFilter) ([]*models.HardwareOrder, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.HardwareOrder{}).Where("user_id = ?", userID)

	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := clampPage(f.Limit, f.Offset)

	var list []*models.HardwareOrder
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

func (r *orderRepo) ListPending(ctx context.Context) ([]*models.HardwareOrder, error) {
	var list []*models.HardwareOrder
	err := r.db.WithContext(ctx).
		Where("status = ?", models.OrderStatusPending).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *orderRepo) ListForAdmin(ctx context.Context, f AdminListFilter) ([]*models.HardwareOrder, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.HardwareOrder{})

	if f.Search != "" {
		pat := "%" + f.Search + "%"
		q = q.Where(
			"contact_email ILIKE ? OR primary_text ILIKE ? OR secondary_text ILIKE ? OR id::text ILIKE ?",
			pat, pat, pat, pat,
		)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.ProductType != nil {
		q = q.Where("product_type = ?", *f.ProductType)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := clampPage(f.Limit, f.Offset)

	var list []*models.HardwareOrder
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

func (r *orderRepo) UpdateStatusAndMetadata(ctx context.Context, id uuid.UUID, upd StatusUpdate) error {
	// один UPDATE на все поля перехода
	res := r.db.WithContext(ctx).Model(&models.HardwareOrder{}).Where("id = ?", id).Updates(map[string]any{
		"status":       upd.Status,
		"status_note":  upd.StatusNote,
		"processed_at": upd.ProcessedAt,
		"processed_by": upd.ProcessedBy,
		"metadata":     upd.Metadata,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
