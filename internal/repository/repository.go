package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aumentovaneza/TapLink-sub001/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status *models.OrderStatus
	Limit  int
	Offset int
}

type AdminListFilter struct {
	Search      string
	Status      *models.OrderStatus
	ProductType *models.ProductType
	Limit       int
	Offset      int
}

// StatusUpdate — единственная точка мутации заказа: статус, заметка,
// отметки обработки и metadata пишутся одним UPDATE, чтобы читатель никогда
// не увидел наполовину применённый переход.
type StatusUpdate struct {
	Status      models.OrderStatus
	StatusNote  *string
	ProcessedAt *time.Time
	ProcessedBy *uuid.UUID
	Metadata    json.RawMessage
}

type OrderStore interface {
	Create(ctx context.Context, o *models.HardwareOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.HardwareOrder, error)
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.HardwareOrder, error)
	ListForUser(ctx context.Context, userID uuid.UUID, f ListFilter) ([]*models.HardwareOrder, int64, error)
	ListPending(ctx context.Context) ([]*models.HardwareOrder, error)
	ListForAdmin(ctx context.Context, f AdminListFilter) ([]*models.HardwareOrder, int64, error)
	UpdateStatusAndMetadata(ctx context.Context, id uuid.UUID, upd StatusUpdate) error
}

type ColorStore interface {
	// EnabledHexes возвращает hex-коды включённых и имеющихся на складе цветов.
	EnabledHexes(ctx context.Context) (map[string]struct{}, error)
}

type ProfileStore interface {
	// OwnerOf возвращает владельца профиля; ok=false если профиль не найден.
	OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, bool, error)
}

type Repository struct {
	DB       *gorm.DB
	Orders   OrderStore
	Colors   ColorStore
	Profiles ProfileStore
}

// New выбирает бэкенд хранилища один раз при старте: если таблица заказов
// уже смигрирована — структурный слой GORM, иначе запасной путь на ручных
// SQL-выражениях, который сам создаёт схему. Бизнес-логика про выбор не знает.
func New(db *gorm.DB, log *zap.Logger) (*Repository, error) {
	r := &Repository{
		DB:       db,
		Colors:   NewColorRepo(db),
		Profiles: NewProfileRepo(db),
	}

	if db.Migrator().HasTable(&models.HardwareOrder{}) {
		r.Orders = NewOrderRepo(db)
		return r, nil
	}

	log.Warn("orders table not migrated, falling back to raw SQL store")
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	raw := NewSQLOrderStore(sqlx.NewDb(sqlDB, "pgx"))
	if err := raw.EnsureSchema(context.Background()); err != nil {
		return nil, err
	}
	r.Orders = raw
	return r, nil
}
