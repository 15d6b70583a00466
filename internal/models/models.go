package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Статус выполнения заказа — строковый тип (как OrderStatus в order-service)
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "ORDER_STATUS_PENDING"
	OrderStatusProcessing OrderStatus = "ORDER_STATUS_PROCESSING"
	OrderStatusReady      OrderStatus = "ORDER_STATUS_READY"
	OrderStatusShipped    OrderStatus = "ORDER_STATUS_SHIPPED"
	OrderStatusCompleted  OrderStatus = "ORDER_STATUS_COMPLETED"
	OrderStatusCancelled  OrderStatus = "ORDER_STATUS_CANCELLED"
)

// Terminal: после этих статусов переходов больше не ожидается.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Valid reports whether s is one of the known fulfillment statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusReady,
		OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type ProductType string

const (
	ProductTypeTag     ProductType = "PRODUCT_TYPE_TAG"
	ProductTypeCard    ProductType = "PRODUCT_TYPE_CARD"
	ProductTypeSticker ProductType = "PRODUCT_TYPE_STICKER"
)

func (p ProductType) Valid() bool {
	switch p {
	case ProductTypeTag, ProductTypeCard, ProductTypeSticker:
		return true
	}
	return false
}

// HardwareOrder — заявка на производство NFC-носителя.
// Metadata хранит вложенные под-записи payment и timeline (jsonb),
// они меняются в другом ритме, чем реляционные колонки.
type HardwareOrder struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID   `gorm:"type:uuid;not null;index"`
	ContactEmail string      `gorm:"type:text;not null"`
	ProductType  ProductType `gorm:"type:text;not null;index"`
	Quantity     int         `gorm:"type:int;not null"` // CHECK >= 1 добавим в миграции

	// Поля дизайна фиксируются при создании и дальше не меняются.
	UseDefaultDesign bool       `gorm:"not null;default:false"`
	PrimaryColor     string     `gorm:"type:text;not null;default:''"`
	SecondaryColor   string     `gorm:"type:text;not null;default:''"`
	PrimaryText      string     `gorm:"type:text;not null;default:''"`
	SecondaryText    string     `gorm:"type:text;not null;default:''"`
	Icon             string     `gorm:"type:text;not null;default:''"`
	ProfileID        *uuid.UUID `gorm:"type:uuid"`

	Status      OrderStatus `gorm:"type:text;not null;default:'ORDER_STATUS_PENDING';index"`
	StatusNote  *string     `gorm:"type:text"`
	ProcessedAt *time.Time
	ProcessedBy *uuid.UUID      `gorm:"type:uuid"`
	Metadata    json.RawMessage `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (HardwareOrder) TableName() string { return "hardware_orders" }

// TagColor — цвет носителя из каталога; заказ может ссылаться только на
// включённые и имеющиеся на складе цвета (проверяется один раз при создании).
type TagColor struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Hex     string    `gorm:"type:text;not null;uniqueIndex"`
	Name    string    `gorm:"type:text;not null"`
	Enabled bool      `gorm:"not null;default:true"`
	InStock bool      `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (TagColor) TableName() string { return "tag_colors" }

// Profile — минимальная проекция профиля, достаточная для проверки
// «вложенный профиль принадлежит заказчику».
type Profile struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`
	Slug   string    `gorm:"type:text;not null;uniqueIndex"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (Profile) TableName() string { return "profiles" }
