package service

import (
	"context"
	"time"

	"github.com/aumentovaneza/TapLink-sub001/internal/models"
	"github.com/aumentovaneza/TapLink-sub001/internal/payment"
	"github.com/aumentovaneza/TapLink-sub001/internal/repository"
	"github.com/google/uuid"
)

type CreateOrderInput struct {
	ContactEmail     string
	ProductType      models.ProductType
	Quantity         int
	UseDefaultDesign bool
	PrimaryColor     string
	SecondaryColor   string
	PrimaryText      string
	SecondaryText    string
	Icon             string
	ProfileID        *uuid.UUID
}

// ReceiptUpload — файл подтверждения перевода из формы оплаты.
type ReceiptUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// PaymentPage — всё, что нужно странице оплаты: заказ, платёжная
// под-запись, остаток окна и путь к QR-коду в хранилище.
type PaymentPage struct {
	Order     *models.HardwareOrder
	Payment   payment.Snapshot
	Remaining time.Duration
	QRPath    string
}

type AdminStatusInput struct {
	Status models.OrderStatus
	Note   *string
}

// Artifact — производственный файл, готовый к отдаче админу.
type Artifact struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ArtifactExporter renders the manufacturing artifact for a confirmed order.
// The rendering itself lives outside this service.
type ArtifactExporter interface {
	Render(ctx context.Context, o *models.HardwareOrder) (Artifact, error)
}

// BlobStore persists receipt images and returns a retrievable path.
type BlobStore interface {
	Save(ctx context.Context, data []byte, contentType string) (string, error)
	Remove(path string) error
}

type OrderService interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*models.HardwareOrder, error)
	FetchForPayment(ctx context.Context, id uuid.UUID) (*PaymentPage, error)
	ConfirmPayment(ctx context.Context, id uuid.UUID, receipt ReceiptUpload, reference string) (*models.HardwareOrder, error)
	CancelBeforePayment(ctx context.Context, id uuid.UUID) (*models.HardwareOrder, error)
	ListMyOrders(ctx context.Context, f repository.ListFilter) ([]*models.HardwareOrder, int64, error)
	AdminListOrders(ctx context.Context, f repository.AdminListFilter) ([]*models.HardwareOrder, int64, error)
	AdminUpdateStatus(ctx context.Context, id uuid.UUID, in AdminStatusInput) (*models.HardwareOrder, error)
	ExportManufacturingArtifact(ctx context.Context, id uuid.UUID) (Artifact, error)

	// SweepExpired закрывает заказы с истёкшим окном оплаты; возвращает
	// число переведённых заказов. Вызывается планировщиком и инлайн из
	// FetchForPayment.
	SweepExpired(ctx context.Context) (int, error)
}
