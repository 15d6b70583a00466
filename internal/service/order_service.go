package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aumentovaneza/TapLink-sub001/internal/models"
	"github.com/aumentovaneza/TapLink-sub001/internal/payment"
	"github.com/aumentovaneza/TapLink-sub001/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxReceiptSize = 5 << 20 // 5 MiB

var allowedReceiptTypes = map[string]struct{}{
	"image/png":       {},
	"image/jpeg":      {},
	"image/webp":      {},
	"application/pdf": {},
}

const (
	noteExpired       = "Payment window expired; cancelled automatically"
	noteUserCancelled = "Cancelled by customer before payment"
)

type orderService struct {
	repo     *repository.Repository
	blobs    BlobStore
	notifier Notifier
	exporter ArtifactExporter
	window   time.Duration
	qrPath   string
	now      func() time.Time
	log      *zap.Logger
}

func NewOrderService(repo *repository.Repository, blobs BlobStore, notifier Notifier, exporter ArtifactExporter, window time.Duration, qrPath string, log *zap.Logger) OrderService {
	if window <= 0 {
		window = payment.DefaultWindow
	}
	return &orderService{
		repo:     repo,
		blobs:    blobs,
		notifier: notifier,
		exporter: exporter,
		window:   window,
		qrPath:   qrPath,
		now:      time.Now,
		log:      log,
	}
}

func requireAuth(ctx context.Context) (uuid.UUID, Role, error) {
	uid, ok := UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, "", ErrUnauthorized
	}
	role, _ := RoleFromContext(ctx) // если нет — считаем customer по умолчанию
	return uid, role, nil
}

func requireAdmin(ctx context.Context) (uuid.UUID, error) {
	uid, role, err := requireAuth(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if role != RoleAdmin {
		return uuid.Nil, ErrForbidden
	}
	return uid, nil
}

func (s *orderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.HardwareOrder, error) {
	userID, _, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	if !strings.Contains(in.ContactEmail, "@") {
		return nil, ErrEmailInvalid
	}
	if in.Quantity < 1 {
		return nil, ErrQuantityInvalid
	}
	if !in.ProductType.Valid() {
		return nil, ErrProductInvalid
	}

	// Цвета проверяем один раз, при создании; позже каталог может меняться.
	if !in.UseDefaultDesign {
		hexes, err := s.repo.Colors.EnabledHexes(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: color catalog: %v", ErrUnavailable, err)
		}
		for _, hex := range []string{in.PrimaryColor, in.SecondaryColor} {
			if hex == "" {
				continue
			}
			if _, ok := hexes[hex]; !ok {
				return nil, ErrColorNotAvailable
			}
		}
	}

	if in.ProfileID != nil {
		owner, found, err := s.repo.Profiles.OwnerOf(ctx, *in.ProfileID)
		if err != nil {
			return nil, fmt.Errorf("%w: profiles: %v", ErrUnavailable, err)
		}
		if !found || owner != userID {
			return nil, ErrProfileNotOwned
		}
	}

	now := s.now()
	ord := &models.HardwareOrder{
		ID:               uuid.New(), // id нужен заранее: от него считается transactionId
		UserID:           userID,
		ContactEmail:     in.ContactEmail,
		ProductType:      in.ProductType,
		Quantity:         in.Quantity,
		UseDefaultDesign: in.UseDefaultDesign,
		PrimaryColor:     in.PrimaryColor,
		SecondaryColor:   in.SecondaryColor,
		PrimaryText:      in.PrimaryText,
		SecondaryText:    in.SecondaryText,
		Icon:             in.Icon,
		ProfileID:        in.ProfileID,
		Status:           models.OrderStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	snap := payment.ComputeInitial(ord.ID, ord.ProductType, ord.Quantity, now, s.window)
	meta, err := payment.WriteSnapshot(nil, snap)
	if err != nil {
		return nil, err
	}
	ord.Metadata = meta

	if err := s.repo.Orders.Create(ctx, ord); err != nil {
		return nil, fmt.Errorf("%w: create order: %v", ErrUnavailable, err)
	}

	s.log.Info("hardware order created",
		zap.String("order_id", ord.ID.String()),
		zap.String("product", string(ord.ProductType)),
		zap.Int("quantity", ord.Quantity),
		zap.Int64("amount_due", snap.AmountDue))
	return ord, nil
}

func (s *orderService) FetchForPayment(ctx context.Context, id uuid.UUID) (*PaymentPage, error) {
	userID, _, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	// Инлайн-проверка истечения до любого платёжного чтения: пользователь не
	// должен увидеть устаревший «остаток времени».
	ord, err := s.repo.Orders.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ord == nil {
		return nil, ErrOrderNotFound
	}

	now := s.now()
	snap := payment.ReadSnapshot(ord, s.window)

	if snap.Expired(now) {
		if err := s.expireOrder(ctx, ord, snap); err != nil {
			return nil, err
		}
		return nil, ErrPaymentUnavailable
	}

	if snap.Status == payment.StatusExpired || snap.Status == payment.StatusCancelled ||
		ord.Status == models.OrderStatusShipped || ord.Status == models.OrderStatusCompleted ||
		ord.Status == models.OrderStatusCancelled {
		return nil, ErrPaymentUnavailable
	}

	remaining := snap.ExpiresAt.Sub(now)
	if snap.Status != payment.StatusAwaitingConfirmation || remaining < 0 {
		remaining = 0
	}

	return &PaymentPage{
		Order:     ord,
		Payment:   snap,
		Remaining: remaining,
		QRPath:    s.qrPath,
	}, nil
}

func (s *orderService) ConfirmPayment(ctx context.Context, id uuid.UUID, receipt ReceiptUpload, reference string) (*models.HardwareOrder, error) {
	userID, _, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	// Валидация файла до любых изменений состояния.
	if len(receipt.Data) == 0 {
		return nil, ErrReceiptEmpty
	}
	if len(receipt.Data) > maxReceiptSize {
		return nil, ErrReceiptTooLarge
	}
	if _, ok := allowedReceiptTypes[receipt.ContentType]; !ok {
		return nil, ErrReceiptBadType
	}

	ord, err := s.repo.Orders.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ord == nil {
		return nil, ErrOrderNotFound
	}

	now := s.now()
	snap := payment.ReadSnapshot(ord, s.window)

	// Окно уже истекло — выполняем тот же переход, что сделал бы sweeper,
	// и сообщаем об этом вызывающему.
	if snap.Expired(now) {
		if err := s.expireOrder(ctx, ord, snap); err != nil {
			return nil, err
		}
		return nil, ErrPaymentUnavailable
	}

	if ord.Status != models.OrderStatusPending || snap.Status != payment.StatusAwaitingConfirmation {
		return nil, ErrWrongState
	}

	path, err := s.blobs.Save(ctx, receipt.Data, receipt.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}

	snap.Status = payment.StatusConfirmed
	snap.ConfirmedAt = &now
	snap.Reference = strings.TrimSpace(reference)
	snap.Receipt = &payment.Receipt{
		FileName:   receipt.FileName,
		Path:       path,
		MimeType:   receipt.ContentType,
		Size:       int64(len(receipt.Data)),
		UploadedAt: now,
	}

	meta, err := payment.WriteSnapshot(ord.Metadata, snap)
	if err != nil {
		return nil, err
	}
	meta, err = payment.WriteTimeline(meta, payment.ComputeTimeline(now))
	if err != nil {
		return nil, err
	}

	upd := repository.StatusUpdate{
		Status:      models.OrderStatusProcessing,
		StatusNote:  ord.StatusNote,
		ProcessedAt: ord.ProcessedAt,
		ProcessedBy: ord.ProcessedBy,
		Metadata:    meta,
	}
	if err := s.repo.Orders.UpdateStatusAndMetadata(ctx, ord.ID, upd); err != nil {
		// Переход не записан — квитанция в хранилище осиротела, подчищаем.
		if rmErr := s.blobs.Remove(path); rmErr != nil {
			s.log.Warn("failed to remove orphaned receipt",
				zap.String("order_id", ord.ID.String()),
				zap.String("path", path),
				zap.Error(rmErr))
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.log.Info("payment confirmed",
		zap.String("order_id", ord.ID.String()),
		zap.String("transaction_id", snap.TransactionID))

	s.notify(ctx, Notification{
		To:      ord.ContactEmail,
		Subject: "Payment received for order " + snap.TransactionID,
		Text: fmt.Sprintf("We received your payment of %d %s. Your order is now in production.",
			snap.AmountDue, snap.Currency),
		Kind:    NotifyPaymentConfirmed,
		OrderID: ord.ID,
	})

	return s.reload(ctx, ord.ID)
}

func (s *orderService) CancelBeforePayment(ctx context.Context, id uuid.UUID) (*models.HardwareOrder, error) {
	userID, _, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	ord, err := s.repo.Orders.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ord == nil {
		return nil, ErrOrderNotFound
	}

	snap := payment.ReadSnapshot(ord, s.window)
	if ord.Status == models.OrderStatusCancelled {
		return nil, ErrAlreadyCancelled
	}
	if ord.Status != models.OrderStatusPending || snap.Status != payment.StatusAwaitingConfirmation {
		return nil, ErrWrongState
	}

	now := s.now()
	snap.Status = payment.StatusCancelled
	snap.CancelledAt = &now

	meta, err := payment.WriteSnapshot(ord.Metadata, snap)
	if err != nil {
		return nil, err
	}

	note := noteUserCancelled
	upd := repository.StatusUpdate{
		Status:      models.OrderStatusCancelled,
		StatusNote:  &note,
		ProcessedAt: &now,
		ProcessedBy: ord.ProcessedBy,
		Metadata:    meta,
	}
	if err := s.repo.Orders.UpdateStatusAndMetadata(ctx, ord.ID, upd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.log.Info("order cancelled by customer", zap.String("order_id", ord.ID.String()))

	s.notify(ctx, Notification{
		To:      ord.ContactEmail,
		Subject: "Order " + snap.TransactionID + " cancelled",
		Text:    "Your hardware order was cancelled before payment. No charges were made.",
		Kind:    NotifyOrderCancelled,
		OrderID: ord.ID,
	})

	return s.reload(ctx, ord.ID)
}

func (s *orderService) ListMyOrders(ctx context.Context, f repository.ListFilter) ([]*models.HardwareOrder, int64, error) {
	userID, _, err := requireAuth(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.Orders.ListForUser(ctx, userID, f)
}

func (s *orderService) AdminListOrders(ctx context.Context, f repository.AdminListFilter) ([]*models.HardwareOrder, int64, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, 0, err
	}
	return s.repo.Orders.ListForAdmin(ctx, f)
}

// productionStatus: производство стартовало — оплата обязана быть подтверждена.
func productionStatus(st models.OrderStatus) bool {
	switch st {
	case models.OrderStatusProcessing, models.OrderStatusReady,
		models.OrderStatusShipped, models.OrderStatusCompleted:
		return true
	}
	return false
}

func (s *orderService) AdminUpdateStatus(ctx context.Context, id uuid.UUID, in AdminStatusInput) (*models.HardwareOrder, error) {
	adminID, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if !in.Status.Valid() {
		return nil, ErrStatusInvalid
	}

	ord, err := s.repo.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ord == nil {
		return nil, ErrOrderNotFound
	}

	snap := payment.ReadSnapshot(ord, s.window)

	// Возврат в pending и отмена разрешены всегда: админ должен иметь
	// возможность откатить ошибочный переход независимо от оплаты.
	if productionStatus(in.Status) && snap.Status != payment.StatusConfirmed {
		return nil, ErrPaymentNotConfirmed
	}

	meta := ord.Metadata
	wasCancelled := ord.Status == models.OrderStatusCancelled
	now := s.now()

	// Отмена заказа, который ещё ждал оплату, закрывает и платёжную
	// под-запись: иначе она навсегда останется в awaiting_confirmation.
	if in.Status == models.OrderStatusCancelled && snap.Status == payment.StatusAwaitingConfirmation {
		snap.Status = payment.StatusCancelled
		snap.CancelledAt = &now
		meta, err = payment.WriteSnapshot(ord.Metadata, snap)
		if err != nil {
			return nil, err
		}
	}

	note := ord.StatusNote
	if in.Note != nil {
		note = in.Note
	}
	upd := repository.StatusUpdate{
		Status:      in.Status,
		StatusNote:  note,
		ProcessedAt: &now,
		ProcessedBy: &adminID,
		Metadata:    meta,
	}
	if err := s.repo.Orders.UpdateStatusAndMetadata(ctx, ord.ID, upd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.log.Info("order status updated by admin",
		zap.String("order_id", ord.ID.String()),
		zap.String("from", string(ord.Status)),
		zap.String("to", string(in.Status)),
		zap.String("admin_id", adminID.String()))

	if in.Status == models.OrderStatusCancelled && !wasCancelled {
		s.notify(ctx, Notification{
			To:      ord.ContactEmail,
			Subject: "Order " + snap.TransactionID + " cancelled",
			Text:    "Your hardware order was cancelled. Contact support if this is unexpected.",
			Kind:    NotifyOrderCancelled,
			OrderID: ord.ID,
		})
	}

	return s.reload(ctx, ord.ID)
}

func (s *orderService) ExportManufacturingArtifact(ctx context.Context, id uuid.UUID) (Artifact, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return Artifact{}, err
	}

	ord, err := s.repo.Orders.GetByID(ctx, id)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ord == nil {
		return Artifact{}, ErrOrderNotFound
	}
	return s.exporter.Render(ctx, ord)
}

func (s *orderService) SweepExpired(ctx context.Context) (int, error) {
	candidates, err := s.repo.Orders.ListPending(ctx)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, cand := range candidates {
		// Перечитываем заказ непосредственно перед решением: параллельный
		// confirm/cancel мог уже увести его из awaiting_confirmation.
		ord, err := s.repo.Orders.GetByID(ctx, cand.ID)
		if err != nil {
			s.log.Error("sweep: reload order failed", zap.String("order_id", cand.ID.String()), zap.Error(err))
			continue
		}
		if ord == nil || ord.Status != models.OrderStatusPending {
			continue
		}
		snap := payment.ReadSnapshot(ord, s.window)
		if !snap.Expired(s.now()) {
			continue
		}
		if err := s.expireOrder(ctx, ord, snap); err != nil {
			s.log.Error("sweep: expire failed", zap.String("order_id", ord.ID.String()), zap.Error(err))
			continue
		}
		expired++
	}
	return expired, nil
}

// expireOrder переводит заказ в cancelled, а платёж — в expired. Вызывается
// только со свежепрочитанным заказом, чей снапшот всё ещё awaiting.
func (s *orderService) expireOrder(ctx context.Context, ord *models.HardwareOrder, snap payment.Snapshot) error {
	now := s.now()
	snap.Status = payment.StatusExpired
	snap.ExpiredAt = &now

	meta, err := payment.WriteSnapshot(ord.Metadata, snap)
	if err != nil {
		return err
	}

	note := noteExpired
	upd := repository.StatusUpdate{
		Status:      models.OrderStatusCancelled,
		StatusNote:  &note,
		ProcessedAt: &now,
		ProcessedBy: ord.ProcessedBy,
		Metadata:    meta,
	}
	if err := s.repo.Orders.UpdateStatusAndMetadata(ctx, ord.ID, upd); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.log.Info("payment window expired, order cancelled",
		zap.String("order_id", ord.ID.String()),
		zap.String("transaction_id", snap.TransactionID))

	s.notify(ctx, Notification{
		To:      ord.ContactEmail,
		Subject: "Payment window expired for order " + snap.TransactionID,
		Text:    "The payment window for your hardware order has expired and the order was cancelled. You can place a new order at any time.",
		Kind:    NotifyPaymentExpired,
		OrderID: ord.ID,
	})
	return nil
}

func (s *orderService) notify(ctx context.Context, n Notification) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Notify(ctx, n)
}

func (s *orderService) reload(ctx context.Context, id uuid.UUID) (*models.HardwareOrder, error) {
	ord, err := s.repo.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ord == nil {
		return nil, ErrOrderNotFound
	}
	return ord, nil
}
