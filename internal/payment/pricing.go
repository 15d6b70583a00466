package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/aumentovaneza/TapLink-sub001/internal/models"
	"github.com/google/uuid"
)

// Все суммы — целые бат, без сотых долей.
const CurrencyTHB = "THB"

// DefaultWindow — окно оплаты по умолчанию: 15 минут с момента создания заказа.
const DefaultWindow = 15 * time.Minute

const (
	unitPriceTag     int64 = 600
	unitPriceCard    int64 = 950
	unitPriceSticker int64 = 350
)

func UnitPrice(p models.ProductType) int64 {
	switch p {
	case models.ProductTypeCard:
		return unitPriceCard
	case models.ProductTypeSticker:
		return unitPriceSticker
	default:
		return unitPriceTag
	}
}

// TransactionID derives the human-facing payment reference from the order id.
// Deterministic: the same order always yields the same reference.
func TransactionID(orderID uuid.UUID) string {
	hex := strings.ToUpper(strings.ReplaceAll(orderID.String(), "-", ""))
	return fmt.Sprintf("PAY-%s-%s-%s", hex[0:4], hex[4:8], hex[8:12])
}

// ComputeInitial builds the payment snapshot attached to a freshly created
// order. Pure function of its inputs; callers validate quantity and product
// type beforehand.
func ComputeInitial(orderID uuid.UUID, product models.ProductType, quantity int, now time.Time, window time.Duration) Snapshot {
	if window <= 0 {
		window = DefaultWindow
	}
	return Snapshot{
		Status:        StatusAwaitingConfirmation,
		TransactionID: TransactionID(orderID),
		AmountDue:     UnitPrice(product) * int64(quantity),
		Currency:      CurrencyTHB,
		CreatedAt:     now,
		ExpiresAt:     now.Add(window),
	}
}

// Контрольные сроки производства после подтверждения оплаты.
const (
	processingOffsetDays = 10
	doneOffsetDays       = 11
	sentOffsetDays       = 12
)

// ComputeTimeline returns the fulfillment milestones for a payment confirmed
// at the given instant. Written once, never recomputed.
func ComputeTimeline(confirmedAt time.Time) Timeline {
	return Timeline{
		ExpectedProcessingAt: confirmedAt.AddDate(0, 0, processingOffsetDays),
		ExpectedDoneAt:       confirmedAt.AddDate(0, 0, doneOffsetDays),
		ExpectedSentAt:       confirmedAt.AddDate(0, 0, sentOffsetDays),
	}
}
