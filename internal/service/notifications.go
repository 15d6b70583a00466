package service

import (
	"context"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotifyPaymentConfirmed NotificationKind = "payment_confirmed"
	NotifyPaymentExpired   NotificationKind = "payment_expired"
	NotifyOrderCancelled   NotificationKind = "order_cancelled"
)

type Notification struct {
	To      string           `json:"to"`
	Subject string           `json:"subject"`
	Text    string           `json:"text"`
	Kind    NotificationKind `json:"kind"`
	OrderID uuid.UUID        `json:"order_id"`
}

// Notifier — best-effort: ошибка доставки логируется получателем интерфейса
// и никогда не откатывает уже записанный переход.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
