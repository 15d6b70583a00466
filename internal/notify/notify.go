package notify

import (
	"context"
	"encoding/json"

	"github.com/aumentovaneza/TapLink-sub001/internal/service"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Dispatcher реализует service.Notifier. Режим выбирается по конфигурации
// один раз: публикация в Kafka для notification-сервиса, прямая отправка
// по SMTP, либо запись в лог, если не настроено ничего. Отказ доставки
// логируется и не возвращается туда, где переход уже записан.
type Dispatcher struct {
	writer *kafka.Writer
	mailer Mailer
	log    *zap.Logger
}

// Mailer — прямой канал доставки (SMTP); nil, если не настроен.
type Mailer interface {
	Send(n service.Notification) error
}

func NewDispatcher(writer *kafka.Writer, mailer Mailer, log *zap.Logger) *Dispatcher {
	return &Dispatcher{writer: writer, mailer: mailer, log: log}
}

func (d *Dispatcher) Notify(ctx context.Context, n service.Notification) error {
	switch {
	case d.writer != nil:
		if err := d.publish(ctx, n); err != nil {
			d.log.Error("notification publish failed",
				zap.String("kind", string(n.Kind)),
				zap.String("order_id", n.OrderID.String()),
				zap.Error(err))
		}
	case d.mailer != nil:
		if err := d.mailer.Send(n); err != nil {
			d.log.Error("notification send failed",
				zap.String("kind", string(n.Kind)),
				zap.String("to", n.To),
				zap.Error(err))
		}
	default:
		d.log.Info("notification simulated (no delivery channel configured)",
			zap.String("kind", string(n.Kind)),
			zap.String("to", n.To),
			zap.String("subject", n.Subject))
	}
	return nil
}

func (d *Dispatcher) publish(ctx context.Context, n service.Notification) error {
	value, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return d.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.OrderID.String()),
		Value: value,
	})
}

// NewEmailWriter создаёт kafka-writer для топика email-уведомлений.
func NewEmailWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
}
