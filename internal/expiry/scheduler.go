package expiry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aumentovaneza/TapLink-sub001/internal/service"
	"go.uber.org/zap"
)

// DefaultInterval — период фонового обхода просроченных оплат.
const DefaultInterval = 60 * time.Second

// Scheduler периодически запускает sweep просроченных окон оплаты на всём
// времени жизни процесса. Останавливается детерминированно через Stop.
type Scheduler struct {
	svc      service.OrderService
	interval time.Duration
	log      *zap.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
}

func NewScheduler(svc service.OrderService, interval time.Duration, log *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		svc:      svc,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start запускает планировщик. Повторный вызов — no-op.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	s.log.Info("starting payment expiry scheduler", zap.Duration("interval", s.interval))
	go s.run(ctx)
}

// Stop останавливает планировщик и дожидается завершения горутины.
// Безопасен при повторном вызове и до Start.
func (s *Scheduler) Stop() {
	if !s.started.Load() {
		return
	}
	s.log.Info("stopping payment expiry scheduler")
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Выполняем сразу при старте
	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopCh:
			s.log.Info("payment expiry scheduler stopped")
			return
		case <-ctx.Done():
			s.log.Info("payment expiry scheduler cancelled")
			return
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	n, err := s.svc.SweepExpired(ctx)
	if err != nil {
		s.log.Error("payment expiry sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("expired stale payment windows", zap.Int("count", n))
	}
}
