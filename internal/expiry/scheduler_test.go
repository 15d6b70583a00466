package expiry_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aumentovaneza/TapLink-sub001/internal/expiry"
	"github.com/aumentovaneza/TapLink-sub001/internal/models"
	"github.com/aumentovaneza/TapLink-sub001/internal/repository"
	"github.com/aumentovaneza/TapLink-sub001/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sweepOnlyService — заглушка: планировщику нужен только SweepExpired.
type sweepOnlyService struct {
	sweeps atomic.Int64
}

func (s *sweepOnlyService) SweepExpired(ctx context.Context) (int, error) {
	s.sweeps.Add(1)
	return 0, nil
}

func (s *sweepOnlyService) CreateOrder(ctx context.Context, in service.CreateOrderInput) (*models.HardwareOrder, error) {
	return nil, nil
}
func (s *sweepOnlyService) FetchForPayment(ctx context.Context, id uuid.UUID) (*service.PaymentPage, error) {
	return nil, nil
}
func (s *sweepOnlyService) ConfirmPayment(ctx context.Context, id uuid.UUID, r service.ReceiptUpload, ref string) (*models.HardwareOrder, error) {
	return nil, nil
}
func (s *sweepOnlyService) CancelBeforePayment(ctx context.Context, id uuid.UUID) (*models.HardwareOrder, error) {
	return nil, nil
}
func (s *sweepOnlyService) ListMyOrders(ctx context.Context, f repository.ListFilter) ([]*models.HardwareOrder, int64, error) {
	return nil, 0, nil
}
func (s *sweepOnlyService) AdminListOrders(ctx context.Context, f repository.AdminListFilter) ([]*models.HardwareOrder, int64, error) {
	return nil, 0, nil
}
func (s *sweepOnlyService) AdminUpdateStatus(ctx context.Context, id uuid.UUID, in service.AdminStatusInput) (*models.HardwareOrder, error) {
	return nil, nil
}
func (s *sweepOnlyService) ExportManufacturingArtifact(ctx context.Context, id uuid.UUID) (service.Artifact, error) {
	return service.Artifact{}, nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestScheduler_SweepsEagerlyOnStart(t *testing.T) {
	svc := &sweepOnlyService{}
	sch := expiry.NewScheduler(svc, time.Hour, zap.NewNop())

	sch.Start(context.Background())
	waitFor(t, time.Second, func() bool { return svc.sweeps.Load() == 1 })
	sch.Stop()

	// Интервал в час: кроме стартового прогона ничего не должно случиться.
	if got := svc.sweeps.Load(); got != 1 {
		t.Fatalf("expected exactly the eager sweep, got %d", got)
	}
}

func TestScheduler_TicksOnInterval(t *testing.T) {
	svc := &sweepOnlyService{}
	sch := expiry.NewScheduler(svc, 10*time.Millisecond, zap.NewNop())

	sch.Start(context.Background())
	waitFor(t, 2*time.Second, func() bool { return svc.sweeps.Load() >= 3 })
	sch.Stop()
}

func TestScheduler_StopWaitsForGoroutine(t *testing.T) {
	svc := &sweepOnlyService{}
	sch := expiry.NewScheduler(svc, time.Hour, zap.NewNop())

	sch.Start(context.Background())
	waitFor(t, time.Second, func() bool { return svc.sweeps.Load() == 1 })

	done := make(chan struct{})
	go func() {
		sch.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	after := svc.sweeps.Load()
	time.Sleep(30 * time.Millisecond)
	if svc.sweeps.Load() != after {
		t.Fatal("sweeps continued after Stop")
	}
}

func TestScheduler_ContextCancelStopsRun(t *testing.T) {
	svc := &sweepOnlyService{}
	sch := expiry.NewScheduler(svc, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	sch.Start(ctx)
	waitFor(t, time.Second, func() bool { return svc.sweeps.Load() >= 1 })
	cancel()

	// Stop после отмены контекста не должен зависнуть.
	done := make(chan struct{})
	go func() {
		sch.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop hung after context cancellation")
	}
}

func TestScheduler_StopIdempotent(t *testing.T) {
	svc := &sweepOnlyService{}
	sch := expiry.NewScheduler(svc, time.Hour, zap.NewNop())

	sch.Start(context.Background())
	waitFor(t, time.Second, func() bool { return svc.sweeps.Load() == 1 })

	sch.Stop()
	// Повторный Stop не должен ни паниковать, ни блокироваться.
	sch.Stop()
}

func TestScheduler_StopBeforeStartReturns(t *testing.T) {
	sch := expiry.NewScheduler(&sweepOnlyService{}, time.Hour, zap.NewNop())

	done := make(chan struct{})
	go func() {
		sch.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop before Start must return immediately")
	}
}

func TestScheduler_DefaultsInterval(t *testing.T) {
	sch := expiry.NewScheduler(&sweepOnlyService{}, 0, zap.NewNop())
	if sch == nil {
		t.Fatal("scheduler must be constructed with the default interval")
	}
}
