package payment_test

import (
	"testing"
	"time"

	"github.com/aumentovaneza/TapLink-sub001/internal/models"
	"github.com/aumentovaneza/TapLink-sub001/internal/payment"
	"github.com/google/uuid"
)

func TestComputeInitial_Deterministic(t *testing.T) {
	id := uuid.New()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	a := payment.ComputeInitial(id, models.ProductTypeTag, 2, now, payment.DefaultWindow)
	b := payment.ComputeInitial(id, models.ProductTypeTag, 2, now, payment.DefaultWindow)

	if a.TransactionID != b.TransactionID {
		t.Fatalf("transaction id not deterministic: %q vs %q", a.TransactionID, b.TransactionID)
	}
	if a.AmountDue != b.AmountDue {
		t.Fatalf("amount not deterministic: %d vs %d", a.AmountDue, b.AmountDue)
	}
}

func TestComputeInitial_AmountAndWindow(t *testing.T) {
	id := uuid.New()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	snap := payment.ComputeInitial(id, models.ProductTypeTag, 2, now, payment.DefaultWindow)

	if snap.AmountDue != 1200 {
		t.Fatalf("TAG x2 expected 1200, got %d", snap.AmountDue)
	}
	if snap.Currency != payment.CurrencyTHB {
		t.Fatalf("currency mismatch: %s", snap.Currency)
	}
	if snap.Status != payment.StatusAwaitingConfirmation {
		t.Fatalf("fresh snapshot must await confirmation, got %s", snap.Status)
	}
	if !snap.ExpiresAt.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("expiresAt mismatch: %v", snap.ExpiresAt)
	}
}

func TestTransactionID_Format(t *testing.T) {
	id := uuid.MustParse("1a2b3c4d-5e6f-7a8b-9c0d-1e2f3a4b5c6d")
	got := payment.TransactionID(id)
	want := "PAY-1A2B-3C4D-5E6F"
	if got != want {
		t.Fatalf("transaction id: got %q want %q", got, want)
	}
}

func TestExpired_WindowBoundary(t *testing.T) {
	id := uuid.New()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := payment.ComputeInitial(id, models.ProductTypeTag, 1, now, payment.DefaultWindow)

	if snap.Expired(snap.ExpiresAt.Add(-time.Millisecond)) {
		t.Fatal("must not be expired 1ms before the boundary")
	}
	if !snap.Expired(snap.ExpiresAt) {
		t.Fatal("must be expired exactly at the boundary")
	}
}

func TestExpired_OnlyWhileAwaiting(t *testing.T) {
	id := uuid.New()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	late := now.Add(time.Hour)

	for _, st := range []payment.Status{payment.StatusConfirmed, payment.StatusExpired, payment.StatusCancelled} {
		snap := payment.ComputeInitial(id, models.ProductTypeTag, 1, now, payment.DefaultWindow)
		snap.Status = st
		if snap.Expired(late) {
			t.Fatalf("status %s must never report expired", st)
		}
	}
}

func TestComputeTimeline_Offsets(t *testing.T) {
	confirmed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tl := payment.ComputeTimeline(confirmed)

	if !tl.ExpectedProcessingAt.Equal(confirmed.AddDate(0, 0, 10)) {
		t.Fatalf("processing milestone: %v", tl.ExpectedProcessingAt)
	}
	if !tl.ExpectedDoneAt.Equal(confirmed.AddDate(0, 0, 11)) {
		t.Fatalf("done milestone: %v", tl.ExpectedDoneAt)
	}
	if !tl.ExpectedSentAt.Equal(confirmed.AddDate(0, 0, 12)) {
		t.Fatalf("sent milestone: %v", tl.ExpectedSentAt)
	}
}

func TestUnitPrice_PerProduct(t *testing.T) {
	cases := map[models.ProductType]int64{
		models.ProductTypeTag:     600,
		models.ProductTypeCard:    950,
		models.ProductTypeSticker: 350,
	}
	for product, want := range cases {
		if got := payment.UnitPrice(product); got != want {
			t.Fatalf("%s: got %d want %d", product, got, want)
		}
	}
}
