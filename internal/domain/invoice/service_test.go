package invoice

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr)
}

func seedRecord(t *testing.T, repo Repository, id string, billed time.Time) *Record {
	t.Helper()
	rec := &Record{
		InvoiceID:     id,
		PatientID:     "P456",
		ProcedureCode: "D1110",
		ChargeAmount:  120.00,
		CostAmount:    40.00,
		PaymentStatus: StatusPending,
		BillingDate:   billed,
		CreatedAt:     billed,
	}
	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return rec
}

func TestUpdatePaymentStatus_UnknownIDIsNotAnError(t *testing.T) {
	svc := NewService(NewInMemoryRepo(), testLogger())

	updated, err := svc.UpdatePaymentStatus(context.Background(), "INV-404", Update{
		PaymentStatus: StatusAging30,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated {
		t.Error("expected updated=false for unknown id")
	}
}

func TestUpdatePaymentStatus_InvalidStatus(t *testing.T) {
	repo := NewInMemoryRepo()
	seedRecord(t, repo, "INV-1", time.Now())
	svc := NewService(repo, testLogger())

	if _, err := svc.UpdatePaymentStatus(context.Background(), "INV-1", Update{
		PaymentStatus: "Overdue",
	}); err == nil {
		t.Fatal("expected error for invalid status")
	}
}

func TestUpdatePaymentStatus_PaidRequiresDate(t *testing.T) {
	repo := NewInMemoryRepo()
	seedRecord(t, repo, "INV-1", time.Now())
	svc := NewService(repo, testLogger())

	_, err := svc.UpdatePaymentStatus(context.Background(), "INV-1", Update{
		PaymentStatus: StatusPaid,
	})
	if !errors.Is(err, ErrPaidWithoutDate) {
		t.Fatalf("expected ErrPaidWithoutDate, got %v", err)
	}

	rec, err := repo.GetByID(context.Background(), "INV-1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.PaymentStatus != StatusPending {
		t.Errorf("rejected update must not change status, got %s", rec.PaymentStatus)
	}
}

func TestUpdatePaymentStatus_MarkPaid(t *testing.T) {
	repo := NewInMemoryRepo()
	seedRecord(t, repo, "INV-1", time.Now())
	svc := NewService(repo, testLogger())

	paidOn := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	updated, err := svc.UpdatePaymentStatus(context.Background(), "INV-1", Update{
		PaymentStatus: StatusPaid,
		PaymentDate:   &paidOn,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated {
		t.Fatal("expected updated=true")
	}

	rec, _ := repo.GetByID(context.Background(), "INV-1")
	if rec.PaymentStatus != StatusPaid {
		t.Errorf("expected Paid, got %s", rec.PaymentStatus)
	}
	if rec.PaymentDate == nil || !rec.PaymentDate.Equal(paidOn) {
		t.Errorf("expected payment date %v, got %v", paidOn, rec.PaymentDate)
	}
}

func TestUpdatePaymentStatus_NilDatePreservesExisting(t *testing.T) {
	repo := NewInMemoryRepo()
	seedRecord(t, repo, "INV-1", time.Now())
	svc := NewService(repo, testLogger())

	paidOn := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	if _, err := svc.UpdatePaymentStatus(context.Background(), "INV-1", Update{
		PaymentStatus: StatusPaid,
		PaymentDate:   &paidOn,
	}); err != nil {
		t.Fatal(err)
	}

	// Later status change without a date must not clear the recorded one.
	if _, err := svc.UpdatePaymentStatus(context.Background(), "INV-1", Update{
		PaymentStatus: StatusPending,
	}); err != nil {
		t.Fatal(err)
	}

	rec, _ := repo.GetByID(context.Background(), "INV-1")
	if rec.PaymentDate == nil || !rec.PaymentDate.Equal(paidOn) {
		t.Errorf("expected payment date %v to survive, got %v", paidOn, rec.PaymentDate)
	}
}

func TestFallbackID(t *testing.T) {
	if got := FallbackID("C42"); got != "ERR-C42" {
		t.Errorf("expected ERR-C42, got %s", got)
	}
}
