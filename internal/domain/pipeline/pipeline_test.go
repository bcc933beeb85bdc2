package pipeline

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/syedakhiyarhussain/Revenue-Agent/internal/domain/invoice"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/domain/pricing"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/integration/clinical"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/integration/registrar"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/platform/metrics"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockClinical struct {
	event *clinical.ProcedureEvent
	err   error
}

func (m *mockClinical) FetchProcedure(_ context.Context, _ string) (*clinical.ProcedureEvent, error) {
	return m.event, m.err
}

type mockRegistrar struct {
	refID string
	err   error
	calls int
}

func (m *mockRegistrar) Register(_ context.Context, _ *registrar.Draft) (string, error) {
	m.calls++
	return m.refID, m.err
}

type failingRepo struct {
	invoice.Repository
}

func (f *failingRepo) Create(_ context.Context, _ *invoice.Record) error {
	return errors.New("connection refused")
}

// ---------------------------------------------------------------------------

func newTestOrchestrator(t *testing.T, source ClinicalSource, reg Registrar, repo invoice.Repository) *Orchestrator {
	t.Helper()
	logger := zerolog.New(os.Stderr)
	m := metrics.New(prometheus.NewRegistry())
	pricer := pricing.NewEngine(pricing.NewFeeSchedule(nil), logger)
	return NewOrchestrator(source, pricer, reg, repo, logger, m)
}

func completedProcedure() *clinical.ProcedureEvent {
	return &clinical.ProcedureEvent{
		PatientID:      "P456",
		ProcedureCode:  "D1110",
		ProviderID:     "DR01",
		CompletionDate: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
		InternalCost:   40.00,
	}
}

func TestProcessCompletedProcedure_Success(t *testing.T) {
	repo := invoice.NewInMemoryRepo()
	reg := &mockRegistrar{refID: "INV-2025-001"}
	orch := newTestOrchestrator(t, &mockClinical{event: completedProcedure()}, reg, repo)

	outcome, err := orch.ProcessCompletedProcedure(context.Background(), "C42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !outcome.ExternallyRegistered {
		t.Error("expected externally_registered to be true")
	}
	if outcome.Record.InvoiceID != "INV-2025-001" {
		t.Errorf("expected external reference id, got %s", outcome.Record.InvoiceID)
	}
	if outcome.Record.PaymentStatus != invoice.StatusPending {
		t.Errorf("expected Pending, got %s", outcome.Record.PaymentStatus)
	}
	if outcome.ProfitEstimate != 80.00 {
		t.Errorf("expected profit estimate 80.00, got %v", outcome.ProfitEstimate)
	}

	stored, err := repo.GetByID(context.Background(), "INV-2025-001")
	if err != nil {
		t.Fatalf("expected invoice to be persisted: %v", err)
	}
	if stored.ChargeAmount != 120.00 {
		t.Errorf("expected charge 120.00, got %v", stored.ChargeAmount)
	}
}

func TestProcessCompletedProcedure_RegistrarDownIsNotFatal(t *testing.T) {
	repo := invoice.NewInMemoryRepo()
	reg := &mockRegistrar{err: errors.New("registrar unreachable")}
	orch := newTestOrchestrator(t, &mockClinical{event: completedProcedure()}, reg, repo)

	outcome, err := orch.ProcessCompletedProcedure(context.Background(), "C42")
	if err != nil {
		t.Fatalf("expected degraded success, got error: %v", err)
	}

	if outcome.ExternallyRegistered {
		t.Error("expected externally_registered to be false")
	}
	if outcome.Record.InvoiceID != "ERR-C42" {
		t.Errorf("expected fallback id ERR-C42, got %s", outcome.Record.InvoiceID)
	}

	stored, err := repo.GetByID(context.Background(), "ERR-C42")
	if err != nil {
		t.Fatalf("expected invoice tracked under fallback id: %v", err)
	}
	if stored.PaymentStatus != invoice.StatusPending {
		t.Errorf("expected Pending, got %s", stored.PaymentStatus)
	}
}

func TestProcessCompletedProcedure_FetchFailureIsTerminal(t *testing.T) {
	repo := invoice.NewInMemoryRepo()
	reg := &mockRegistrar{refID: "INV-1"}
	orch := newTestOrchestrator(t, &mockClinical{err: clinical.ErrCaseNotFound}, reg, repo)

	_, err := orch.ProcessCompletedProcedure(context.Background(), "C404")
	if err == nil {
		t.Fatal("expected error")
	}

	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StageFetch {
		t.Fatalf("expected fetch stage error, got %v", err)
	}
	if !errors.Is(err, clinical.ErrCaseNotFound) {
		t.Errorf("expected wrapped ErrCaseNotFound, got %v", err)
	}
	if reg.calls != 0 {
		t.Error("registrar must not be called when fetch fails")
	}
	if all, _ := repo.ListAll(context.Background()); len(all) != 0 {
		t.Error("no invoice may be persisted when fetch fails")
	}
}

func TestProcessCompletedProcedure_UnbillableProcedure(t *testing.T) {
	repo := invoice.NewInMemoryRepo()
	reg := &mockRegistrar{refID: "INV-1"}
	ev := completedProcedure()
	ev.ProcedureCode = "D9999"
	orch := newTestOrchestrator(t, &mockClinical{event: ev}, reg, repo)

	_, err := orch.ProcessCompletedProcedure(context.Background(), "C42")
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StagePrice {
		t.Fatalf("expected price stage error, got %v", err)
	}
	if !errors.Is(err, pricing.ErrZeroCharge) {
		t.Errorf("expected wrapped ErrZeroCharge, got %v", err)
	}
	if reg.calls != 0 {
		t.Error("registrar must not be called for unbillable procedures")
	}
	if all, _ := repo.ListAll(context.Background()); len(all) != 0 {
		t.Error("no invoice may be persisted for unbillable procedures")
	}
}

func TestProcessCompletedProcedure_PersistFailureIsFatal(t *testing.T) {
	repo := &failingRepo{Repository: invoice.NewInMemoryRepo()}
	reg := &mockRegistrar{refID: "INV-1"}
	orch := newTestOrchestrator(t, &mockClinical{event: completedProcedure()}, reg, repo)

	_, err := orch.ProcessCompletedProcedure(context.Background(), "C42")
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != StagePersist {
		t.Fatalf("expected persist stage error, got %v", err)
	}
}
