package pipeline

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/syedakhiyarhussain/Revenue-Agent/internal/domain/invoice"
	"github.com/syedakhiyarhussain/Revenue-Agent/internal/integration/clinical"
)

func runProcessRequest(t *testing.T, orch *Orchestrator, caseID string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/procedures/:case_id/invoice")
	c.SetParamNames("case_id")
	c.SetParamValues(caseID)

	h := NewHandler(orch)
	return rec, h.ProcessProcedure(c)
}

func TestProcessProcedureHandler_Created(t *testing.T) {
	repo := invoice.NewInMemoryRepo()
	orch := newTestOrchestrator(t, &mockClinical{event: completedProcedure()}, &mockRegistrar{refID: "INV-1"}, repo)

	rec, err := runProcessRequest(t, orch, "C42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
}

func TestProcessProcedureHandler_CaseNotFound(t *testing.T) {
	repo := invoice.NewInMemoryRepo()
	orch := newTestOrchestrator(t, &mockClinical{err: clinical.ErrCaseNotFound}, &mockRegistrar{}, repo)

	_, err := runProcessRequest(t, orch, "C404")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", httpErr.Code)
	}
}

func TestProcessProcedureHandler_Unbillable(t *testing.T) {
	repo := invoice.NewInMemoryRepo()
	ev := completedProcedure()
	ev.ProcedureCode = "D9999"
	orch := newTestOrchestrator(t, &mockClinical{event: ev}, &mockRegistrar{}, repo)

	_, err := runProcessRequest(t, orch, "C42")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", httpErr.Code)
	}
}

func TestProcessProcedureHandler_ClinicalOutage(t *testing.T) {
	repo := invoice.NewInMemoryRepo()
	orch := newTestOrchestrator(t, &mockClinical{err: errors.New("dial tcp: timeout")}, &mockRegistrar{}, repo)

	_, err := runProcessRequest(t, orch, "C42")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", httpErr.Code)
	}
}

func TestProcessProcedureHandler_PersistFailure(t *testing.T) {
	repo := &failingRepo{Repository: invoice.NewInMemoryRepo()}
	orch := newTestOrchestrator(t, &mockClinical{event: completedProcedure()}, &mockRegistrar{refID: "INV-1"}, repo)

	_, err := runProcessRequest(t, orch, "C42")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", httpErr.Code)
	}
}
