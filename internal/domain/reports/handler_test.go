package reports

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/syedakhiyarhussain/Revenue-Agent/internal/domain/invoice"
)

type mockPublisher struct {
	err   error
	calls int
	last  *MonthlyRevenue
}

func (m *mockPublisher) PushMonthlyRevenue(_ context.Context, report *MonthlyRevenue) error {
	m.calls++
	m.last = report
	return m.err
}

func reportsFixture(t *testing.T, pub Publisher) *Handler {
	t.Helper()
	repo := invoice.NewInMemoryRepo()
	seed(t, repo, "1", 120.00, 40.00, invoice.StatusPending, reportNow.AddDate(0, 0, -3))
	return NewHandler(testService(t, repo), pub)
}

func TestMonthlyRevenueHandler(t *testing.T) {
	h := reportsFixture(t, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := h.MonthlyRevenue(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var report MonthlyRevenue
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.MonthYear != "Jun 2025" || report.TotalRevenue != 120.00 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestAgedARHandler(t *testing.T) {
	h := reportsFixture(t, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := h.AgedAR(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buckets []AgedARBucket
	if err := json.Unmarshal(rec.Body.Bytes(), &buckets); err != nil {
		t.Fatal(err)
	}
	if len(buckets) != 4 {
		t.Fatalf("expected 4 buckets in response, got %d", len(buckets))
	}
}

func TestAgedARXLSXHandler(t *testing.T) {
	h := reportsFixture(t, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := h.AgedARXLSX(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); got == "" {
		t.Error("expected attachment content disposition")
	}
	if rec.Body.Len() == 0 {
		t.Error("expected workbook bytes")
	}
}

func TestMonthlyRevenuePDFHandler(t *testing.T) {
	h := reportsFixture(t, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if err := h.MonthlyRevenuePDF(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %s", ct)
	}
}

func TestPublishHandler(t *testing.T) {
	pub := &mockPublisher{}
	h := reportsFixture(t, pub)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	if err := h.PublishMonthlyRevenue(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if pub.calls != 1 || pub.last == nil || pub.last.MonthYear != "Jun 2025" {
		t.Errorf("expected one publish of the Jun 2025 report, got %d calls", pub.calls)
	}
}

func TestPublishHandler_UpstreamFailure(t *testing.T) {
	pub := &mockPublisher{err: errors.New("CKB returned status 500")}
	h := reportsFixture(t, pub)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	if err := h.PublishMonthlyRevenue(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}

func TestPublishHandler_NotConfigured(t *testing.T) {
	h := reportsFixture(t, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	err := h.PublishMonthlyRevenue(e.NewContext(req, httptest.NewRecorder()))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %v", err)
	}
}
