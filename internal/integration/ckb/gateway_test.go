package ckb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/syedakhiyarhussain/Revenue-Agent/internal/domain/reports"
)

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr)
}

func sampleReport() *reports.MonthlyRevenue {
	return &reports.MonthlyRevenue{
		MonthYear:    "Jun 2025",
		TotalRevenue: 1070.00,
		TotalCost:    340.00,
		NetProfit:    730.00,
	}
}

func TestPushMonthlyRevenue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/financial-reports" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("X-CKB-Token"); got != "ckb-secret" {
			t.Errorf("expected X-CKB-Token header, got %q", got)
		}
		var got reports.MonthlyRevenue
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode report: %v", err)
		}
		if got.MonthYear != "Jun 2025" || got.NetProfit != 730.00 {
			t.Errorf("unexpected report: %+v", got)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL, "ckb-secret", 5*time.Second, testLogger())
	if err := gw.PushMonthlyRevenue(context.Background(), sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPushMonthlyRevenue_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	gw := NewGateway(srv.URL, "wrong-token", 5*time.Second, testLogger())
	if err := gw.PushMonthlyRevenue(context.Background(), sampleReport()); err == nil {
		t.Fatal("expected error for rejected report")
	}
}

func TestPushMonthlyRevenue_Unreachable(t *testing.T) {
	gw := NewGateway("http://127.0.0.1:1", "ckb-secret", time.Second, testLogger())
	if err := gw.PushMonthlyRevenue(context.Background(), sampleReport()); err == nil {
		t.Fatal("expected error when CKB is unreachable")
	}
}
