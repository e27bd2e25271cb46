package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/salonbook/salonbook/libs/domain"
	"github.com/salonbook/salonbook/services/analytics-service/internal/reports"
)

type memSource struct {
	facts []reports.Fact
	err   error
}

func (m *memSource) Facts(context.Context, reports.Range) ([]reports.Fact, error) {
	return m.facts, m.err
}

func (m *memSource) Counts(context.Context) (reports.Counts, error) {
	return reports.Counts{Salons: 1, Masters: 1, Clients: 1}, m.err
}

func newTestMux(src *memSource) *http.ServeMux {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	engine := reports.NewEngine(src, time.UTC, func() time.Time { return now })
	mux := http.NewServeMux()
	NewAnalyticsHandler(engine, nil, slog.New(slog.NewJSONHandler(io.Discard, nil))).Register(mux)
	return mux
}

func seed() *memSource {
	base := reports.Fact{MasterID: 1, MasterName: "Anna", HourlyRate: 300, SalonID: 1, SalonName: "Beauty", ClientName: "Ivan"}
	mk := func(id int64, day int, svc domain.Service, price float64, status domain.Status) reports.Fact {
		f := base
		f.ID, f.Service, f.Price, f.Status = id, svc, price, status
		f.StartTime = time.Date(2024, 3, day, 10, 0, 0, 0, time.UTC)
		return f
	}
	return &memSource{facts: []reports.Fact{
		mk(1, 1, domain.ServiceHaircut, 1500, domain.StatusConfirmed),
		mk(2, 10, domain.ServiceColoring, 3500, domain.StatusConfirmed),
		mk(3, 12, domain.ServicePedicure, 2000, domain.StatusCancelled),
	}}
}

func get(mux http.Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestFinancialOverviewEndpoint(t *testing.T) {
	rr := get(newTestMux(seed()), "/api/v1/analytics/financial-overview")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var out reports.FinancialOverview
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.TotalRevenue != 5000 || out.AverageCheck != 2500 || out.CancelledCount != 1 {
		t.Fatalf("unexpected overview %+v", out)
	}
}

func TestFilteredEndpointsAcceptRange(t *testing.T) {
	mux := newTestMux(seed())

	rr := get(mux, "/api/v1/analytics/filtered-overview?start_date=2024-03-05&end_date=2024-03-31T23:59:59")
	var out reports.FilteredOverview
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.TotalRevenue != 3500 || out.TotalAppointments != 1 || out.CancelledRevenue != 2000 {
		t.Fatalf("unexpected filtered overview %+v", out)
	}

	rr = get(mux, "/api/v1/analytics/filtered-revenue-by-service?start_date=2024-02-01")
	var services []reports.ServiceRevenue
	if err := json.Unmarshal(rr.Body.Bytes(), &services); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(services) != 2 || services[0].Service != domain.ServiceColoring {
		t.Fatalf("unexpected services %+v", services)
	}
}

func TestBadParametersAre400(t *testing.T) {
	mux := newTestMux(seed())
	for _, path := range []string{
		"/api/v1/analytics/filtered-overview?start_date=notadate",
		"/api/v1/analytics/revenue-by-salon?end_date=2024-02-30",
		"/api/v1/analytics/daily-revenue?days=-3",
		"/api/v1/analytics/appointments-by-day?days=ten",
		"/api/v1/analytics/export-csv?start_date=31.12.2024",
	} {
		if rr := get(mux, path); rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, rr.Code)
		}
	}
}

func TestStoreFailureIs500(t *testing.T) {
	rr := get(newTestMux(&memSource{err: errors.New("db down")}), "/api/v1/analytics/overview")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestCSVExports(t *testing.T) {
	mux := newTestMux(seed())
	cases := map[string]string{
		"/api/v1/analytics/export-csv":           "analytics.csv",
		"/api/v1/analytics/export-financial-csv": "financial_report.csv",
		"/api/v1/analytics/export-masters-csv":   "masters_report.csv",
		"/api/v1/analytics/export-services-csv":  "services_report.csv",
	}
	for path, file := range cases {
		rr := get(mux, path)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
			t.Fatalf("%s: unexpected content type %q", path, ct)
		}
		if cd := rr.Header().Get("Content-Disposition"); cd != "attachment; filename="+file {
			t.Fatalf("%s: unexpected disposition %q", path, cd)
		}
	}

	rr := get(mux, "/api/v1/analytics/export-financial-csv")
	if body := rr.Body.String(); body != "Salon,Revenue,Appointments\nBeauty,5000.00,2\n" {
		t.Fatalf("unexpected financial csv %q", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestMux(seed()).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/analytics/peak-hours", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
