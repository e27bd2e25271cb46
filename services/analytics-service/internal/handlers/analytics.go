package handlers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/salonbook/salonbook/libs/httpx"
	"github.com/salonbook/salonbook/services/analytics-service/internal/cache"
	"github.com/salonbook/salonbook/services/analytics-service/internal/export"
	"github.com/salonbook/salonbook/services/analytics-service/internal/reports"
)

// Reports is implemented by *reports.Engine.
type Reports interface {
	Location() *time.Location
	Overview(ctx context.Context) (reports.Overview, error)
	PopularServices(ctx context.Context, r reports.Range) ([]reports.ServiceCount, error)
	SalonsStats(ctx context.Context, r reports.Range) ([]reports.SalonWorkload, error)
	MastersWorkload(ctx context.Context, r reports.Range) ([]reports.MasterWorkload, error)
	PeakHours(ctx context.Context, r reports.Range) ([]reports.HourCount, error)
	AppointmentsByDay(ctx context.Context, days int) ([]reports.DayCount, error)
	FinancialOverview(ctx context.Context) (reports.FinancialOverview, error)
	FilteredOverview(ctx context.Context, r reports.Range) (reports.FilteredOverview, error)
	RevenueBySalon(ctx context.Context, r reports.Range) ([]reports.SalonRevenue, error)
	RevenueByService(ctx context.Context, r reports.Range) ([]reports.ServiceRevenue, error)
	MasterEarnings(ctx context.Context, r reports.Range) ([]reports.MasterEarnings, error)
	DailyRevenue(ctx context.Context, days int) ([]reports.DayRevenue, error)
	Appointments(ctx context.Context, r reports.Range) ([]reports.Fact, error)
}

type AnalyticsHandler struct {
	reports Reports
	cache   *cache.Cache
	logger  *slog.Logger
}

// NewAnalyticsHandler accepts a nil cache.
func NewAnalyticsHandler(r Reports, c *cache.Cache, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{reports: r, cache: c, logger: logger}
}

const prefix = "/api/v1/analytics/"

func (h *AnalyticsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc(prefix+"overview", h.Overview)
	mux.HandleFunc(prefix+"popular-services", h.PopularServices)
	mux.HandleFunc(prefix+"salons-stats", h.SalonsStats)
	mux.HandleFunc(prefix+"masters-workload", h.MastersWorkload)
	mux.HandleFunc(prefix+"peak-hours", h.PeakHours)
	mux.HandleFunc(prefix+"appointments-by-day", h.AppointmentsByDay)
	mux.HandleFunc(prefix+"financial-overview", h.FinancialOverview)
	mux.HandleFunc(prefix+"filtered-overview", h.FilteredOverview)
	mux.HandleFunc(prefix+"revenue-by-salon", h.RevenueBySalon)
	mux.HandleFunc(prefix+"filtered-revenue-by-salon", h.RevenueBySalon)
	mux.HandleFunc(prefix+"revenue-by-service", h.RevenueByService)
	mux.HandleFunc(prefix+"filtered-revenue-by-service", h.RevenueByService)
	mux.HandleFunc(prefix+"master-earnings", h.MasterEarnings)
	mux.HandleFunc(prefix+"filtered-master-earnings", h.MasterEarnings)
	mux.HandleFunc(prefix+"daily-revenue", h.DailyRevenue)
	mux.HandleFunc(prefix+"export-csv", h.ExportAppointments)
	mux.HandleFunc(prefix+"export-financial-csv", h.ExportFinancial)
	mux.HandleFunc(prefix+"export-masters-csv", h.ExportMasters)
	mux.HandleFunc(prefix+"export-services-csv", h.ExportServices)
}

func (h *AnalyticsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, cache.Key("overview"), h.reports.Overview)
}

func (h *AnalyticsHandler) FinancialOverview(w http.ResponseWriter, r *http.Request) {
	serve(h, w, r, cache.Key("financial-overview"), h.reports.FinancialOverview)
}

func (h *AnalyticsHandler) PopularServices(w http.ResponseWriter, r *http.Request) {
	serveRange(h, w, r, "popular-services", h.reports.PopularServices)
}

func (h *AnalyticsHandler) SalonsStats(w http.ResponseWriter, r *http.Request) {
	serveRange(h, w, r, "salons-stats", h.reports.SalonsStats)
}

func (h *AnalyticsHandler) MastersWorkload(w http.ResponseWriter, r *http.Request) {
	serveRange(h, w, r, "masters-workload", h.reports.MastersWorkload)
}

func (h *AnalyticsHandler) PeakHours(w http.ResponseWriter, r *http.Request) {
	serveRange(h, w, r, "peak-hours", h.reports.PeakHours)
}

func (h *AnalyticsHandler) FilteredOverview(w http.ResponseWriter, r *http.Request) {
	serveRange(h, w, r, "filtered-overview", h.reports.FilteredOverview)
}

func (h *AnalyticsHandler) RevenueBySalon(w http.ResponseWriter, r *http.Request) {
	serveRange(h, w, r, "revenue-by-salon", h.reports.RevenueBySalon)
}

func (h *AnalyticsHandler) RevenueByService(w http.ResponseWriter, r *http.Request) {
	serveRange(h, w, r, "revenue-by-service", h.reports.RevenueByService)
}

func (h *AnalyticsHandler) MasterEarnings(w http.ResponseWriter, r *http.Request) {
	serveRange(h, w, r, "master-earnings", h.reports.MasterEarnings)
}

func (h *AnalyticsHandler) AppointmentsByDay(w http.ResponseWriter, r *http.Request) {
	serveDays(h, w, r, "appointments-by-day", h.reports.AppointmentsByDay)
}

func (h *AnalyticsHandler) DailyRevenue(w http.ResponseWriter, r *http.Request) {
	serveDays(h, w, r, "daily-revenue", h.reports.DailyRevenue)
}

func (h *AnalyticsHandler) ExportAppointments(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	facts, err := h.reports.Appointments(r.Context(), rng)
	if h.failed(w, err, "export appointments") {
		return
	}
	h.writeCSV(w, export.AppointmentsFile, func(buf *bytes.Buffer) error {
		return export.Appointments(buf, facts, h.reports.Location())
	})
}

func (h *AnalyticsHandler) ExportFinancial(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	rows, err := h.reports.RevenueBySalon(r.Context(), rng)
	if h.failed(w, err, "export financial report") {
		return
	}
	h.writeCSV(w, export.FinancialFile, func(buf *bytes.Buffer) error { return export.Financial(buf, rows) })
}

func (h *AnalyticsHandler) ExportMasters(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	rows, err := h.reports.MasterEarnings(r.Context(), rng)
	if h.failed(w, err, "export masters report") {
		return
	}
	h.writeCSV(w, export.MastersFile, func(buf *bytes.Buffer) error { return export.Masters(buf, rows) })
}

func (h *AnalyticsHandler) ExportServices(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	rows, err := h.reports.RevenueByService(r.Context(), rng)
	if h.failed(w, err, "export services report") {
		return
	}
	h.writeCSV(w, export.ServicesFile, func(buf *bytes.Buffer) error { return export.Services(buf, rows) })
}

func serve[T any](h *AnalyticsHandler, w http.ResponseWriter, r *http.Request, key string, load func(context.Context) (T, error)) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	out, err := cache.Fetch(r.Context(), h.cache, key, load)
	if h.failed(w, err, "build report") {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func serveRange[T any](h *AnalyticsHandler, w http.ResponseWriter, r *http.Request, name string, load func(context.Context, reports.Range) (T, error)) {
	rng, ok := h.parseRange(w, r)
	if !ok {
		return
	}
	key := cache.Key(name, rng.From.UTC().Format(time.RFC3339Nano), rng.To.UTC().Format(time.RFC3339Nano))
	serve(h, w, r, key, func(ctx context.Context) (T, error) { return load(ctx, rng) })
}

func serveDays[T any](h *AnalyticsHandler, w http.ResponseWriter, r *http.Request, name string, load func(context.Context, int) (T, error)) {
	days, err := reports.ParseDays(r.URL.Query().Get("days"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	serve(h, w, r, cache.Key(name, strconv.Itoa(days)), func(ctx context.Context) (T, error) { return load(ctx, days) })
}

func (h *AnalyticsHandler) parseRange(w http.ResponseWriter, r *http.Request) (reports.Range, bool) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return reports.Range{}, false
	}
	q := r.URL.Query()
	rng, err := reports.ParseRange(q.Get("start_date"), q.Get("end_date"), h.reports.Location())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return reports.Range{}, false
	}
	return rng, true
}

func (h *AnalyticsHandler) failed(w http.ResponseWriter, err error, op string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		h.logger.Warn(op+" cancelled", "err", err)
	} else {
		h.logger.Error(op+" failed", "err", err)
	}
	http.Error(w, "failed to "+op, http.StatusInternalServerError)
	return true
}

// writeCSV buffers the whole file before any header is written.
func (h *AnalyticsHandler) writeCSV(w http.ResponseWriter, filename string, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		h.logger.Error("render csv failed", "err", err, "file", filename)
		http.Error(w, "failed to render csv", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
