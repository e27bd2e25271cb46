package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/salonbook/salonbook/libs/domain"
	"github.com/salonbook/salonbook/libs/httpx"
	"github.com/salonbook/salonbook/services/booking-service/internal/availability"
	"github.com/salonbook/salonbook/services/booking-service/internal/model"
	"github.com/salonbook/salonbook/services/booking-service/internal/storage"
)

// Store is the persistence the handler needs. *storage.BookingRepository implements it.
type Store interface {
	Book(ctx context.Context, appt model.Appointment) (model.Appointment, error)
	Cancel(ctx context.Context, id int64) (model.Appointment, bool, error)
	Get(ctx context.Context, id int64) (model.Appointment, error)
	List(ctx context.Context, f model.ListFilter) ([]model.Appointment, error)
}

// SlotFinder is implemented by *availability.Calculator.
type SlotFinder interface {
	ForDate(ctx context.Context, masterID int64, date string) ([]availability.Slot, error)
}

type BookingHandler struct {
	store  Store
	slots  SlotFinder
	logger *slog.Logger
	loc    *time.Location
}

func NewBookingHandler(store Store, slots SlotFinder, logger *slog.Logger, loc *time.Location) *BookingHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingHandler{store: store, slots: slots, logger: logger, loc: loc}
}

// Register mounts the booking routes on mux.
func (h *BookingHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/appointments", h.Collection)
	mux.HandleFunc("/api/v1/appointments/{id}", h.Get)
	mux.HandleFunc("/api/v1/appointments/{id}/cancel", h.Cancel)
	mux.HandleFunc("/api/v1/masters/{id}/available-slots", h.Slots)
}

type createAppointmentRequest struct {
	MasterID  int64    `json:"master_id"`
	ClientID  int64    `json:"client_id"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	Service   string   `json:"service"`
	Price     *float64 `json:"price"`
}

type appointmentItem struct {
	ID          int64   `json:"id"`
	MasterID    int64   `json:"master_id"`
	ClientID    int64   `json:"client_id"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Service     string  `json:"service"`
	ServiceName string  `json:"service_name"`
	Price       float64 `json:"price"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	CancelledAt string  `json:"cancelled_at,omitempty"`
}

func toItem(a model.Appointment) appointmentItem {
	item := appointmentItem{
		ID:          a.ID,
		MasterID:    a.MasterID,
		ClientID:    a.ClientID,
		StartTime:   a.StartTime.UTC().Format(time.RFC3339),
		EndTime:     a.EndTime.UTC().Format(time.RFC3339),
		Service:     string(a.Service),
		ServiceName: a.Service.DisplayName(),
		Price:       a.Price,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.CancelledAt != nil {
		item.CancelledAt = a.CancelledAt.UTC().Format(time.RFC3339)
	}
	return item
}

func (h *BookingHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.List(w, r)
	case http.MethodPost:
		h.Create(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAppointmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	appt, msg := h.validateCreate(req)
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	created, err := h.store.Book(r.Context(), appt)
	switch {
	case errors.Is(err, storage.ErrSlotTaken):
		http.Error(w, "time slot already booked", http.StatusConflict)
		return
	case errors.Is(err, storage.ErrUnknownMaster):
		http.Error(w, "master does not exist", http.StatusUnprocessableEntity)
		return
	case errors.Is(err, storage.ErrUnknownClient):
		http.Error(w, "client does not exist", http.StatusUnprocessableEntity)
		return
	case err != nil:
		h.logger.Error("create appointment failed", "err", err)
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toItem(created))
}

// validateCreate returns the appointment to insert or a client-facing message.
func (h *BookingHandler) validateCreate(req createAppointmentRequest) (model.Appointment, string) {
	if req.MasterID <= 0 || req.ClientID <= 0 {
		return model.Appointment{}, "master_id and client_id are required"
	}
	start, err := domain.ParseDateTime(req.StartTime, h.loc)
	if err != nil {
		return model.Appointment{}, "invalid start_time"
	}
	end, err := domain.ParseDateTime(req.EndTime, h.loc)
	if err != nil {
		return model.Appointment{}, "invalid end_time"
	}
	if !end.After(start) {
		return model.Appointment{}, "end_time must be after start_time"
	}
	service, err := domain.ParseService(req.Service)
	if err != nil {
		return model.Appointment{}, "unknown service"
	}
	price := service.ListPrice()
	if req.Price != nil {
		if *req.Price < 0 {
			return model.Appointment{}, "price must not be negative"
		}
		price = *req.Price
	}
	return model.Appointment{
		MasterID:  req.MasterID,
		ClientID:  req.ClientID,
		StartTime: start,
		EndTime:   end,
		Service:   service,
		Price:     price,
		Status:    domain.StatusConfirmed,
	}, ""
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f model.ListFilter
	var ok bool
	if f.ClientID, ok = optionalID(q.Get("client_id")); !ok {
		http.Error(w, "invalid client_id", http.StatusBadRequest)
		return
	}
	if f.MasterID, ok = optionalID(q.Get("master_id")); !ok {
		http.Error(w, "invalid master_id", http.StatusBadRequest)
		return
	}
	f.Limit = 100
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			f.Limit = n
		}
	}

	appts, err := h.store.List(r.Context(), f)
	if err != nil {
		h.logger.Error("list appointments failed", "err", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	items := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, toItem(a))
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	appt, err := h.store.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("get appointment failed", "err", err, "appointment_id", id)
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toItem(appt))
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	appt, changed, err := h.store.Cancel(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("cancel appointment failed", "err", err, "appointment_id", id)
		http.Error(w, "failed to cancel appointment", http.StatusInternalServerError)
		return
	}
	if changed {
		h.logger.Info("appointment cancelled", "appointment_id", id)
	}
	httpx.WriteJSON(w, http.StatusOK, toItem(appt))
}

func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	masterID, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid master id", http.StatusBadRequest)
		return
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		http.Error(w, "date is required", http.StatusBadRequest)
		return
	}

	slots, err := h.slots.ForDate(r.Context(), masterID, date)
	switch {
	case errors.Is(err, domain.ErrInvalidDate):
		http.Error(w, "invalid date format, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	case errors.Is(err, availability.ErrMasterNotFound):
		http.Error(w, "master not found", http.StatusNotFound)
		return
	case err != nil:
		h.logger.Error("available slots failed", "err", err, "master_id", masterID)
		http.Error(w, "failed to compute available slots", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, slots)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func optionalID(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil && id > 0
}
