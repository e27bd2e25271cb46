package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/salonbook/salonbook/libs/domain"
	"github.com/salonbook/salonbook/libs/httpx"
	"github.com/salonbook/salonbook/services/salon-service/internal/model"
	"github.com/salonbook/salonbook/services/salon-service/internal/storage"
	"github.com/salonbook/salonbook/services/salon-service/internal/uploads"
)

// Store is implemented by *storage.Repository.
type Store interface {
	ListSalons(ctx context.Context) ([]model.Salon, error)
	GetSalon(ctx context.Context, id int64) (model.Salon, error)
	CreateSalon(ctx context.Context, s model.Salon) (model.Salon, error)
	UpdateSalon(ctx context.Context, s model.Salon) (model.Salon, error)

	ListMasters(ctx context.Context, salonID int64) ([]model.Master, error)
	GetMaster(ctx context.Context, id int64) (model.Master, error)
	CreateMaster(ctx context.Context, m model.Master) (model.Master, error)
	UpdateMaster(ctx context.Context, m model.Master) (model.Master, error)

	ListClients(ctx context.Context, userID int64) ([]model.Client, error)
	GetClient(ctx context.Context, id int64) (model.Client, error)
	CreateClient(ctx context.Context, c model.Client) (model.Client, error)
	ClientAppointments(ctx context.Context, clientID int64) ([]model.ClientAppointment, error)
}

type Handler struct {
	store          Store
	uploads        uploads.Store
	maxUploadBytes int64
	logger         *slog.Logger
}

func New(store Store, uploadStore uploads.Store, maxUploadBytes int64, logger *slog.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 << 20
	}
	return &Handler{store: store, uploads: uploadStore, maxUploadBytes: maxUploadBytes, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/salons", h.Salons)
	mux.HandleFunc("/api/v1/salons/{id}", h.Salon)
	mux.HandleFunc("/api/v1/masters", h.Masters)
	mux.HandleFunc("/api/v1/masters/{id}", h.Master)
	mux.HandleFunc("/api/v1/clients", h.Clients)
	mux.HandleFunc("/api/v1/clients/{id}", h.Client)
	mux.HandleFunc("/api/v1/services-with-prices", h.ServicesWithPrices)
	mux.HandleFunc("/api/v1/uploads", h.Upload)
}

func (h *Handler) ServicesWithPrices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, domain.Catalog())
}

// writeStoreError answers for a failed store call and reports whether it did.
func (h *Handler) writeStoreError(w http.ResponseWriter, err error, entity, op string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, storage.ErrNotFound):
		http.Error(w, entity+" not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrInvalidReference):
		http.Error(w, storage.ErrInvalidReference.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, storage.ErrDuplicate):
		http.Error(w, entity+" already exists", http.StatusConflict)
	case errors.Is(err, storage.ErrInvalidValue):
		http.Error(w, "invalid "+entity, http.StatusBadRequest)
	default:
		h.logger.Error(op+" failed", "err", err)
		http.Error(w, "failed to "+op, http.StatusInternalServerError)
	}
	return true
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func queryID(r *http.Request, key string) (int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil && id > 0
}

func orDefault(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return strings.TrimSpace(*v)
}

func orDefaultFloat(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func orDefaultID(v *int64, fallback int64) int64 {
	if v == nil {
		return fallback
	}
	return *v
}
