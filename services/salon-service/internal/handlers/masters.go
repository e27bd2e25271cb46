package handlers

import (
	"net/http"
	"strings"

	"github.com/salonbook/salonbook/libs/httpx"
	"github.com/salonbook/salonbook/services/salon-service/internal/model"
)

type masterRequest struct {
	Name           *string  `json:"name"`
	SalonID        *int64   `json:"salon_id"`
	Specialization *string  `json:"specialization"`
	Experience     *string  `json:"experience"`
	PhotoURL       *string  `json:"photo_url"`
	HourlyRate     *float64 `json:"hourly_rate"`
}

func (req masterRequest) apply(base model.Master) model.Master {
	base.Name = orDefault(req.Name, base.Name)
	base.SalonID = orDefaultID(req.SalonID, base.SalonID)
	base.Specialization = orDefault(req.Specialization, base.Specialization)
	base.Experience = orDefault(req.Experience, base.Experience)
	base.PhotoURL = orDefault(req.PhotoURL, base.PhotoURL)
	base.HourlyRate = orDefaultFloat(req.HourlyRate, base.HourlyRate)
	return base
}

func validateMaster(m model.Master) string {
	switch {
	case strings.TrimSpace(m.Name) == "":
		return "name is required"
	case m.SalonID < 0:
		return "invalid salon_id"
	case m.HourlyRate < 0:
		return "hourly_rate must not be negative"
	}
	return ""
}

type masterItem struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	SalonID        *int64  `json:"salon_id"`
	Specialization string  `json:"specialization"`
	Experience     string  `json:"experience"`
	PhotoURL       string  `json:"photo_url"`
	HourlyRate     float64 `json:"hourly_rate"`
}

func toMasterItem(m model.Master) masterItem {
	item := masterItem{
		ID:             m.ID,
		Name:           m.Name,
		Specialization: m.Specialization,
		Experience:     m.Experience,
		PhotoURL:       m.PhotoURL,
		HourlyRate:     m.HourlyRate,
	}
	if m.SalonID > 0 {
		id := m.SalonID
		item.SalonID = &id
	}
	return item
}

func (h *Handler) Masters(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		salonID, ok := queryID(r, "salon_id")
		if !ok {
			http.Error(w, "invalid salon_id", http.StatusBadRequest)
			return
		}
		masters, err := h.store.ListMasters(r.Context(), salonID)
		if h.writeStoreError(w, err, "master", "list masters") {
			return
		}
		items := make([]masterItem, 0, len(masters))
		for _, m := range masters {
			items = append(items, toMasterItem(m))
		}
		httpx.WriteJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var req masterRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		master := req.apply(model.Master{
			Specialization: model.DefaultSpecialization,
			Experience:     model.DefaultExperience,
			HourlyRate:     model.DefaultHourlyRate,
		})
		if msg := validateMaster(master); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		created, err := h.store.CreateMaster(r.Context(), master)
		if h.writeStoreError(w, err, "master", "create master") {
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toMasterItem(created))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) Master(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid master id", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodGet:
		master, err := h.store.GetMaster(r.Context(), id)
		if h.writeStoreError(w, err, "master", "load master") {
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toMasterItem(master))
	case http.MethodPut:
		var req masterRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		current, err := h.store.GetMaster(r.Context(), id)
		if h.writeStoreError(w, err, "master", "load master") {
			return
		}
		master := req.apply(current)
		if msg := validateMaster(master); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		updated, err := h.store.UpdateMaster(r.Context(), master)
		if h.writeStoreError(w, err, "master", "update master") {
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toMasterItem(updated))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
