package handlers

import (
	"net/http"
	"strings"

	"github.com/salonbook/salonbook/libs/httpx"
	"github.com/salonbook/salonbook/services/salon-service/internal/model"
)

type salonRequest struct {
	Name     *string  `json:"name"`
	Address  *string  `json:"address"`
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	PhotoURL *string  `json:"photo_url"`
}

// apply overlays the provided fields onto base.
func (req salonRequest) apply(base model.Salon) model.Salon {
	base.Name = orDefault(req.Name, base.Name)
	base.Address = orDefault(req.Address, base.Address)
	base.Lat = orDefaultFloat(req.Lat, base.Lat)
	base.Lon = orDefaultFloat(req.Lon, base.Lon)
	base.PhotoURL = orDefault(req.PhotoURL, base.PhotoURL)
	return base
}

func validateSalon(s model.Salon) string {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return "name is required"
	case s.Lat < -90 || s.Lat > 90 || s.Lon < -180 || s.Lon > 180:
		return "lat/lon out of range"
	}
	return ""
}

type salonItem struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	PhotoURL string  `json:"photo_url"`
}

type salonWithMasters struct {
	salonItem
	Masters []masterItem `json:"masters"`
}

func toSalonItem(s model.Salon) salonItem {
	return salonItem{ID: s.ID, Name: s.Name, Address: s.Address, Lat: s.Lat, Lon: s.Lon, PhotoURL: s.PhotoURL}
}

func (h *Handler) Salons(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		salons, err := h.store.ListSalons(r.Context())
		if h.writeStoreError(w, err, "salon", "list salons") {
			return
		}
		items := make([]salonItem, 0, len(salons))
		for _, s := range salons {
			items = append(items, toSalonItem(s))
		}
		httpx.WriteJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var req salonRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		salon := req.apply(model.Salon{Lat: model.DefaultLat, Lon: model.DefaultLon})
		if msg := validateSalon(salon); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		created, err := h.store.CreateSalon(r.Context(), salon)
		if h.writeStoreError(w, err, "salon", "create salon") {
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toSalonItem(created))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) Salon(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid salon id", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodGet:
		salon, err := h.store.GetSalon(r.Context(), id)
		if h.writeStoreError(w, err, "salon", "load salon") {
			return
		}
		masters, err := h.store.ListMasters(r.Context(), id)
		if h.writeStoreError(w, err, "salon", "load salon masters") {
			return
		}
		out := salonWithMasters{salonItem: toSalonItem(salon), Masters: make([]masterItem, 0, len(masters))}
		for _, m := range masters {
			out.Masters = append(out.Masters, toMasterItem(m))
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	case http.MethodPut:
		var req salonRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		current, err := h.store.GetSalon(r.Context(), id)
		if h.writeStoreError(w, err, "salon", "load salon") {
			return
		}
		salon := req.apply(current)
		if msg := validateSalon(salon); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		updated, err := h.store.UpdateSalon(r.Context(), salon)
		if h.writeStoreError(w, err, "salon", "update salon") {
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toSalonItem(updated))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
