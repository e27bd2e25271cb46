package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/salonbook/salonbook/libs/httpx"
	"github.com/salonbook/salonbook/services/salon-service/internal/model"
)

type clientRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	SalonID int64  `json:"salon_id"`
	UserID  int64  `json:"user_id"`
}

type clientItem struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	SalonID int64  `json:"salon_id"`
	UserID  *int64 `json:"user_id"`
}

type clientAppointmentItem struct {
	ID          int64   `json:"id"`
	MasterID    int64   `json:"master_id"`
	MasterName  string  `json:"master_name"`
	SalonName   string  `json:"salon_name"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Service     string  `json:"service"`
	ServiceName string  `json:"service_name"`
	Price       float64 `json:"price"`
	Status      string  `json:"status"`
}

type clientProfile struct {
	clientItem
	Appointments []clientAppointmentItem `json:"appointments"`
}

func toClientItem(c model.Client) clientItem {
	item := clientItem{ID: c.ID, Name: c.Name, Phone: c.Phone, SalonID: c.SalonID}
	if c.UserID > 0 {
		id := c.UserID
		item.UserID = &id
	}
	return item
}

func (h *Handler) Clients(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		userID, ok := queryID(r, "user_id")
		if !ok {
			http.Error(w, "invalid user_id", http.StatusBadRequest)
			return
		}
		clients, err := h.store.ListClients(r.Context(), userID)
		if h.writeStoreError(w, err, "client", "list clients") {
			return
		}
		items := make([]clientItem, 0, len(clients))
		for _, c := range clients {
			items = append(items, toClientItem(c))
		}
		httpx.WriteJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var req clientRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.Phone = strings.TrimSpace(req.Phone)
		if req.Name == "" || req.SalonID <= 0 {
			http.Error(w, "name and salon_id are required", http.StatusBadRequest)
			return
		}
		if req.UserID < 0 {
			http.Error(w, "invalid user_id", http.StatusBadRequest)
			return
		}
		created, err := h.store.CreateClient(r.Context(), model.Client{
			Name:    req.Name,
			Phone:   req.Phone,
			SalonID: req.SalonID,
			UserID:  req.UserID,
		})
		if h.writeStoreError(w, err, "client", "create client") {
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, toClientItem(created))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Client returns the client profile with its appointment history.
func (h *Handler) Client(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}
	client, err := h.store.GetClient(r.Context(), id)
	if h.writeStoreError(w, err, "client", "load client") {
		return
	}
	appts, err := h.store.ClientAppointments(r.Context(), id)
	if h.writeStoreError(w, err, "client", "load client appointments") {
		return
	}

	out := clientProfile{clientItem: toClientItem(client), Appointments: make([]clientAppointmentItem, 0, len(appts))}
	for _, a := range appts {
		out.Appointments = append(out.Appointments, clientAppointmentItem{
			ID:          a.ID,
			MasterID:    a.MasterID,
			MasterName:  a.MasterName,
			SalonName:   a.SalonName,
			StartTime:   a.StartTime.UTC().Format(time.RFC3339),
			EndTime:     a.EndTime.UTC().Format(time.RFC3339),
			Service:     string(a.Service),
			ServiceName: a.Service.DisplayName(),
			Price:       a.Price,
			Status:      string(a.Status),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
