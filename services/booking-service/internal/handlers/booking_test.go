package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/salonbook/salonbook/libs/domain"
	"github.com/salonbook/salonbook/services/booking-service/internal/availability"
	"github.com/salonbook/salonbook/services/booking-service/internal/model"
	"github.com/salonbook/salonbook/services/booking-service/internal/storage"
)

type fakeStore struct {
	appts  map[int64]model.Appointment
	nextID int64
	booked []model.Appointment
	filter model.ListFilter
}

func newFakeStore() *fakeStore {
	return &fakeStore{appts: map[int64]model.Appointment{}, nextID: 1}
}

func (f *fakeStore) Book(_ context.Context, appt model.Appointment) (model.Appointment, error) {
	if appt.MasterID == 404 {
		return model.Appointment{}, storage.ErrUnknownMaster
	}
	for _, existing := range f.appts {
		if existing.MasterID == appt.MasterID && availability.HourTaken([]time.Time{existing.StartTime}, appt.StartTime, time.UTC) {
			return model.Appointment{}, storage.ErrSlotTaken
		}
	}
	appt.ID = f.nextID
	f.nextID++
	f.appts[appt.ID] = appt
	f.booked = append(f.booked, appt)
	return appt, nil
}

func (f *fakeStore) Cancel(_ context.Context, id int64) (model.Appointment, bool, error) {
	appt, ok := f.appts[id]
	if !ok {
		return model.Appointment{}, false, storage.ErrNotFound
	}
	if appt.Status == domain.StatusCancelled {
		return appt, false, nil
	}
	now := time.Now()
	appt.Status = domain.StatusCancelled
	appt.CancelledAt = &now
	f.appts[id] = appt
	return appt, true, nil
}

func (f *fakeStore) Get(_ context.Context, id int64) (model.Appointment, error) {
	appt, ok := f.appts[id]
	if !ok {
		return model.Appointment{}, storage.ErrNotFound
	}
	return appt, nil
}

func (f *fakeStore) List(_ context.Context, filter model.ListFilter) ([]model.Appointment, error) {
	f.filter = filter
	var out []model.Appointment
	for _, a := range f.appts {
		out = append(out, a)
	}
	return out, nil
}

type fakeSlots struct{ err error }

func (f fakeSlots) ForDate(context.Context, int64, string) ([]availability.Slot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return availability.HourlySlots(nil, time.UTC), nil
}

func newTestMux(store Store, slots SlotFinder) *http.ServeMux {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	mux := http.NewServeMux()
	NewBookingHandler(store, slots, logger, time.UTC).Register(mux)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rr
}

func TestCreateAppointmentDefaultsPrice(t *testing.T) {
	store := newFakeStore()
	mux := newTestMux(store, fakeSlots{})

	rr := do(mux, http.MethodPost, "/api/v1/appointments",
		`{"master_id":1,"client_id":2,"start_time":"2024-05-10T14:00:00Z","end_time":"2024-05-10T15:00:00Z","service":"Coloring"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var item appointmentItem
	if err := json.Unmarshal(rr.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if item.Price != 3500 || item.Service != "coloring" || item.Status != "confirmed" {
		t.Fatalf("unexpected appointment %+v", item)
	}

	rr = do(mux, http.MethodPost, "/api/v1/appointments",
		`{"master_id":1,"client_id":3,"start_time":"2024-05-10T14:30:00Z","end_time":"2024-05-10T15:00:00Z","service":"haircut","price":0}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for occupied hour, got %d", rr.Code)
	}
}

func TestCreateAppointmentValidation(t *testing.T) {
	mux := newTestMux(newFakeStore(), fakeSlots{})
	cases := []struct {
		name string
		body string
		code int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"missing ids", `{"start_time":"2024-05-10T14:00:00Z","end_time":"2024-05-10T15:00:00Z","service":"haircut"}`, http.StatusBadRequest},
		{"end before start", `{"master_id":1,"client_id":2,"start_time":"2024-05-10T14:00:00Z","end_time":"2024-05-10T13:00:00Z","service":"haircut"}`, http.StatusBadRequest},
		{"unknown service", `{"master_id":1,"client_id":2,"start_time":"2024-05-10T14:00:00Z","end_time":"2024-05-10T15:00:00Z","service":"tattoo"}`, http.StatusBadRequest},
		{"negative price", `{"master_id":1,"client_id":2,"start_time":"2024-05-10T14:00:00Z","end_time":"2024-05-10T15:00:00Z","service":"haircut","price":-1}`, http.StatusBadRequest},
		{"unknown master", `{"master_id":404,"client_id":2,"start_time":"2024-05-10T14:00:00Z","end_time":"2024-05-10T15:00:00Z","service":"haircut"}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		rr := do(mux, http.MethodPost, "/api/v1/appointments", tc.body)
		if rr.Code != tc.code {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.code, rr.Code)
		}
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.appts[5] = model.Appointment{ID: 5, MasterID: 1, ClientID: 2, Service: domain.ServicePerm, Status: domain.StatusConfirmed}
	mux := newTestMux(store, fakeSlots{})

	for i := 0; i < 2; i++ {
		rr := do(mux, http.MethodPost, "/api/v1/appointments/5/cancel", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `"status":"cancelled"`) {
			t.Fatalf("unexpected body %s", rr.Body.String())
		}
	}
	if rr := do(mux, http.MethodPost, "/api/v1/appointments/6/cancel", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestListAndGet(t *testing.T) {
	store := newFakeStore()
	store.appts[1] = model.Appointment{ID: 1, MasterID: 1, ClientID: 2, Service: domain.ServiceHaircut, Status: domain.StatusConfirmed}
	mux := newTestMux(store, fakeSlots{})

	rr := do(mux, http.MethodGet, "/api/v1/appointments?client_id=2&limit=10", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if store.filter.ClientID != 2 || store.filter.Limit != 10 {
		t.Fatalf("unexpected filter %+v", store.filter)
	}
	if rr := do(mux, http.MethodGet, "/api/v1/appointments?master_id=x", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if rr := do(mux, http.MethodGet, "/api/v1/appointments/1", ""); rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr := do(mux, http.MethodGet, "/api/v1/appointments/9", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestSlotsErrors(t *testing.T) {
	rr := do(newTestMux(newFakeStore(), fakeSlots{}), http.MethodGet, "/api/v1/masters/1/available-slots?date=2024-05-10", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var slots []availability.Slot
	if err := json.Unmarshal(rr.Body.Bytes(), &slots); err != nil || len(slots) != 12 {
		t.Fatalf("expected 12 slots, got %d err=%v", len(slots), err)
	}

	rr = do(newTestMux(newFakeStore(), fakeSlots{err: domain.ErrInvalidDate}), http.MethodGet, "/api/v1/masters/1/available-slots?date=bad", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	rr = do(newTestMux(newFakeStore(), fakeSlots{err: availability.ErrMasterNotFound}), http.MethodGet, "/api/v1/masters/1/available-slots?date=2024-05-10", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	rr = do(newTestMux(newFakeStore(), fakeSlots{}), http.MethodGet, "/api/v1/masters/1/available-slots", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without date, got %d", rr.Code)
	}
}
