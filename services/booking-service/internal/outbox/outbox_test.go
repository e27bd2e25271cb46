package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/salonbook/salonbook/libs/domain"
	"github.com/salonbook/salonbook/libs/kafkax"
	"github.com/salonbook/salonbook/services/booking-service/internal/model"
)

func TestAppointmentEvent(t *testing.T) {
	appt := model.Appointment{
		ID:        7,
		MasterID:  2,
		ClientID:  3,
		StartTime: time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC),
		Service:   domain.ServiceHaircut,
		Price:     1500,
		Status:    domain.StatusConfirmed,
	}
	evt, err := AppointmentEvent(TopicAppointmentBooked, appt)
	if err != nil {
		t.Fatalf("AppointmentEvent: %v", err)
	}
	if evt.AggregateID != "7" || evt.EventType != TopicAppointmentBooked {
		t.Fatalf("unexpected envelope %+v", evt)
	}
	var payload AppointmentPayload
	if err := json.Unmarshal(evt.Payload, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.MasterID != 2 || payload.Service != "haircut" || payload.StartTime != "2024-05-10T14:00:00Z" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestMessageCarriesMeta(t *testing.T) {
	msg := Message(context.Background(), Record{
		EventID:     "c0ffee",
		AggregateID: "7",
		EventType:   TopicAppointmentCancelled,
		Payload:     []byte(`{}`),
	})
	if msg.Topic != TopicAppointmentCancelled || string(msg.Key) != "7" {
		t.Fatalf("unexpected message %+v", msg)
	}
	meta := kafkax.ExtractEventMeta(msg)
	if meta.EventID != "c0ffee" || meta.EventType != TopicAppointmentCancelled {
		t.Fatalf("unexpected meta %+v", meta)
	}
}
