package outbox

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/salonbook/salonbook/services/booking-service/internal/model"
)

// Topics. The Kafka topic equals the event type.
const (
	TopicAppointmentBooked    = "booking.appointment.booked.v1"
	TopicAppointmentCancelled = "booking.appointment.cancelled.v1"
)

// Event is the envelope written to outbox_events in the same transaction as the
// appointment change.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// AppointmentPayload is the JSON body of both appointment topics.
type AppointmentPayload struct {
	AppointmentID int64   `json:"appointment_id"`
	MasterID      int64   `json:"master_id"`
	ClientID      int64   `json:"client_id"`
	Service       string  `json:"service"`
	Price         float64 `json:"price"`
	Status        string  `json:"status"`
	StartTime     string  `json:"start_time"`
}

func AppointmentEvent(eventType string, appt model.Appointment) (Event, error) {
	payload, err := json.Marshal(AppointmentPayload{
		AppointmentID: appt.ID,
		MasterID:      appt.MasterID,
		ClientID:      appt.ClientID,
		Service:       string(appt.Service),
		Price:         appt.Price,
		Status:        string(appt.Status),
		StartTime:     appt.StartTime.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "appointment",
		AggregateID:   strconv.FormatInt(appt.ID, 10),
		EventType:     eventType,
		Payload:       payload,
	}, nil
}
