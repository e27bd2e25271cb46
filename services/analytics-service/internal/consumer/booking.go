package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// Booking topics published by booking-service.
const (
	TopicAppointmentBooked    = "booking.appointment.booked.v1"
	TopicAppointmentCancelled = "booking.appointment.cancelled.v1"
)

var BookingTopics = []string{TopicAppointmentBooked, TopicAppointmentCancelled}

// Invalidator is implemented by *cache.Cache.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type bookingPayload struct {
	AppointmentID int64  `json:"appointment_id"`
	MasterID      int64  `json:"master_id"`
	Status        string `json:"status"`
	StartTime     string `json:"start_time"`
}

// InvalidateReports drops cached reports whenever an appointment changes.
// Malformed payloads are logged and skipped.
func InvalidateReports(reports Invalidator, logger *slog.Logger) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var payload bookingPayload
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid booking payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if payload.AppointmentID <= 0 {
			logger.Error("missing booking fields", "topic", msg.Topic)
			return nil
		}
		if err := reports.Invalidate(ctx); err != nil {
			return err
		}
		logger.Info("report cache invalidated",
			"appointment_id", payload.AppointmentID,
			"master_id", payload.MasterID,
			"status", payload.Status,
			"topic", msg.Topic,
		)
		return nil
	}
}
