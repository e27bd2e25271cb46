package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/salonbook/salonbook/libs/db"
	"github.com/salonbook/salonbook/libs/domain"
	"github.com/salonbook/salonbook/services/booking-service/internal/availability"
	"github.com/salonbook/salonbook/services/booking-service/internal/model"
	"github.com/salonbook/salonbook/services/booking-service/internal/outbox"
)

var (
	ErrNotFound      = errors.New("appointment not found")
	ErrSlotTaken     = errors.New("time slot already booked")
	ErrUnknownMaster = errors.New("master does not exist")
	ErrUnknownClient = errors.New("client does not exist")
)

type BookingRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
	loc    *time.Location
}

// NewBookingRepository uses loc to decide which calendar day an appointment falls on.
func NewBookingRepository(pool *db.Pool, outboxRepo *outbox.Repository, loc *time.Location) *BookingRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingRepository{pool: pool, outbox: outboxRepo, loc: loc}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const appointmentColumns = `id, master_id, client_id, start_time, end_time, service, price, status, created_at, cancelled_at`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var (
		appt    model.Appointment
		service string
		status  string
	)
	err := row.Scan(
		&appt.ID,
		&appt.MasterID,
		&appt.ClientID,
		&appt.StartTime,
		&appt.EndTime,
		&service,
		&appt.Price,
		&status,
		&appt.CreatedAt,
		&appt.CancelledAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Service = domain.Service(service)
	appt.Status = domain.Status(status)
	return appt, nil
}

// Book inserts a confirmed appointment and its outbox event. The master row is
// locked so two bookings for the same master are checked one after the other.
func (r *BookingRepository) Book(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	var created model.Appointment
	err := r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		var masterID int64
		err := tx.QueryRow(ctx, `SELECT id FROM masters WHERE id = $1 FOR UPDATE`, appt.MasterID).Scan(&masterID)
		if db.IsNotFound(err) {
			return ErrUnknownMaster
		}
		if err != nil {
			return err
		}

		var clientExists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1)`, appt.ClientID).Scan(&clientExists); err != nil {
			return err
		}
		if !clientExists {
			return ErrUnknownClient
		}

		if appt.Status == domain.StatusConfirmed {
			from := domain.StartOfDay(appt.StartTime, r.loc)
			starts, err := confirmedStarts(ctx, tx, appt.MasterID, from, from.AddDate(0, 0, 1))
			if err != nil {
				return err
			}
			if availability.HourTaken(starts, appt.StartTime, r.loc) {
				return ErrSlotTaken
			}
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO appointments (master_id, client_id, start_time, end_time, service, price, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+appointmentColumns,
			appt.MasterID, appt.ClientID, appt.StartTime, appt.EndTime, string(appt.Service), appt.Price, string(appt.Status))
		created, err = scanAppointment(row)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return ErrUnknownClient
			}
			return err
		}

		evt, err := outbox.AppointmentEvent(outbox.TopicAppointmentBooked, created)
		if err != nil {
			return err
		}
		return r.outbox.Insert(ctx, tx, evt)
	})
	return created, err
}

// Cancel flips a confirmed appointment to cancelled. Cancelling twice is a no-op
// and reports changed=false.
func (r *BookingRepository) Cancel(ctx context.Context, id int64) (appt model.Appointment, changed bool, err error) {
	err = r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		current, err := scanAppointment(tx.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id))
		if db.IsNotFound(err) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if current.Status == domain.StatusCancelled {
			appt = current
			return nil
		}

		appt, err = scanAppointment(tx.QueryRow(ctx, `
			UPDATE appointments
			SET status = 'cancelled', cancelled_at = now()
			WHERE id = $1
			RETURNING `+appointmentColumns, id))
		if err != nil {
			return err
		}
		evt, err := outbox.AppointmentEvent(outbox.TopicAppointmentCancelled, appt)
		if err != nil {
			return err
		}
		changed = true
		return r.outbox.Insert(ctx, tx, evt)
	})
	return appt, changed, err
}

func (r *BookingRepository) Get(ctx context.Context, id int64) (model.Appointment, error) {
	appt, err := scanAppointment(r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	if db.IsNotFound(err) {
		return model.Appointment{}, ErrNotFound
	}
	return appt, err
}

func (r *BookingRepository) List(ctx context.Context, f model.ListFilter) ([]model.Appointment, error) {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE ($1::bigint = 0 OR client_id = $1)
			AND ($2::bigint = 0 OR master_id = $2)
		ORDER BY start_time DESC, id DESC
		LIMIT $3
	`, f.ClientID, f.MasterID, f.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appts := []model.Appointment{}
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	return appts, rows.Err()
}

func (r *BookingRepository) MasterExists(ctx context.Context, masterID int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM masters WHERE id = $1)`, masterID).Scan(&ok)
	return ok, err
}

func (r *BookingRepository) ConfirmedStarts(ctx context.Context, masterID int64, from, to time.Time) ([]time.Time, error) {
	return confirmedStarts(ctx, r.pool, masterID, from, to)
}

func confirmedStarts(ctx context.Context, q querier, masterID int64, from, to time.Time) ([]time.Time, error) {
	rows, err := q.Query(ctx, `
		SELECT start_time
		FROM appointments
		WHERE master_id = $1
			AND status = 'confirmed'
			AND start_time >= $2
			AND start_time < $3
		ORDER BY start_time
	`, masterID, from, to)
	if err != nil {
		return nil, fmt.Errorf("confirmed starts: %w", err)
	}
	defer rows.Close()

	var starts []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		starts = append(starts, t)
	}
	return starts, rows.Err()
}
