package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/salonbook/salonbook/libs/db"
	"github.com/salonbook/salonbook/libs/domain"
	"github.com/salonbook/salonbook/services/salon-service/internal/model"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidReference = errors.New("referenced salon or user does not exist")
	ErrDuplicate        = errors.New("already exists")
	ErrInvalidValue     = errors.New("value rejected by a table constraint")
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsNotFound(err):
		return ErrNotFound
	case db.IsForeignKeyViolation(err):
		return ErrInvalidReference
	case db.IsUniqueViolation(err):
		return ErrDuplicate
	case db.IsCheckViolation(err):
		return ErrInvalidValue
	}
	return err
}

func nullableID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

const salonColumns = `id, name, address, lat, lon, photo_url`

func scanSalon(row pgx.Row) (model.Salon, error) {
	var s model.Salon
	err := row.Scan(&s.ID, &s.Name, &s.Address, &s.Lat, &s.Lon, &s.PhotoURL)
	return s, err
}

func (r *Repository) ListSalons(ctx context.Context) ([]model.Salon, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+salonColumns+` FROM salons ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSalon)
}

func (r *Repository) GetSalon(ctx context.Context, id int64) (model.Salon, error) {
	s, err := scanSalon(r.pool.QueryRow(ctx, `SELECT `+salonColumns+` FROM salons WHERE id = $1`, id))
	return s, translate(err)
}

func (r *Repository) CreateSalon(ctx context.Context, s model.Salon) (model.Salon, error) {
	created, err := scanSalon(r.pool.QueryRow(ctx, `
		INSERT INTO salons (name, address, lat, lon, photo_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+salonColumns,
		s.Name, s.Address, s.Lat, s.Lon, s.PhotoURL))
	return created, translate(err)
}

func (r *Repository) UpdateSalon(ctx context.Context, s model.Salon) (model.Salon, error) {
	updated, err := scanSalon(r.pool.QueryRow(ctx, `
		UPDATE salons
		SET name = $2, address = $3, lat = $4, lon = $5, photo_url = $6
		WHERE id = $1
		RETURNING `+salonColumns,
		s.ID, s.Name, s.Address, s.Lat, s.Lon, s.PhotoURL))
	return updated, translate(err)
}

const masterColumns = `id, name, salon_id, specialization, experience, photo_url, hourly_rate`

func scanMaster(row pgx.Row) (model.Master, error) {
	var (
		m       model.Master
		salonID *int64
	)
	if err := row.Scan(&m.ID, &m.Name, &salonID, &m.Specialization, &m.Experience, &m.PhotoURL, &m.HourlyRate); err != nil {
		return model.Master{}, err
	}
	if salonID != nil {
		m.SalonID = *salonID
	}
	return m, nil
}

// ListMasters returns every master, or only those of salonID when it is positive.
func (r *Repository) ListMasters(ctx context.Context, salonID int64) ([]model.Master, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+masterColumns+`
		FROM masters
		WHERE ($1::bigint = 0 OR salon_id = $1)
		ORDER BY id
	`, salonID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanMaster)
}

func (r *Repository) GetMaster(ctx context.Context, id int64) (model.Master, error) {
	m, err := scanMaster(r.pool.QueryRow(ctx, `SELECT `+masterColumns+` FROM masters WHERE id = $1`, id))
	return m, translate(err)
}

func (r *Repository) CreateMaster(ctx context.Context, m model.Master) (model.Master, error) {
	created, err := scanMaster(r.pool.QueryRow(ctx, `
		INSERT INTO masters (name, salon_id, specialization, experience, photo_url, hourly_rate)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+masterColumns,
		m.Name, nullableID(m.SalonID), m.Specialization, m.Experience, m.PhotoURL, m.HourlyRate))
	return created, translate(err)
}

func (r *Repository) UpdateMaster(ctx context.Context, m model.Master) (model.Master, error) {
	updated, err := scanMaster(r.pool.QueryRow(ctx, `
		UPDATE masters
		SET name = $2, salon_id = $3, specialization = $4, experience = $5, photo_url = $6, hourly_rate = $7
		WHERE id = $1
		RETURNING `+masterColumns,
		m.ID, m.Name, nullableID(m.SalonID), m.Specialization, m.Experience, m.PhotoURL, m.HourlyRate))
	return updated, translate(err)
}

const clientColumns = `id, name, phone, salon_id, user_id`

func scanClient(row pgx.Row) (model.Client, error) {
	var (
		c       model.Client
		salonID *int64
		userID  *int64
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Phone, &salonID, &userID); err != nil {
		return model.Client{}, err
	}
	if salonID != nil {
		c.SalonID = *salonID
	}
	if userID != nil {
		c.UserID = *userID
	}
	return c, nil
}

// ListClients returns every client, or the one linked to userID when it is positive.
func (r *Repository) ListClients(ctx context.Context, userID int64) ([]model.Client, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE ($1::bigint = 0 OR user_id = $1)
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanClient)
}

func (r *Repository) GetClient(ctx context.Context, id int64) (model.Client, error) {
	c, err := scanClient(r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	return c, translate(err)
}

func (r *Repository) CreateClient(ctx context.Context, c model.Client) (model.Client, error) {
	created, err := scanClient(r.pool.QueryRow(ctx, `
		INSERT INTO clients (name, phone, salon_id, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING `+clientColumns,
		c.Name, c.Phone, nullableID(c.SalonID), nullableID(c.UserID)))
	return created, translate(err)
}

// ClientAppointments lists a client's bookings, newest first.
func (r *Repository) ClientAppointments(ctx context.Context, clientID int64) ([]model.ClientAppointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.master_id, m.name, COALESCE(s.name, ''), a.start_time, a.end_time, a.service, a.price, a.status
		FROM appointments a
		JOIN masters m ON m.id = a.master_id
		LEFT JOIN salons s ON s.id = m.salon_id
		WHERE a.client_id = $1
		ORDER BY a.start_time DESC, a.id DESC
	`, clientID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row pgx.Row) (model.ClientAppointment, error) {
		var (
			a       model.ClientAppointment
			service string
			status  string
		)
		err := row.Scan(&a.ID, &a.MasterID, &a.MasterName, &a.SalonName, &a.StartTime, &a.EndTime, &service, &a.Price, &status)
		a.Service = domain.Service(service)
		a.Status = domain.Status(status)
		return a, err
	})
}
