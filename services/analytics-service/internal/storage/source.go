package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/salonbook/salonbook/libs/db"
	"github.com/salonbook/salonbook/services/analytics-service/internal/reports"
)

// Source reads appointment facts straight from the shared store.
type Source struct {
	pool *db.Pool
}

func NewSource(pool *db.Pool) *Source {
	return &Source{pool: pool}
}

func (s *Source) Facts(ctx context.Context, r reports.Range) ([]reports.Fact, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id, a.start_time, a.service, a.price, a.status,
		       m.id, m.name, m.hourly_rate,
		       COALESCE(sl.id, 0), COALESCE(sl.name, ''), COALESCE(c.name, '')
		FROM appointments a
		JOIN masters m ON m.id = a.master_id
		LEFT JOIN salons sl ON sl.id = m.salon_id
		LEFT JOIN clients c ON c.id = a.client_id
		WHERE ($1::timestamptz IS NULL OR a.start_time >= $1)
		  AND ($2::timestamptz IS NULL OR a.start_time <= $2)
		ORDER BY a.id
	`, bound(r.From), bound(r.To))
	if err != nil {
		return nil, fmt.Errorf("query facts: %w", err)
	}
	facts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (reports.Fact, error) {
		var f reports.Fact
		err := row.Scan(
			&f.ID, &f.StartTime, &f.Service, &f.Price, &f.Status,
			&f.MasterID, &f.MasterName, &f.HourlyRate,
			&f.SalonID, &f.SalonName, &f.ClientName,
		)
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan facts: %w", err)
	}
	return facts, nil
}

func (s *Source) Counts(ctx context.Context) (reports.Counts, error) {
	var c reports.Counts
	err := s.pool.QueryRow(ctx, `
		SELECT (SELECT count(*) FROM salons),
		       (SELECT count(*) FROM masters),
		       (SELECT count(*) FROM clients)
	`).Scan(&c.Salons, &c.Masters, &c.Clients)
	if err != nil {
		return reports.Counts{}, fmt.Errorf("query counts: %w", err)
	}
	return c, nil
}

// bound maps an open range end to SQL NULL.
func bound(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
