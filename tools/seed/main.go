// Command seed applies the schema and loads demo data into an empty database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/salonbook/salonbook/libs/config"
	"github.com/salonbook/salonbook/libs/db"
	"github.com/salonbook/salonbook/libs/domain"
	"github.com/salonbook/salonbook/libs/runtime"
	"github.com/salonbook/salonbook/migrations"
	"golang.org/x/crypto/bcrypt"
)

var errNotEmpty = errors.New("database already contains data")

func main() {
	var (
		databaseURL = flag.String("database-url", config.String("DATABASE_URL", ""), "postgres connection string")
		timezone    = flag.String("timezone", config.String("REPORT_TIMEZONE", "UTC"), "zone used to place demo appointments")
		days        = flag.Int("days", config.Int("SEED_DAYS", 30), "number of past days with appointments")
		migrate     = flag.Bool("migrate", config.Bool("SEED_MIGRATE", true), "apply embedded migrations first")
		schemaOnly  = flag.Bool("schema-only", false, "apply migrations and exit")
	)
	flag.Parse()

	logger := runtime.NewLogger("seed")
	if *databaseURL == "" {
		fatal("DATABASE_URL is required")
	}
	loc, err := time.LoadLocation(*timezone)
	if err != nil {
		fatal(err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := db.Open(ctx, *databaseURL)
	if err != nil {
		fatal(err.Error())
	}
	defer pool.Close()

	if *migrate || *schemaOnly {
		if err := migrations.Apply(ctx, pool); err != nil {
			fatal(err.Error())
		}
		logger.Info("migrations applied")
	}
	if *schemaOnly {
		return
	}

	p := demoPlan(time.Now(), *days, loc)
	err = pool.WithTx(ctx, func(tx pgx.Tx) error { return seed(ctx, tx, p) })
	if errors.Is(err, errNotEmpty) {
		logger.Info("seed skipped", "reason", err.Error())
		return
	}
	if err != nil {
		fatal(err.Error())
	}
	logger.Info("seed complete",
		"users", len(p.Users),
		"salons", len(p.Salons),
		"masters", len(p.Masters),
		"clients", len(p.Clients),
		"appointments", len(p.Appointments),
	)
	fmt.Println("demo accounts: admin/admin, maria/12345, ivan/12345")
}

func seed(ctx context.Context, tx pgx.Tx, p plan) error {
	var existing int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM salons`).Scan(&existing); err != nil {
		return err
	}
	if existing > 0 {
		return errNotEmpty
	}

	userIDs := make([]int64, len(p.Users))
	for i, u := range p.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, `
			INSERT INTO users (username, password_hash, name, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (username) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, u.Username, string(hash), u.Name, string(u.Role)).Scan(&userIDs[i]); err != nil {
			return fmt.Errorf("insert user %s: %w", u.Username, err)
		}
	}

	salonIDs := make([]int64, len(p.Salons))
	for i, s := range p.Salons {
		if err := tx.QueryRow(ctx, `
			INSERT INTO salons (name, address, lat, lon)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, s.Name, s.Address, s.Lat, s.Lon).Scan(&salonIDs[i]); err != nil {
			return fmt.Errorf("insert salon %s: %w", s.Name, err)
		}
	}

	masterIDs := make([]int64, len(p.Masters))
	for i, m := range p.Masters {
		if err := tx.QueryRow(ctx, `
			INSERT INTO masters (name, salon_id, specialization, experience, hourly_rate)
			VALUES ($1, $2, 'Hair stylist', '5+ years', $3)
			RETURNING id
		`, m.Name, salonIDs[m.Salon], m.HourlyRate).Scan(&masterIDs[i]); err != nil {
			return fmt.Errorf("insert master %s: %w", m.Name, err)
		}
	}

	clientIDs := make([]int64, len(p.Clients))
	for i, c := range p.Clients {
		var userID *int64
		if c.User >= 0 {
			userID = &userIDs[c.User]
		}
		if err := tx.QueryRow(ctx, `
			INSERT INTO clients (name, phone, salon_id, user_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, c.Name, c.Phone, salonIDs[c.Salon], userID).Scan(&clientIDs[i]); err != nil {
			return fmt.Errorf("insert client %s: %w", c.Name, err)
		}
	}

	for _, a := range p.Appointments {
		var cancelledAt *time.Time
		if a.Status == domain.StatusCancelled {
			t := a.Start.Add(-time.Hour)
			cancelledAt = &t
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO appointments (master_id, client_id, start_time, end_time, service, price, status, cancelled_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, masterIDs[a.Master], clientIDs[a.Client], a.Start, a.Start.Add(time.Hour),
			string(a.Service), a.Service.ListPrice(), string(a.Status), cancelledAt); err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}
	}
	return nil
}

func fatal(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
