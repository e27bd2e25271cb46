package reports

import (
	"context"
	"time"

	"github.com/salonbook/salonbook/libs/domain"
)

// Fact is one appointment joined with its master, salon and client.
// SalonID is 0 when the master is not attached to a salon.
type Fact struct {
	ID         int64
	StartTime  time.Time
	Service    domain.Service
	Price      float64
	Status     domain.Status
	MasterID   int64
	MasterName string
	HourlyRate float64
	SalonID    int64
	SalonName  string
	ClientName string
}

type Counts struct {
	Salons  int
	Masters int
	Clients int
}

// Source may return facts outside the requested range; the engine filters again.
type Source interface {
	Facts(ctx context.Context, r Range) ([]Fact, error)
	Counts(ctx context.Context) (Counts, error)
}

type Overview struct {
	TotalSalons           int `json:"total_salons"`
	TotalMasters          int `json:"total_masters"`
	TotalClients          int `json:"total_clients"`
	TotalAppointments     int `json:"total_appointments"`
	RecentAppointments30d int `json:"recent_appointments_30d"`
	UpcomingAppointments  int `json:"upcoming_appointments"`
	TodayAppointments     int `json:"today_appointments"`
}

type ServiceCount struct {
	Service     domain.Service `json:"service"`
	ServiceName string         `json:"service_name"`
	Count       int            `json:"count"`
}

type SalonWorkload struct {
	SalonID           int64  `json:"salon_id"`
	SalonName         string `json:"salon_name"`
	AppointmentsCount int    `json:"appointments_count"`
}

type MasterWorkload struct {
	MasterID          int64  `json:"master_id"`
	MasterName        string `json:"master_name"`
	SalonName         string `json:"salon_name"`
	AppointmentsCount int    `json:"appointments_count"`
}

type HourCount struct {
	Hour      int    `json:"hour"`
	Count     int    `json:"count"`
	TimeLabel string `json:"time_label"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type FinancialOverview struct {
	TodayRevenue     float64 `json:"today_revenue"`
	MonthRevenue     float64 `json:"month_revenue"`
	TotalRevenue     float64 `json:"total_revenue"`
	CancelledCount   int     `json:"cancelled_count"`
	CancelledRevenue float64 `json:"cancelled_revenue"`
	AverageCheck     float64 `json:"average_check"`
}

type FilteredOverview struct {
	TotalRevenue      float64 `json:"total_revenue"`
	TotalAppointments int     `json:"total_appointments"`
	AverageCheck      float64 `json:"average_check"`
	CancelledCount    int     `json:"cancelled_count"`
	CancelledRevenue  float64 `json:"cancelled_revenue"`
}

type SalonRevenue struct {
	SalonID           int64   `json:"salon_id"`
	SalonName         string  `json:"salon_name"`
	Revenue           float64 `json:"revenue"`
	AppointmentsCount int     `json:"appointments_count"`
}

type ServiceRevenue struct {
	Service     domain.Service `json:"service"`
	ServiceName string         `json:"service_name"`
	Revenue     float64        `json:"revenue"`
	Count       int            `json:"count"`
}

type MasterEarnings struct {
	MasterID          int64   `json:"master_id"`
	MasterName        string  `json:"master_name"`
	SalonName         string  `json:"salon_name"`
	HourlyRate        float64 `json:"hourly_rate"`
	AppointmentsCount int     `json:"appointments_count"`
	TotalRevenue      float64 `json:"total_revenue"`
	MasterEarnings    float64 `json:"master_earnings"`
}

type DayRevenue struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Count   int     `json:"count"`
}
