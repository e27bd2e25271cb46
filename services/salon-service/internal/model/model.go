package model

import (
	"time"

	"github.com/salonbook/salonbook/libs/domain"
)

const (
	DefaultLat            = 55.751574
	DefaultLon            = 37.573856
	DefaultHourlyRate     = 300.0
	DefaultSpecialization = "Hairdresser"
	DefaultExperience     = "3+ years"
)

type Salon struct {
	ID       int64
	Name     string
	Address  string
	Lat      float64
	Lon      float64
	PhotoURL string
}

// Master.SalonID is 0 when the master is not attached to a salon.
type Master struct {
	ID             int64
	Name           string
	SalonID        int64
	Specialization string
	Experience     string
	PhotoURL       string
	HourlyRate     float64
}

type Client struct {
	ID      int64
	Name    string
	Phone   string
	SalonID int64
	UserID  int64
}

// ClientAppointment is one row of a client's booking history.
type ClientAppointment struct {
	ID         int64
	MasterID   int64
	MasterName string
	SalonName  string
	StartTime  time.Time
	EndTime    time.Time
	Service    domain.Service
	Price      float64
	Status     domain.Status
}
