package model

import (
	"time"

	"github.com/salonbook/salonbook/libs/domain"
)

type Appointment struct {
	ID          int64
	MasterID    int64
	ClientID    int64
	StartTime   time.Time
	EndTime     time.Time
	Service     domain.Service
	Price       float64
	Status      domain.Status
	CreatedAt   time.Time
	CancelledAt *time.Time
}

// ListFilter narrows appointment listings. Zero values mean "any".
type ListFilter struct {
	ClientID int64
	MasterID int64
	Limit    int
}
