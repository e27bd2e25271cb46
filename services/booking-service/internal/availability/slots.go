package availability

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/salonbook/salonbook/libs/domain"
)

// Working window, both ends inclusive: 12 one-hour slots from 09:00 to 20:00.
const (
	FirstHour = 9
	LastHour  = 20
)

var ErrMasterNotFound = errors.New("master not found")

type Slot struct {
	Time      string `json:"time"`
	Hour      int    `json:"hour"`
	Available bool   `json:"available"`
}

// HourlySlots marks a working hour busy when any of starts begins in that hour
// (in loc). Appointment length is not considered.
func HourlySlots(starts []time.Time, loc *time.Location) []Slot {
	busy := busyHours(starts, loc)
	slots := make([]Slot, 0, LastHour-FirstHour+1)
	for h := FirstHour; h <= LastHour; h++ {
		slots = append(slots, Slot{
			Time:      fmt.Sprintf("%02d:00", h),
			Hour:      h,
			Available: !busy[h],
		})
	}
	return slots
}

// HourTaken reports whether candidate starts in an hour already held by one of starts
// on the same local day.
func HourTaken(starts []time.Time, candidate time.Time, loc *time.Location) bool {
	c := candidate.In(loc)
	for _, s := range starts {
		s = s.In(loc)
		if s.Hour() == c.Hour() && s.YearDay() == c.YearDay() && s.Year() == c.Year() {
			return true
		}
	}
	return false
}

func busyHours(starts []time.Time, loc *time.Location) map[int]bool {
	busy := make(map[int]bool, len(starts))
	for _, s := range starts {
		busy[s.In(loc).Hour()] = true
	}
	return busy
}

// Policy decides what an unknown master id yields.
type Policy string

const (
	// PolicyAvailable reports every slot free for unknown masters.
	PolicyAvailable Policy = "available"
	// PolicyNotFound fails with ErrMasterNotFound.
	PolicyNotFound Policy = "not_found"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PolicyAvailable:
		return PolicyAvailable, nil
	case PolicyNotFound:
		return p, nil
	}
	return "", fmt.Errorf("unknown availability policy %q", s)
}

// Store is the read side the calculator needs.
type Store interface {
	MasterExists(ctx context.Context, masterID int64) (bool, error)
	// ConfirmedStarts returns start times of confirmed appointments in [from, to).
	ConfirmedStarts(ctx context.Context, masterID int64, from, to time.Time) ([]time.Time, error)
}

type Calculator struct {
	store  Store
	loc    *time.Location
	policy Policy
}

func NewCalculator(store Store, loc *time.Location, policy Policy) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	if policy == "" {
		policy = PolicyAvailable
	}
	return &Calculator{store: store, loc: loc, policy: policy}
}

// ForDate parses date (a date or date-time; only the calendar day is used) and
// returns the master's slots for that day.
func (c *Calculator) ForDate(ctx context.Context, masterID int64, date string) ([]Slot, error) {
	day, err := domain.ParseDay(date, c.loc)
	if err != nil {
		return nil, err
	}
	return c.ForDay(ctx, masterID, day)
}

func (c *Calculator) ForDay(ctx context.Context, masterID int64, day time.Time) ([]Slot, error) {
	if c.policy == PolicyNotFound {
		ok, err := c.store.MasterExists(ctx, masterID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrMasterNotFound
		}
	}
	from := domain.StartOfDay(day, c.loc)
	starts, err := c.store.ConfirmedStarts(ctx, masterID, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return HourlySlots(starts, c.loc), nil
}
