package reports

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/salonbook/salonbook/libs/domain"
)

// DefaultDays is the lookback used by the by-day reports when none is given.
const DefaultDays = 30

// Range bounds start_time inclusively on both ends. A zero bound is open.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

func (r Range) IsOpen() bool { return r.From.IsZero() && r.To.IsZero() }

// ParseRange reads the optional start_date and end_date values. A date-only
// end bound covers the whole of that day.
func ParseRange(start, end string, loc *time.Location) (Range, error) {
	var r Range
	if s := strings.TrimSpace(start); s != "" {
		t, err := domain.ParseDateTime(s, loc)
		if err != nil {
			return Range{}, fmt.Errorf("start_date: %w", err)
		}
		r.From = t
	}
	if s := strings.TrimSpace(end); s != "" {
		t, err := domain.ParseDateTime(s, loc)
		if err != nil {
			return Range{}, fmt.Errorf("end_date: %w", err)
		}
		if len(s) == len("2006-01-02") {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		r.To = t
	}
	return r, nil
}

// ParseDays reads the days parameter. Empty means DefaultDays.
func ParseDays(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultDays, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("days must be a non-negative integer (got %q)", raw)
	}
	return n, nil
}
