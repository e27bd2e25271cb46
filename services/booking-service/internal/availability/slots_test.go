package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/salonbook/salonbook/libs/domain"
)

type fakeStore struct {
	masters map[int64]bool
	starts  map[int64][]time.Time
	from    time.Time
	to      time.Time
}

func (f *fakeStore) MasterExists(_ context.Context, id int64) (bool, error) {
	return f.masters[id], nil
}

func (f *fakeStore) ConfirmedStarts(_ context.Context, id int64, from, to time.Time) ([]time.Time, error) {
	f.from, f.to = from, to
	var out []time.Time
	for _, s := range f.starts[id] {
		if !s.Before(from) && s.Before(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func TestHourlySlots_AllFree(t *testing.T) {
	slots := HourlySlots(nil, time.UTC)
	if len(slots) != 12 {
		t.Fatalf("expected 12 slots, got %d", len(slots))
	}
	for i, s := range slots {
		if !s.Available {
			t.Fatalf("expected slot %s to be available", s.Time)
		}
		if s.Hour != FirstHour+i {
			t.Fatalf("expected hour %d, got %d", FirstHour+i, s.Hour)
		}
	}
	if slots[0].Time != "09:00" || slots[11].Time != "20:00" {
		t.Fatalf("unexpected labels %s..%s", slots[0].Time, slots[11].Time)
	}
}

func TestHourlySlots_StartHourOnly(t *testing.T) {
	// A two-hour booking only blocks its starting hour.
	start := time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)
	slots := HourlySlots([]time.Time{start}, time.UTC)
	for _, s := range slots {
		if s.Hour == 14 && s.Available {
			t.Fatal("expected 14:00 to be taken")
		}
		if s.Hour != 14 && !s.Available {
			t.Fatalf("expected %s to be free", s.Time)
		}
	}
}

func TestHourlySlots_UsesLocation(t *testing.T) {
	loc := time.FixedZone("MSK", 3*3600)
	start := time.Date(2024, 5, 10, 7, 0, 0, 0, time.UTC) // 10:00 MSK
	slots := HourlySlots([]time.Time{start}, loc)
	if slots[1].Hour != 10 || slots[1].Available {
		t.Fatalf("expected 10:00 to be taken, got %+v", slots[1])
	}
}

func TestCalculator_ForDate(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{
		masters: map[int64]bool{1: true},
		starts: map[int64][]time.Time{1: {
			day.Add(14 * time.Hour),
			day.Add(24*time.Hour + 10*time.Hour), // next day
		}},
	}
	calc := NewCalculator(store, time.UTC, PolicyAvailable)

	slots, err := calc.ForDate(context.Background(), 1, "2024-05-10")
	if err != nil {
		t.Fatalf("ForDate: %v", err)
	}
	free := 0
	for _, s := range slots {
		if s.Available {
			free++
		}
	}
	if free != 11 || slots[5].Available {
		t.Fatalf("expected only 14:00 taken, got %+v", slots)
	}
	if !store.from.Equal(day) || !store.to.Equal(day.AddDate(0, 0, 1)) {
		t.Fatalf("unexpected window %s..%s", store.from, store.to)
	}
}

func TestCalculator_ForDateUsesWrittenDay(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{
		masters: map[int64]bool{1: true},
		starts:  map[int64][]time.Time{1: {day.Add(9 * time.Hour)}},
	}
	calc := NewCalculator(store, time.UTC, PolicyAvailable)

	slots, err := calc.ForDate(context.Background(), 1, "2024-03-05T01:00:00+05:00")
	if err != nil {
		t.Fatalf("ForDate: %v", err)
	}
	if !store.from.Equal(day) {
		t.Fatalf("expected window to start at %s, got %s", day, store.from)
	}
	if slots[0].Available {
		t.Fatalf("expected 09:00 taken on 2024-03-05, got %+v", slots[0])
	}
}

func TestCalculator_UnknownMasterPolicy(t *testing.T) {
	store := &fakeStore{}

	slots, err := NewCalculator(store, time.UTC, PolicyAvailable).ForDate(context.Background(), 99, "2024-05-10")
	if err != nil || len(slots) != 12 {
		t.Fatalf("expected 12 free slots, got %d err=%v", len(slots), err)
	}

	_, err = NewCalculator(store, time.UTC, PolicyNotFound).ForDate(context.Background(), 99, "2024-05-10")
	if !errors.Is(err, ErrMasterNotFound) {
		t.Fatalf("expected ErrMasterNotFound, got %v", err)
	}
}

func TestCalculator_InvalidDate(t *testing.T) {
	_, err := NewCalculator(&fakeStore{}, time.UTC, "").ForDate(context.Background(), 1, "10/05/2024")
	if !errors.Is(err, domain.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestHourTaken(t *testing.T) {
	existing := []time.Time{time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC)}
	if !HourTaken(existing, time.Date(2024, 5, 10, 14, 45, 0, 0, time.UTC), time.UTC) {
		t.Fatal("expected 14:45 to collide with 14:00")
	}
	if HourTaken(existing, time.Date(2024, 5, 11, 14, 0, 0, 0, time.UTC), time.UTC) {
		t.Fatal("did not expect a collision on another day")
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy(""); err != nil || p != PolicyAvailable {
		t.Fatalf("expected default policy, got %q err=%v", p, err)
	}
	if _, err := ParsePolicy("maybe"); err == nil {
		t.Fatal("expected error")
	}
}
