package reports

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/salonbook/salonbook/libs/domain"
)

// Engine computes every report from a single read of the Source.
type Engine struct {
	src Source
	loc *time.Location
	now func() time.Time
}

func NewEngine(src Source, loc *time.Location, now func() time.Time) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{src: src, loc: loc, now: now}
}

func (e *Engine) Location() *time.Location { return e.loc }

func (e *Engine) facts(ctx context.Context, r Range) ([]Fact, error) {
	all, err := e.src.Facts(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	if r.IsOpen() {
		return all, nil
	}
	out := all[:0:0]
	for _, f := range all {
		if r.Contains(f.StartTime) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (e *Engine) lookback(days int) Range {
	return Range{From: e.now().Add(-time.Duration(days) * 24 * time.Hour)}
}

func (e *Engine) Overview(ctx context.Context) (Overview, error) {
	counts, err := e.src.Counts(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("load counts: %w", err)
	}
	facts, err := e.facts(ctx, Range{})
	if err != nil {
		return Overview{}, err
	}

	now := e.now()
	recent := e.lookback(30)
	dayStart := domain.StartOfDay(now, e.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	out := Overview{
		TotalSalons:       counts.Salons,
		TotalMasters:      counts.Masters,
		TotalClients:      counts.Clients,
		TotalAppointments: len(facts),
	}
	for _, f := range facts {
		if recent.Contains(f.StartTime) {
			out.RecentAppointments30d++
		}
		if f.StartTime.After(now) {
			out.UpcomingAppointments++
		}
		if !f.StartTime.Before(dayStart) && f.StartTime.Before(dayEnd) {
			out.TodayAppointments++
		}
	}
	return out, nil
}

func (e *Engine) PopularServices(ctx context.Context, r Range) ([]ServiceCount, error) {
	facts, err := e.facts(ctx, r)
	if err != nil {
		return nil, err
	}
	counts := map[domain.Service]int{}
	for _, f := range facts {
		counts[f.Service]++
	}
	out := make([]ServiceCount, 0, len(counts))
	for svc, n := range counts {
		out = append(out, ServiceCount{Service: svc, ServiceName: svc.DisplayName(), Count: n})
	}
	slices.SortFunc(out, func(a, b ServiceCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Service, b.Service))
	})
	return out, nil
}

func (e *Engine) SalonsStats(ctx context.Context, r Range) ([]SalonWorkload, error) {
	facts, err := e.facts(ctx, r)
	if err != nil {
		return nil, err
	}
	bySalon := map[int64]*SalonWorkload{}
	for _, f := range facts {
		if f.SalonID == 0 {
			continue
		}
		row, ok := bySalon[f.SalonID]
		if !ok {
			row = &SalonWorkload{SalonID: f.SalonID, SalonName: f.SalonName}
			bySalon[f.SalonID] = row
		}
		row.AppointmentsCount++
	}
	out := make([]SalonWorkload, 0, len(bySalon))
	for _, row := range bySalon {
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b SalonWorkload) int {
		return cmp.Or(
			cmp.Compare(b.AppointmentsCount, a.AppointmentsCount),
			cmp.Compare(a.SalonName, b.SalonName),
			cmp.Compare(a.SalonID, b.SalonID),
		)
	})
	return out, nil
}

func (e *Engine) MastersWorkload(ctx context.Context, r Range) ([]MasterWorkload, error) {
	facts, err := e.facts(ctx, r)
	if err != nil {
		return nil, err
	}
	byMaster := map[int64]*MasterWorkload{}
	for _, f := range facts {
		if f.SalonID == 0 {
			continue
		}
		row, ok := byMaster[f.MasterID]
		if !ok {
			row = &MasterWorkload{MasterID: f.MasterID, MasterName: f.MasterName, SalonName: f.SalonName}
			byMaster[f.MasterID] = row
		}
		row.AppointmentsCount++
	}
	out := make([]MasterWorkload, 0, len(byMaster))
	for _, row := range byMaster {
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b MasterWorkload) int {
		return cmp.Or(
			cmp.Compare(b.AppointmentsCount, a.AppointmentsCount),
			cmp.Compare(a.MasterName, b.MasterName),
			cmp.Compare(a.MasterID, b.MasterID),
		)
	})
	return out, nil
}

func (e *Engine) PeakHours(ctx context.Context, r Range) ([]HourCount, error) {
	facts, err := e.facts(ctx, r)
	if err != nil {
		return nil, err
	}
	var byHour [24]int
	for _, f := range facts {
		byHour[f.StartTime.In(e.loc).Hour()]++
	}
	out := make([]HourCount, 0, 24)
	for hour, n := range byHour {
		if n > 0 {
			out = append(out, HourCount{Hour: hour, Count: n, TimeLabel: fmt.Sprintf("%02d:00", hour)})
		}
	}
	slices.SortFunc(out, func(a, b HourCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Hour, b.Hour))
	})
	return out, nil
}

func (e *Engine) AppointmentsByDay(ctx context.Context, days int) ([]DayCount, error) {
	facts, err := e.facts(ctx, e.lookback(days))
	if err != nil {
		return nil, err
	}
	byDate := map[string]int{}
	for _, f := range facts {
		byDate[e.dateKey(f.StartTime)]++
	}
	out := make([]DayCount, 0, len(byDate))
	for date, n := range byDate {
		out = append(out, DayCount{Date: date, Count: n})
	}
	slices.SortFunc(out, func(a, b DayCount) int { return cmp.Compare(a.Date, b.Date) })
	return out, nil
}

func (e *Engine) FinancialOverview(ctx context.Context) (FinancialOverview, error) {
	facts, err := e.facts(ctx, Range{})
	if err != nil {
		return FinancialOverview{}, err
	}
	now := e.now().In(e.loc)
	dayStart := domain.StartOfDay(now, e.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, e.loc)

	var today, month float64
	t := tally(facts)
	for _, f := range facts {
		if f.Status != domain.StatusConfirmed {
			continue
		}
		if !f.StartTime.Before(dayStart) && f.StartTime.Before(dayEnd) {
			today += f.Price
		}
		if !f.StartTime.Before(monthStart) {
			month += f.Price
		}
	}
	return FinancialOverview{
		TodayRevenue:     round2(today),
		MonthRevenue:     round2(month),
		TotalRevenue:     round2(t.revenue),
		CancelledCount:   t.cancelledCount,
		CancelledRevenue: round2(t.cancelledRevenue),
		AverageCheck:     t.averageCheck(),
	}, nil
}

// FilteredOverview counts only confirmed appointments in TotalAppointments.
func (e *Engine) FilteredOverview(ctx context.Context, r Range) (FilteredOverview, error) {
	facts, err := e.facts(ctx, r)
	if err != nil {
		return FilteredOverview{}, err
	}
	t := tally(facts)
	return FilteredOverview{
		TotalRevenue:      round2(t.revenue),
		TotalAppointments: t.confirmed,
		AverageCheck:      t.averageCheck(),
		CancelledCount:    t.cancelledCount,
		CancelledRevenue:  round2(t.cancelledRevenue),
	}, nil
}

func (e *Engine) RevenueBySalon(ctx context.Context, r Range) ([]SalonRevenue, error) {
	facts, err := e.facts(ctx, r)
	if err != nil {
		return nil, err
	}
	bySalon := map[int64]*SalonRevenue{}
	for _, f := range facts {
		if f.Status != domain.StatusConfirmed || f.SalonID == 0 {
			continue
		}
		row, ok := bySalon[f.SalonID]
		if !ok {
			row = &SalonRevenue{SalonID: f.SalonID, SalonName: f.SalonName}
			bySalon[f.SalonID] = row
		}
		row.Revenue += f.Price
		row.AppointmentsCount++
	}
	out := make([]SalonRevenue, 0, len(bySalon))
	for _, row := range bySalon {
		row.Revenue = round2(row.Revenue)
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b SalonRevenue) int {
		return cmp.Or(cmp.Compare(a.SalonName, b.SalonName), cmp.Compare(a.SalonID, b.SalonID))
	})
	return out, nil
}

func (e *Engine) RevenueByService(ctx context.Context, r Range) ([]ServiceRevenue, error) {
	facts, err := e.facts(ctx, r)
	if err != nil {
		return nil, err
	}
	bySvc := map[domain.Service]*ServiceRevenue{}
	for _, f := range facts {
		if f.Status != domain.StatusConfirmed {
			continue
		}
		row, ok := bySvc[f.Service]
		if !ok {
			row = &ServiceRevenue{Service: f.Service, ServiceName: f.Service.DisplayName()}
			bySvc[f.Service] = row
		}
		row.Revenue += f.Price
		row.Count++
	}
	out := make([]ServiceRevenue, 0, len(bySvc))
	for _, row := range bySvc {
		row.Revenue = round2(row.Revenue)
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b ServiceRevenue) int {
		return cmp.Or(cmp.Compare(b.Revenue, a.Revenue), cmp.Compare(a.Service, b.Service))
	})
	return out, nil
}

// MasterEarnings reports earnings as appointments_count × hourly_rate.
func (e *Engine) MasterEarnings(ctx context.Context, r Range) ([]MasterEarnings, error) {
	facts, err := e.facts(ctx, r)
	if err != nil {
		return nil, err
	}
	byMaster := map[int64]*MasterEarnings{}
	for _, f := range facts {
		if f.Status != domain.StatusConfirmed || f.SalonID == 0 {
			continue
		}
		row, ok := byMaster[f.MasterID]
		if !ok {
			row = &MasterEarnings{
				MasterID:   f.MasterID,
				MasterName: f.MasterName,
				SalonName:  f.SalonName,
				HourlyRate: f.HourlyRate,
			}
			byMaster[f.MasterID] = row
		}
		row.AppointmentsCount++
		row.TotalRevenue += f.Price
	}
	out := make([]MasterEarnings, 0, len(byMaster))
	for _, row := range byMaster {
		row.TotalRevenue = round2(row.TotalRevenue)
		row.MasterEarnings = round2(float64(row.AppointmentsCount) * row.HourlyRate)
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b MasterEarnings) int {
		return cmp.Or(
			cmp.Compare(b.TotalRevenue, a.TotalRevenue),
			cmp.Compare(a.MasterName, b.MasterName),
			cmp.Compare(a.MasterID, b.MasterID),
		)
	})
	return out, nil
}

func (e *Engine) DailyRevenue(ctx context.Context, days int) ([]DayRevenue, error) {
	facts, err := e.facts(ctx, e.lookback(days))
	if err != nil {
		return nil, err
	}
	byDate := map[string]*DayRevenue{}
	for _, f := range facts {
		if f.Status != domain.StatusConfirmed {
			continue
		}
		key := e.dateKey(f.StartTime)
		row, ok := byDate[key]
		if !ok {
			row = &DayRevenue{Date: key}
			byDate[key] = row
		}
		row.Revenue += f.Price
		row.Count++
	}
	out := make([]DayRevenue, 0, len(byDate))
	for _, row := range byDate {
		row.Revenue = round2(row.Revenue)
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b DayRevenue) int { return cmp.Compare(a.Date, b.Date) })
	return out, nil
}

// Appointments lists the detail rows behind the CSV export: appointments of
// masters attached to a salon, by id.
func (e *Engine) Appointments(ctx context.Context, r Range) ([]Fact, error) {
	facts, err := e.facts(ctx, r)
	if err != nil {
		return nil, err
	}
	out := make([]Fact, 0, len(facts))
	for _, f := range facts {
		if f.SalonID != 0 {
			out = append(out, f)
		}
	}
	slices.SortFunc(out, func(a, b Fact) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (e *Engine) dateKey(t time.Time) string {
	return t.In(e.loc).Format(time.DateOnly)
}

type totals struct {
	revenue          float64
	confirmed        int
	cancelledCount   int
	cancelledRevenue float64
}

func tally(facts []Fact) totals {
	var t totals
	for _, f := range facts {
		switch f.Status {
		case domain.StatusConfirmed:
			t.revenue += f.Price
			t.confirmed++
		case domain.StatusCancelled:
			t.cancelledCount++
			t.cancelledRevenue += f.Price
		}
	}
	return t
}

func (t totals) averageCheck() float64 {
	if t.confirmed == 0 {
		return 0
	}
	return round2(t.revenue / float64(t.confirmed))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
