// Package export renders report rows as CSV downloads.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/salonbook/salonbook/services/analytics-service/internal/reports"
)

// File names offered in Content-Disposition.
const (
	AppointmentsFile = "analytics.csv"
	FinancialFile    = "financial_report.csv"
	MastersFile      = "masters_report.csv"
	ServicesFile     = "services_report.csv"
)

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func write(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// Appointments writes one detail row per appointment; times use loc.
func Appointments(w io.Writer, facts []reports.Fact, loc *time.Location) error {
	rows := make([][]string, 0, len(facts))
	for _, f := range facts {
		rows = append(rows, []string{
			strconv.FormatInt(f.ID, 10),
			f.StartTime.In(loc).Format("2006-01-02 15:04"),
			f.Service.DisplayName(),
			money(f.Price),
			string(f.Status),
			f.MasterName,
			f.ClientName,
			f.SalonName,
		})
	}
	return write(w, []string{"ID", "Date", "Service", "Price", "Status", "Master", "Client", "Salon"}, rows)
}

func Financial(w io.Writer, salons []reports.SalonRevenue) error {
	rows := make([][]string, 0, len(salons))
	for _, s := range salons {
		rows = append(rows, []string{s.SalonName, money(s.Revenue), strconv.Itoa(s.AppointmentsCount)})
	}
	return write(w, []string{"Salon", "Revenue", "Appointments"}, rows)
}

func Masters(w io.Writer, masters []reports.MasterEarnings) error {
	rows := make([][]string, 0, len(masters))
	for _, m := range masters {
		rows = append(rows, []string{
			m.MasterName,
			m.SalonName,
			money(m.HourlyRate),
			strconv.Itoa(m.AppointmentsCount),
			money(m.TotalRevenue),
			money(m.MasterEarnings),
		})
	}
	return write(w, []string{"Master", "Salon", "Hourly rate", "Appointments", "Revenue", "Earnings"}, rows)
}

func Services(w io.Writer, services []reports.ServiceRevenue) error {
	rows := make([][]string, 0, len(services))
	for _, s := range services {
		rows = append(rows, []string{s.ServiceName, money(s.Revenue), strconv.Itoa(s.Count)})
	}
	return write(w, []string{"Service", "Revenue", "Count"}, rows)
}
