package main

import (
	"time"

	"github.com/salonbook/salonbook/libs/domain"
)

type demoUser struct {
	Username string
	Password string
	Name     string
	Role     domain.Role
}

type demoSalon struct {
	Name    string
	Address string
	Lat     float64
	Lon     float64
}

type demoMaster struct {
	Name       string
	Salon      int // index into plan.Salons
	HourlyRate float64
}

type demoClient struct {
	Name  string
	Phone string
	Salon int
	User  int // index into plan.Users, -1 for a walk-in client
}

type demoAppointment struct {
	Master  int
	Client  int
	Start   time.Time
	Service domain.Service
	Status  domain.Status
}

type plan struct {
	Users        []demoUser
	Salons       []demoSalon
	Masters      []demoMaster
	Clients      []demoClient
	Appointments []demoAppointment
}

// demoPlan builds the demo data set. Appointments are spread over the days
// before now so every analytics report has something to show.
func demoPlan(now time.Time, days int, loc *time.Location) plan {
	p := plan{
		Users: []demoUser{
			{Username: "admin", Password: "admin", Name: "Administrator", Role: domain.RoleAdmin},
			{Username: "maria", Password: "12345", Name: "Maria Ivanova", Role: domain.RoleClient},
			{Username: "ivan", Password: "12345", Name: "Ivan Petrov", Role: domain.RoleClient},
		},
		Salons: []demoSalon{
			{Name: "Elsa Beauty", Address: "12 Tverskaya St", Lat: 55.764276, Lon: 37.606831},
			{Name: "Jasmine Studio", Address: "5 Kutuzovsky Ave", Lat: 55.752004, Lon: 37.566833},
			{Name: "Magnolia", Address: "20 Arbat St", Lat: 55.750584, Lon: 37.588039},
			{Name: "Relax SPA", Address: "45 Leninsky Ave", Lat: 55.706892, Lon: 37.584573},
		},
	}

	names := []string{
		"Anna Ivanova", "Maria Petrova", "Elena Sidorova", "Olga Smirnova",
		"Tatiana Kozlova", "Natalia Volkova", "Irina Sokolova", "Ekaterina Morozova",
	}
	for i, name := range names {
		p.Masters = append(p.Masters, demoMaster{Name: name, Salon: i / 2, HourlyRate: 300 + float64(i%3)*50})
	}

	p.Clients = []demoClient{
		{Name: p.Users[1].Name, Phone: "+7 (999) 111-11-11", Salon: 0, User: 1},
		{Name: p.Users[2].Name, Phone: "+7 (999) 222-22-22", Salon: 1, User: 2},
		{Name: "Walk-in guest", Phone: "+7 (999) 333-33-33", Salon: 0, User: -1},
	}

	catalog := domain.Catalog()
	today := domain.StartOfDay(now, loc)
	for i := 0; i < days; i++ {
		status := domain.StatusConfirmed
		if i%5 == 4 {
			status = domain.StatusCancelled
		}
		p.Appointments = append(p.Appointments, demoAppointment{
			Master:  i % len(p.Masters),
			Client:  i % len(p.Clients),
			Start:   today.AddDate(0, 0, -(i + 1)).Add(time.Duration(10+i%8) * time.Hour),
			Service: catalog[i%len(catalog)].Code,
			Status:  status,
		})
	}
	return p
}
