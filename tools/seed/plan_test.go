package main

import (
	"testing"
	"time"

	"github.com/salonbook/salonbook/libs/domain"
)

func TestDemoPlanReferencesAreValid(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	p := demoPlan(now, 30, time.UTC)

	if len(p.Users) != 3 || p.Users[0].Role != domain.RoleAdmin {
		t.Fatalf("expected admin plus two clients, got %+v", p.Users)
	}
	if len(p.Appointments) != 30 {
		t.Fatalf("expected 30 appointments, got %d", len(p.Appointments))
	}
	for i, m := range p.Masters {
		if m.Salon < 0 || m.Salon >= len(p.Salons) {
			t.Fatalf("master %d points at salon %d", i, m.Salon)
		}
	}
	for i, c := range p.Clients {
		if c.User >= len(p.Users) {
			t.Fatalf("client %d points at user %d", i, c.User)
		}
	}

	cancelled := 0
	for i, a := range p.Appointments {
		if !a.Service.Valid() {
			t.Fatalf("appointment %d has invalid service %q", i, a.Service)
		}
		if !a.Start.Before(now) || a.Start.Before(now.AddDate(0, 0, -31)) {
			t.Fatalf("appointment %d starts outside the last 30 days: %s", i, a.Start)
		}
		if a.Status == domain.StatusCancelled {
			cancelled++
		}
	}
	if cancelled != 6 {
		t.Fatalf("expected 6 cancelled appointments, got %d", cancelled)
	}
}
