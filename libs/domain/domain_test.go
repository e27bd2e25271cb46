package domain

import (
	"errors"
	"testing"
)

func TestParseService(t *testing.T) {
	cases := []struct {
		in   string
		want Service
	}{
		{"haircut", ServiceHaircut},
		{"  Keratin Straightening ", ServiceKeratin},
		{"SPA care", ServiceSpaCare},
		{"Маникюр", ServiceManicure},
		{"PERM", ServicePerm},
	}
	for _, tc := range cases {
		got, err := ParseService(tc.in)
		if err != nil {
			t.Fatalf("ParseService(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseService(%q): expected %s, got %s", tc.in, tc.want, got)
		}
	}
	if _, err := ParseService("tattoo"); !errors.Is(err, ErrUnknownService) {
		t.Fatalf("expected ErrUnknownService, got %v", err)
	}
}

func TestCatalogPrices(t *testing.T) {
	entries := Catalog()
	if len(entries) != 9 {
		t.Fatalf("expected 9 services, got %d", len(entries))
	}
	if ServiceSpaCare.ListPrice() != 4500 || ServiceKeratin.ListPrice() != 6000 {
		t.Fatal("unexpected list prices")
	}
	if Service("unknown").ListPrice() != 0 || Service("unknown").Valid() {
		t.Fatal("unknown service must have no price")
	}
	if ServiceHaircut.DisplayName() != "Haircut" {
		t.Fatalf("unexpected display name %q", ServiceHaircut.DisplayName())
	}
}

func TestParseStatusAndRole(t *testing.T) {
	if s, err := ParseStatus(" Confirmed "); err != nil || s != StatusConfirmed {
		t.Fatalf("unexpected status %q err=%v", s, err)
	}
	if _, err := ParseStatus("pending"); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
	if r, err := ParseRole(""); err != nil || r != RoleClient {
		t.Fatalf("expected default client role, got %q err=%v", r, err)
	}
	if _, err := ParseRole("root"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}
