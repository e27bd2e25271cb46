package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Service is a catalog code. Group-by operations key on it.
type Service string

const (
	ServiceHaircut      Service = "haircut"
	ServiceColoring     Service = "coloring"
	ServiceStyling      Service = "styling"
	ServiceManicure     Service = "manicure"
	ServicePedicure     Service = "pedicure"
	ServiceSpaCare      Service = "spa_care"
	ServiceHighlighting Service = "highlighting"
	ServicePerm         Service = "perm"
	ServiceKeratin      Service = "keratin_straightening"
)

var ErrUnknownService = errors.New("unknown service")

// CatalogEntry is one priced service offered by every salon.
type CatalogEntry struct {
	Code  Service `json:"code"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`

	aliases []string
}

var catalog = []CatalogEntry{
	{Code: ServiceHaircut, Name: "Haircut", Price: 1500, aliases: []string{"Стрижка"}},
	{Code: ServiceColoring, Name: "Coloring", Price: 3500, aliases: []string{"Окрашивание"}},
	{Code: ServiceStyling, Name: "Styling", Price: 1200, aliases: []string{"Укладка"}},
	{Code: ServiceManicure, Name: "Manicure", Price: 1800, aliases: []string{"Маникюр"}},
	{Code: ServicePedicure, Name: "Pedicure", Price: 2000, aliases: []string{"Педикюр"}},
	{Code: ServiceSpaCare, Name: "SPA care", Price: 4500, aliases: []string{"SPA-уход"}},
	{Code: ServiceHighlighting, Name: "Highlighting", Price: 4000, aliases: []string{"Мелирование"}},
	{Code: ServicePerm, Name: "Perm", Price: 5000, aliases: []string{"Химическая завивка"}},
	{Code: ServiceKeratin, Name: "Keratin straightening", Price: 6000, aliases: []string{"Кератиновое выпрямление"}},
}

var lookup = func() map[string]int {
	m := make(map[string]int, len(catalog)*3)
	for i, e := range catalog {
		m[strings.ToLower(string(e.Code))] = i
		m[strings.ToLower(e.Name)] = i
		for _, a := range e.aliases {
			m[strings.ToLower(a)] = i
		}
	}
	return m
}()

// Catalog returns the services in display order.
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(catalog))
	copy(out, catalog)
	return out
}

// ParseService accepts a code, a display name or a legacy name, case-insensitively.
func ParseService(s string) (Service, error) {
	if i, ok := lookup[strings.ToLower(strings.TrimSpace(s))]; ok {
		return catalog[i].Code, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownService, s)
}

func (s Service) Valid() bool {
	return s.entry() != nil
}

func (s Service) entry() *CatalogEntry {
	for i := range catalog {
		if catalog[i].Code == s {
			return &catalog[i]
		}
	}
	return nil
}

// DisplayName falls back to the raw code for unknown values.
func (s Service) DisplayName() string {
	if e := s.entry(); e != nil {
		return e.Name
	}
	return string(s)
}

// ListPrice is 0 for unknown values.
func (s Service) ListPrice() float64 {
	if e := s.entry(); e != nil {
		return e.Price
	}
	return 0
}
