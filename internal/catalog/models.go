// Package catalog fetches, decodes and filters star/exoplanet records from the
// remote catalog API.
package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ID identifies a star or planet. The API emits either JSON strings
// ("TOI-700") or bare numbers; both decode to the same textual form.
type ID string

// UnmarshalJSON accepts string, number and null ids.
func (id *ID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the id text.
func (id ID) String() string {
	return string(id)
}

// Planet is a single exoplanet record. Every numeric field is nullable.
type Planet struct {
	ID                ID       `json:"id" yaml:"id"`
	Name              *string  `json:"name" yaml:"name"`
	Probability       *float64 `json:"probability" yaml:"probability"`
	RadiusEarth       *float64 `json:"radius_earth" yaml:"radius_earth"`
	EquilibriumTempK  *float64 `json:"equilibrium_tempk" yaml:"equilibrium_tempk"`
	OrbitalPeriodDays *float64 `json:"orbital_period_days" yaml:"orbital_period_days"`
	SemiMajorAxis     *float64 `json:"semi_major_axis" yaml:"semi_major_axis"`
	Eccentricity      *float64 `json:"eccentricity" yaml:"eccentricity"`
	InclinationDeg    *float64 `json:"inclination_deg" yaml:"inclination_deg"`
}

// Label returns the display name, falling back to "Planet <id>" when the
// name is null or empty.
func (p Planet) Label() string {
	if p.Name != nil && *p.Name != "" {
		return *p.Name
	}
	return "Planet " + p.ID.String()
}

// searchKey is the text matched by local search.
func (p Planet) searchKey() string {
	if p.Name != nil && *p.Name != "" {
		return *p.Name
	}
	return "planet-" + p.ID.String()
}

// Star is a host star together with its planets. The UI treats one Star as
// one planetary system.
type Star struct {
	ID             ID       `json:"id" yaml:"id"`
	MassSolar      *float64 `json:"mass_solar" yaml:"mass_solar"`
	RadiusSolar    *float64 `json:"radius_solar" yaml:"radius_solar"`
	EffectiveTempK *float64 `json:"effective_tempk" yaml:"effective_tempk"`
	MetallicityFeH *float64 `json:"metallicity_feh" yaml:"metallicity_feh"`
	AgeGyr         *float64 `json:"age_gyr" yaml:"age_gyr"`
	Planets        []Planet `json:"planets" yaml:"planets"`
}

// Label returns the display name. The API carries no star names.
func (s Star) Label() string {
	return "Star " + s.ID.String()
}

// Mission infers the survey from the id prefix.
func (s Star) Mission() Mission {
	id := strings.ToUpper(s.ID.String())
	switch {
	case strings.HasPrefix(id, "T"):
		return MissionTESS
	case strings.HasPrefix(id, "K"):
		return MissionKOI
	default:
		return MissionAll
	}
}

// Planet returns the planet with the given id.
func (s Star) Planet(id ID) (Planet, bool) {
	for _, p := range s.Planets {
		if p.ID == id {
			return p, true
		}
	}
	return Planet{}, false
}

// Page is one page of the catalog as returned by the API.
type Page struct {
	Page  int    `json:"page" yaml:"page"`
	Stars []Star `json:"stars" yaml:"stars"`
}

// PlanetCount returns the number of planets across all stars on the page.
func (p *Page) PlanetCount() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, s := range p.Stars {
		n += len(s.Planets)
	}
	return n
}

// FindStar returns the star with the given id.
func (p *Page) FindStar(id ID) (Star, bool) {
	if p == nil {
		return Star{}, false
	}
	for _, s := range p.Stars {
		if s.ID == id {
			return s, true
		}
	}
	return Star{}, false
}

// Finite reports whether v is present and a finite number.
func Finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// Float returns a pointer to v. Handy for building records in code.
func Float(v float64) *float64 {
	return &v
}

// Text returns a pointer to s.
func Text(s string) *string {
	return &s
}

// Infos holds the catalog-wide totals. A nil count was missing or not a
// whole number in the response.
type Infos struct {
	Stars   *int `json:"stars" yaml:"stars"`
	Planets *int `json:"planets" yaml:"planets"`
}

// infosWire is the /getInfos body. Values are loosely typed upstream.
type infosWire struct {
	AmountStars      any `json:"amountStars"`
	AmountExoplanets any `json:"amountExoplanets"`
}

func (w infosWire) infos() *Infos {
	return &Infos{
		Stars:   wholeNumber(w.AmountStars),
		Planets: wholeNumber(w.AmountExoplanets),
	}
}

func wholeNumber(v any) *int {
	f, ok := v.(float64)
	if !ok || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}
