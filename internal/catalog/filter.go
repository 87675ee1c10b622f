package catalog

import (
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mission groups stars by the survey that catalogued them.
type Mission int

const (
	MissionAll Mission = iota
	MissionTESS
	MissionKOI
)

// String returns the mission name.
func (m Mission) String() string {
	switch m {
	case MissionTESS:
		return "TESS"
	case MissionKOI:
		return "KOI"
	default:
		return "All"
	}
}

// Next cycles All -> TESS -> KOI -> All.
func (m Mission) Next() Mission {
	return (m + 1) % 3
}

// ParseMission parses a mission name; unknown names mean All.
func ParseMission(s string) Mission {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TESS":
		return MissionTESS
	case "KOI":
		return MissionKOI
	default:
		return MissionAll
	}
}

// Filter returns the stars matching query and mission. The query is matched
// case-insensitively against the star label, planet names (or planet-<id>)
// and planet ids. An empty query matches everything.
func Filter(stars []Star, query string, mission Mission) []Star {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Star, 0, len(stars))
	for _, s := range stars {
		if mission != MissionAll && s.Mission() != mission {
			continue
		}
		if q != "" && !matches(s, q) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func matches(s Star, q string) bool {
	if strings.Contains(strings.ToLower(s.Label()), q) {
		return true
	}
	for _, p := range s.Planets {
		if strings.Contains(strings.ToLower(p.searchKey()), q) ||
			strings.Contains(strings.ToLower(p.ID.String()), q) {
			return true
		}
	}
	return false
}

// FieldStats summarises one numeric planet field over its finite samples.
type FieldStats struct {
	Count  int     `json:"count" yaml:"count"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"stddev" yaml:"stddev"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
}

// Summary describes a set of systems.
type Summary struct {
	Systems     int        `json:"systems" yaml:"systems"`
	Planets     int        `json:"planets" yaml:"planets"`
	RadiusEarth FieldStats `json:"radius_earth" yaml:"radius_earth"`
	PeriodDays  FieldStats `json:"orbital_period_days" yaml:"orbital_period_days"`
	TempK       FieldStats `json:"equilibrium_tempk" yaml:"equilibrium_tempk"`
	SemiMajor   FieldStats `json:"semi_major_axis" yaml:"semi_major_axis"`
}

// Summarize computes counts and per-field statistics for stars.
func Summarize(stars []Star) Summary {
	var radius, period, temp, axis []float64
	sum := Summary{Systems: len(stars)}
	for _, s := range stars {
		sum.Planets += len(s.Planets)
		for _, p := range s.Planets {
			radius = appendFinite(radius, p.RadiusEarth)
			period = appendFinite(period, p.OrbitalPeriodDays)
			temp = appendFinite(temp, p.EquilibriumTempK)
			axis = appendFinite(axis, p.SemiMajorAxis)
		}
	}
	sum.RadiusEarth = fieldStats(radius)
	sum.PeriodDays = fieldStats(period)
	sum.TempK = fieldStats(temp)
	sum.SemiMajor = fieldStats(axis)
	return sum
}

func appendFinite(xs []float64, v *float64) []float64 {
	if Finite(v) {
		return append(xs, *v)
	}
	return xs
}

func fieldStats(xs []float64) FieldStats {
	if len(xs) == 0 {
		return FieldStats{}
	}
	fs := FieldStats{
		Count: len(xs),
		Min:   floats.Min(xs),
		Max:   floats.Max(xs),
	}
	if len(xs) == 1 {
		fs.Mean = xs[0]
		return fs
	}
	fs.Mean, fs.StdDev = stat.MeanStdDev(xs, nil)
	return fs
}
