package catalog

import (
	"encoding/json"
	"math"
	"testing"
)

func testStars() []Star {
	return []Star{
		{
			ID: "TOI-700",
			Planets: []Planet{
				{ID: "p1", Name: Text("TOI-700 d"), RadiusEarth: Float(1), OrbitalPeriodDays: Float(37.4)},
				{ID: "p2", RadiusEarth: Float(3)},
			},
		},
		{
			ID: "KOI-351",
			Planets: []Planet{
				{ID: "k1", Name: Text("Kepler-90 h"), RadiusEarth: Float(math.NaN())},
			},
		},
		{ID: "HD-1"},
	}
}

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{`"TOI-700"`, "TOI-700"},
		{`42`, "42"},
		{`4.5`, "4.5"},
		{`null`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var id ID
			if err := json.Unmarshal([]byte(tt.in), &id); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if id != tt.want {
				t.Errorf("id = %q, want %q", id, tt.want)
			}
		})
	}

	var id ID
	if err := json.Unmarshal([]byte(`{}`), &id); err == nil {
		t.Error("expected error for object id")
	}
}

func TestStarMission(t *testing.T) {
	tests := []struct {
		id   ID
		want Mission
	}{
		{"TOI-700", MissionTESS},
		{"toi-1", MissionTESS},
		{"KOI-351", MissionKOI},
		{"HD-1", MissionAll},
		{"", MissionAll},
	}
	for _, tt := range tests {
		if got := (Star{ID: tt.id}).Mission(); got != tt.want {
			t.Errorf("Mission(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestMissionCycle(t *testing.T) {
	m := MissionAll
	want := []Mission{MissionTESS, MissionKOI, MissionAll}
	for i, w := range want {
		m = m.Next()
		if m != w {
			t.Errorf("step %d: got %v, want %v", i, m, w)
		}
	}
	if ParseMission(" koi ") != MissionKOI {
		t.Error("ParseMission should be case-insensitive")
	}
	if ParseMission("nope") != MissionAll {
		t.Error("unknown mission should parse as All")
	}
}

func TestFilter(t *testing.T) {
	stars := testStars()

	tests := []struct {
		name    string
		query   string
		mission Mission
		want    []ID
	}{
		{"no filter", "", MissionAll, []ID{"TOI-700", "KOI-351", "HD-1"}},
		{"star label", "star hd", MissionAll, []ID{"HD-1"}},
		{"planet name", "kepler-90", MissionAll, []ID{"KOI-351"}},
		{"unnamed planet key", "planet-p2", MissionAll, []ID{"TOI-700"}},
		{"planet id", "k1", MissionAll, []ID{"KOI-351"}},
		{"case insensitive", "  TOI-700 D ", MissionAll, []ID{"TOI-700"}},
		{"mission only", "", MissionTESS, []ID{"TOI-700"}},
		{"mission and query mismatch", "kepler", MissionTESS, nil},
		{"no match", "zzz", MissionAll, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(stars, tt.query, tt.mission)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d stars, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("star[%d] = %q, want %q", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	sum := Summarize(testStars())

	if sum.Systems != 3 || sum.Planets != 3 {
		t.Errorf("counts = %d systems %d planets", sum.Systems, sum.Planets)
	}
	// NaN radius is skipped.
	if sum.RadiusEarth.Count != 2 {
		t.Errorf("radius count = %d, want 2", sum.RadiusEarth.Count)
	}
	if sum.RadiusEarth.Mean != 2 || sum.RadiusEarth.Min != 1 || sum.RadiusEarth.Max != 3 {
		t.Errorf("radius stats = %+v", sum.RadiusEarth)
	}
	if math.Abs(sum.RadiusEarth.StdDev-math.Sqrt2) > 1e-9 {
		t.Errorf("radius stddev = %v, want sqrt(2)", sum.RadiusEarth.StdDev)
	}
	if sum.PeriodDays.Count != 1 || sum.PeriodDays.Mean != 37.4 || sum.PeriodDays.StdDev != 0 {
		t.Errorf("period stats = %+v", sum.PeriodDays)
	}
	if sum.TempK != (FieldStats{}) {
		t.Errorf("temperature stats should be empty, got %+v", sum.TempK)
	}
}

func TestPageHelpers(t *testing.T) {
	var nilPage *Page
	if nilPage.PlanetCount() != 0 {
		t.Error("nil page should count 0 planets")
	}
	if _, ok := nilPage.FindStar("x"); ok {
		t.Error("nil page should not find stars")
	}

	p := &Page{Page: 1, Stars: testStars()}
	if p.PlanetCount() != 3 {
		t.Errorf("PlanetCount = %d", p.PlanetCount())
	}
	s, ok := p.FindStar("KOI-351")
	if !ok || s.Label() != "Star KOI-351" {
		t.Errorf("FindStar = %+v, %v", s, ok)
	}
	if _, ok := s.Planet("k1"); !ok {
		t.Error("Planet(k1) not found")
	}
}

func TestPlanetLabel(t *testing.T) {
	tests := []struct {
		name string
		p    Planet
		want string
	}{
		{"named", Planet{ID: "7", Name: Text("Kepler-22 b")}, "Kepler-22 b"},
		{"null name", Planet{ID: "7"}, "Planet 7"},
		{"empty name", Planet{ID: "7", Name: Text("")}, "Planet 7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}
