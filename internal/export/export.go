// Package export renders catalog pages, summaries and derived scenes for the
// headless commands.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/litescript/ls-exoquest/internal/catalog"
	"github.com/litescript/ls-exoquest/internal/scene"
)

// Format selects an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format name. An empty name means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, json or yaml)", s)
	}
}

// Write encodes v as JSON or YAML. Table output is type specific and not
// handled here.
func Write(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q is not a structured encoding", format)
	}
}

// PageExport is the serializable form of one fetched page.
type PageExport struct {
	Page      int            `json:"page" yaml:"page"`
	Search    string         `json:"search,omitempty" yaml:"search,omitempty"`
	FetchedAt time.Time      `json:"fetched_at" yaml:"fetched_at"`
	Stars     []catalog.Star `json:"stars" yaml:"stars"`
}

// ExportPage converts a fetch result to its serializable form.
func ExportPage(res catalog.FetchResult) *PageExport {
	out := &PageExport{
		Page:      res.Query.Page,
		Search:    res.Query.Search,
		FetchedAt: res.FetchedAt.UTC(),
		Stars:     []catalog.Star{},
	}
	if res.Page != nil {
		if res.Page.Page > 0 {
			out.Page = res.Page.Page
		}
		if res.Page.Stars != nil {
			out.Stars = res.Page.Stars
		}
	}
	return out
}

// SceneExport is the derived render model of one system.
type SceneExport struct {
	StarID     catalog.ID   `json:"star_id" yaml:"star_id"`
	Label      string       `json:"label" yaml:"label"`
	StarRadius float64      `json:"star_radius" yaml:"star_radius"`
	StarColor  string       `json:"star_color" yaml:"star_color"`
	OrbitColor string       `json:"orbit_color" yaml:"orbit_color"`
	Bodies     []BodyExport `json:"bodies" yaml:"bodies"`
}

// BodyExport is one planet's render parameters with colors as hex strings.
type BodyExport struct {
	ID              catalog.ID `json:"id" yaml:"id"`
	Label           string     `json:"label" yaml:"label"`
	OrbitRadius     float64    `json:"orbit_radius" yaml:"orbit_radius"`
	BodyRadius      float64    `json:"body_radius" yaml:"body_radius"`
	AngularVelocity float64    `json:"angular_velocity" yaml:"angular_velocity"`
	Color           string     `json:"color" yaml:"color"`
	LabelHeight     float64    `json:"label_height" yaml:"label_height"`
}

// ExportScene derives and converts the scene of star.
func ExportScene(star catalog.Star) *SceneExport {
	sc := scene.Build(star.Planets)
	out := &SceneExport{
		StarID:     star.ID,
		Label:      star.Label(),
		StarRadius: scene.StarRadius,
		StarColor:  scene.StarColor.Hex(),
		OrbitColor: scene.OrbitColor.Hex(),
		Bodies:     make([]BodyExport, 0, len(sc.Bodies)),
	}
	for _, b := range sc.Bodies {
		out.Bodies = append(out.Bodies, BodyExport{
			ID:              b.ID,
			Label:           b.Label,
			OrbitRadius:     b.OrbitRadius,
			BodyRadius:      b.BodyRadius,
			AngularVelocity: b.AngularVelocity,
			Color:           b.Color.Hex(),
			LabelHeight:     b.LabelHeight(),
		})
	}
	return out
}

// WriteStarsTable writes one line per system followed by its planets.
func WriteStarsTable(w io.Writer, res catalog.FetchResult) {
	page := ExportPage(res)
	title := fmt.Sprintf("Catalog page %d", page.Page)
	if page.Search != "" {
		title += fmt.Sprintf(" · search %q", page.Search)
	}
	fmt.Fprintf(w, "%s @ %s\n", title, page.FetchedAt.Format(time.RFC3339))
	fmt.Fprintln(w, strings.Repeat("─", 78))

	if len(page.Stars) == 0 {
		fmt.Fprintln(w, "No systems")
		return
	}

	fmt.Fprintf(w, "%-18s %-7s %-8s %-24s %-10s %-8s %-6s\n",
		"System", "Mission", "Teff", "Planet", "Period", "Radius", "P")
	fmt.Fprintln(w, strings.Repeat("─", 78))

	planets := 0
	for _, s := range page.Stars {
		mission := ""
		if m := s.Mission(); m != catalog.MissionAll {
			mission = m.String()
		}
		fmt.Fprintf(w, "%-18s %-7s %-8s\n",
			truncateStr(s.ID.String(), 18), mission, catalog.FormatWithUnit(s.EffectiveTempK, "K"))
		for _, p := range s.Planets {
			planets++
			fmt.Fprintf(w, "%-18s %-7s %-8s %-24s %-10s %-8s %-6s\n",
				"", "", "",
				truncateStr(p.Label(), 24),
				catalog.FormatWithUnit(p.OrbitalPeriodDays, "d"),
				catalog.FormatValue(p.RadiusEarth),
				catalog.FormatProbability(p.Probability),
			)
		}
	}

	fmt.Fprintf(w, "\nTotal: %d systems, %d planets\n", len(page.Stars), planets)
}

// WriteSceneTable writes the render parameters of one system.
func WriteSceneTable(w io.Writer, sc *SceneExport) {
	fmt.Fprintf(w, "%s (star r=%.2f %s)\n", sc.Label, sc.StarRadius, sc.StarColor)
	fmt.Fprintln(w, strings.Repeat("─", 72))
	if len(sc.Bodies) == 0 {
		fmt.Fprintln(w, "No planets")
		return
	}
	fmt.Fprintf(w, "%-24s %8s %8s %10s %-8s\n", "Planet", "Orbit", "Radius", "ω (rad/s)", "Color")
	for _, b := range sc.Bodies {
		fmt.Fprintf(w, "%-24s %8.3f %8.3f %10.4f %-8s\n",
			truncateStr(b.Label, 24), b.OrbitRadius, b.BodyRadius, b.AngularVelocity, b.Color)
	}
}

// SummaryExport pairs one page's statistics with the catalog-wide totals.
type SummaryExport struct {
	Catalog catalog.Infos   `json:"catalog" yaml:"catalog"`
	Page    catalog.Summary `json:"page" yaml:"page"`
}

// ExportSummary combines sum with infos. A nil infos leaves both totals
// unset.
func ExportSummary(infos *catalog.Infos, sum catalog.Summary) *SummaryExport {
	out := &SummaryExport{Page: sum}
	if infos != nil {
		out.Catalog = *infos
	}
	return out
}

// WriteTotalsTable writes the catalog-wide counts.
func WriteTotalsTable(w io.Writer, infos catalog.Infos) {
	fmt.Fprintf(w, "Catalog: %s stars, %s planets\n",
		catalog.FormatCount(infos.Stars), catalog.FormatCount(infos.Planets))
}

// WriteSummaryTable writes the summary statistics as a text table.
func WriteSummaryTable(w io.Writer, sum catalog.Summary) {
	fmt.Fprintf(w, "Systems: %d  Planets: %d\n", sum.Systems, sum.Planets)
	fmt.Fprintln(w, strings.Repeat("─", 72))
	fmt.Fprintf(w, "%-22s %6s %10s %10s %10s %10s\n", "Field", "N", "Mean", "StdDev", "Min", "Max")

	rows := []struct {
		name string
		fs   catalog.FieldStats
	}{
		{"radius (R⊕)", sum.RadiusEarth},
		{"period (d)", sum.PeriodDays},
		{"eq. temp (K)", sum.TempK},
		{"semi-major axis (AU)", sum.SemiMajor},
	}
	for _, r := range rows {
		if r.fs.Count == 0 {
			fmt.Fprintf(w, "%-22s %6d %10s %10s %10s %10s\n",
				r.name, 0, catalog.MissingValue, catalog.MissingValue, catalog.MissingValue, catalog.MissingValue)
			continue
		}
		fmt.Fprintf(w, "%-22s %6d %10s %10s %10s %10s\n",
			r.name, r.fs.Count,
			catalog.FormatValue(&r.fs.Mean),
			catalog.FormatValue(&r.fs.StdDev),
			catalog.FormatValue(&r.fs.Min),
			catalog.FormatValue(&r.fs.Max),
		)
	}
}

// truncateStr shortens a string to max runes.
func truncateStr(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
