package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-exoquest/internal/catalog"
	"github.com/litescript/ls-exoquest/internal/scene"
	"github.com/litescript/ls-exoquest/internal/state"
)

// DetailsModel shows the measurements of the selected planet and its host
// star.
type DetailsModel struct {
	width  int
	height int
}

// NewDetailsModel creates a new details panel.
func NewDetailsModel() DetailsModel {
	return DetailsModel{}
}

// SetSize updates the viewport size.
func (m DetailsModel) SetSize(width, height int) DetailsModel {
	m.width = width
	m.height = height
	return m
}

// View renders the panel. body holds the derived render parameters of the
// selected planet when there is one.
func (m DetailsModel) View(snap state.Snapshot, body scene.RenderParams, hasBody bool) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("244")).
		Width(14)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	row := func(b *strings.Builder, label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	var b strings.Builder
	if !snap.HasStar {
		b.WriteString(dimStyle.Render("Select a system with ↑/↓"))
		return b.String()
	}

	if snap.HasPlanet {
		p := snap.Planet
		name := p.Label()
		b.WriteString(headerStyle.Render(name))
		if hasBody {
			swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(body.Color.Hex())).Render(" ●")
			b.WriteString(swatch)
		}
		if prob := catalog.FormatProbability(p.Probability); prob != catalog.MissingValue {
			b.WriteString(badgeStyle.Render("  P = " + prob))
		}
		b.WriteString("\n")
		b.WriteString(strings.Repeat("─", len([]rune(name))+4))
		b.WriteString("\n")

		row(&b, "Radius:", catalog.FormatWithUnit(p.RadiusEarth, "R⊕"))
		row(&b, "Eq. temp:", catalog.FormatWithUnit(p.EquilibriumTempK, "K"))
		row(&b, "Period:", catalog.FormatWithUnit(p.OrbitalPeriodDays, "d"))
		row(&b, "Semi-major:", catalog.FormatWithUnit(p.SemiMajorAxis, "AU"))
		row(&b, "Eccentricity:", catalog.FormatValue(p.Eccentricity))
		row(&b, "Inclination:", catalog.FormatWithUnit(p.InclinationDeg, "°"))
		b.WriteString("\n")
	} else {
		b.WriteString(dimStyle.Render("←/→ to inspect a planet"))
		b.WriteString("\n\n")
	}

	s := snap.Star
	b.WriteString(headerStyle.Render(s.Label()))
	if ms := s.Mission(); ms != catalog.MissionAll {
		b.WriteString(missionStyle.Render("  " + ms.String()))
	}
	b.WriteString("\n")
	row(&b, "Teff:", catalog.FormatWithUnit(s.EffectiveTempK, "K"))
	row(&b, "Mass:", catalog.FormatWithUnit(s.MassSolar, "M☉"))
	row(&b, "Radius:", catalog.FormatWithUnit(s.RadiusSolar, "R☉"))
	row(&b, "[Fe/H]:", catalog.FormatValue(s.MetallicityFeH))
	row(&b, "Age:", catalog.FormatWithUnit(s.AgeGyr, "Gyr"))
	row(&b, "Planets:", fmt.Sprintf("%d", len(s.Planets)))

	return strings.TrimRight(b.String(), "\n")
}
