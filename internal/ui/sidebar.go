package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-exoquest/internal/catalog"
	"github.com/litescript/ls-exoquest/internal/state"
)

// Shared panel styles.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	planetRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("249"))

	selectedPlanetStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Bold(true)

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	missionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("60"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E84A27"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

// SidebarModel lists the systems on the current page. The selected system is
// expanded to show its planets.
type SidebarModel struct {
	width  int
	height int
}

// NewSidebarModel creates a new sidebar.
func NewSidebarModel() SidebarModel {
	return SidebarModel{}
}

// SetSize updates the viewport size.
func (m SidebarModel) SetSize(width, height int) SidebarModel {
	m.width = width
	m.height = height
	return m
}

// View renders the sidebar. search is the text being typed, shown while
// searching is true.
func (m SidebarModel) View(snap state.Snapshot, search string, searching bool) string {
	var lines []string

	title := fmt.Sprintf("Systems · page %d", snap.Query.Page)
	if snap.Query.Search != "" {
		title += fmt.Sprintf(" · %q", snap.Query.Search)
	}
	lines = append(lines, titleStyle.Render(truncate(title, m.width)))

	filterLine := missionStyle.Render("["+snap.Mission.String()+"]") + " "
	switch {
	case searching:
		filterLine += rowStyle.Render("/" + search + "▌")
	case snap.Filter != "":
		filterLine += badgeStyle.Render("filter: " + snap.Filter)
	default:
		filterLine += dimStyle.Render("/ to search")
	}
	lines = append(lines, filterLine, "")

	switch {
	case snap.Page == nil && snap.Loading:
		lines = append(lines, dimStyle.Render("Loading systems..."))
	case snap.Page == nil:
		lines = append(lines, dimStyle.Render("No data"))
	case len(snap.Visible) == 0:
		lines = append(lines, dimStyle.Render("No matching systems"))
	default:
		lines = append(lines, m.renderList(snap)...)
	}

	return strings.Join(lines, "\n")
}

// renderList renders the visible systems, scrolled so the selection stays in
// view.
func (m SidebarModel) renderList(snap state.Snapshot) []string {
	var rows []string
	selRow := 0
	for _, s := range snap.Visible {
		selected := s.ID == snap.StarID
		if selected {
			selRow = len(rows)
		}
		rows = append(rows, m.renderSystemRow(s, selected))
		if !selected {
			continue
		}
		for _, p := range s.Planets {
			rows = append(rows, m.renderPlanetRow(p, p.ID == snap.PlanetID))
		}
	}

	avail := m.height - 3
	if avail < 1 || len(rows) <= avail {
		return rows
	}
	start := selRow - avail/3
	start = max(0, min(start, len(rows)-avail))
	return rows[start : start+avail]
}

func (m SidebarModel) renderSystemRow(s catalog.Star, selected bool) string {
	marker := "  "
	if selected {
		marker = "▶ "
	}
	count := fmt.Sprintf("%dp", len(s.Planets))
	mission := ""
	if ms := s.Mission(); ms != catalog.MissionAll {
		mission = ms.String()
	}

	nameWidth := max(4, m.width-len(marker)-len(count)-len(mission)-2)
	name := fmt.Sprintf("%-*s", nameWidth, truncate(s.Label(), nameWidth))
	row := marker + name + " " + count
	if mission != "" {
		row += " " + mission
	}

	if selected {
		return selectedRowStyle.Render(row)
	}
	return rowStyle.Render(row)
}

func (m SidebarModel) renderPlanetRow(p catalog.Planet, selected bool) string {
	marker := "   ◦ "
	style := planetRowStyle
	if selected {
		marker = "   ◉ "
		style = selectedPlanetStyle
	}

	var badges []string
	if b := catalog.PeriodBadge(p); b != "" {
		badges = append(badges, b)
	}
	if b := catalog.RadiusBadge(p); b != "" {
		badges = append(badges, b)
	}
	badge := strings.Join(badges, " · ")

	nameWidth := max(4, m.width-len([]rune(marker))-len([]rune(badge))-1)
	row := style.Render(marker + truncate(p.Label(), nameWidth))
	if badge != "" {
		row += " " + badgeStyle.Render(badge)
	}
	return row
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
