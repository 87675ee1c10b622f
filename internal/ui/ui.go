// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-exoquest/internal/catalog"
	"github.com/litescript/ls-exoquest/internal/logging"
	"github.com/litescript/ls-exoquest/internal/scene"
	"github.com/litescript/ls-exoquest/internal/state"
	"github.com/litescript/ls-exoquest/internal/version"
)

// Fetcher loads catalog pages and totals. *catalog.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, q catalog.Query) catalog.FetchResult
	Infos(ctx context.Context) (*catalog.Infos, error)
}

// Msg types for Bubble Tea
type (
	// FrameMsg advances the animation by the real time since the last frame.
	FrameMsg time.Time

	// AnimTickMsg drives the spinner and shimmer effects.
	AnimTickMsg time.Time

	// fetchDoneMsg carries the result of catalog request seq.
	fetchDoneMsg struct {
		seq    uint64
		result catalog.FetchResult
	}

	infosMsg struct {
		infos *catalog.Infos
		err   error
	}
)

// Layout
const (
	headerHeight  = 3
	footerHeight  = 2
	sidebarWidth  = 38
	detailsHeight = 17
)

// Options configures the root model.
type Options struct {
	FrameInterval time.Duration
	Speed         float64
	ShowOrbits    bool
	ShowLabels    bool
	Logger        *logging.Logger
}

// DefaultOptions returns 30 fps with orbits and labels shown.
func DefaultOptions() Options {
	return Options{
		FrameInterval: time.Second / 30,
		Speed:         scene.DefaultSpeed,
		ShowOrbits:    true,
		ShowLabels:    true,
	}
}

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	state   *state.Manager
	fetcher Fetcher
	log     *logging.Logger

	// UI state
	width    int
	height   int
	ready    bool
	animTick int

	// Animation clock
	frameInterval time.Duration
	lastFrame     time.Time
	elapsed       time.Duration

	// Search input
	searching   bool
	searchInput string

	// Sub-models
	sidebar   SidebarModel
	details   DetailsModel
	sceneView SceneViewModel

	// Data snapshot and the scene derived from the selected system
	snapshot    state.Snapshot
	stepper     *scene.Stepper
	scene       scene.Scene
	sceneStar   catalog.ID
	scenePage   *catalog.Page
	sceneLoaded bool

	// Catalog-wide totals; nil until loaded or after a failure
	infos *catalog.Infos
}

// New creates a new root UI model.
func New(stateMgr *state.Manager, fetcher Fetcher, opts Options) Model {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultOptions().FrameInterval
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	stepper := scene.NewStepper()
	if opts.Speed > 0 {
		stepper.SetSpeed(scene.ClampSpeed(opts.Speed))
	}

	m := Model{
		state:         stateMgr,
		fetcher:       fetcher,
		log:           log,
		frameInterval: opts.FrameInterval,
		sidebar:       NewSidebarModel(),
		details:       NewDetailsModel(),
		sceneView:     NewSceneViewModel(opts.ShowOrbits, opts.ShowLabels),
		stepper:       stepper,
	}
	m.sync()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		frameCmd(m.frameInterval),
		animTickCmd(),
		m.fetch(m.state.Query()),
		m.fetchInfos(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		var cmd tea.Cmd
		if m.searching {
			cmd = m.handleSearchKey(msg)
		} else {
			cmd = m.handleKey(msg)
		}
		m.sync()
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()

	case FrameMsg:
		now := time.Time(msg)
		if !m.lastFrame.IsZero() {
			dt := now.Sub(m.lastFrame)
			m.stepper.Step(dt)
			m.elapsed += dt
		}
		m.lastFrame = now
		m.sync()
		cmds = append(cmds, frameCmd(m.frameInterval))

	case AnimTickMsg:
		m.animTick++
		cmds = append(cmds, animTickCmd())

	case fetchDoneMsg:
		switch {
		case !m.state.Complete(msg.seq, msg.result):
			m.log.Debug("dropping stale catalog result (request %d)", msg.seq)
		case msg.result.Error != nil:
			m.log.Warn("catalog request failed: %v", msg.result.Error)
		case msg.result.Page != nil:
			m.log.Info("loaded page %d: %d systems in %s",
				msg.result.Page.Page, len(msg.result.Page.Stars), msg.result.Duration.Round(time.Millisecond))
		}
		m.sync()

	case infosMsg:
		if msg.err != nil {
			m.log.Warn("catalog totals unavailable: %v", msg.err)
			break
		}
		m.infos = msg.infos
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		m.state.Cancel()
		return tea.Quit

	case "up", "k":
		m.state.MoveStar(-1)
	case "down", "j":
		m.state.MoveStar(1)
	case "left":
		m.state.MovePlanet(-1)
	case "right":
		m.state.MovePlanet(1)
	case "enter", "esc":
		m.state.ClearPlanet()

	case "/":
		m.searching = true
		m.searchInput = m.snapshot.Filter
	case "m":
		mission := m.state.CycleMission()
		m.log.Debug("mission filter: %s", mission)

	case "n":
		q := m.snapshot.Query
		q.Page++
		return m.fetch(q)
	case "p":
		q := m.snapshot.Query
		if q.Page <= 1 {
			return nil
		}
		q.Page--
		return m.fetch(q)
	case "g":
		return m.fetch(m.snapshot.Query)

	case " ":
		m.stepper.TogglePause()
	case "r":
		m.stepper.Reset()
	case "+", "=":
		m.stepper.Faster()
	case "-", "_":
		m.stepper.Slower()
	case "o":
		m.sceneView = m.sceneView.ToggleOrbits()
	case "l":
		m.sceneView = m.sceneView.ToggleLabels()

	default:
		var cmd tea.Cmd
		m.sceneView, cmd = m.sceneView.Update(msg)
		return cmd
	}
	return nil
}

// handleSearchKey edits the search line. Typing filters the loaded page;
// enter runs the term as a remote search, esc abandons it.
func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.state.Cancel()
		return tea.Quit
	case tea.KeyEnter:
		m.searching = false
		term := strings.TrimSpace(m.searchInput)
		m.state.SetFilter("")
		if term == m.snapshot.Query.Search {
			return nil
		}
		return m.fetch(catalog.Query{Page: 1, Search: term})
	case tea.KeyEsc:
		m.searching = false
		m.searchInput = ""
		m.state.SetFilter("")
	case tea.KeyBackspace:
		if r := []rune(m.searchInput); len(r) > 0 {
			m.searchInput = string(r[:len(r)-1])
			m.state.SetFilter(m.searchInput)
		}
	case tea.KeyRunes, tea.KeySpace:
		m.searchInput += string(msg.Runes)
		if msg.Type == tea.KeySpace && len(msg.Runes) == 0 {
			m.searchInput += " "
		}
		m.state.SetFilter(m.searchInput)
	}
	return nil
}

// fetch starts a catalog request for q, superseding any request in flight.
func (m Model) fetch(q catalog.Query) tea.Cmd {
	if m.fetcher == nil {
		return nil
	}
	ctx, seq := m.state.BeginRequest(context.Background(), q)
	fetcher := m.fetcher
	m.log.Debug("fetching %+v (request %d)", q.Normalized(), seq)
	return func() tea.Msg {
		return fetchDoneMsg{seq: seq, result: fetcher.Fetch(ctx, q)}
	}
}

// fetchInfos loads the catalog-wide totals shown in the header.
func (m Model) fetchInfos() tea.Cmd {
	if m.fetcher == nil {
		return nil
	}
	fetcher := m.fetcher
	return func() tea.Msg {
		infos, err := fetcher.Infos(context.Background())
		return infosMsg{infos: infos, err: err}
	}
}

// sync refreshes the snapshot and rebuilds the scene when the selected
// system, or the page it came from, changed.
func (m *Model) sync() {
	m.snapshot = m.state.Snapshot()
	if m.sceneLoaded && m.snapshot.StarID == m.sceneStar && m.snapshot.Page == m.scenePage {
		return
	}
	m.sceneLoaded = true
	m.sceneStar = m.snapshot.StarID
	m.scenePage = m.snapshot.Page
	m.scene = scene.Build(m.snapshot.Star.Planets)
	if m.stepper.Load(m.scene) {
		m.log.Debug("scene reset for %s: %d planets", m.sceneStar, len(m.scene.Bodies))
	}
}

func (m *Model) resize() {
	contentH := max(1, m.height-headerHeight-footerHeight)
	detailsH := min(detailsHeight, contentH/2)
	leftW := min(sidebarWidth, m.width/3)

	m.sidebar = m.sidebar.SetSize(leftW, contentH-detailsH-1)
	m.details = m.details.SetSize(leftW, detailsH)
	m.sceneView = m.sceneView.SetSize(max(1, m.width-leftW-2), contentH)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	body, hasBody := m.scene.Body(m.snapshot.PlanetID)
	leftW := m.sidebar.width

	left := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Width(leftW).Height(m.sidebar.height).
			Render(m.sidebar.View(m.snapshot, m.searchInput, m.searching)),
		"",
		lipgloss.NewStyle().Width(leftW).MaxHeight(m.details.height).
			Render(m.details.View(m.snapshot, body, hasBody)),
	)

	view := m.sceneView.View(Frame{
		Star:     m.snapshot.Star,
		HasStar:  m.snapshot.HasStar,
		Scene:    m.scene,
		Stepper:  m.stepper,
		Selected: m.snapshot.PlanetID,
		Elapsed:  m.elapsed,
	})

	content := lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", view)
	return m.renderFrame(content)
}

func (m Model) renderFrame(content string) string {
	return m.renderHeader() + "\n" + content + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	title := "✦ LS-EXOQUEST"
	runes := []rune(title)

	var b strings.Builder
	b.WriteString("  ")
	for i, r := range runes {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradientColor(i, len(runes)))).Bold(true)
		b.WriteString(style.Render(string(r)))
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("  v%s", version.Version)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  Exoplanet systems · Orbit explorer"))
	b.WriteString(badgeStyle.Render("  ·  " + m.renderTotals()))
	return b.String()
}

// renderTotals shows the catalog-wide star and planet counts.
func (m Model) renderTotals() string {
	var stars, planets *int
	if m.infos != nil {
		stars, planets = m.infos.Stars, m.infos.Planets
	}
	return fmt.Sprintf("%s stars · %s planets in catalog",
		catalog.FormatCount(stars), catalog.FormatCount(planets))
}

// Logo gradient stops: blue, purple, magenta, pink.
var gradientStops = []colorful.Color{
	{R: 59 / 255.0, G: 130 / 255.0, B: 246 / 255.0},
	{R: 139 / 255.0, G: 92 / 255.0, B: 246 / 255.0},
	{R: 217 / 255.0, G: 70 / 255.0, B: 239 / 255.0},
	{R: 236 / 255.0, G: 72 / 255.0, B: 153 / 255.0},
}

// gradientColor returns a hex color for position col of width along the
// logo gradient.
func gradientColor(col, width int) string {
	if width <= 1 {
		return gradientStops[0].Hex()
	}
	t := float64(col) / float64(width-1) * float64(len(gradientStops)-1)
	i := min(int(t), len(gradientStops)-2)
	return gradientStops[i].BlendHcl(gradientStops[i+1], t-float64(i)).Clamped().Hex()
}

func (m Model) renderFooter() string {
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]

	var status string
	switch {
	case m.snapshot.Loading:
		status = accentStyle.Render(spinner) + " " + m.renderShimmerText("Fetching catalog...")
	case m.snapshot.LastError != nil:
		status = errorStyle.Render("ERROR: " + m.snapshot.LastError.Error())
	case m.snapshot.Page != nil:
		status = accentStyle.Render("●") + dimStyle.Render(fmt.Sprintf(" %d systems · %d planets",
			len(m.snapshot.Page.Stars), m.snapshot.Page.PlanetCount()))
		if m.snapshot.FetchDuration > 0 {
			status += dimStyle.Render(" (" + m.snapshot.FetchDuration.Round(time.Millisecond).String() + ")")
		}
	default:
		status = accentStyle.Render(spinner) + " " + m.renderShimmerText("Waiting for data...")
	}

	controls := m.renderControls()
	help := dimStyle.Render("↑↓ system · ←→ planet · / search · m mission · n/p page · space pause · r reset · +/- speed · o orbits · l labels · wasd camera · q quit")

	return "  " + status + "  " + dimStyle.Render("|") + "  " + controls + "\n  " + help
}

// renderControls shows the animation state.
func (m Model) renderControls() string {
	onStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)

	play := onStyle.Render("▶")
	if m.stepper.Paused() {
		play = errorStyle.Render("⏸ paused")
	}
	toggle := func(name string, on bool) string {
		if on {
			return onStyle.Render(name)
		}
		return dimStyle.Render(name)
	}
	return fmt.Sprintf("%s %s  %s %s",
		play,
		rowStyle.Render(fmt.Sprintf("%.1fx", m.stepper.Speed())),
		toggle("orbits", m.sceneView.showOrbits),
		toggle("labels", m.sceneView.showLabels),
	)
}

func frameCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

var (
	shimmerBase = colorful.Color{R: 80 / 255.0, G: 70 / 255.0, B: 120 / 255.0}
	shimmerPeak = colorful.Color{R: 180 / 255.0, G: 160 / 255.0, B: 220 / 255.0}
)

// renderShimmerText renders text with a subtle moving shine effect.
func (m Model) renderShimmerText(text string) string {
	runes := []rune(text)
	textLen := len(runes)
	if textLen == 0 {
		return ""
	}

	pos := m.animTick % (textLen + 8)

	var result strings.Builder
	for i, r := range runes {
		dist := i - pos + 4
		if dist < 0 {
			dist = -dist
		}
		t := max(0, 1-float64(dist)/6)
		c := shimmerBase.BlendRgb(shimmerPeak, t).Clamped()
		result.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render(string(r)))
	}
	return result.String()
}
