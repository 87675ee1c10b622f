package ui

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-exoquest/internal/astro"
	"github.com/litescript/ls-exoquest/internal/catalog"
	"github.com/litescript/ls-exoquest/internal/scene"
)

// Terminal cells are roughly twice as tall as they are wide.
const cellAspect = 2.0

const (
	orbitStep = 15.0 // degrees per camera rotation key press
	zoomIn    = 0.9
	zoomOut   = 1.1
)

var (
	black      = colorful.Color{}
	labelColor = colorful.Color{R: 0.88, G: 0.88, B: 0.88}
	starGlow   = colorful.Color{R: 1, G: 1, B: 1}
)

// Canvas layers. A cell is only overwritten by an equal or higher layer.
const (
	layerEmpty = iota
	layerStarfield
	layerOrbit
	layerBody
	layerLabel
)

// SceneViewModel draws the selected system through a perspective camera onto
// a character grid.
type SceneViewModel struct {
	width      int
	height     int
	camera     astro.Camera
	starfield  astro.Starfield
	showOrbits bool
	showLabels bool
}

// NewSceneViewModel creates a scene view with the default camera.
func NewSceneViewModel(showOrbits, showLabels bool) SceneViewModel {
	return SceneViewModel{
		camera:     astro.DefaultCamera(),
		starfield:  astro.DefaultStarfield(),
		showOrbits: showOrbits,
		showLabels: showLabels,
	}
}

// SetSize updates the viewport size.
func (m SceneViewModel) SetSize(width, height int) SceneViewModel {
	m.width = width
	m.height = height
	return m
}

// ToggleOrbits flips orbit ring visibility.
func (m SceneViewModel) ToggleOrbits() SceneViewModel {
	m.showOrbits = !m.showOrbits
	return m
}

// ToggleLabels flips planet label visibility.
func (m SceneViewModel) ToggleLabels() SceneViewModel {
	m.showLabels = !m.showLabels
	return m
}

// Camera returns the current camera.
func (m SceneViewModel) Camera() astro.Camera {
	return m.camera
}

// Update handles camera keys.
func (m SceneViewModel) Update(msg tea.Msg) (SceneViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "a":
			m.camera = m.camera.Orbit(-orbitStep)
		case "d":
			m.camera = m.camera.Orbit(orbitStep)
		case "w":
			m.camera = m.camera.Zoom(zoomIn)
		case "s":
			m.camera = m.camera.Zoom(zoomOut)
		case "c":
			m.camera = astro.DefaultCamera()
		}
	}
	return m, nil
}

// Frame is everything the scene view needs to draw one frame.
type Frame struct {
	Star     catalog.Star
	HasStar  bool
	Scene    scene.Scene
	Stepper  *scene.Stepper
	Selected catalog.ID
	Elapsed  time.Duration
}

// View renders one frame.
func (m SceneViewModel) View(f Frame) string {
	if m.width < 20 || m.height < 6 {
		return "Terminal too small for scene view"
	}

	title := m.renderTitle(f)
	c := newCanvas(m.width, m.height-1)

	m.drawStarfield(c, astro.Twinkle(f.Elapsed))

	switch {
	case !f.HasStar:
		c.centerText("No system selected", lipgloss.Color("60"))
	default:
		m.drawSystem(c, f)
		if len(f.Scene.Bodies) == 0 {
			c.text(1, c.h-1, "No planets in this system", lipgloss.Color("60"), false, layerLabel)
		}
	}

	return title + "\n" + c.String()
}

func (m SceneViewModel) renderTitle(f Frame) string {
	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	if !f.HasStar {
		return titleStyle.Render("Orbit view")
	}
	info := fmt.Sprintf("  %d planets · camera %.1f", len(f.Scene.Bodies), m.camera.Distance())
	return titleStyle.Render(f.Star.Label()) + dimStyle.Render(info)
}

// aspect is the viewport's width/height ratio in camera units.
func (m SceneViewModel) aspect(c *canvas) float64 {
	return float64(c.w) / (float64(c.h) * cellAspect)
}

// toScreen projects p onto the canvas. ok is false behind the camera.
func (m SceneViewModel) toScreen(c *canvas, p astro.Vec3) (x, y int, depth float64, ok bool) {
	pp, ok := m.camera.Project(p, m.aspect(c))
	if !ok {
		return 0, 0, 0, false
	}
	x = int(math.Round((pp.X + 1) / 2 * float64(c.w-1)))
	y = int(math.Round((1 - pp.Y) / 2 * float64(c.h-1)))
	return x, y, pp.Depth, true
}

// cellRadius converts a scene-space radius at depth into rows.
func (m SceneViewModel) cellRadius(c *canvas, r, depth float64) float64 {
	return m.camera.ProjectedSize(r, depth) * float64(c.h) / 2
}

func (m SceneViewModel) drawStarfield(c *canvas, twinkle float64) {
	for _, s := range m.starfield.Stars {
		b := s.Brightness * twinkle
		glyph := starGlyph(b)
		if glyph == ' ' {
			continue
		}
		x, y, _, ok := m.toScreen(c, s.Pos)
		if !ok {
			continue
		}
		c.set(x, y, glyph, fade(starGlow, 0.2+0.5*b), false, layerStarfield)
	}
}

func starGlyph(b float64) rune {
	switch {
	case b >= 0.8:
		return '∗'
	case b >= 0.5:
		return '·'
	case b >= 0.3:
		return '˙'
	default:
		return ' '
	}
}

// drawable is a body queued for depth-sorted drawing.
type drawable struct {
	x, y   int
	depth  float64
	radius float64 // rows
	glyph  rune
	color  lipgloss.Color
	bold   bool
}

func (m SceneViewModel) drawSystem(c *canvas, f Frame) {
	bodies := f.Scene.Bodies
	if f.Stepper != nil {
		bodies = f.Stepper.Bodies()
	}

	if m.showOrbits {
		for _, b := range bodies {
			style := scene.Appearance(b, scene.SelectionFor(b.ID, f.Selected))
			m.drawOrbit(c, b.OrbitRadius, ringShade(b, style))
		}
	}

	var queue []drawable
	if x, y, depth, ok := m.toScreen(c, astro.Vec3{}); ok {
		queue = append(queue, drawable{
			x: x, y: y, depth: depth,
			radius: m.cellRadius(c, scene.StarRadius, depth),
			glyph:  '●',
			color:  fade(scene.StarColor, 1),
			bold:   true,
		})
	}

	type label struct {
		x, y  int
		text  string
		color lipgloss.Color
		bold  bool
	}
	var labels []label

	for i, b := range bodies {
		sel := scene.SelectionFor(b.ID, f.Selected)
		style := scene.Appearance(b, sel)

		p := astro.Vec3{X: b.OrbitRadius}
		if f.Stepper != nil {
			p = f.Stepper.Position(i)
		}

		x, y, depth, ok := m.toScreen(c, p)
		if !ok {
			continue
		}
		rows := m.cellRadius(c, b.BodyRadius, depth)
		d := drawable{
			x: x, y: y, depth: depth,
			radius: rows,
			glyph:  bodyGlyph(rows, sel),
			color:  fade(style.Color, style.Opacity),
			bold:   sel == scene.Selected,
		}
		queue = append(queue, d)

		if m.showLabels {
			lx, ly, _, ok := m.toScreen(c, p.Add(astro.Vec3{Y: b.LabelHeight()}))
			if ok {
				labels = append(labels, label{
					x: lx - len([]rune(b.Label))/2, y: ly,
					text:  b.Label,
					color: fade(labelColor, style.LabelOpacity),
					bold:  sel == scene.Selected,
				})
			}
		}
	}

	// Far bodies first so near ones cover them.
	sort.SliceStable(queue, func(i, j int) bool { return queue[i].depth > queue[j].depth })
	for _, d := range queue {
		c.disk(d.x, d.y, d.radius, d.glyph, d.color, d.bold)
	}
	for _, l := range labels {
		c.text(l.x, l.y, l.text, l.color, l.bold, layerLabel)
	}
}

func (m SceneViewModel) drawOrbit(c *canvas, r float64, color lipgloss.Color) {
	if r <= 0 {
		return
	}
	steps := int(2 * math.Pi * r * 12)
	steps = max(48, min(360, steps))
	for i := 0; i < steps; i++ {
		theta := 2 * math.Pi * float64(i) / float64(steps)
		p := astro.Vec3{X: r * math.Cos(theta), Z: r * math.Sin(theta)}
		if x, y, _, ok := m.toScreen(c, p); ok {
			c.set(x, y, '·', color, false, layerOrbit)
		}
	}
}

func bodyGlyph(rows float64, sel scene.Selection) rune {
	switch {
	case sel == scene.Selected:
		return '◉'
	case rows < 0.5:
		return '•'
	default:
		return '●'
	}
}

// fade maps an opacity onto brightness against the black terminal
// background.
func fade(col colorful.Color, opacity float64) lipgloss.Color {
	opacity = math.Min(1, math.Max(0, opacity))
	return lipgloss.Color(black.BlendRgb(col, opacity).Clamped().Hex())
}

// ringShade scales the orbit color by the ring opacity relative to an
// undimmed ring, so the base ring keeps its nominal color.
func ringShade(b scene.RenderParams, style scene.Style) lipgloss.Color {
	base := scene.Appearance(b, scene.Neutral).RingOpacity
	if base <= 0 {
		return fade(scene.OrbitColor, style.RingOpacity)
	}
	return fade(scene.OrbitColor, style.RingOpacity/base)
}

// cell is one character of the canvas.
type cell struct {
	ch    rune
	color lipgloss.Color
	bold  bool
	layer int
}

// canvas is a fixed-size character grid with per-cell color.
type canvas struct {
	w, h  int
	cells [][]cell
}

func newCanvas(w, h int) *canvas {
	cells := make([][]cell, h)
	for y := range cells {
		cells[y] = make([]cell, w)
		for x := range cells[y] {
			cells[y][x] = cell{ch: ' '}
		}
	}
	return &canvas{w: w, h: h, cells: cells}
}

func (c *canvas) set(x, y int, ch rune, color lipgloss.Color, bold bool, layer int) {
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return
	}
	if c.cells[y][x].layer > layer {
		return
	}
	c.cells[y][x] = cell{ch: ch, color: color, bold: bold, layer: layer}
}

// disk fills an ellipse of the given row radius, corrected for cell aspect.
// Small radii draw a single glyph.
func (c *canvas) disk(cx, cy int, ry float64, ch rune, color lipgloss.Color, bold bool) {
	if ry < 0.75 {
		c.set(cx, cy, ch, color, bold, layerBody)
		return
	}
	rx := ry * cellAspect
	for dy := -int(ry); dy <= int(ry); dy++ {
		for dx := -int(rx); dx <= int(rx); dx++ {
			fx, fy := float64(dx)/rx, float64(dy)/ry
			if fx*fx+fy*fy <= 1 {
				c.set(cx+dx, cy+dy, ch, color, bold, layerBody)
			}
		}
	}
}

func (c *canvas) text(x, y int, s string, color lipgloss.Color, bold bool, layer int) {
	for i, r := range []rune(s) {
		c.set(x+i, y, r, color, bold, layer)
	}
}

func (c *canvas) centerText(s string, color lipgloss.Color) {
	n := len([]rune(s))
	c.text((c.w-n)/2, c.h/2, s, color, false, layerLabel)
}

// String renders the grid, styling runs of equally styled cells together.
func (c *canvas) String() string {
	var b strings.Builder
	for y, row := range c.cells {
		var run strings.Builder
		cur := row[0]
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if cur.layer == layerEmpty {
				b.WriteString(run.String())
			} else {
				b.WriteString(lipgloss.NewStyle().Foreground(cur.color).Bold(cur.bold).Render(run.String()))
			}
			run.Reset()
		}
		for _, cl := range row {
			if cl.color != cur.color || cl.bold != cur.bold || (cl.layer == layerEmpty) != (cur.layer == layerEmpty) {
				flush()
				cur = cl
			}
			run.WriteRune(cl.ch)
		}
		flush()
		if y < len(c.cells)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
