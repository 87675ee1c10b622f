package scene

import (
	"math"
	"slices"
	"time"

	"github.com/litescript/ls-exoquest/internal/astro"
	"github.com/litescript/ls-exoquest/internal/catalog"
)

// Speed multiplier bounds used by the controls.
const (
	DefaultSpeed = 1.0
	MinSpeed     = 0.1
	MaxSpeed     = 5.0
	SpeedStep    = 0.1
)

// liveliness scales virtual time so short-period planets visibly move.
const liveliness = 2.0

// Stepper advances orbital phases frame by frame. There is one phase per
// loaded body, in scene order, so planets that share an id still move at
// their own rate. Phases survive reloads of the same planet id list and are
// discarded when the list changes. A Stepper is not safe for concurrent use.
type Stepper struct {
	bodies []RenderParams
	ids    []catalog.ID
	phases []float64
	loaded bool
	speed  float64
	paused bool
}

// NewStepper returns an empty, running stepper at the default speed.
func NewStepper() *Stepper {
	return &Stepper{speed: DefaultSpeed}
}

// Load installs a new scene. If the planet id list differs from the loaded
// one every phase restarts at zero and Load returns true. Otherwise the
// render parameters are replaced and phases kept.
func (s *Stepper) Load(sc Scene) bool {
	ids := sc.IDs()
	s.bodies = slices.Clone(sc.Bodies)
	if s.loaded && slices.Equal(ids, s.ids) {
		return false
	}
	s.ids = ids
	s.phases = make([]float64, len(ids))
	s.loaded = true
	return true
}

// Step advances every phase by ω·dt·speed·2. Nothing moves while paused.
func (s *Stepper) Step(dt time.Duration) {
	if s.paused || dt <= 0 {
		return
	}
	secs := dt.Seconds()
	for i, b := range s.bodies {
		s.phases[i] += b.AngularVelocity * secs * s.speed * liveliness
	}
}

// Phase returns the current phase in radians of the first body with id.
func (s *Stepper) Phase(id catalog.ID) (float64, bool) {
	i := slices.Index(s.ids, id)
	if i < 0 {
		return 0, false
	}
	return s.phases[i], true
}

// PhaseAt returns the phase of the i-th loaded body.
func (s *Stepper) PhaseAt(i int) (float64, bool) {
	if i < 0 || i >= len(s.phases) {
		return 0, false
	}
	return s.phases[i], true
}

// Position returns where the i-th loaded body currently sits on its orbit.
func (s *Stepper) Position(i int) astro.Vec3 {
	if i < 0 || i >= len(s.bodies) {
		return astro.Vec3{}
	}
	r, phi := s.bodies[i].OrbitRadius, s.phases[i]
	return astro.Vec3{
		X: r * math.Cos(phi),
		Y: 0,
		Z: r * math.Sin(phi),
	}
}

// Positions returns the current position of every body in scene order.
func (s *Stepper) Positions() []astro.Vec3 {
	out := make([]astro.Vec3, len(s.bodies))
	for i := range s.bodies {
		out[i] = s.Position(i)
	}
	return out
}

// Bodies returns a copy of the loaded render parameters.
func (s *Stepper) Bodies() []RenderParams {
	return slices.Clone(s.bodies)
}

func (s *Stepper) Pause()  { s.paused = true }
func (s *Stepper) Resume() { s.paused = false }

// TogglePause flips the pause state and returns the new state.
func (s *Stepper) TogglePause() bool {
	s.paused = !s.paused
	return s.paused
}

// Paused reports whether animation is frozen.
func (s *Stepper) Paused() bool {
	return s.paused
}

// SetSpeed sets the multiplier used from the next Step on.
func (s *Stepper) SetSpeed(x float64) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return
	}
	s.speed = x
}

// Speed returns the current multiplier.
func (s *Stepper) Speed() float64 {
	return s.speed
}

// Faster and Slower nudge the speed by one control step within
// [MinSpeed, MaxSpeed].
func (s *Stepper) Faster() float64 {
	s.speed = ClampSpeed(s.speed + SpeedStep)
	return s.speed
}

func (s *Stepper) Slower() float64 {
	s.speed = ClampSpeed(s.speed - SpeedStep)
	return s.speed
}

// Reset restores the default speed and resumes. Phases are kept.
func (s *Stepper) Reset() {
	s.speed = DefaultSpeed
	s.paused = false
}

// ClampSpeed snaps x to the control grid and clamps it to the allowed range.
func ClampSpeed(x float64) float64 {
	if math.IsNaN(x) {
		return DefaultSpeed
	}
	x = math.Round(x/SpeedStep) * SpeedStep
	x = math.Round(x*10) / 10
	return math.Min(MaxSpeed, math.Max(MinSpeed, x))
}
