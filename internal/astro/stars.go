package astro

import (
	"math"
	"math/rand/v2"
	"time"
)

// Background star shell, in scene units.
const (
	StarfieldCount     = 1500
	StarfieldInnerR    = 15.0
	StarfieldOuterR    = 50.0
	starfieldPulseHz   = 0.25
	starfieldPulseAmp  = 0.35
	starfieldBaseAlpha = 0.85
)

// BackgroundStar is one point of the starfield.
type BackgroundStar struct {
	Pos        Vec3
	Brightness float64 // 0 (faint) to 1 (bright)
}

// Starfield is a fixed random shell of background stars.
type Starfield struct {
	Stars []BackgroundStar
}

// NewStarfield scatters count stars uniformly over directions on a shell
// between StarfieldInnerR and StarfieldOuterR. The same seed always yields
// the same field.
func NewStarfield(count int, seed uint64) Starfield {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	stars := make([]BackgroundStar, count)
	for i := range stars {
		r := StarfieldInnerR + rng.Float64()*(StarfieldOuterR-StarfieldInnerR)
		theta := rng.Float64() * 2 * math.Pi
		phi := math.Acos(rng.Float64()*2 - 1)
		stars[i] = BackgroundStar{
			Pos: Vec3{
				X: r * math.Sin(phi) * math.Cos(theta),
				Y: r * math.Sin(phi) * math.Sin(theta),
				Z: r * math.Cos(phi),
			},
			Brightness: rng.Float64(),
		}
	}
	return Starfield{Stars: stars}
}

// DefaultStarfield returns the standard background.
func DefaultStarfield() Starfield {
	return NewStarfield(StarfieldCount, 1)
}

// Twinkle returns the starfield opacity after elapsed time. It pulses slowly
// around a base opacity and stays within [0, 1].
func Twinkle(elapsed time.Duration) float64 {
	pulse := math.Sin(elapsed.Seconds() * starfieldPulseHz * 2 * math.Pi)
	return math.Min(1, math.Max(0, starfieldBaseAlpha+starfieldPulseAmp*pulse))
}
