package scene

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-exoquest/internal/catalog"
)

// Scene scale, in scene units.
const (
	OrbitRadiusMin = 1.2
	OrbitRadiusMax = 6.5

	BodyRadiusMin = 0.08
	BodyRadiusMax = 0.35

	// MinBodyRadius keeps every body visible.
	MinBodyRadius = 0.05

	// StarRadius is the size of the central star.
	StarRadius = 0.6

	labelLift = 0.3
)

// RenderParams is the deterministic visual description of one planet.
type RenderParams struct {
	ID              catalog.ID
	Label           string
	OrbitRadius     float64
	BodyRadius      float64
	AngularVelocity float64
	Color           colorful.Color
}

// LabelHeight is the height above the body's center where its label sits.
func (p RenderParams) LabelHeight() float64 {
	return math.Max(MinBodyRadius, p.BodyRadius) + labelLift
}

// Scene is the render model for one system, one entry per planet in input
// order.
type Scene struct {
	Bodies []RenderParams

	Orbit  Normalizer
	Radius Normalizer
}

// Build derives render parameters for planets. Normalizers are fitted once
// over the whole set, so a planet's parameters depend on its siblings.
func Build(planets []catalog.Planet) Scene {
	distances := make([]Sample, len(planets))
	radii := make([]Sample, len(planets))
	for i, p := range planets {
		distances[i] = SampleOf(p.SemiMajorAxis)
		radii[i] = SampleOf(p.RadiusEarth)
	}

	sc := Scene{
		Bodies: make([]RenderParams, 0, len(planets)),
		Orbit:  NewNormalizer(distances, OrbitRadiusMin, OrbitRadiusMax),
		Radius: NewNormalizer(radii, BodyRadiusMin, BodyRadiusMax),
	}

	for i, p := range planets {
		sc.Bodies = append(sc.Bodies, RenderParams{
			ID:              p.ID,
			Label:           p.Label(),
			OrbitRadius:     sc.Orbit.Map(distances[i]),
			BodyRadius:      math.Max(MinBodyRadius, sc.Radius.Map(radii[i])),
			AngularVelocity: AngularVelocity(SampleOf(p.OrbitalPeriodDays), distances[i]),
			Color:           ColorFromTemperature(SampleOf(p.EquilibriumTempK)),
		})
	}
	return sc
}

// Body returns the render parameters of the planet with the given id.
func (s Scene) Body(id catalog.ID) (RenderParams, bool) {
	for _, b := range s.Bodies {
		if b.ID == id {
			return b, true
		}
	}
	return RenderParams{}, false
}

// IDs returns the planet identities in scene order.
func (s Scene) IDs() []catalog.ID {
	ids := make([]catalog.ID, len(s.Bodies))
	for i, b := range s.Bodies {
		ids[i] = b.ID
	}
	return ids
}

// Extent is the largest orbit radius in the scene, or OrbitRadiusMax for an
// empty scene.
func (s Scene) Extent() float64 {
	if len(s.Bodies) == 0 {
		return OrbitRadiusMax
	}
	ext := StarRadius
	for _, b := range s.Bodies {
		ext = math.Max(ext, math.Abs(b.OrbitRadius)+b.BodyRadius)
	}
	return ext
}
