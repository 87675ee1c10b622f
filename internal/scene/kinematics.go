package scene

import "math"

const (
	// periodDamping keeps fallback angular velocities slow for bodies with
	// no known period.
	periodDamping = 10.0

	defaultFallbackRadius = 1.0
)

// AngularVelocity returns radians per unit of virtual time for a body.
// A known positive period wins; otherwise the orbital distance stands in as an
// inverse proxy so closer bodies still move faster.
func AngularVelocity(periodDays, fallbackRadius Sample) float64 {
	if periodDays.Finite() && periodDays.Value > 0 {
		return 2 * math.Pi / periodDays.Value
	}
	r := defaultFallbackRadius
	if fallbackRadius.Finite() {
		r = fallbackRadius.Value
	}
	return 2 * math.Pi / (periodDamping + r)
}
