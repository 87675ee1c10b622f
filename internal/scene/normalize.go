// Package scene derives render parameters for a planetary system from
// partially-missing catalog records and animates the resulting bodies.
//
// Everything here is total: missing, non-finite or degenerate inputs fall back
// to midpoints and neutral defaults so a scene can always be drawn.
package scene

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Sample is an optional measurement. A sample that is not Valid, or whose
// value is NaN or infinite, counts as missing.
type Sample struct {
	Value float64
	Valid bool
}

// SampleOf converts a nullable catalog field into a Sample.
func SampleOf(v *float64) Sample {
	if v == nil {
		return Sample{}
	}
	return Sample{Value: *v, Valid: true}
}

// Value wraps a known measurement.
func Value(v float64) Sample {
	return Sample{Value: v, Valid: true}
}

// Missing is the empty sample.
var Missing = Sample{}

// Finite reports whether the sample carries a usable number.
func (s Sample) Finite() bool {
	return s.Valid && !math.IsNaN(s.Value) && !math.IsInf(s.Value, 0)
}

// Normalizer linearly rescales samples from the range observed in a fixed
// sample set onto [minOut, maxOut]. It is immutable once built.
type Normalizer struct {
	min, max       float64
	minOut, maxOut float64
	constant       bool
}

// NewNormalizer builds a normalizer from samples. With no finite samples, or
// when every finite sample is equal, the normalizer maps everything to the
// midpoint of the output range.
func NewNormalizer(samples []Sample, minOut, maxOut float64) Normalizer {
	n := Normalizer{minOut: minOut, maxOut: maxOut}

	finite := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.Finite() {
			finite = append(finite, s.Value)
		}
	}
	if len(finite) == 0 {
		n.constant = true
		return n
	}

	n.min = floats.Min(finite)
	n.max = floats.Max(finite)
	if n.min == n.max {
		n.constant = true
	}
	return n
}

// Map rescales s. Missing samples map to the midpoint. Finite values outside
// the source range extrapolate along the same line.
func (n Normalizer) Map(s Sample) float64 {
	if n.constant || !s.Finite() {
		return n.Midpoint()
	}
	t := (s.Value - n.min) / (n.max - n.min)
	return n.minOut + t*(n.maxOut-n.minOut)
}

// Midpoint returns the fallback output value.
func (n Normalizer) Midpoint() float64 {
	return (n.minOut + n.maxOut) / 2
}

// Constant reports whether every input maps to the midpoint.
func (n Normalizer) Constant() bool {
	return n.constant
}

// Bounds returns the source range the normalizer was built from. ok is false
// for a constant normalizer.
func (n Normalizer) Bounds() (lo, hi float64, ok bool) {
	if n.constant {
		return 0, 0, false
	}
	return n.min, n.max, true
}
