package catalog

import (
	"math"
	"strconv"
	"strings"
)

// MissingValue is shown in place of absent measurements.
const MissingValue = "—"

// FormatValue renders a measurement with precision that shrinks as the
// magnitude grows: no decimals from 1000, one from 10, two from 1, and two
// significant digits below that.
func FormatValue(v *float64) string {
	if !Finite(v) {
		return MissingValue
	}
	n := *v
	abs := math.Abs(n)
	switch {
	case abs >= 1000:
		return strconv.FormatFloat(n, 'f', 0, 64)
	case abs >= 10:
		return strconv.FormatFloat(n, 'f', 1, 64)
	case abs >= 1:
		return strconv.FormatFloat(n, 'f', 2, 64)
	default:
		return significant(n, 2)
	}
}

// FormatWithUnit appends unit to a formatted value, or returns MissingValue.
func FormatWithUnit(v *float64, unit string) string {
	if !Finite(v) {
		return MissingValue
	}
	if unit == "" {
		return FormatValue(v)
	}
	return FormatValue(v) + " " + unit
}

// FormatProbability renders a probability as a percentage when it is a
// fraction, and as a plain number otherwise.
func FormatProbability(p *float64) string {
	if !Finite(p) {
		return MissingValue
	}
	if *p > 1 {
		return strconv.FormatFloat(*p, 'f', 2, 64)
	}
	return strconv.FormatFloat(*p*100, 'f', 0, 64) + "%"
}

// PeriodBadge is the compact orbital period shown next to a planet.
func PeriodBadge(p Planet) string {
	if !Finite(p.OrbitalPeriodDays) {
		return ""
	}
	return strconv.FormatFloat(*p.OrbitalPeriodDays, 'f', 1, 64) + " d"
}

// RadiusBadge is the compact radius shown next to a planet.
func RadiusBadge(p Planet) string {
	if !Finite(p.RadiusEarth) {
		return ""
	}
	return significant(*p.RadiusEarth, 2) + " R⊕"
}

// significant formats v with digits significant digits in fixed notation.
// The exponent is taken after rounding, so 0.0996 becomes "0.10", not
// "0.100".
func significant(v float64, digits int) string {
	sci := strconv.FormatFloat(v, 'e', digits-1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err != nil {
		return sci
	}
	decimals := digits - 1 - exp
	if decimals >= 0 {
		return strconv.FormatFloat(v, 'f', decimals, 64)
	}
	rounded, err := strconv.ParseFloat(sci, 64)
	if err != nil {
		return sci
	}
	return strconv.FormatFloat(rounded, 'f', 0, 64)
}

// FormatCount renders an optional count, or MissingValue.
func FormatCount(n *int) string {
	if n == nil {
		return MissingValue
	}
	return strconv.Itoa(*n)
}
