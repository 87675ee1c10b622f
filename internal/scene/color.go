package scene

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Reference colors.
var (
	NeutralColor = mustHex("#9aa4ad")
	ColdColor    = mustHex("#6ea8ff")
	HotColor     = mustHex("#ff6b6b")
	DimColor     = mustHex("#222222")
	StarColor    = mustHex("#ffeb3b")
	OrbitColor   = mustHex("#444444")
)

// Temperature window mapped onto the cold..hot gradient, in kelvin.
const (
	coldTempK = 200.0
	hotTempK  = 2000.0
)

// ColorFromTemperature maps an equilibrium temperature onto the cold..hot
// gradient. Missing temperatures are drawn in neutral gray.
func ColorFromTemperature(tempK Sample) colorful.Color {
	if !tempK.Finite() {
		return NeutralColor
	}
	t := clamp01((tempK.Value - coldTempK) / (hotTempK - coldTempK))
	return ColdColor.BlendRgb(HotColor, t)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(fmt.Sprintf("scene: bad color %q: %v", s, err))
	}
	return c
}
