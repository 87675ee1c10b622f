package scene

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-exoquest/internal/catalog"
)

// Selection is a per-planet render modifier layered on top of RenderParams.
type Selection int

const (
	Neutral Selection = iota
	Selected
	Dimmed
)

func (s Selection) String() string {
	switch s {
	case Selected:
		return "selected"
	case Dimmed:
		return "dimmed"
	default:
		return "neutral"
	}
}

// SelectionFor returns the modifier for planet id given the current selection.
// An empty selected id means nothing is selected.
func SelectionFor(id, selected catalog.ID) Selection {
	switch {
	case selected == "":
		return Neutral
	case id == selected:
		return Selected
	default:
		return Dimmed
	}
}

// Style holds the material values a renderer needs for one body.
type Style struct {
	Color        colorful.Color
	Emissive     float64
	Opacity      float64
	RingOpacity  float64
	LabelOpacity float64
}

const (
	dimBlend = 0.6

	baseEmissive     = 0.3
	dimEmissive      = 0.05
	baseOpacity      = 1.0
	dimOpacity       = 0.35
	baseRingOpacity  = 0.3
	dimRingOpacity   = 0.12
	baseLabelOpacity = 1.0
	dimLabelOpacity  = 0.6
)

// Appearance returns the material for p under selection sel. Selected and
// neutral bodies share the base look.
func Appearance(p RenderParams, sel Selection) Style {
	if sel == Dimmed {
		return Style{
			Color:        p.Color.BlendRgb(DimColor, dimBlend),
			Emissive:     dimEmissive,
			Opacity:      dimOpacity,
			RingOpacity:  dimRingOpacity,
			LabelOpacity: dimLabelOpacity,
		}
	}
	return Style{
		Color:        p.Color,
		Emissive:     baseEmissive,
		Opacity:      baseOpacity,
		RingOpacity:  baseRingOpacity,
		LabelOpacity: baseLabelOpacity,
	}
}
