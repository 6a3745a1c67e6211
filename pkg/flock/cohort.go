package flock

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// FallbackColor is used in discrete mode when the configured color list has
// no usable entry.
const FallbackColor = "#999999"

// Continuous-mode display colors keep a fixed saturation and lightness; only
// the hue carries the cohort identity.
const (
	cohortSaturation = 0.8
	cohortLightness  = 0.6
)

// Cohort is an agent's group identity. Seed is fixed at creation and is the
// only durable part; Angle, Index and Color are recomputed from it whenever
// the cohort configuration changes.
type Cohort struct {
	Seed  float64 // random in [0,1)
	Angle float64 // continuous mode: hue in degrees [0,360)
	Index int     // discrete mode: index into the cohort color list
	Color string  // display color, hex form
}

// AssignCohorts recomputes every agent's cohort identity and display color
// from its seed and the current configuration. Idempotent: repeated calls
// with unchanged configuration produce identical results.
func AssignCohorts(agents []*Agent, w *WorldConfig) {
	if w.ContinuousCohorts {
		for _, a := range agents {
			c := &a.Cohort
			c.Angle = 360 * c.Seed
			c.Index = 0
			c.Color = colorful.Hsl(c.Angle, cohortSaturation, cohortLightness).Hex()
		}
		return
	}

	colors := validColors(w.CohortColors)
	for _, a := range agents {
		c := &a.Cohort
		c.Angle = 0
		if len(colors) == 0 {
			c.Index = 0
			c.Color = FallbackColor
			continue
		}
		c.Index = int(math.Floor(c.Seed * float64(len(colors))))
		c.Color = colors[c.Index]
	}
}

// validColors filters the configured list down to parseable hex colors,
// preserving order. Order matters: the discrete index maps into this list.
func validColors(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if _, err := colorful.Hex(s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// cohortWeight decides how much a neighbor counts toward cohesion and
// alignment (separation ignores it). Discrete mode is all-or-nothing on the
// index; continuous mode ramps on the circular angular distance between the
// two hues, favoring near cohorts in homogeneous mode and far cohorts in
// heterogeneous mode. Beyond the 90° band the disfavored side is zero.
func cohortWeight(self, other *Cohort, w *WorldConfig) float64 {
	if !w.ContinuousCohorts {
		if (self.Index == other.Index) == w.HomogeneousCohorts {
			return 1
		}
		return 0
	}

	d := math.Abs(self.Angle - other.Angle)
	if d > 180 {
		d = 360 - d
	}
	var wgt float64
	if w.HomogeneousCohorts {
		wgt = 1 - d/90
	} else {
		wgt = (d - 90) / 90
	}
	return clamp(wgt, 0, 1)
}
