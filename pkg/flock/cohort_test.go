package flock

import (
	"math"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
)

func cohortAgents(seeds ...float64) []*Agent {
	agents := make([]*Agent, len(seeds))
	for i, s := range seeds {
		agents[i] = &Agent{Cohort: Cohort{Seed: s}}
	}
	return agents
}

func TestAssignCohorts_Discrete(t *testing.T) {
	w := &WorldConfig{
		CohortColors:       []string{"#ff0000", "#0000ff"},
		ContinuousCohorts:  false,
		HomogeneousCohorts: true,
	}

	tests := []struct {
		name      string
		seed      float64
		wantIndex int
		wantColor string
	}{
		{"Seed zero maps to first color", 0.0, 0, "#ff0000"},
		{"Seed just below one maps to last color", 0.999999, 1, "#0000ff"},
		{"Midpoint", 0.5, 1, "#0000ff"},
		{"Just below midpoint", 0.4999, 0, "#ff0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agents := cohortAgents(tt.seed)
			AssignCohorts(agents, w)
			c := agents[0].Cohort
			if c.Index != tt.wantIndex || c.Color != tt.wantColor {
				t.Errorf("seed %g -> index %d color %q; want index %d color %q",
					tt.seed, c.Index, c.Color, tt.wantIndex, tt.wantColor)
			}
		})
	}
}

func TestAssignCohorts_EmptyColorList(t *testing.T) {
	w := &WorldConfig{CohortColors: nil}
	agents := cohortAgents(0.3, 0.7)
	AssignCohorts(agents, w)

	for _, a := range agents {
		if a.Cohort.Color != FallbackColor {
			t.Errorf("empty palette should use fallback %q, got %q", FallbackColor, a.Cohort.Color)
		}
	}
}

func TestAssignCohorts_InvalidColorsFiltered(t *testing.T) {
	// One invalid entry: the valid list collapses to a single color, and
	// every seed maps into it.
	w := &WorldConfig{CohortColors: []string{"not-a-color", "#00ff00"}}
	agents := cohortAgents(0.1, 0.9)
	AssignCohorts(agents, w)

	for _, a := range agents {
		if a.Cohort.Color != "#00ff00" {
			t.Errorf("expected the only valid color, got %q", a.Cohort.Color)
		}
		if a.Cohort.Index != 0 {
			t.Errorf("expected index 0, got %d", a.Cohort.Index)
		}
	}
}

func TestAssignCohorts_Continuous(t *testing.T) {
	w := &WorldConfig{ContinuousCohorts: true}
	agents := cohortAgents(0.0, 0.25, 0.5)
	AssignCohorts(agents, w)

	wantAngles := []float64{0, 90, 180}
	for i, a := range agents {
		if math.Abs(a.Cohort.Angle-wantAngles[i]) > 1e-9 {
			t.Errorf("seed %g -> angle %g; want %g", a.Cohort.Seed, a.Cohort.Angle, wantAngles[i])
		}
		want := colorful.Hsl(wantAngles[i], cohortSaturation, cohortLightness).Hex()
		if a.Cohort.Color != want {
			t.Errorf("seed %g -> color %q; want %q", a.Cohort.Seed, a.Cohort.Color, want)
		}
	}
}

func TestAssignCohorts_Idempotent(t *testing.T) {
	for _, continuous := range []bool{false, true} {
		w := &WorldConfig{
			CohortColors:      []string{"#ff0000", "#00ff00", "#0000ff"},
			ContinuousCohorts: continuous,
		}
		agents := cohortAgents(0.12, 0.48, 0.93)
		AssignCohorts(agents, w)

		first := make([]Cohort, len(agents))
		for i, a := range agents {
			first[i] = a.Cohort
		}

		AssignCohorts(agents, w)
		for i, a := range agents {
			if a.Cohort != first[i] {
				t.Errorf("continuous=%v: repeated assignment changed cohort %d: %+v -> %+v",
					continuous, i, first[i], a.Cohort)
			}
		}
	}
}

func TestCohortWeight(t *testing.T) {
	discrete := func(homogeneous bool) *WorldConfig {
		return &WorldConfig{HomogeneousCohorts: homogeneous}
	}
	continuous := func(homogeneous bool) *WorldConfig {
		return &WorldConfig{ContinuousCohorts: true, HomogeneousCohorts: homogeneous}
	}

	tests := []struct {
		name        string
		w           *WorldConfig
		self, other Cohort
		want        float64
	}{
		{"Discrete homogeneous same", discrete(true), Cohort{Index: 1}, Cohort{Index: 1}, 1},
		{"Discrete homogeneous different", discrete(true), Cohort{Index: 0}, Cohort{Index: 1}, 0},
		{"Discrete heterogeneous same", discrete(false), Cohort{Index: 2}, Cohort{Index: 2}, 0},
		{"Discrete heterogeneous different", discrete(false), Cohort{Index: 0}, Cohort{Index: 2}, 1},
		{"Continuous homogeneous identical", continuous(true), Cohort{Angle: 40}, Cohort{Angle: 40}, 1},
		{"Continuous homogeneous 45 apart", continuous(true), Cohort{Angle: 0}, Cohort{Angle: 45}, 0.5},
		{"Continuous homogeneous at band edge", continuous(true), Cohort{Angle: 0}, Cohort{Angle: 90}, 0},
		{"Continuous homogeneous beyond band", continuous(true), Cohort{Angle: 0}, Cohort{Angle: 170}, 0},
		{"Continuous wraps around 360", continuous(true), Cohort{Angle: 350}, Cohort{Angle: 10}, 1 - 20.0/90},
		{"Continuous heterogeneous close", continuous(false), Cohort{Angle: 0}, Cohort{Angle: 45}, 0},
		{"Continuous heterogeneous opposite", continuous(false), Cohort{Angle: 0}, Cohort{Angle: 180}, 1},
		{"Continuous heterogeneous 135 apart", continuous(false), Cohort{Angle: 0}, Cohort{Angle: 135}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cohortWeight(&tt.self, &tt.other, tt.w)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cohortWeight = %g; want %g", got, tt.want)
			}
		})
	}
}
