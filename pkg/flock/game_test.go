package flock

import (
	"image/color"
	"testing"
)

func TestBackgroundFill(t *testing.T) {
	base := color.RGBA{R: 10, G: 10, B: 30, A: 255}

	tests := []struct {
		name    string
		opacity float64
		wantA   uint8
	}{
		{"Opaque", 1.0, 255},
		{"Half", 0.5, 128},
		{"Transparent", 0.0, 0},
		{"Clamped above one", 1.5, 255},
		{"Clamped below zero", -0.2, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := backgroundFill(base, tc.opacity)
			if got.A != tc.wantA {
				t.Errorf("backgroundFill alpha = %d; want %d", got.A, tc.wantA)
			}
			if got.R != base.R || got.G != base.G || got.B != base.B {
				t.Errorf("backgroundFill changed color channels: got %v", got)
			}
		})
	}
}
