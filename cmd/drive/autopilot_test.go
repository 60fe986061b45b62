package main

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

func TestSteer(t *testing.T) {
	tests := []struct {
		name         string
		pos          r3.Vector
		heading      float64
		target       r3.Vector
		wantThrottle float64
		wantBrake    float64
		wantStrafe   float64
		wantLift     float64
	}{
		{"ahead", r3.Vector{Y: 10}, 0, r3.Vector{Y: 9, Z: -100}, 1, 0, 0, 0},
		{"right", r3.Vector{Y: 10}, 0, r3.Vector{X: 100, Y: 9}, 0, 0, 1, 0},
		{"behind", r3.Vector{Y: 10}, 0, r3.Vector{Y: 9, Z: 100}, 0, 1, 0, 0},
		{"turned", r3.Vector{Y: 10}, math.Pi / 2, r3.Vector{X: 100, Y: 9}, 1, 0, 0, 0},
		{"close", r3.Vector{Y: 10}, 0, r3.Vector{Y: 9, Z: -5}, 0.2, 0, 0, 0},
		{"climb", r3.Vector{}, 0, r3.Vector{Y: 50}, 0, 0, 0, 1},
		{"descend", r3.Vector{Y: 50}, 0, r3.Vector{}, 0, 0, 0, -1},
	}

	near := func(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := steer(tt.pos, tt.heading, tt.target)
			if !near(in.Throttle, tt.wantThrottle) || !near(in.Brake, tt.wantBrake) ||
				!near(in.Strafe, tt.wantStrafe) || !near(in.Lift, tt.wantLift) {
				t.Errorf("steer = %+v, want throttle %v brake %v strafe %v lift %v",
					in, tt.wantThrottle, tt.wantBrake, tt.wantStrafe, tt.wantLift)
			}
		})
	}
}
