package main

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/playperu/geodrive/internal/kinematics"
)

// slowRadius is the distance at which the autopilot starts easing off.
const slowRadius = 25.0

// steer flies a drone at pos with the given heading toward target. Heading
// 0 faces -Z.
func steer(pos r3.Vector, heading float64, target r3.Vector) kinematics.Input {
	d := r3.Vector{X: target.X - pos.X, Z: target.Z - pos.Z}
	dist := d.Norm()

	var in kinematics.Input
	if dist > 0 {
		d = d.Mul(1 / dist)
		gain := math.Min(1, dist/slowRadius)
		fwd := r3.Vector{X: math.Sin(heading), Z: -math.Cos(heading)}
		rgt := r3.Vector{X: math.Cos(heading), Z: math.Sin(heading)}
		if f := d.Dot(fwd) * gain; f >= 0 {
			in.Throttle = f
		} else {
			in.Brake = -f
		}
		in.Strafe = d.Dot(rgt) * gain
	}
	in.Lift = clamp((target.Y+1-pos.Y)/5, -1, 1)
	return in
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }
