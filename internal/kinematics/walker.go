package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
)

// Walker moves kinematically and always stands on the resolved surface.
type Walker struct {
	pos     r3.Vector
	heading float64
	speed   float64
	tuning  WalkTuning
}

func NewWalker(pos r3.Vector, heading float64, t WalkTuning) *Walker {
	return &Walker{pos: pos, heading: heading, tuning: t}
}

func (w *Walker) Mode() Mode          { return ModeWalking }
func (w *Walker) Position() r3.Vector { return w.pos }
func (w *Walker) Heading() float64    { return w.heading }
func (w *Walker) Speed() float64      { return w.speed }

func (w *Walker) step(dt float64, in Input, env Env) {
	w.heading += in.Steer * w.tuning.TurnRate * dt

	move := forward(w.heading).Mul(in.Throttle - in.Brake).Add(right(w.heading).Mul(in.Strafe))
	if n := move.Norm(); n > 1 {
		move = move.Mul(1 / n)
	}
	pace := w.tuning.WalkSpeed
	if in.Run {
		pace = w.tuning.RunSpeed
	}
	w.speed = move.Norm() * pace
	w.pos = w.pos.Add(move.Mul(pace * dt))
	w.pos.Y = groundHeight(env, w.pos, w.pos.Y)
}

// placeAt moves the walker without stepping, snapping it to the surface.
func (w *Walker) placeAt(pos r3.Vector, heading float64, env Env) {
	w.pos = pos
	w.heading = heading
	w.speed = 0
	w.pos.Y = groundHeight(env, w.pos, pos.Y)
}

func distance2D(a, b r3.Vector) float64 {
	return math.Hypot(a.X-b.X, a.Z-b.Z)
}
