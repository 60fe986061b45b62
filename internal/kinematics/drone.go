package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
)

// Drone flies freely; it does not collide with the surface.
type Drone struct {
	pos     r3.Vector
	vel     r3.Vector
	heading float64
	tuning  DroneTuning
}

func NewDrone(pos r3.Vector, heading float64, t DroneTuning) *Drone {
	return &Drone{pos: pos, heading: heading, tuning: t}
}

func (d *Drone) Mode() Mode          { return ModeDrone }
func (d *Drone) Position() r3.Vector { return d.pos }
func (d *Drone) Heading() float64    { return d.heading }
func (d *Drone) Velocity() r3.Vector { return d.vel }
func (d *Drone) Speed() float64      { return d.vel.Norm() }

func (d *Drone) step(dt float64, in Input, _ Env) {
	t := d.tuning
	d.heading += in.Steer * t.TurnRate * dt

	push := forward(d.heading).Mul(in.Throttle - in.Brake).Add(right(d.heading).Mul(in.Strafe))
	if n := push.Norm(); n > 1 {
		push = push.Mul(1 / n)
	}
	d.vel = d.vel.Add(push.Mul(t.Acceleration * dt))
	d.vel.Y += in.Lift * t.LiftRate * dt
	d.vel = d.vel.Mul(perFrame(t.Damping, dt))

	if h := horizontal(d.vel); h.Norm() > t.MaxSpeed {
		h = h.Mul(t.MaxSpeed / h.Norm())
		d.vel.X, d.vel.Z = h.X, h.Z
	}
	d.vel.Y = math.Max(-t.MaxClimbSpeed, math.Min(t.MaxClimbSpeed, d.vel.Y))

	d.pos = d.pos.Add(d.vel.Mul(dt))
}

func (d *Drone) launchFrom(pos r3.Vector, heading float64) {
	d.pos = pos.Add(r3.Vector{Y: d.tuning.LaunchHeight})
	d.vel = r3.Vector{}
	d.heading = heading
}
