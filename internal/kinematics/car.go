package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
)

type CarState int

const (
	CarOnRoad CarState = iota
	CarOffRoad
	CarDrifting
	CarBoosting
)

func (s CarState) String() string {
	switch s {
	case CarOnRoad:
		return "onRoad"
	case CarOffRoad:
		return "offRoad"
	case CarDrifting:
		return "drifting"
	case CarBoosting:
		return "boosting"
	}
	return "unknown"
}

type Car struct {
	pos     r3.Vector
	vel     r3.Vector
	heading float64
	state   CarState
	onRoad  bool
	noRoad  bool
	tuning  CarTuning
}

func NewCar(pos r3.Vector, heading float64, t CarTuning) *Car {
	return &Car{pos: pos, heading: heading, tuning: t, state: CarOffRoad}
}

func (c *Car) Mode() Mode          { return ModeDriving }
func (c *Car) Position() r3.Vector { return c.pos }
func (c *Car) Heading() float64    { return c.heading }
func (c *Car) Velocity() r3.Vector { return c.vel }
func (c *Car) State() CarState     { return c.state }

// OnRoad reports whether the last step ended within a road's width.
func (c *Car) OnRoad() bool { return c.onRoad }

// NoRoadNearby reports that no road was found within RoadSearchRadius.
func (c *Car) NoRoadNearby() bool { return c.noRoad }

// Speed is the signed speed along the heading.
func (c *Car) Speed() float64 { return c.vel.Dot(forward(c.heading)) }

func (c *Car) profile() GripProfile {
	switch c.state {
	case CarOnRoad:
		return c.tuning.OnRoad
	case CarDrifting:
		return c.tuning.Drifting
	case CarBoosting:
		return c.tuning.Boosting
	}
	return c.tuning.OffRoad
}

// turnFactor is 1 below TurnFadeSpeed and falls linearly to MinTurnFactor
// at the on-road top speed.
func (c *Car) turnFactor(speed float64) float64 {
	t := c.tuning
	s := math.Abs(speed)
	if s <= t.TurnFadeSpeed {
		return 1
	}
	top := math.Max(t.OnRoad.MaxSpeed, t.TurnFadeSpeed+1)
	k := math.Min(1, (s-t.TurnFadeSpeed)/(top-t.TurnFadeSpeed))
	return 1 - k*(1-t.MinTurnFactor)
}

func (c *Car) step(dt float64, in Input, env Env) {
	t := c.tuning
	p := c.profile()

	speed := c.Speed()
	// No steering authority when stationary; reversing flips the wheel.
	authority := math.Min(1, math.Abs(speed)/2)
	if speed < 0 {
		authority = -authority
	}
	c.heading += in.Steer * t.TurnRate * c.turnFactor(speed) * authority * dt

	fwd, side := forward(c.heading), right(c.heading)
	fs := c.vel.Dot(fwd)
	ls := c.vel.Dot(side)

	accel := t.Acceleration
	if in.Boost {
		accel = t.BoostAcceleration
	}
	fs += in.Throttle * accel * dt
	if in.Brake > 0 {
		if fs > 0 {
			fs = math.Max(0, fs-in.Brake*t.BrakeDeceleration*dt)
		} else {
			fs -= in.Brake * t.Acceleration * dt
		}
	}

	ls *= perFrame(1-p.Grip, dt)
	fs *= perFrame(p.Friction, dt)
	fs = math.Max(-t.ReverseMaxSpeed, math.Min(p.MaxSpeed, fs))

	c.vel = fwd.Mul(fs).Add(side.Mul(ls))
	c.pos = c.pos.Add(c.vel.Mul(dt))

	c.resolveRoad(dt, env)
	c.pos.Y = groundHeight(env, c.pos, c.pos.Y)
	c.state = c.nextState(in)
}

// resolveRoad classifies the car against the nearest road and applies the
// spring pushback once it strays past MaxRoadOffset beyond the road edge.
func (c *Car) resolveRoad(dt float64, env Env) {
	t := c.tuning
	c.onRoad, c.noRoad = false, true
	if env.Roads == nil {
		c.vel = c.vel.Mul(perFrame(t.OffTerrainFriction, dt))
		return
	}
	hit, ok := env.Roads.Nearest(c.pos.X, c.pos.Z, t.RoadSearchRadius)
	if !ok {
		c.vel = c.vel.Mul(perFrame(t.OffTerrainFriction, dt))
		return
	}
	c.noRoad = false

	half := hit.Road.Width / 2
	c.onRoad = hit.Distance <= half
	excess := hit.Distance - (half + t.MaxRoadOffset)
	if excess <= 0 || hit.Distance == 0 {
		return
	}
	toward := r3.Vector{X: hit.Closest.X - c.pos.X, Z: hit.Closest.Z - c.pos.Z}.Mul(1 / hit.Distance)
	c.vel = c.vel.Add(toward.Mul(excess * t.PushbackStrength * dt))
}

func (c *Car) nextState(in Input) CarState {
	switch {
	case in.Boost:
		return CarBoosting
	case in.Drift && math.Abs(c.Speed()) >= c.tuning.DriftMinSpeed:
		return CarDrifting
	case c.onRoad:
		return CarOnRoad
	}
	return CarOffRoad
}
