package kinematics

import (
	"errors"
	"math"

	"github.com/golang/geo/r3"
)

var ErrTooFarFromCar = errors.New("too far from the car to get in")

// Rig owns the three actor variants. Exactly one is active; the others are
// suspended with their last state and resume when switched back to.
type Rig struct {
	tuning Tuning
	active Mode

	car    *Car
	walker *Walker
	drone  *Drone

	droneDeployed bool
}

// NewRig starts in the car at pos.
func NewRig(pos r3.Vector, heading float64, t Tuning) *Rig {
	return &Rig{
		tuning: t,
		active: ModeDriving,
		car:    NewCar(pos, heading, t.Car),
		walker: NewWalker(pos, heading, t.Walk),
		drone:  NewDrone(pos, heading, t.Drone),
	}
}

func (r *Rig) Mode() Mode { return r.active }

// Active resolves the active actor.
func (r *Rig) Active() Actor {
	switch r.active {
	case ModeWalking:
		return r.walker
	case ModeDrone:
		return r.drone
	}
	return r.car
}

func (r *Rig) Position() r3.Vector { return r.Active().Position() }
func (r *Rig) Car() *Car           { return r.car }
func (r *Rig) Walker() *Walker     { return r.walker }
func (r *Rig) Drone() *Drone       { return r.drone }

// Step advances only the active actor. Non-positive or non-finite dt is
// ignored.
func (r *Rig) Step(dt float64, in Input, env Env) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return
	}
	r.Active().step(dt, in.sanitized(), env)
}

// Switch changes the active actor. Leaving the car places the walker beside
// it; getting back in requires being within EnterRadius. The drone launches
// above the active actor the first time and resumes afterwards.
func (r *Rig) Switch(to Mode, env Env) error {
	if to == r.active {
		return nil
	}
	from := r.Active()

	switch to {
	case ModeWalking:
		if r.active == ModeDriving {
			side := right(r.car.heading).Mul(r.tuning.ExitOffset)
			r.walker.placeAt(r.car.pos.Add(side), r.car.heading, env)
		}
	case ModeDriving:
		if r.active == ModeWalking && distance2D(r.walker.pos, r.car.pos) > r.tuning.EnterRadius {
			return ErrTooFarFromCar
		}
	case ModeDrone:
		if !r.droneDeployed {
			r.drone.launchFrom(from.Position(), from.Heading())
			r.droneDeployed = true
		}
	}
	r.active = to
	return nil
}

// Recall parks the drone so the next switch launches it from the actor again.
func (r *Rig) Recall() {
	r.droneDeployed = false
}

// Teleport moves every actor to pos, as when a new world is loaded.
func (r *Rig) Teleport(pos r3.Vector, heading float64, env Env) {
	r.car = NewCar(pos, heading, r.tuning.Car)
	r.car.pos.Y = groundHeight(env, pos, pos.Y)
	r.walker.placeAt(pos, heading, env)
	r.drone.launchFrom(pos, heading)
	r.droneDeployed = false
	r.active = ModeDriving
}
