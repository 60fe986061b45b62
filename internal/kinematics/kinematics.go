// Package kinematics advances the player's actors (car, walker, drone)
// one tick at a time against the current world's surface and roads.
package kinematics

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/playperu/geodrive/internal/world"
)

type Mode int

const (
	ModeDriving Mode = iota
	ModeWalking
	ModeDrone
)

func (m Mode) String() string {
	switch m {
	case ModeDriving:
		return "driving"
	case ModeWalking:
		return "walking"
	case ModeDrone:
		return "drone"
	}
	return "unknown"
}

// Input is one tick of player control. Axes are in [-1, 1] (Throttle and
// Brake in [0, 1]).
type Input struct {
	Throttle float64
	Brake    float64
	Steer    float64
	Strafe   float64
	Lift     float64
	Drift    bool
	Boost    bool
	Run      bool
}

// Ground is the surface resolver as seen by actors.
type Ground interface {
	SurfaceHeight(x, z float64) float64
}

// RoadLocator finds the nearest road to a point.
type RoadLocator interface {
	Nearest(x, z, maxRadius float64) (world.RoadHit, bool)
}

// Env is the world state an actor steps against. It is rebuilt with every
// world so a tick never mixes frames.
type Env struct {
	Ground Ground
	Roads  RoadLocator
}

// Actor is the active-actor view shared by all variants.
type Actor interface {
	Mode() Mode
	Position() r3.Vector
	Heading() float64
	Speed() float64

	step(dt float64, in Input, env Env)
}

func forward(heading float64) r3.Vector {
	return r3.Vector{X: math.Sin(heading), Z: -math.Cos(heading)}
}

func right(heading float64) r3.Vector {
	return r3.Vector{X: math.Cos(heading), Z: math.Sin(heading)}
}

func horizontal(v r3.Vector) r3.Vector {
	return r3.Vector{X: v.X, Z: v.Z}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func axis(v, lo, hi float64) float64 {
	if !finite(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}

func (in Input) sanitized() Input {
	in.Throttle = axis(in.Throttle, 0, 1)
	in.Brake = axis(in.Brake, 0, 1)
	in.Steer = axis(in.Steer, -1, 1)
	in.Strafe = axis(in.Strafe, -1, 1)
	in.Lift = axis(in.Lift, -1, 1)
	return in
}

// perFrame converts a per-1/60s retention factor to dt.
func perFrame(factor, dt float64) float64 {
	return math.Pow(factor, dt*60)
}

// groundHeight keeps the last good height when the resolver misbehaves.
func groundHeight(env Env, pos r3.Vector, last float64) float64 {
	if env.Ground == nil {
		return last
	}
	h := env.Ground.SurfaceHeight(pos.X, pos.Z)
	if !finite(h) {
		return last
	}
	return h
}
