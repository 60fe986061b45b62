// Package minigame runs the flower challenge and paint-town scoring on top
// of the live world and the active actor.
package minigame

import (
	"errors"
	"time"

	"github.com/golang/geo/r3"

	"github.com/playperu/geodrive/internal/geo"
	"github.com/playperu/geodrive/internal/kinematics"
	"github.com/playperu/geodrive/internal/world"
)

// Env is the environment the player is in.
type Env int

const (
	Earth Env = iota
	Moon
	Space
)

func (e Env) String() string {
	switch e {
	case Earth:
		return "earth"
	case Moon:
		return "moon"
	case Space:
		return "space"
	}
	return "unknown"
}

// Environment reports the game-wide flags challenges depend on.
type Environment interface {
	Environment() Env
	GameStarted() bool
	WorldLoading() bool
}

// Actor is the currently active player actor.
type Actor interface {
	Position() r3.Vector
	Mode() kinematics.Mode
}

// Ground resolves the surface under a point. Non-finite results mean the
// point is unusable.
type Ground interface {
	SurfaceHeight(x, z float64) float64
}

// Field is the world a challenge is played in. It must be taken from a
// single loaded world so roads, ground and frame agree.
type Field struct {
	Roads    []*world.Road
	Ground   Ground
	Frame    geo.Frame
	Location string
}

// FieldSource returns the current Field.
type FieldSource interface {
	Field() Field
}

// Scene places transient markers in the rendered world.
type Scene interface {
	AddMarker(id string, pos r3.Vector)
	RemoveMarker(id string)
}

// Timer is a pending one-shot callback.
type Timer interface {
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// NopScene discards markers.
type NopScene struct{}

func (NopScene) AddMarker(string, r3.Vector) {}
func (NopScene) RemoveMarker(string)         {}

var (
	ErrGameNotRunning = errors.New("game not running")
	ErrNotOnEarth     = errors.New("challenge only available on earth")
	ErrWorldLoading   = errors.New("world is loading")
	ErrNoSpawn        = errors.New("could not place marker")
)

type Tone string

const (
	ToneInfo  Tone = "info"
	ToneError Tone = "error"
	ToneOK    Tone = "ok"
)

// Notice is a short status line for the player.
type Notice struct {
	Text string
	Tone Tone
}

// NoticeFor maps a challenge error to the message shown to the player. A
// nil error means the challenge started.
func NoticeFor(err error) Notice {
	switch {
	case err == nil:
		return Notice{Text: "Find the flower!", Tone: ToneOK}
	case errors.Is(err, ErrGameNotRunning):
		return Notice{Text: "Start the game first.", Tone: ToneInfo}
	case errors.Is(err, ErrNotOnEarth):
		return Notice{Text: "Return to Earth to play.", Tone: ToneInfo}
	case errors.Is(err, ErrWorldLoading):
		return Notice{Text: "Wait for the city to finish loading.", Tone: ToneInfo}
	case errors.Is(err, ErrNoSpawn):
		return Notice{Text: "Could not place the flower here. Try another spot.", Tone: ToneError}
	}
	return Notice{Text: "Something went wrong.", Tone: ToneError}
}
