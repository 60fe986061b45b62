package minigame

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/golang/geo/r3"

	"github.com/playperu/geodrive/internal/geo"
	"github.com/playperu/geodrive/internal/kinematics"
	"github.com/playperu/geodrive/internal/leaderboard"
)

// MarkerID names the flower marker in the scene.
const MarkerID = "flower-marker"

// Reach is how close the actor must get to the marker.
type Reach struct {
	Radius   float64 `env:"RADIUS"`
	Vertical float64 `env:"VERTICAL"`
}

type FlowerConfig struct {
	MinDistance    float64       `env:"MIN_DISTANCE"`
	MaxDistance    float64       `env:"MAX_DISTANCE"`
	RoadSamples    int           `env:"ROAD_SAMPLES"`
	AnnulusSamples int           `env:"ANNULUS_SAMPLES"`
	JitterFactor   float64       `env:"JITTER_FACTOR"`
	GroundReach    Reach         `envPrefix:"GROUND_REACH_"`
	DroneReach     Reach         `envPrefix:"DRONE_REACH_"`
	HUDDecay       time.Duration `env:"HUD_DECAY"`
}

func DefaultFlowerConfig() FlowerConfig {
	return FlowerConfig{
		MinDistance:    120,
		MaxDistance:    2600,
		RoadSamples:    220,
		AnnulusSamples: 160,
		JitterFactor:   0.75,
		GroundReach:    Reach{Radius: 5.5, Vertical: 8},
		DroneReach:     Reach{Radius: 10, Vertical: 20},
		HUDDecay:       6 * time.Second,
	}
}

func (c FlowerConfig) reach(m kinematics.Mode) Reach {
	if m == kinematics.ModeDrone {
		return c.DroneReach
	}
	return c.GroundReach
}

type FlowerState int

const (
	FlowerIdle FlowerState = iota
	FlowerActive
	FlowerComplete
	FlowerStopped
)

func (s FlowerState) String() string {
	switch s {
	case FlowerIdle:
		return "idle"
	case FlowerActive:
		return "active"
	case FlowerComplete:
		return "complete"
	case FlowerStopped:
		return "stopped"
	}
	return "unknown"
}

// Run is one flower challenge attempt.
type Run struct {
	StartedAt time.Time
	Marker    r3.Vector
	Location  string
	Source    string
	Active    bool
}

// Completion describes a finished run.
type Completion struct {
	Location string
	Position geo.LatLon
	Mode     kinematics.Mode
	Elapsed  time.Duration
	FoundAt  time.Time
}

// Entry builds the flower leaderboard entry for c.
func (c Completion) Entry(id, player string) leaderboard.Entry {
	ms := max(c.Elapsed.Milliseconds(), 1)
	return leaderboard.Entry{
		ID:            id,
		ChallengeType: leaderboard.Flower,
		Player:        player,
		TimeMs:        &ms,
		Location:      c.Location,
		Lat:           geo.Round6(c.Position.Lat),
		Lon:           geo.Round6(c.Position.Lon),
		Mode:          c.Mode.String(),
		FoundAt:       c.FoundAt.UTC().Format(time.RFC3339Nano),
	}
}

// FlowerDeps are the collaborators a Flower challenge reads from.
type FlowerDeps struct {
	Env    Environment
	Field  FieldSource
	Actor  Actor
	Scene  Scene
	Clock  Clock
	Rand   *rand.Rand
	Logger *slog.Logger
}

// Flower is the find-the-flower challenge.
type Flower struct {
	cfg    FlowerConfig
	env    Environment
	field  FieldSource
	actor  Actor
	scene  Scene
	clock  Clock
	rng    *rand.Rand
	logger *slog.Logger

	mu         sync.Mutex
	state      FlowerState
	run        Run
	frame      geo.Frame
	hud        Timer
	hudVisible bool

	onComplete func(Completion)
	onChange   func(active bool)
}

func NewFlower(cfg FlowerConfig, deps FlowerDeps) *Flower {
	f := &Flower{
		cfg:    cfg,
		env:    deps.Env,
		field:  deps.Field,
		actor:  deps.Actor,
		scene:  deps.Scene,
		clock:  deps.Clock,
		rng:    deps.Rand,
		logger: deps.Logger,
	}
	if f.scene == nil {
		f.scene = NopScene{}
	}
	if f.clock == nil {
		f.clock = SystemClock{}
	}
	if f.rng == nil {
		f.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if f.logger == nil {
		f.logger = slog.New(slog.DiscardHandler)
	}
	return f
}

// OnComplete registers the handler for finished runs. It is called without
// the challenge lock held.
func (f *Flower) OnComplete(fn func(Completion)) { f.onComplete = fn }

// OnActiveChange registers a handler for run activity changes.
func (f *Flower) OnActiveChange(fn func(active bool)) { f.onChange = fn }

func (f *Flower) State() FlowerState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flower) Active() bool { return f.State() == FlowerActive }

// Run returns the latest run and whether one has been started.
func (f *Flower) Run() (Run, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.run, f.state != FlowerIdle
}

// HUDVisible reports whether the challenge HUD should be shown.
func (f *Flower) HUDVisible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hudVisible
}

func (f *Flower) changed(active bool) {
	if f.onChange != nil {
		f.onChange(active)
	}
}

// Start places a new marker and begins a run, replacing any active one.
// On error nothing changes.
func (f *Flower) Start(source string) error {
	switch {
	case !f.env.GameStarted():
		return ErrGameNotRunning
	case f.env.Environment() != Earth:
		return ErrNotOnEarth
	case f.env.WorldLoading():
		return ErrWorldLoading
	}

	field := f.field.Field()
	from := f.actor.Position()

	f.mu.Lock()
	marker, ok := f.spawn(field, from)
	if !ok {
		f.mu.Unlock()
		f.logger.Info("flower spawn failed", "location", field.Location, "source", source)
		return ErrNoSpawn
	}

	if f.state == FlowerActive {
		f.scene.RemoveMarker(MarkerID)
	}
	if f.hud != nil {
		f.hud.Stop()
		f.hud = nil
	}
	f.state = FlowerActive
	f.run = Run{
		StartedAt: f.clock.Now(),
		Marker:    marker,
		Location:  field.Location,
		Source:    source,
		Active:    true,
	}
	f.frame = field.Frame
	f.hudVisible = true
	f.scene.AddMarker(MarkerID, marker)
	f.mu.Unlock()

	f.logger.Info("flower challenge started",
		"location", field.Location, "source", source,
		"distance", math.Round(horizontalDistance(from, marker)))
	f.changed(true)
	return nil
}

// spawn picks a marker position. Road-biased samples are tried first, then
// the annulus around from.
func (f *Flower) spawn(field Field, from r3.Vector) (r3.Vector, bool) {
	if field.Ground == nil {
		return r3.Vector{}, false
	}
	minD, maxD := f.cfg.MinDistance, f.cfg.MaxDistance

	try := func(x, z float64) (r3.Vector, bool) {
		d := math.Hypot(x-from.X, z-from.Z)
		if d < minD || d > maxD {
			return r3.Vector{}, false
		}
		y := field.Ground.SurfaceHeight(x, z)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return r3.Vector{}, false
		}
		return r3.Vector{X: x, Y: y, Z: z}, true
	}

	if len(field.Roads) > 0 {
		for range f.cfg.RoadSamples {
			road := field.Roads[f.rng.IntN(len(field.Roads))]
			if len(road.Points) == 0 {
				continue
			}
			p := road.Points[f.rng.IntN(len(road.Points))]
			spread := f.cfg.JitterFactor * road.Width
			x := p.X + (f.rng.Float64()*2-1)*spread
			z := p.Z + (f.rng.Float64()*2-1)*spread
			if v, ok := try(x, z); ok {
				return v, true
			}
		}
	}

	for range f.cfg.AnnulusSamples {
		angle := f.rng.Float64() * 2 * math.Pi
		r := minD + f.rng.Float64()*(maxD-minD)
		if v, ok := try(from.X+math.Cos(angle)*r, from.Z+math.Sin(angle)*r); ok {
			return v, true
		}
	}
	return r3.Vector{}, false
}

// Update checks the active run against the actor's current position.
func (f *Flower) Update(dt float64) {
	f.mu.Lock()
	if f.state != FlowerActive {
		f.mu.Unlock()
		return
	}

	if !f.env.GameStarted() || f.env.Environment() != Earth {
		loc := f.run.Location
		f.endLocked(FlowerStopped)
		f.mu.Unlock()
		f.logger.Info("flower challenge abandoned", "location", loc)
		f.changed(false)
		return
	}

	pos := f.actor.Position()
	mode := f.actor.Mode()
	reach := f.cfg.reach(mode)
	if horizontalDistance(pos, f.run.Marker) > reach.Radius || math.Abs(pos.Y-f.run.Marker.Y) > reach.Vertical {
		f.mu.Unlock()
		return
	}

	now := f.clock.Now()
	c := Completion{
		Location: f.run.Location,
		Position: f.frame.ToGeo(pos.X, pos.Z),
		Mode:     mode,
		Elapsed:  now.Sub(f.run.StartedAt),
		FoundAt:  now,
	}
	f.endLocked(FlowerComplete)
	f.hud = f.clock.AfterFunc(f.cfg.HUDDecay, f.hideHUD)
	f.mu.Unlock()

	f.logger.Info("flower found", "location", c.Location, "mode", mode.String(), "elapsed_ms", c.Elapsed.Milliseconds())
	f.changed(false)
	if f.onComplete != nil {
		f.onComplete(c)
	}
}

// Stop abandons the active run. It does nothing when no run is active.
func (f *Flower) Stop() {
	f.mu.Lock()
	if f.state != FlowerActive {
		f.mu.Unlock()
		return
	}
	f.endLocked(FlowerStopped)
	f.mu.Unlock()
	f.changed(false)
}

func (f *Flower) endLocked(s FlowerState) {
	f.state = s
	f.run.Active = false
	if s == FlowerStopped {
		f.hudVisible = false
	}
	f.scene.RemoveMarker(MarkerID)
}

func (f *Flower) hideHUD() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != FlowerActive {
		f.hudVisible = false
	}
	f.hud = nil
}

func horizontalDistance(a, b r3.Vector) float64 {
	return math.Hypot(a.X-b.X, a.Z-b.Z)
}
